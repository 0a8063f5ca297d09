package verifier

import (
	"encoding/json"

	"github.com/weisyn/zkid/pkg/types"
)

// RequestKind 请求变体
type RequestKind string

const (
	RequestSingle RequestKind = "single"
	RequestMulti  RequestKind = "multi"
	RequestSigned RequestKind = "signed"
)

// MaxClaimsPerBundle 多声明包的声明数量上限
const MaxClaimsPerBundle = 8

// Request 边界解析后的强类型请求，Kind 决定哪个字段有效
type Request struct {
	Kind   RequestKind
	Single *types.ProofResponse
	Multi  *types.MultiClaimResponse
	Signed *types.SignedProofRequest
}

// ParseRequest 将 JSON 请求体一次性解析为强类型请求
//
// 📋 **变体判定**：
//   - 含 "proofs" 字段：多声明包
//   - 含 "issuer" 字段：签名证明
//   - 其余：单声明证明
//
// 只做形状检查（字段存在、证明点坐标个数）；取值范围在编排器中校验。
func ParseRequest(data []byte) (Request, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return Request{}, newError(KindValidation, "malformed request body: %v", err)
	}

	if _, ok := probe["proofs"]; ok {
		var bundle types.MultiClaimResponse
		if err := json.Unmarshal(data, &bundle); err != nil {
			return Request{}, newError(KindValidation, "malformed multi-claim bundle: %v", err)
		}
		if err := checkBundleShape(&bundle); err != nil {
			return Request{}, err
		}
		return Request{Kind: RequestMulti, Multi: &bundle}, nil
	}

	if _, ok := probe["issuer"]; ok {
		var signed types.SignedProofRequest
		if err := json.Unmarshal(data, &signed); err != nil {
			return Request{}, newError(KindValidation, "malformed signed proof request: %v", err)
		}
		if signed.Issuer == "" {
			return Request{}, newError(KindValidation, "issuer is required")
		}
		if err := checkResponseShape(&signed.ProofResponse); err != nil {
			return Request{}, err
		}
		return Request{Kind: RequestSigned, Signed: &signed}, nil
	}

	var single types.ProofResponse
	if err := json.Unmarshal(data, &single); err != nil {
		return Request{}, newError(KindValidation, "malformed proof response: %v", err)
	}
	if err := checkResponseShape(&single); err != nil {
		return Request{}, err
	}
	return Request{Kind: RequestSingle, Single: &single}, nil
}

func checkBundleShape(b *types.MultiClaimResponse) error {
	if len(b.Proofs) == 0 {
		return newError(KindValidation, "bundle contains no proofs")
	}
	if len(b.Proofs) > MaxClaimsPerBundle {
		return newError(KindValidation, "bundle contains %d proofs, limit %d", len(b.Proofs), MaxClaimsPerBundle)
	}
	// 成员可省略 nonce/时间戳，继承包级取值
	for i := range b.Proofs {
		p := &b.Proofs[i]
		if p.Nonce == "" {
			p.Nonce = b.Nonce
		}
		if p.RequestTimestamp.IsZero() {
			p.RequestTimestamp = b.RequestTimestamp
		}
		if err := checkResponseShape(p); err != nil {
			return err
		}
	}
	return nil
}

func checkResponseShape(r *types.ProofResponse) error {
	switch {
	case r.ClaimType == "":
		return newError(KindValidation, "claimType is required")
	case r.Nonce == "":
		return newError(KindValidation, "nonce is required")
	case r.RequestTimestamp.IsZero():
		return newError(KindValidation, "requestTimestamp is required")
	case len(r.PublicSignals) == 0:
		return newError(KindValidation, "publicSignals is required")
	}
	return checkProofShape(&r.Proof)
}

func checkProofShape(p *types.Groth16Proof) error {
	if len(p.PiA) < 2 || len(p.PiC) < 2 {
		return newError(KindValidation, "proof.pi_a and proof.pi_c need at least 2 coordinates")
	}
	if len(p.PiB) < 2 || len(p.PiB[0]) < 2 || len(p.PiB[1]) < 2 {
		return newError(KindValidation, "proof.pi_b needs at least 2x2 coordinates")
	}
	return nil
}
