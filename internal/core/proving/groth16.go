package proving

import (
	"fmt"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/bn254"

	"github.com/weisyn/zkid/pkg/types"
	"github.com/weisyn/zkid/pkg/utils/field"
)

// PreparedKey 解码后的 Groth16 验证密钥
type PreparedKey struct {
	Alpha bn254.G1Affine
	Beta  bn254.G2Affine
	Gamma bn254.G2Affine
	Delta bn254.G2Affine
	IC    []bn254.G1Affine
}

// NPublic 公开输入个数
func (k *PreparedKey) NPublic() int {
	return len(k.IC) - 1
}

// PrepareVerificationKey 解码 snarkjs verification_key.json
func PrepareVerificationKey(vk types.VerificationKey) (*PreparedKey, error) {
	if vk.Protocol != "" && !strings.EqualFold(vk.Protocol, "groth16") {
		return nil, fmt.Errorf("%w: protocol %q", ErrInvalidVerificationKey, vk.Protocol)
	}
	if vk.Curve != "" && !isBN254(vk.Curve) {
		return nil, fmt.Errorf("%w: curve %q", ErrInvalidVerificationKey, vk.Curve)
	}
	if len(vk.IC) == 0 {
		return nil, fmt.Errorf("%w: empty IC", ErrInvalidVerificationKey)
	}
	if vk.NPublic != 0 && vk.NPublic != len(vk.IC)-1 {
		return nil, fmt.Errorf("%w: nPublic=%d but IC has %d points", ErrInvalidVerificationKey, vk.NPublic, len(vk.IC))
	}

	var (
		k   PreparedKey
		err error
	)
	if k.Alpha, err = ParseG1(vk.Alpha1); err != nil {
		return nil, fmt.Errorf("%w: vk_alpha_1: %v", ErrInvalidVerificationKey, err)
	}
	if k.Beta, err = ParseG2(vk.Beta2); err != nil {
		return nil, fmt.Errorf("%w: vk_beta_2: %v", ErrInvalidVerificationKey, err)
	}
	if k.Gamma, err = ParseG2(vk.Gamma2); err != nil {
		return nil, fmt.Errorf("%w: vk_gamma_2: %v", ErrInvalidVerificationKey, err)
	}
	if k.Delta, err = ParseG2(vk.Delta2); err != nil {
		return nil, fmt.Errorf("%w: vk_delta_2: %v", ErrInvalidVerificationKey, err)
	}
	k.IC = make([]bn254.G1Affine, len(vk.IC))
	for i := range vk.IC {
		if k.IC[i], err = ParseG1(vk.IC[i]); err != nil {
			return nil, fmt.Errorf("%w: IC[%d]: %v", ErrInvalidVerificationKey, i, err)
		}
	}
	return &k, nil
}

func isBN254(curve string) bool {
	switch strings.ToLower(curve) {
	case "bn128", "bn254", "altbn128", "alt_bn128":
		return true
	}
	return false
}

// VerifyGroth16 校验 snarkjs 格式的 Groth16 证明
//
// 检查 e(A,B) = e(α,β)·e(vk_x,γ)·e(C,δ)，其中 vk_x = IC[0] + Σ sᵢ·IC[i+1]。
// 证明点或公开信号非法时返回 false，只有配对计算本身失败才返回错误。
func VerifyGroth16(key *PreparedKey, proof types.Groth16Proof, publicSignals []string) (bool, error) {
	if key == nil {
		return false, ErrInvalidVerificationKey
	}
	if len(publicSignals) != key.NPublic() {
		return false, nil
	}

	a, err := ParseG1(proof.PiA)
	if err != nil {
		return false, nil
	}
	b, err := ParseG2(proof.PiB)
	if err != nil {
		return false, nil
	}
	c, err := ParseG1(proof.PiC)
	if err != nil {
		return false, nil
	}

	var vkx bn254.G1Jac
	vkx.FromAffine(&key.IC[0])
	for i, s := range publicSignals {
		v, err := field.Parse(s)
		if err != nil {
			return false, nil
		}
		if v.Sign() == 0 {
			continue
		}
		var term bn254.G1Jac
		term.FromAffine(&key.IC[i+1])
		term.ScalarMultiplication(&term, v)
		vkx.AddAssign(&term)
	}
	var vkxAff, negA bn254.G1Affine
	vkxAff.FromJacobian(&vkx)
	negA.Neg(&a)

	ok, err := bn254.PairingCheck(
		[]bn254.G1Affine{negA, key.Alpha, vkxAff, c},
		[]bn254.G2Affine{b, key.Beta, key.Gamma, key.Delta},
	)
	if err != nil {
		return false, fmt.Errorf("%w: pairing: %v", types.ErrProvingSystem, err)
	}
	return ok, nil
}
