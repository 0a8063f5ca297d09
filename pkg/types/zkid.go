// Package types provides zk-id verification type definitions.
package types

import (
	"time"
)

// ============================================================================
//                              声明类型
// ============================================================================

// ClaimType 证明所声明的谓词类别
type ClaimType string

const (
	// ClaimAge 年龄谓词：birthYear 推导的年龄 ≥ minAge
	ClaimAge ClaimType = "age"
	// ClaimNationality 国籍谓词：nationality == targetNationality
	ClaimNationality ClaimType = "nationality"
	// ClaimAgeRevocable 可吊销年龄谓词：额外证明凭证承诺位于累加器内
	ClaimAgeRevocable ClaimType = "age-revocable"
	// ClaimNationalityRevocable 可吊销国籍谓词
	ClaimNationalityRevocable ClaimType = "nationality-revocable"
)

// KnownClaimTypes 返回全部已知声明类型（白名单默认值）
func KnownClaimTypes() []ClaimType {
	return []ClaimType{ClaimAge, ClaimNationality, ClaimAgeRevocable, ClaimNationalityRevocable}
}

// Known 是否为已知声明类型
func (c ClaimType) Known() bool {
	switch c {
	case ClaimAge, ClaimNationality, ClaimAgeRevocable, ClaimNationalityRevocable:
		return true
	}
	return false
}

// IsRevocable 是否需要累加器成员资格
func (c ClaimType) IsRevocable() bool {
	return c == ClaimAgeRevocable || c == ClaimNationalityRevocable
}

// IsAge 是否为年龄类声明
func (c ClaimType) IsAge() bool {
	return c == ClaimAge || c == ClaimAgeRevocable
}

// CircuitID 返回声明类型对应的电路标识
//
// 签名变体追加 "-signed" 后缀，如 "age-revocable-signed"。
func CircuitID(claimType ClaimType, signed bool) string {
	if signed {
		return string(claimType) + "-signed"
	}
	return string(claimType)
}

// ============================================================================
//                              累加器数据
// ============================================================================

// Witness Merkle 成员见证
//
// PathIndices[i] 为 0 表示第 i 层当前节点是左孩子，1 表示右孩子；
// Siblings[i] 为同层兄弟节点值。长度均等于树深度。
type Witness struct {
	Root        string   `json:"root"`
	PathIndices []int    `json:"pathIndices"`
	Siblings    []string `json:"siblings"`
	Leaf        string   `json:"leaf"`
	Index       int      `json:"index"`
}

// RootInfo 累加器根信息
type RootInfo struct {
	Root      string    `json:"root"`
	Version   uint64    `json:"version"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LeafEntry 叶子位置与承诺
type LeafEntry struct {
	Index      int    `json:"index"`
	Commitment string `json:"commitment"`
}

// AccumulatorSnapshot 累加器叶子集合快照
//
// 快照只包含非空叶子及其精确位置，恢复后根必须与 Root 一致。
type AccumulatorSnapshot struct {
	Depth     int         `json:"depth"`
	Root      string      `json:"root"`
	Version   uint64      `json:"version"`
	UpdatedAt time.Time   `json:"updatedAt"`
	Leaves    []LeafEntry `json:"leaves"`
}

// SyncEvent 累加器变更通知（仅元数据，不含被修改的承诺）
type SyncEvent struct {
	Root      string    `json:"root"`
	Version   uint64    `json:"version"`
	UpdatedAt time.Time `json:"updatedAt"`
	Source    string    `json:"source"`
}

// ============================================================================
//                              防重放 / 限流
// ============================================================================

// ChallengeRecord 服务端签发的挑战
type ChallengeRecord struct {
	Nonce      string `json:"nonce"`
	IssuedAtMs int64  `json:"issuedAtMs"`
	TTLMs      int64  `json:"ttlMs"`
}

// ExpiresAt 挑战过期时间
func (r ChallengeRecord) ExpiresAt() time.Time {
	return time.UnixMilli(r.IssuedAtMs + r.TTLMs)
}

// RateLimitDecision 限流判定结果
type RateLimitDecision struct {
	Allowed    bool          `json:"allowed"`
	Count      int64         `json:"count"`
	Limit      int64         `json:"limit"`
	RetryAfter time.Duration `json:"retryAfter"`
}

// ============================================================================
//                              证明与请求
// ============================================================================

// Groth16Proof snarkjs 格式的 Groth16 证明
//
// pi_a / pi_c 至少两个坐标，pi_b 至少 2×2；snarkjs 追加的射影坐标被接受并忽略。
type Groth16Proof struct {
	PiA      []string   `json:"pi_a"`
	PiB      [][]string `json:"pi_b"`
	PiC      []string   `json:"pi_c"`
	Protocol string     `json:"protocol"`
	Curve    string     `json:"curve"`
}

// VerificationKey snarkjs verification_key.json 格式
type VerificationKey struct {
	Protocol string     `json:"protocol"`
	Curve    string     `json:"curve"`
	NPublic  int        `json:"nPublic"`
	Alpha1   []string   `json:"vk_alpha_1"`
	Beta2    [][]string `json:"vk_beta_2"`
	Gamma2   [][]string `json:"vk_gamma_2"`
	Delta2   [][]string `json:"vk_delta_2"`
	IC       [][]string `json:"IC"`
}

// ProofResponse 持有者提交的单声明证明
type ProofResponse struct {
	ClaimType        ClaimType    `json:"claimType"`
	Proof            Groth16Proof `json:"proof"`
	PublicSignals    []string     `json:"publicSignals"`
	Nonce            string       `json:"nonce"`
	RequestTimestamp time.Time    `json:"requestTimestamp"`
	CredentialID     string       `json:"credentialId"`
}

// Signal 按下标读取公开信号，越界返回空串
func (r *ProofResponse) Signal(idx int) string {
	if idx < 0 || idx >= len(r.PublicSignals) {
		return ""
	}
	return r.PublicSignals[idx]
}

// SignedProofRequest 绑定发行方公钥的证明
type SignedProofRequest struct {
	ProofResponse
	Issuer string `json:"issuer"`
}

// MultiClaimResponse 共享同一 nonce/时间戳的多声明证明包
type MultiClaimResponse struct {
	Proofs           []ProofResponse `json:"proofs"`
	Nonce            string          `json:"nonce"`
	RequestTimestamp time.Time       `json:"requestTimestamp"`
}

// ============================================================================
//                              验证结果
// ============================================================================

// VerificationResult 单声明验证结果（不含任何私有字段）
type VerificationResult struct {
	Verified          bool      `json:"verified"`
	ClaimType         ClaimType `json:"claimType"`
	MinAge            *int      `json:"minAge,omitempty"`
	TargetNationality *int      `json:"targetNationality,omitempty"`
	Error             string    `json:"error,omitempty"`
}

// MultiClaimResult 多声明验证结果，Verified 为各声明结果的与
type MultiClaimResult struct {
	Verified bool                 `json:"verified"`
	Results  []VerificationResult `json:"results"`
	Error    string               `json:"error,omitempty"`
}

// VerificationEvent 遥测事件
type VerificationEvent struct {
	ClaimType ClaimType     `json:"claimType"`
	ClientID  string        `json:"clientId"`
	Verified  bool          `json:"verified"`
	ErrorKind string        `json:"errorKind,omitempty"`
	Duration  time.Duration `json:"duration"`
	Timestamp time.Time     `json:"timestamp"`
}

// ============================================================================
//                              发行方
// ============================================================================

// IssuerStatus 发行方状态
type IssuerStatus string

const (
	IssuerActive    IssuerStatus = "active"
	IssuerSuspended IssuerStatus = "suspended"
	IssuerRevoked   IssuerStatus = "revoked"
)

// IssuerRecord 发行方信任记录
type IssuerRecord struct {
	Name       string       `json:"name"`
	PublicKey  string       `json:"publicKey"` // hex 编码
	Status     IssuerStatus `json:"status"`
	ValidFrom  *time.Time   `json:"validFrom,omitempty"`
	ValidUntil *time.Time   `json:"validUntil,omitempty"`
}

// ActiveAt 发行方在 now 时刻是否可信
func (r *IssuerRecord) ActiveAt(now time.Time) bool {
	if r == nil || r.Status != IssuerActive {
		return false
	}
	if r.ValidFrom != nil && now.Before(*r.ValidFrom) {
		return false
	}
	if r.ValidUntil != nil && !now.Before(*r.ValidUntil) {
		return false
	}
	return true
}

// ============================================================================
//                              证明输入
// ============================================================================

// CircuitInputs 持有者侧生成证明所需的全部输入
//
// 私有字段（BirthYear、Nationality、Salt、Witness 路径）只进入见证，不出现在公开信号中。
type CircuitInputs struct {
	// 私有属性
	BirthYear   int    `json:"birthYear"`
	Nationality int    `json:"nationality"` // ISO 3166-1 数字代码
	Salt        string `json:"salt"`        // 域元素（十进制）

	// 公开谓词参数
	MinAge            int `json:"minAge,omitempty"`
	CurrentYear       int `json:"currentYear,omitempty"`
	TargetNationality int `json:"targetNationality,omitempty"`

	// 挑战绑定
	Nonce            string    `json:"nonce"`
	RequestTimestamp time.Time `json:"requestTimestamp"`

	// 签名变体：发行方公钥
	IssuerPublicKey []byte `json:"issuerPublicKey,omitempty"`

	// 可吊销变体：凭证承诺在累加器中的成员见证
	Witness *Witness `json:"witness,omitempty"`
}
