package proving

import (
	"fmt"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/mimc"

	"github.com/weisyn/zkid/pkg/types"
)

// yearBits 年份差的范围检查位宽，差值必须落在 [0, 2^16)
const yearBits = 16

// timestampBits 请求时间戳（Unix 毫秒）的位宽
const timestampBits = 64

// ClaimCircuit 声明电路
//
// 🎯 **验证目标**：
//   - credentialHash = MiMC(birthYear, nationality, salt[, issuerKey])
//   - 年龄类：currentYear - birthYear ≥ minAge
//   - 国籍类：nationality = targetNationality
//   - 可吊销类：credentialHash 沿 Merkle 路径计算得到 merkleRoot
//
// 📋 **公开输入**：Public 的顺序与 types.LayoutFor 一致；nonce 与 requestTimestamp
// 不参与约束，仅作为公开输入被证明绑定。
//
// ⚠️ **必须使用 NewClaimCircuit 创建**，切片长度在编译时确定。
type ClaimCircuit struct {
	Public []frontend.Variable `gnark:",public"`

	BirthYear   frontend.Variable
	Nationality frontend.Variable
	Salt        frontend.Variable

	PathIndices []frontend.Variable
	Siblings    []frontend.Variable

	ClaimType types.ClaimType `gnark:"-"`
	Signed    bool            `gnark:"-"`
	Depth     int             `gnark:"-"`
}

// 确保实现接口
var _ frontend.Circuit = (*ClaimCircuit)(nil)

// NewClaimCircuit 按声明类型分配电路切片
func NewClaimCircuit(claimType types.ClaimType, signed bool, depth int) (*ClaimCircuit, error) {
	layout, ok := types.LayoutFor(claimType, signed)
	if !ok {
		return nil, WrapCircuitNotFoundError(types.CircuitID(claimType, signed))
	}
	c := &ClaimCircuit{
		Public:    make([]frontend.Variable, layout.Count),
		ClaimType: claimType,
		Signed:    signed,
		Depth:     depth,
	}
	if claimType.IsRevocable() {
		if depth <= 0 {
			return nil, fmt.Errorf("%w: revocable circuit needs positive depth", types.ErrConfig)
		}
		c.PathIndices = make([]frontend.Variable, depth)
		c.Siblings = make([]frontend.Variable, depth)
	}
	return c, nil
}

// Define 定义电路约束
func (c *ClaimCircuit) Define(api frontend.API) error {
	layout, ok := types.LayoutFor(c.ClaimType, c.Signed)
	if !ok {
		return WrapCircuitNotFoundError(types.CircuitID(c.ClaimType, c.Signed))
	}
	if len(c.Public) != layout.Count {
		return fmt.Errorf("public input count %d, expected %d", len(c.Public), layout.Count)
	}

	h, err := mimc.NewMiMC(api)
	if err != nil {
		return err
	}

	// 1. 凭证承诺
	h.Write(c.BirthYear, c.Nationality, c.Salt)
	if c.Signed {
		h.Write(c.Public[layout.IssuerKey])
	}
	credential := h.Sum()
	api.AssertIsEqual(credential, c.Public[layout.CredentialHash])

	// 2. 谓词
	if c.ClaimType.IsAge() {
		age := api.Sub(c.Public[layout.CurrentYear], c.BirthYear)
		api.ToBinary(age, yearBits)
		api.ToBinary(api.Sub(age, c.Public[layout.MinAge]), yearBits)
	} else {
		api.AssertIsEqual(c.Nationality, c.Public[layout.TargetNationality])
	}

	// 3. 成员资格
	if c.ClaimType.IsRevocable() {
		if len(c.Siblings) != c.Depth || len(c.PathIndices) != c.Depth {
			return fmt.Errorf("merkle path length %d/%d, expected %d", len(c.Siblings), len(c.PathIndices), c.Depth)
		}
		current := credential
		for i := range c.Siblings {
			bit := c.PathIndices[i]
			api.AssertIsBoolean(bit)
			left := api.Select(bit, c.Siblings[i], current)
			right := api.Select(bit, current, c.Siblings[i])
			h.Reset()
			h.Write(left, right)
			current = h.Sum()
		}
		api.AssertIsEqual(current, c.Public[layout.MerkleRoot])
	}

	// 4. 挑战绑定：nonce 与时间戳必须进入约束，否则验证密钥中对应的 IC 点为零
	api.Mul(c.Public[layout.Nonce], c.Public[layout.Nonce])
	api.ToBinary(c.Public[layout.RequestTimestamp], timestampBits)
	return nil
}
