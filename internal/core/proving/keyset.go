package proving

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/weisyn/zkid/pkg/interfaces/zkid"
	"github.com/weisyn/zkid/pkg/types"
)

// KeySet 仅持有验证密钥的证明系统，用于只做验证的部署
//
// 验证密钥来自 snarkjs 导出的 verification_key.json，按电路标识选取。
type KeySet struct {
	keys map[string]*PreparedKey
}

// 确保实现接口
var _ zkid.ProvingSystem = (*KeySet)(nil)

// NewKeySet 由电路标识到验证密钥的映射创建
func NewKeySet(keys map[string]types.VerificationKey) (*KeySet, error) {
	ks := &KeySet{keys: make(map[string]*PreparedKey, len(keys))}
	for id, vk := range keys {
		prepared, err := PrepareVerificationKey(vk)
		if err != nil {
			return nil, fmt.Errorf("circuit %s: %w", id, err)
		}
		ks.keys[id] = prepared
	}
	return ks, nil
}

// LoadKeySet 读取目录中的 <circuitID>.vkey.json
func LoadKeySet(dir string) (*KeySet, error) {
	keys := make(map[string]types.VerificationKey)
	for _, ref := range KnownCircuits() {
		path := filepath.Join(dir, ref.ID()+snarkjsKeySuffix)
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		var vk types.VerificationKey
		if err := json.Unmarshal(data, &vk); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidVerificationKey, path, err)
		}
		keys[ref.ID()] = vk
	}
	return NewKeySet(keys)
}

// Circuits 已加载的电路标识
func (k *KeySet) Circuits() []string {
	ids := make([]string, 0, len(k.keys))
	for id := range k.keys {
		ids = append(ids, id)
	}
	return ids
}

// Has 是否持有电路的验证密钥
func (k *KeySet) Has(ref CircuitRef) bool {
	_, ok := k.keys[ref.ID()]
	return ok
}

// Prove 不支持
func (k *KeySet) Prove(context.Context, types.ClaimType, bool, types.CircuitInputs) (*types.Groth16Proof, []string, error) {
	return nil, nil, ErrProvingUnsupported
}

// Verify 以对应验证密钥校验证明
func (k *KeySet) Verify(ctx context.Context, claimType types.ClaimType, signed bool, proof types.Groth16Proof, publicSignals []string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	id := types.CircuitID(claimType, signed)
	key, ok := k.keys[id]
	if !ok {
		return false, WrapCircuitNotFoundError(id)
	}
	return VerifyGroth16(key, proof, publicSignals)
}
