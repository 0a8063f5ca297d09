package issuer

import (
	"context"
	"encoding/hex"
	"sync"

	"github.com/weisyn/zkid/pkg/interfaces/zkid"
	"github.com/weisyn/zkid/pkg/types"
)

// validate 检查记录字段，公钥必须为非空 hex
func validate(rec types.IssuerRecord) error {
	if rec.Name == "" {
		return WrapInvalidIssuerError(rec.Name, "empty name")
	}
	if rec.PublicKey == "" {
		return WrapInvalidIssuerError(rec.Name, "empty public key")
	}
	if _, err := hex.DecodeString(rec.PublicKey); err != nil {
		return WrapInvalidIssuerError(rec.Name, "public key is not hex")
	}
	switch rec.Status {
	case types.IssuerActive, types.IssuerSuspended, types.IssuerRevoked:
	default:
		return WrapInvalidIssuerError(rec.Name, "unknown status "+string(rec.Status))
	}
	if rec.ValidFrom != nil && rec.ValidUntil != nil && !rec.ValidFrom.Before(*rec.ValidUntil) {
		return WrapInvalidIssuerError(rec.Name, "validFrom must precede validUntil")
	}
	return nil
}

// MemoryRegistry 进程内发行方注册表
type MemoryRegistry struct {
	mu      sync.RWMutex
	records map[string]types.IssuerRecord
}

// 确保实现接口
var _ zkid.IssuerRegistry = (*MemoryRegistry)(nil)

// NewMemoryRegistry 创建内存注册表，可选初始记录
func NewMemoryRegistry(records ...types.IssuerRecord) (*MemoryRegistry, error) {
	r := &MemoryRegistry{records: make(map[string]types.IssuerRecord, len(records))}
	for _, rec := range records {
		if err := r.Register(context.Background(), rec); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register 新增或覆盖记录
func (r *MemoryRegistry) Register(_ context.Context, rec types.IssuerRecord) error {
	if err := validate(rec); err != nil {
		return err
	}
	r.mu.Lock()
	r.records[rec.Name] = rec
	r.mu.Unlock()
	return nil
}

// Remove 删除记录
func (r *MemoryRegistry) Remove(_ context.Context, name string) error {
	r.mu.Lock()
	delete(r.records, name)
	r.mu.Unlock()
	return nil
}

// GetIssuer 查询发行方，不存在时返回 nil
func (r *MemoryRegistry) GetIssuer(_ context.Context, name string) (*types.IssuerRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[name]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}
