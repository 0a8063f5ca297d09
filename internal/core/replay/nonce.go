package replay

import (
	"context"
	"time"

	kvInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/kvstore"
	"github.com/weisyn/zkid/pkg/interfaces/zkid"
)

// NonceStore 已使用 nonce 的标记存储，值本身无意义
type NonceStore struct {
	client         kvInterface.Client
	maxNonceLength int
}

// 确保实现接口
var _ zkid.NonceStore = (*NonceStore)(nil)

// NewNonceStore 创建 nonce 存储
func NewNonceStore(client kvInterface.Client) *NonceStore {
	return &NonceStore{client: client, maxNonceLength: MaxNonceLength}
}

// Has nonce 是否已被标记
func (s *NonceStore) Has(ctx context.Context, nonce string) (bool, error) {
	if err := validateNonce(nonce, s.maxNonceLength); err != nil {
		return false, err
	}
	return s.client.Exists(ctx, nonceKeyPrefix+nonce)
}

// Add 标记 nonce
func (s *NonceStore) Add(ctx context.Context, nonce string, ttl time.Duration) error {
	if err := validateNonce(nonce, s.maxNonceLength); err != nil {
		return err
	}
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	return s.client.Set(ctx, nonceKeyPrefix+nonce, "1", ttl)
}

// CheckAndAdd 以 SET NX 原子地检查并标记，首次标记返回 true
func (s *NonceStore) CheckAndAdd(ctx context.Context, nonce string, ttl time.Duration) (bool, error) {
	if err := validateNonce(nonce, s.maxNonceLength); err != nil {
		return false, err
	}
	if ttl <= 0 {
		return false, ErrInvalidTTL
	}
	return s.client.SetNX(ctx, nonceKeyPrefix+nonce, "1", ttl)
}
