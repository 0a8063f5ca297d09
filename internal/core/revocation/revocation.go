// Package revocation implements the credential blacklist consulted for non-accumulator claim types.
package revocation

import (
	"context"
	"fmt"

	"github.com/weisyn/zkid/internal/core/infrastructure/log"
	kvInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/kvstore"
	logInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkid/pkg/interfaces/zkid"
	"github.com/weisyn/zkid/pkg/types"
	"github.com/weisyn/zkid/pkg/utils/field"
)

// DefaultSetKey 黑名单集合键
const DefaultSetKey = "revoked"

// ErrInvalidCommitment 承诺不是规范域元素
var ErrInvalidCommitment = fmt.Errorf("%w: invalid commitment", types.ErrValidation)

// Store 基于共享键值存储集合的吊销黑名单
//
// 承诺在写入与查询前统一规范化，十六进制与十进制写法指向同一条记录。
type Store struct {
	client kvInterface.Client
	key    string
	logger logInterface.Logger
}

// 确保实现接口
var _ zkid.RevocationStore = (*Store)(nil)

// NewStore 创建吊销黑名单
func NewStore(client kvInterface.Client, logger logInterface.Logger) *Store {
	return &Store{client: client, key: DefaultSetKey, logger: log.OrNop(logger)}
}

// Revoke 吊销承诺，重复吊销无副作用
func (s *Store) Revoke(ctx context.Context, commitment string) error {
	c, err := normalize(commitment)
	if err != nil {
		return err
	}
	added, err := s.client.SAdd(ctx, s.key, c)
	if err != nil {
		return err
	}
	if added > 0 {
		s.logger.Infof("凭证已吊销: commitment=%s", c)
	}
	return nil
}

// Reinstate 恢复承诺
func (s *Store) Reinstate(ctx context.Context, commitment string) error {
	c, err := normalize(commitment)
	if err != nil {
		return err
	}
	removed, err := s.client.SRem(ctx, s.key, c)
	if err != nil {
		return err
	}
	if removed > 0 {
		s.logger.Infof("凭证已恢复: commitment=%s", c)
	}
	return nil
}

// IsRevoked 承诺是否已吊销
func (s *Store) IsRevoked(ctx context.Context, commitment string) (bool, error) {
	c, err := normalize(commitment)
	if err != nil {
		return false, err
	}
	return s.client.SIsMember(ctx, s.key, c)
}

// Count 已吊销数量
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.client.SCard(ctx, s.key)
}

func normalize(commitment string) (string, error) {
	c, err := field.Normalize(commitment)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCommitment, err)
	}
	return c, nil
}
