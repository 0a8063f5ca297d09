package syncer

import (
	"context"
	"encoding/json"
	"fmt"

	kvInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/kvstore"
	"github.com/weisyn/zkid/pkg/types"
)

// DefaultSnapshotKey 共享快照键
const DefaultSnapshotKey = "accumulator:snapshot"

// SnapshotStore 共享键值存储中的累加器快照，集群内吊销状态的权威来源
type SnapshotStore struct {
	client kvInterface.Client
	key    string
}

// NewSnapshotStore 创建快照存储
func NewSnapshotStore(client kvInterface.Client) *SnapshotStore {
	return &SnapshotStore{client: client, key: DefaultSnapshotKey}
}

// Save 以 base 为期望版本写入快照
//
// 共享快照不存在，或其版本恰为 base 时才写入；否则返回 ErrSnapshotConflict。
// 读取与写入之间若被其它写者抢先，比较并交换同样失败，保证版本号与根一一对应。
func (s *SnapshotStore) Save(ctx context.Context, snap types.AccumulatorSnapshot, base uint64) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	raw, exists, err := s.client.Get(ctx, s.key)
	if err != nil {
		return err
	}
	if exists {
		var cur types.AccumulatorSnapshot
		if err := json.Unmarshal([]byte(raw), &cur); err != nil {
			return fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
		}
		if cur.Version != base {
			return fmt.Errorf("%w: shared=%d, base=%d", ErrSnapshotConflict, cur.Version, base)
		}
	}

	swapped, err := s.client.CompareAndSwap(ctx, s.key, raw, string(data), 0)
	if err != nil {
		return err
	}
	if !swapped {
		return fmt.Errorf("%w: concurrent write, base=%d", ErrSnapshotConflict, base)
	}
	return nil
}

// Load 读取快照，不存在时 ok=false
func (s *SnapshotStore) Load(ctx context.Context) (types.AccumulatorSnapshot, bool, error) {
	raw, ok, err := s.client.Get(ctx, s.key)
	if err != nil || !ok {
		return types.AccumulatorSnapshot{}, false, err
	}
	var snap types.AccumulatorSnapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return types.AccumulatorSnapshot{}, false, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	return snap, true, nil
}
