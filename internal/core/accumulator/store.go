package accumulator

import (
	"sync"
	"time"

	"github.com/weisyn/zkid/pkg/types"
)

// NodeUpdate 单个节点写入
type NodeUpdate struct {
	Level int
	Index int
	Value string
}

// StoreMeta 树元数据
type StoreMeta struct {
	Depth     int       `json:"depth"`
	Version   uint64    `json:"version"`
	UpdatedAt time.Time `json:"updatedAt"`
	NextIndex int       `json:"nextIndex"` // 从未使用过的最小叶子下标
	Root      string    `json:"root"`
}

// NodeStore 累加器节点存储
//
// 🎯 **职责**：只负责按 (level, index) 存取节点值；哈希与见证逻辑不依赖存储内部结构。
// level 0 为叶子层，level = depth 为根。未写入的节点由累加器以零值子树补全。
type NodeStore interface {
	// GetNode 读取节点，未写入时 ok=false
	GetNode(level, index int) (value string, ok bool, err error)

	// Commit 原子写入一次变更涉及的全部节点及元数据
	Commit(updates []NodeUpdate, meta StoreMeta) error

	// LoadMeta 读取元数据，空存储时 ok=false
	LoadMeta() (meta StoreMeta, ok bool, err error)

	// Leaves 返回全部非零叶子
	Leaves() ([]types.LeafEntry, error)

	// Reset 清空全部节点与元数据
	Reset() error

	// Close 释放资源
	Close() error
}

// MemoryNodeStore 按层切片存储节点，切片按需扩展
type MemoryNodeStore struct {
	mu     sync.RWMutex
	layers [][]string // "" 表示未写入
	meta   *StoreMeta
}

// 确保实现接口
var _ NodeStore = (*MemoryNodeStore)(nil)

// NewMemoryNodeStore 创建内存节点存储
func NewMemoryNodeStore() *MemoryNodeStore {
	return &MemoryNodeStore{}
}

// GetNode 读取节点
func (s *MemoryNodeStore) GetNode(level, index int) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if level < 0 || level >= len(s.layers) || index < 0 || index >= len(s.layers[level]) {
		return "", false, nil
	}
	v := s.layers[level][index]
	return v, v != "", nil
}

// Commit 写入节点与元数据
func (s *MemoryNodeStore) Commit(updates []NodeUpdate, meta StoreMeta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range updates {
		for len(s.layers) <= u.Level {
			s.layers = append(s.layers, nil)
		}
		layer := s.layers[u.Level]
		if u.Index >= len(layer) {
			grown := make([]string, u.Index+1)
			copy(grown, layer)
			layer = grown
		}
		layer[u.Index] = u.Value
		s.layers[u.Level] = layer
	}
	m := meta
	s.meta = &m
	return nil
}

// LoadMeta 读取元数据
func (s *MemoryNodeStore) LoadMeta() (StoreMeta, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.meta == nil {
		return StoreMeta{}, false, nil
	}
	return *s.meta, true, nil
}

// Leaves 返回全部非零叶子
func (s *MemoryNodeStore) Leaves() ([]types.LeafEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.layers) == 0 {
		return nil, nil
	}
	var out []types.LeafEntry
	for i, v := range s.layers[0] {
		if v != "" && v != ZeroLeaf {
			out = append(out, types.LeafEntry{Index: i, Commitment: v})
		}
	}
	return out, nil
}

// Reset 清空
func (s *MemoryNodeStore) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layers = nil
	s.meta = nil
	return nil
}

// Close 无资源需要释放
func (s *MemoryNodeStore) Close() error {
	return nil
}
