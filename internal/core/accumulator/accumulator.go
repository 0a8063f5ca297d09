package accumulator

import (
	"container/heap"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/weisyn/zkid/internal/core/infrastructure/log"
	infraClock "github.com/weisyn/zkid/pkg/interfaces/infrastructure/clock"
	logInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkid/pkg/interfaces/zkid"
	"github.com/weisyn/zkid/pkg/types"
	"github.com/weisyn/zkid/pkg/utils/field"
	"github.com/weisyn/zkid/pkg/utils/timeutil"
)

const (
	// MinDepth 最小树深度
	MinDepth = 1
	// MaxDepth 最大树深度（容量 2^20）
	MaxDepth = 20
	// ZeroLeaf 空叶子哨兵值
	ZeroLeaf = "0"

	defaultHistorySize = 16
)

// MerkleAccumulator 动态 Merkle 吊销累加器
//
// 🎯 **职责**：维护仍有效的凭证承诺集合，提供根与成员见证
//
// 📋 **实现说明**：
//   - 叶子按"最小空闲下标"分配，释放的位置优先复用
//   - 每次有效变更只重算叶子到根路径上的 depth 个节点，并与元数据一起提交到 NodeStore
//   - 未写入的节点使用预计算的零值子树 zeros[level]
//   - 版本号仅在有效变更时 +1，重复添加 / 移除不存在的承诺不改变版本
//
// 🔒 **并发安全**：写操作持有写锁（单写者），读操作持有读锁并发执行
type MerkleAccumulator struct {
	mu sync.RWMutex

	depth    int
	capacity int
	zeros    []string

	hasher Hasher
	store  NodeStore
	clock  infraClock.Clock
	logger logInterface.Logger

	index     map[string]int // 承诺 -> 叶子下标
	free      indexHeap      // 已释放的下标（小顶堆）
	nextIndex int            // 从未使用过的最小下标

	root      string
	version   uint64
	updatedAt time.Time
	history   *rootHistory
}

// 确保实现接口
var _ zkid.SnapshotAccumulator = (*MerkleAccumulator)(nil)

// Option 累加器选项
type Option func(*MerkleAccumulator)

// WithHasher 注入节点哈希
func WithHasher(h Hasher) Option {
	return func(a *MerkleAccumulator) { a.hasher = h }
}

// WithNodeStore 注入节点存储
func WithNodeStore(s NodeStore) Option {
	return func(a *MerkleAccumulator) { a.store = s }
}

// WithClock 注入时钟
func WithClock(c infraClock.Clock) Option {
	return func(a *MerkleAccumulator) { a.clock = c }
}

// WithLogger 注入日志
func WithLogger(l logInterface.Logger) Option {
	return func(a *MerkleAccumulator) { a.logger = l }
}

// WithRootHistory 设置历史根数量
func WithRootHistory(n int) Option {
	return func(a *MerkleAccumulator) {
		if n > 0 {
			a.history = newRootHistory(n)
		}
	}
}

// New 创建累加器
//
// 参数：
//   - depth: 树深度，必须位于 [MinDepth, MaxDepth]
//   - opts: 可选哈希、存储、时钟、日志
//
// 若 NodeStore 中已有数据，则从中恢复叶子、空闲下标与版本。
func New(depth int, opts ...Option) (*MerkleAccumulator, error) {
	if depth < MinDepth || depth > MaxDepth {
		return nil, WrapInvalidDepthError(depth)
	}
	a := &MerkleAccumulator{
		depth:    depth,
		capacity: 1 << depth,
		hasher:   MiMCHasher{},
		index:    make(map[string]int),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.store == nil {
		a.store = NewMemoryNodeStore()
	}
	a.clock = timeutil.OrSystem(a.clock)
	a.logger = log.OrNop(a.logger)
	if a.history == nil {
		a.history = newRootHistory(defaultHistorySize)
	}

	zeros, err := computeZeros(a.hasher, depth)
	if err != nil {
		return nil, err
	}
	a.zeros = zeros
	a.root = zeros[depth]
	a.updatedAt = a.clock.Now()

	if err := a.load(); err != nil {
		return nil, err
	}
	a.history.push(a.root)
	return a, nil
}

// computeZeros zeros[0] = ZeroLeaf，zeros[l+1] = H(zeros[l], zeros[l])
func computeZeros(h Hasher, depth int) ([]string, error) {
	zeros := make([]string, depth+1)
	zeros[0] = ZeroLeaf
	for l := 0; l < depth; l++ {
		z, err := h.Hash(zeros[l], zeros[l])
		if err != nil {
			return nil, fmt.Errorf("compute zero subtree at level %d: %w", l, err)
		}
		zeros[l+1] = z
	}
	return zeros, nil
}

// load 从节点存储恢复内存索引
func (a *MerkleAccumulator) load() error {
	meta, ok, err := a.store.LoadMeta()
	if err != nil {
		return WrapStoreError("load meta", err)
	}
	if !ok {
		return nil
	}
	if meta.Depth != a.depth {
		return fmt.Errorf("%w: store=%d, configured=%d", ErrStoreDepthMismatch, meta.Depth, a.depth)
	}
	leaves, err := a.store.Leaves()
	if err != nil {
		return WrapStoreError("load leaves", err)
	}
	occupied := make(map[int]bool, len(leaves))
	for _, l := range leaves {
		a.index[l.Commitment] = l.Index
		occupied[l.Index] = true
	}
	a.nextIndex = meta.NextIndex
	for i := 0; i < a.nextIndex; i++ {
		if !occupied[i] {
			a.free = append(a.free, i)
		}
	}
	heap.Init(&a.free)

	root, err := a.node(a.depth, 0)
	if err != nil {
		return err
	}
	a.root = root
	a.version = meta.Version
	a.updatedAt = meta.UpdatedAt
	a.logger.Infof("累加器已从存储恢复: size=%d version=%d root=%s", len(a.index), a.version, a.root)
	return nil
}

// node 读取节点，未写入时返回零值子树
func (a *MerkleAccumulator) node(level, index int) (string, error) {
	v, ok, err := a.store.GetNode(level, index)
	if err != nil {
		return "", WrapStoreError("get node", err)
	}
	if !ok {
		return a.zeros[level], nil
	}
	return v, nil
}

// normalize 规范化承诺，零值哨兵不可作为承诺
func normalize(commitment string) (string, error) {
	c, err := field.Normalize(commitment)
	if err != nil {
		return "", WrapInvalidCommitmentError(commitment, err)
	}
	if c == ZeroLeaf {
		return "", WrapInvalidCommitmentError(commitment, fmt.Errorf("zero is reserved for empty leaves"))
	}
	return c, nil
}

// Add 插入承诺
func (a *MerkleAccumulator) Add(commitment string) error {
	c, err := normalize(commitment)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.index[c]; exists {
		return nil
	}

	idx, fromFree := -1, false
	switch {
	case a.free.Len() > 0:
		idx, fromFree = heap.Pop(&a.free).(int), true
	case a.nextIndex < a.capacity:
		idx = a.nextIndex
	default:
		return ErrTreeFull
	}

	nextIndex := a.nextIndex
	if !fromFree {
		nextIndex++
	}
	if err := a.writeLeaf(idx, c, nextIndex); err != nil {
		if fromFree {
			heap.Push(&a.free, idx)
		}
		return err
	}
	a.nextIndex = nextIndex
	a.index[c] = idx
	a.logger.Debugf("承诺已加入累加器: index=%d version=%d", idx, a.version)
	return nil
}

// Remove 移除承诺，叶子置为零值哨兵
func (a *MerkleAccumulator) Remove(commitment string) error {
	c, err := normalize(commitment)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	idx, exists := a.index[c]
	if !exists {
		return nil
	}
	if err := a.writeLeaf(idx, ZeroLeaf, a.nextIndex); err != nil {
		return err
	}
	delete(a.index, c)
	heap.Push(&a.free, idx)
	a.logger.Debugf("承诺已移出累加器: index=%d version=%d", idx, a.version)
	return nil
}

// writeLeaf 写叶子并重算到根的路径；成功后推进版本。调用方持有写锁
func (a *MerkleAccumulator) writeLeaf(idx int, value string, nextIndex int) error {
	updates := make([]NodeUpdate, 0, a.depth+1)
	updates = append(updates, NodeUpdate{Level: 0, Index: idx, Value: value})

	current, pos := value, idx
	for level := 0; level < a.depth; level++ {
		sibling, err := a.node(level, pos^1)
		if err != nil {
			return err
		}
		left, right := current, sibling
		if pos&1 == 1 {
			left, right = sibling, current
		}
		parent, err := a.hasher.Hash(left, right)
		if err != nil {
			return fmt.Errorf("hash level %d: %w", level, err)
		}
		pos >>= 1
		current = parent
		updates = append(updates, NodeUpdate{Level: level + 1, Index: pos, Value: parent})
	}

	now := a.clock.Now()
	meta := StoreMeta{
		Depth:     a.depth,
		Version:   a.version + 1,
		UpdatedAt: now,
		NextIndex: nextIndex,
		Root:      current,
	}
	if err := a.store.Commit(updates, meta); err != nil {
		return WrapStoreError("commit", err)
	}
	a.root = current
	a.version = meta.Version
	a.updatedAt = now
	a.history.push(current)
	return nil
}

// Contains 承诺是否在树中
func (a *MerkleAccumulator) Contains(commitment string) bool {
	c, err := normalize(commitment)
	if err != nil {
		return false
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.index[c]
	return ok
}

// GetWitness 返回成员见证，不存在时返回 nil
func (a *MerkleAccumulator) GetWitness(commitment string) (*types.Witness, error) {
	c, err := normalize(commitment)
	if err != nil {
		return nil, nil
	}
	a.mu.RLock()
	defer a.mu.RUnlock()

	idx, ok := a.index[c]
	if !ok {
		return nil, nil
	}
	w := &types.Witness{
		Root:        a.root,
		PathIndices: make([]int, a.depth),
		Siblings:    make([]string, a.depth),
		Leaf:        c,
		Index:       idx,
	}
	pos := idx
	for level := 0; level < a.depth; level++ {
		sibling, err := a.node(level, pos^1)
		if err != nil {
			return nil, err
		}
		w.PathIndices[level] = pos & 1
		w.Siblings[level] = sibling
		pos >>= 1
	}
	return w, nil
}

// GetRoot 当前根
func (a *MerkleAccumulator) GetRoot() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.root
}

// GetRootInfo 当前根信息
func (a *MerkleAccumulator) GetRootInfo() types.RootInfo {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return types.RootInfo{Root: a.root, Version: a.version, UpdatedAt: a.updatedAt}
}

// IsKnownRoot 是否为当前根或保留的历史根
func (a *MerkleAccumulator) IsKnownRoot(root string) bool {
	r, err := field.Normalize(root)
	if err != nil {
		return false
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return r == a.root || a.history.contains(r)
}

// Size 当前成员数
func (a *MerkleAccumulator) Size() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.index)
}

// Depth 树深度
func (a *MerkleAccumulator) Depth() int {
	return a.depth
}

// Capacity 树容量
func (a *MerkleAccumulator) Capacity() int {
	return a.capacity
}

// Snapshot 导出按下标排序的叶子集合
func (a *MerkleAccumulator) Snapshot() (types.AccumulatorSnapshot, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	leaves := make([]types.LeafEntry, 0, len(a.index))
	for c, idx := range a.index {
		leaves = append(leaves, types.LeafEntry{Index: idx, Commitment: c})
	}
	sort.Slice(leaves, func(i, j int) bool { return leaves[i].Index < leaves[j].Index })
	return types.AccumulatorSnapshot{
		Depth:     a.depth,
		Root:      a.root,
		Version:   a.version,
		UpdatedAt: a.updatedAt,
		Leaves:    leaves,
	}, nil
}

// Restore 以快照替换全部状态
//
// ⚠️ 先在内存中重建整棵树并校验根，校验通过后才清空并写入存储。
// 快照版本低于当前版本时拒绝，保证版本单调。
func (a *MerkleAccumulator) Restore(snap types.AccumulatorSnapshot) error {
	if snap.Depth != a.depth {
		return fmt.Errorf("%w: depth=%d, expected=%d", ErrInvalidSnapshot, snap.Depth, a.depth)
	}

	leaves := make(map[int]string, len(snap.Leaves))
	index := make(map[string]int, len(snap.Leaves))
	maxIdx := -1
	for _, l := range snap.Leaves {
		if l.Index < 0 || l.Index >= a.capacity {
			return fmt.Errorf("%w: leaf index %d out of range", ErrInvalidSnapshot, l.Index)
		}
		c, err := normalize(l.Commitment)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
		}
		if _, dup := leaves[l.Index]; dup {
			return fmt.Errorf("%w: duplicate leaf index %d", ErrInvalidSnapshot, l.Index)
		}
		if _, dup := index[c]; dup {
			return fmt.Errorf("%w: duplicate commitment at index %d", ErrInvalidSnapshot, l.Index)
		}
		leaves[l.Index] = c
		index[c] = l.Index
		if l.Index > maxIdx {
			maxIdx = l.Index
		}
	}

	updates, root, err := a.buildTree(leaves)
	if err != nil {
		return err
	}
	if snap.Root != "" {
		want, err := field.Normalize(snap.Root)
		if err != nil || want != root {
			return fmt.Errorf("%w: computed=%s, snapshot=%s", ErrSnapshotRootMismatch, root, snap.Root)
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if snap.Version < a.version {
		return fmt.Errorf("%w: snapshot=%d, current=%d", ErrStaleSnapshot, snap.Version, a.version)
	}

	updatedAt := snap.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = a.clock.Now()
	}
	meta := StoreMeta{
		Depth:     a.depth,
		Version:   snap.Version,
		UpdatedAt: updatedAt,
		NextIndex: maxIdx + 1,
		Root:      root,
	}
	if err := a.store.Reset(); err != nil {
		return WrapStoreError("reset", err)
	}
	if err := a.store.Commit(updates, meta); err != nil {
		return WrapStoreError("commit snapshot", err)
	}

	a.index = index
	a.nextIndex = maxIdx + 1
	a.free = a.free[:0]
	for i := 0; i < a.nextIndex; i++ {
		if _, ok := leaves[i]; !ok {
			a.free = append(a.free, i)
		}
	}
	heap.Init(&a.free)
	a.root = root
	a.version = snap.Version
	a.updatedAt = updatedAt
	a.history.push(root)
	a.logger.Infof("累加器已从快照恢复: size=%d version=%d", len(index), snap.Version)
	return nil
}

// buildTree 自底向上计算稀疏树，只生成非零子树上的节点
func (a *MerkleAccumulator) buildTree(leaves map[int]string) ([]NodeUpdate, string, error) {
	var updates []NodeUpdate
	current := leaves
	for level := 0; level < a.depth; level++ {
		positions := make([]int, 0, len(current))
		for pos, v := range current {
			updates = append(updates, NodeUpdate{Level: level, Index: pos, Value: v})
			positions = append(positions, pos)
		}
		sort.Ints(positions)

		parents := make(map[int]string, (len(current)+1)/2)
		for _, pos := range positions {
			parentPos := pos >> 1
			if _, done := parents[parentPos]; done {
				continue
			}
			left, ok := current[parentPos<<1]
			if !ok {
				left = a.zeros[level]
			}
			right, ok := current[parentPos<<1|1]
			if !ok {
				right = a.zeros[level]
			}
			h, err := a.hasher.Hash(left, right)
			if err != nil {
				return nil, "", fmt.Errorf("hash level %d: %w", level, err)
			}
			parents[parentPos] = h
		}
		current = parents
	}

	root := a.zeros[a.depth]
	if r, ok := current[0]; ok {
		root = r
		updates = append(updates, NodeUpdate{Level: a.depth, Index: 0, Value: r})
	}
	return updates, root, nil
}

// Close 关闭节点存储
func (a *MerkleAccumulator) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.store.Close()
}

// indexHeap 空闲叶子下标小顶堆
type indexHeap []int

func (h indexHeap) Len() int            { return len(h) }
func (h indexHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h indexHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *indexHeap) Push(x interface{}) { *h = append(*h, x.(int)) }
func (h *indexHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
