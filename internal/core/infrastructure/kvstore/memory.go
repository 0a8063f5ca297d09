package kvstore

import (
	"context"
	"sort"
	"sync"
	"time"

	infraClock "github.com/weisyn/zkid/pkg/interfaces/infrastructure/clock"
	kvInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/kvstore"
	"github.com/weisyn/zkid/pkg/utils/timeutil"
)

// subscriptionBuffer 每个订阅的消息缓冲
const subscriptionBuffer = 64

// defaultMemoryServerVersion 内存客户端默认报告的版本（支持 GETDEL）
const defaultMemoryServerVersion = "7.2.0"

type entryKind int

const (
	kindString entryKind = iota
	kindSet
	kindZSet
)

type memEntry struct {
	kind     entryKind
	str      string
	set      map[string]struct{}
	zset     map[string]int64
	expireAt time.Time // 零值表示不过期
}

// MemoryClient 进程内键值存储实现
//
// 🎯 **职责**：与 RedisClient 语义一致的内存实现，用于测试和单机部署
//
// 📋 **实现说明**：
//   - 单把互斥锁保证每个操作（包括滑动窗口四步）原子执行
//   - TTL 基于注入的时钟惰性判断，测试中可用手动时钟推进
//   - 发布订阅为非阻塞投递，订阅缓冲满时丢弃（至多一次）
//   - WithoutGetDel 模拟 Redis < 6.2 的服务端
type MemoryClient struct {
	mu      sync.Mutex
	data    map[string]*memEntry
	subs    map[string]map[*memorySubscription]struct{}
	clock   infraClock.Clock
	version string
	getDel  bool
	closed  bool
}

// 确保实现接口
var _ kvInterface.Client = (*MemoryClient)(nil)

// MemoryOption 内存客户端选项
type MemoryOption func(*MemoryClient)

// WithMemoryClock 注入时钟
func WithMemoryClock(c infraClock.Clock) MemoryOption {
	return func(m *MemoryClient) { m.clock = c }
}

// WithServerVersion 设置报告的服务端版本
func WithServerVersion(v string) MemoryOption {
	return func(m *MemoryClient) { m.version = v }
}

// WithoutGetDel 禁用 GETDEL 命令
func WithoutGetDel() MemoryOption {
	return func(m *MemoryClient) {
		m.getDel = false
		m.version = "6.0.16"
	}
}

// NewMemoryClient 创建内存客户端
func NewMemoryClient(opts ...MemoryOption) *MemoryClient {
	m := &MemoryClient{
		data:    make(map[string]*memEntry),
		subs:    make(map[string]map[*memorySubscription]struct{}),
		clock:   timeutil.SystemClock{},
		version: defaultMemoryServerVersion,
		getDel:  true,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// lookup 返回未过期的条目，过期条目被惰性删除；调用方持有锁
func (m *MemoryClient) lookup(key string) *memEntry {
	e, ok := m.data[key]
	if !ok {
		return nil
	}
	if !e.expireAt.IsZero() && !m.clock.Now().Before(e.expireAt) {
		delete(m.data, key)
		return nil
	}
	return e
}

func (m *MemoryClient) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return m.clock.Now().Add(ttl)
}

// Ping 测试连接
func (m *MemoryClient) Ping(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClientClosed
	}
	return nil
}

// Close 关闭客户端与全部订阅
func (m *MemoryClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	for _, set := range m.subs {
		for sub := range set {
			sub.closeLocked()
		}
	}
	m.subs = make(map[string]map[*memorySubscription]struct{})
	return nil
}

// ServerVersion 返回配置的版本
func (m *MemoryClient) ServerVersion(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", ErrClientClosed
	}
	return m.version, nil
}

// Get 读取字符串值
func (m *MemoryClient) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", false, ErrClientClosed
	}
	e := m.lookup(key)
	if e == nil {
		return "", false, nil
	}
	if e.kind != kindString {
		return "", false, ErrWrongType
	}
	return e.str, true, nil
}

// Set 写入字符串值
func (m *MemoryClient) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClientClosed
	}
	m.data[key] = &memEntry{kind: kindString, str: value, expireAt: m.expiry(ttl)}
	return nil
}

// SetNX 键不存在时写入
func (m *MemoryClient) SetNX(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false, ErrClientClosed
	}
	if m.lookup(key) != nil {
		return false, nil
	}
	m.data[key] = &memEntry{kind: kindString, str: value, expireAt: m.expiry(ttl)}
	return true, nil
}

// CompareAndSwap 锁内比较并写入
func (m *MemoryClient) CompareAndSwap(_ context.Context, key, old, value string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false, ErrClientClosed
	}
	e := m.lookup(key)
	switch {
	case e == nil:
		if old != "" {
			return false, nil
		}
	case e.kind != kindString:
		return false, ErrWrongType
	case e.str != old:
		return false, nil
	}
	m.data[key] = &memEntry{kind: kindString, str: value, expireAt: m.expiry(ttl)}
	return true, nil
}

// Del 删除键
func (m *MemoryClient) Del(_ context.Context, keys ...string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrClientClosed
	}
	var n int64
	for _, k := range keys {
		if m.lookup(k) != nil {
			delete(m.data, k)
			n++
		}
	}
	return n, nil
}

// Exists 键是否存在
func (m *MemoryClient) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false, ErrClientClosed
	}
	return m.lookup(key) != nil, nil
}

// GetDel 原子读取并删除
func (m *MemoryClient) GetDel(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", false, ErrClientClosed
	}
	if !m.getDel {
		return "", false, ErrUnsupportedCommand
	}
	return m.getDelLocked(key)
}

// EvalGetDel 脚本化 GET + DEL；内存实现下与 GetDel 同样在锁内完成
func (m *MemoryClient) EvalGetDel(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", false, ErrClientClosed
	}
	return m.getDelLocked(key)
}

func (m *MemoryClient) getDelLocked(key string) (string, bool, error) {
	e := m.lookup(key)
	if e == nil {
		return "", false, nil
	}
	if e.kind != kindString {
		return "", false, ErrWrongType
	}
	delete(m.data, key)
	return e.str, true, nil
}

// setEntry 取得或创建集合条目；调用方持有锁
func (m *MemoryClient) setEntry(key string, create bool) (*memEntry, error) {
	e := m.lookup(key)
	if e == nil {
		if !create {
			return nil, nil
		}
		e = &memEntry{kind: kindSet, set: make(map[string]struct{})}
		m.data[key] = e
	}
	if e.kind != kindSet {
		return nil, ErrWrongType
	}
	return e, nil
}

// SAdd 向集合添加成员
func (m *MemoryClient) SAdd(_ context.Context, key string, members ...string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrClientClosed
	}
	if len(members) == 0 {
		return 0, nil
	}
	e, err := m.setEntry(key, true)
	if err != nil {
		return 0, err
	}
	var n int64
	for _, mem := range members {
		if _, ok := e.set[mem]; !ok {
			e.set[mem] = struct{}{}
			n++
		}
	}
	return n, nil
}

// SRem 从集合移除成员
func (m *MemoryClient) SRem(_ context.Context, key string, members ...string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrClientClosed
	}
	e, err := m.setEntry(key, false)
	if err != nil || e == nil {
		return 0, err
	}
	var n int64
	for _, mem := range members {
		if _, ok := e.set[mem]; ok {
			delete(e.set, mem)
			n++
		}
	}
	if len(e.set) == 0 {
		delete(m.data, key)
	}
	return n, nil
}

// SIsMember 成员是否在集合中
func (m *MemoryClient) SIsMember(_ context.Context, key, member string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false, ErrClientClosed
	}
	e, err := m.setEntry(key, false)
	if err != nil || e == nil {
		return false, err
	}
	_, ok := e.set[member]
	return ok, nil
}

// SCard 集合大小
func (m *MemoryClient) SCard(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrClientClosed
	}
	e, err := m.setEntry(key, false)
	if err != nil || e == nil {
		return 0, err
	}
	return int64(len(e.set)), nil
}

// SMembers 集合全部成员（按字典序）
func (m *MemoryClient) SMembers(_ context.Context, key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClientClosed
	}
	e, err := m.setEntry(key, false)
	if err != nil || e == nil {
		return nil, err
	}
	out := make([]string, 0, len(e.set))
	for mem := range e.set {
		out = append(out, mem)
	}
	sort.Strings(out)
	return out, nil
}

// SlidingWindowAdd 在锁内执行窗口裁剪、加入、计数与续期
func (m *MemoryClient) SlidingWindowAdd(_ context.Context, key, member string, nowMs int64, window time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrClientClosed
	}
	e := m.lookup(key)
	if e == nil {
		e = &memEntry{kind: kindZSet, zset: make(map[string]int64)}
		m.data[key] = e
	}
	if e.kind != kindZSet {
		return 0, ErrWrongType
	}
	cutoff := nowMs - window.Milliseconds()
	for mem, score := range e.zset {
		if score <= cutoff {
			delete(e.zset, mem)
		}
	}
	e.zset[member] = nowMs
	e.expireAt = m.expiry(window)
	return int64(len(e.zset)), nil
}

// ZRem 从有序集合移除成员
func (m *MemoryClient) ZRem(_ context.Context, key, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClientClosed
	}
	e := m.lookup(key)
	if e == nil {
		return nil
	}
	if e.kind != kindZSet {
		return ErrWrongType
	}
	delete(e.zset, member)
	return nil
}

// ZOldest 返回最小分值
func (m *MemoryClient) ZOldest(_ context.Context, key string) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, false, ErrClientClosed
	}
	e := m.lookup(key)
	if e == nil || len(e.zset) == 0 {
		return 0, false, nil
	}
	if e.kind != kindZSet {
		return 0, false, ErrWrongType
	}
	first := true
	var oldest int64
	for _, score := range e.zset {
		if first || score < oldest {
			oldest, first = score, false
		}
	}
	return oldest, true, nil
}

// Publish 非阻塞投递到全部订阅
func (m *MemoryClient) Publish(_ context.Context, channel, payload string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClientClosed
	}
	for sub := range m.subs[channel] {
		select {
		case sub.ch <- payload:
		default:
		}
	}
	return nil
}

// Subscribe 订阅频道
func (m *MemoryClient) Subscribe(_ context.Context, channel string) (kvInterface.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClientClosed
	}
	sub := &memorySubscription{
		client:  m,
		channel: channel,
		ch:      make(chan string, subscriptionBuffer),
	}
	if m.subs[channel] == nil {
		m.subs[channel] = make(map[*memorySubscription]struct{})
	}
	m.subs[channel][sub] = struct{}{}
	return sub, nil
}

type memorySubscription struct {
	client  *MemoryClient
	channel string
	ch      chan string
	closed  bool
}

// Messages 消息流
func (s *memorySubscription) Messages() <-chan string {
	return s.ch
}

// Close 取消订阅
func (s *memorySubscription) Close() error {
	s.client.mu.Lock()
	defer s.client.mu.Unlock()
	if set, ok := s.client.subs[s.channel]; ok {
		delete(set, s)
	}
	s.closeLocked()
	return nil
}

func (s *memorySubscription) closeLocked() {
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}
