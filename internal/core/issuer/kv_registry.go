package issuer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/allegro/bigcache/v3"

	"github.com/weisyn/zkid/internal/core/infrastructure/log"
	kvInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/kvstore"
	logInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/log"
	metricsInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/metrics"
	"github.com/weisyn/zkid/pkg/interfaces/zkid"
	"github.com/weisyn/zkid/pkg/types"
)

const (
	issuerKeyPrefix = "issuer:"

	// DefaultCacheTTL 本地缓存有效期；失效通知丢失时其它节点的变更最多延迟该时长生效
	DefaultCacheTTL = time.Minute

	// InvalidationChannel 发行方变更通知频道，载荷为发行方名称
	InvalidationChannel = "zkid:issuer:invalidate"
)

// KVRegistry 记录存于共享键值存储、由本地 bigcache 缓存的发行方注册表
//
// 🎯 **职责**：
//   - 记录以 JSON 存放在 issuer:{name}
//   - 查询命中本地缓存时不访问存储
//   - 本节点写入/删除时同步失效本地缓存，并在 InvalidationChannel 上通知其它节点
//   - Watch 之后收到通知即删除对应缓存条目
//
// ⚠️ 只缓存存在的记录，未注册的发行方每次都回源。
// 通知为至多一次投递，丢失时由缓存 TTL 兜底。
type KVRegistry struct {
	client kvInterface.Client
	cache  *bigcache.BigCache
	logger logInterface.Logger

	mu     sync.Mutex
	sub    kvInterface.Subscription
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// 确保实现接口
var (
	_ zkid.IssuerRegistry            = (*KVRegistry)(nil)
	_ metricsInterface.StatsReporter = (*KVRegistry)(nil)
)

// NewKVRegistry 创建注册表；cacheTTL ≤ 0 时使用 DefaultCacheTTL
func NewKVRegistry(ctx context.Context, client kvInterface.Client, cacheTTL time.Duration, logger logInterface.Logger) (*KVRegistry, error) {
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	cfg := bigcache.DefaultConfig(cacheTTL)
	cfg.Shards = 16
	cfg.MaxEntriesInWindow = 1024
	cfg.Verbose = false
	cache, err := bigcache.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create issuer cache: %w", err)
	}
	return &KVRegistry{client: client, cache: cache, logger: log.OrNop(logger)}, nil
}

// Register 写入记录
func (r *KVRegistry) Register(ctx context.Context, rec types.IssuerRecord) error {
	if err := validate(rec); err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal issuer: %w", err)
	}
	if err := r.client.Set(ctx, issuerKeyPrefix+rec.Name, string(data), 0); err != nil {
		return err
	}
	if err := r.cache.Set(rec.Name, data); err != nil {
		r.logger.Warnf("写入发行方缓存失败: name=%s err=%v", rec.Name, err)
	}
	r.notify(ctx, rec.Name)
	r.logger.Infof("发行方已登记: name=%s status=%s", rec.Name, rec.Status)
	return nil
}

// Remove 删除记录
func (r *KVRegistry) Remove(ctx context.Context, name string) error {
	if _, err := r.client.Del(ctx, issuerKeyPrefix+name); err != nil {
		return err
	}
	if err := r.cache.Delete(name); err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
		r.logger.Warnf("删除发行方缓存失败: name=%s err=%v", name, err)
	}
	r.notify(ctx, name)
	return nil
}

// Watch 订阅失效通知，重复调用无副作用
func (r *KVRegistry) Watch(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sub != nil {
		return nil
	}
	sub, err := r.client.Subscribe(ctx, InvalidationChannel)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", InvalidationChannel, err)
	}
	loopCtx, cancel := context.WithCancel(context.Background())
	r.sub, r.cancel = sub, cancel

	r.wg.Add(1)
	go r.invalidateLoop(loopCtx, sub)
	return nil
}

func (r *KVRegistry) invalidateLoop(ctx context.Context, sub kvInterface.Subscription) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case name, ok := <-sub.Messages():
			if !ok {
				return
			}
			if err := r.cache.Delete(name); err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
				r.logger.Warnf("删除发行方缓存失败: name=%s err=%v", name, err)
			}
			r.logger.Debugf("发行方缓存已失效: name=%s", name)
		}
	}
}

func (r *KVRegistry) notify(ctx context.Context, name string) {
	if err := r.client.Publish(ctx, InvalidationChannel, name); err != nil {
		r.logger.Warnf("发布发行方失效通知失败: name=%s err=%v", name, err)
	}
}

// GetIssuer 查询发行方，不存在时返回 nil
func (r *KVRegistry) GetIssuer(ctx context.Context, name string) (*types.IssuerRecord, error) {
	if name == "" {
		return nil, nil
	}
	if data, err := r.cache.Get(name); err == nil {
		return decode(name, data)
	}

	raw, ok, err := r.client.Get(ctx, issuerKeyPrefix+name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	rec, err := decode(name, []byte(raw))
	if err != nil {
		return nil, err
	}
	if err := r.cache.Set(name, []byte(raw)); err != nil {
		r.logger.Warnf("写入发行方缓存失败: name=%s err=%v", name, err)
	}
	return rec, nil
}

// ModuleName 组件名称
func (r *KVRegistry) ModuleName() string { return "issuer.registry" }

// CollectStats 上报本地缓存条目数
func (r *KVRegistry) CollectStats() metricsInterface.ModuleStats {
	return metricsInterface.ModuleStats{Module: r.ModuleName(), CacheItems: int64(r.cache.Len())}
}

// Close 取消订阅并释放本地缓存
func (r *KVRegistry) Close() error {
	r.mu.Lock()
	sub, cancel := r.sub, r.cancel
	r.sub, r.cancel = nil, nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if sub != nil {
		_ = sub.Close()
	}
	r.wg.Wait()
	return r.cache.Close()
}

func decode(name string, data []byte) (*types.IssuerRecord, error) {
	var rec types.IssuerRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: name=%s: %v", ErrCorruptRecord, name, err)
	}
	return &rec, nil
}
