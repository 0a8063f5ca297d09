package kvstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	kvstoreconfig "github.com/weisyn/zkid/internal/config/kvstore"
	kvInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/kvstore"
	logInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/log"
)

// getDelScript 在不支持 GETDEL 的服务端上原子执行 GET + DEL
var getDelScript = redis.NewScript(`
local v = redis.call('GET', KEYS[1])
if v then
  redis.call('DEL', KEYS[1])
end
return v
`)

// casScript 当前值与期望值一致时写入；ARGV[1] 为空串表示要求键不存在，ARGV[3] 为毫秒 TTL
var casScript = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if (not cur and ARGV[1] == '') or cur == ARGV[1] then
  if tonumber(ARGV[3]) > 0 then
    redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
  else
    redis.call('SET', KEYS[1], ARGV[2])
  end
  return 1
end
return 0
`)

// RedisClient go-redis 客户端实现
//
// 🎯 **职责**：实现 kvstore.Client 接口，封装 go-redis 客户端
//
// 📋 **实现说明**：
//   - 连接池与 Dial/Read/Write 超时全部来自配置，由 go-redis 执行
//   - 滑动窗口通过 TxPipelined（MULTI/EXEC）保证四条命令原子执行
//   - 订阅在返回前等待服务端确认，避免订阅建立前的消息丢失
//
// 🔒 **并发安全**：
//   - go-redis 客户端本身是并发安全的
type RedisClient struct {
	client    *redis.Client
	keyPrefix string
	logger    logInterface.Logger
}

// 确保实现接口
var _ kvInterface.Client = (*RedisClient)(nil)

// NewRedisClient 创建 go-redis 客户端并测试连接
func NewRedisClient(ctx context.Context, opts *kvstoreconfig.KVStoreOptions, logger logInterface.Logger) (*RedisClient, error) {
	if opts == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if opts.Addr == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     opts.PoolSize,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if logger != nil {
		logger.Infof("Redis 已连接: addr=%s db=%d pool=%d", opts.Addr, opts.DB, opts.PoolSize)
	}
	return NewRedisClientFrom(client, opts.KeyPrefix, logger), nil
}

// NewRedisClientFrom 包装已有的 go-redis 客户端
func NewRedisClientFrom(client *redis.Client, keyPrefix string, logger logInterface.Logger) *RedisClient {
	return &RedisClient{client: client, keyPrefix: keyPrefix, logger: logger}
}

// Raw 返回底层 go-redis 客户端
func (c *RedisClient) Raw() *redis.Client {
	return c.client
}

func (c *RedisClient) key(k string) string {
	return c.keyPrefix + k
}

// Ping 测试连接
func (c *RedisClient) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close 关闭连接
func (c *RedisClient) Close() error {
	if c.logger != nil {
		c.logger.Debug("关闭 Redis 连接")
	}
	return c.client.Close()
}

// ServerVersion 解析 INFO server 中的 redis_version
func (c *RedisClient) ServerVersion(ctx context.Context) (string, error) {
	info, err := c.client.Info(ctx, "server").Result()
	if err != nil {
		return "", WrapBackendError("INFO", err)
	}
	return parseRedisVersion(info)
}

func parseRedisVersion(info string) (string, error) {
	for _, line := range strings.Split(info, "\n") {
		line = strings.TrimSpace(line)
		if v, ok := strings.CutPrefix(line, "redis_version:"); ok {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: redis_version missing from INFO", ErrBackend)
}

// Get 读取字符串值
func (c *RedisClient) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := c.client.Get(ctx, c.key(key)).Result()
	return stringResult("GET", v, err)
}

// Set 写入字符串值
func (c *RedisClient) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := c.client.Set(ctx, c.key(key), value, ttl).Err(); err != nil {
		return WrapBackendError("SET", err)
	}
	return nil
}

// SetNX 键不存在时写入
func (c *RedisClient) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	if ttl < 0 {
		ttl = 0
	}
	ok, err := c.client.SetNX(ctx, c.key(key), value, ttl).Result()
	if err != nil {
		return false, WrapBackendError("SETNX", err)
	}
	return ok, nil
}

// CompareAndSwap 通过服务端脚本原子执行 GET + 比较 + SET
func (c *RedisClient) CompareAndSwap(ctx context.Context, key, old, value string, ttl time.Duration) (bool, error) {
	if ttl < 0 {
		ttl = 0
	}
	n, err := casScript.Run(ctx, c.client, []string{c.key(key)}, old, value, ttl.Milliseconds()).Int64()
	if err != nil {
		return false, WrapBackendError("EVAL", err)
	}
	return n == 1, nil
}

// Del 删除键
func (c *RedisClient) Del(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = c.key(k)
	}
	n, err := c.client.Del(ctx, prefixed...).Result()
	if err != nil {
		return 0, WrapBackendError("DEL", err)
	}
	return n, nil
}

// Exists 键是否存在
func (c *RedisClient) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, c.key(key)).Result()
	if err != nil {
		return false, WrapBackendError("EXISTS", err)
	}
	return n > 0, nil
}

// GetDel 原子读取并删除
func (c *RedisClient) GetDel(ctx context.Context, key string) (string, bool, error) {
	v, err := c.client.GetDel(ctx, c.key(key)).Result()
	if err != nil && isUnknownCommand(err) {
		return "", false, fmt.Errorf("%w: GETDEL", ErrUnsupportedCommand)
	}
	return stringResult("GETDEL", v, err)
}

// EvalGetDel 脚本化 GET + DEL（EVALSHA，缺失时回退 EVAL）
func (c *RedisClient) EvalGetDel(ctx context.Context, key string) (string, bool, error) {
	v, err := getDelScript.Run(ctx, c.client, []string{c.key(key)}).Text()
	return stringResult("EVAL", v, err)
}

// SAdd 向集合添加成员
func (c *RedisClient) SAdd(ctx context.Context, key string, members ...string) (int64, error) {
	if len(members) == 0 {
		return 0, nil
	}
	n, err := c.client.SAdd(ctx, c.key(key), toAny(members)...).Result()
	if err != nil {
		return 0, WrapBackendError("SADD", err)
	}
	return n, nil
}

// SRem 从集合移除成员
func (c *RedisClient) SRem(ctx context.Context, key string, members ...string) (int64, error) {
	if len(members) == 0 {
		return 0, nil
	}
	n, err := c.client.SRem(ctx, c.key(key), toAny(members)...).Result()
	if err != nil {
		return 0, WrapBackendError("SREM", err)
	}
	return n, nil
}

// SIsMember 成员是否在集合中
func (c *RedisClient) SIsMember(ctx context.Context, key, member string) (bool, error) {
	ok, err := c.client.SIsMember(ctx, c.key(key), member).Result()
	if err != nil {
		return false, WrapBackendError("SISMEMBER", err)
	}
	return ok, nil
}

// SCard 集合大小
func (c *RedisClient) SCard(ctx context.Context, key string) (int64, error) {
	n, err := c.client.SCard(ctx, c.key(key)).Result()
	if err != nil {
		return 0, WrapBackendError("SCARD", err)
	}
	return n, nil
}

// SMembers 集合全部成员
func (c *RedisClient) SMembers(ctx context.Context, key string) ([]string, error) {
	members, err := c.client.SMembers(ctx, c.key(key)).Result()
	if err != nil {
		return nil, WrapBackendError("SMEMBERS", err)
	}
	return members, nil
}

// SlidingWindowAdd 在 MULTI/EXEC 中执行 ZREMRANGEBYSCORE、ZADD、ZCARD、PEXPIRE
func (c *RedisClient) SlidingWindowAdd(ctx context.Context, key, member string, nowMs int64, window time.Duration) (int64, error) {
	k := c.key(key)
	cutoff := nowMs - window.Milliseconds()
	var card *redis.IntCmd
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, k, "-inf", strconv.FormatInt(cutoff, 10))
		pipe.ZAdd(ctx, k, redis.Z{Score: float64(nowMs), Member: member})
		card = pipe.ZCard(ctx, k)
		pipe.PExpire(ctx, k, window)
		return nil
	})
	if err != nil {
		return 0, WrapBackendError("MULTI", err)
	}
	return card.Val(), nil
}

// ZRem 从有序集合移除成员
func (c *RedisClient) ZRem(ctx context.Context, key, member string) error {
	if err := c.client.ZRem(ctx, c.key(key), member).Err(); err != nil {
		return WrapBackendError("ZREM", err)
	}
	return nil
}

// ZOldest 返回最小分值
func (c *RedisClient) ZOldest(ctx context.Context, key string) (int64, bool, error) {
	zs, err := c.client.ZRangeWithScores(ctx, c.key(key), 0, 0).Result()
	if err != nil {
		return 0, false, WrapBackendError("ZRANGE", err)
	}
	if len(zs) == 0 {
		return 0, false, nil
	}
	return int64(zs[0].Score), true, nil
}

// Publish 向频道发布消息
func (c *RedisClient) Publish(ctx context.Context, channel, payload string) error {
	if err := c.client.Publish(ctx, channel, payload).Err(); err != nil {
		return WrapBackendError("PUBLISH", err)
	}
	return nil
}

// Subscribe 订阅频道
func (c *RedisClient) Subscribe(ctx context.Context, channel string) (kvInterface.Subscription, error) {
	ps := c.client.Subscribe(ctx, channel)
	// 等待订阅确认
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, WrapBackendError("SUBSCRIBE", err)
	}

	sub := &redisSubscription{
		pubsub: ps,
		out:    make(chan string, subscriptionBuffer),
	}
	go sub.forward(ps.Channel())
	return sub, nil
}

// redisSubscription 将 go-redis 消息流转换为字符串消息流
type redisSubscription struct {
	pubsub *redis.PubSub
	out    chan string
	once   sync.Once
}

func (s *redisSubscription) forward(in <-chan *redis.Message) {
	defer close(s.out)
	for msg := range in {
		// 消费端过慢时丢弃，通知语义为至多一次
		select {
		case s.out <- msg.Payload:
		default:
		}
	}
}

// Messages 消息流
func (s *redisSubscription) Messages() <-chan string {
	return s.out
}

// Close 取消订阅；go-redis 关闭后输入通道关闭，forward 随之退出
func (s *redisSubscription) Close() error {
	var err error
	s.once.Do(func() {
		err = s.pubsub.Close()
	})
	return err
}

func stringResult(op, v string, err error) (string, bool, error) {
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, WrapBackendError(op, err)
	}
	return v, true, nil
}

func isUnknownCommand(err error) bool {
	var rerr redis.Error
	if errors.As(err, &rerr) {
		msg := strings.ToLower(rerr.Error())
		return strings.Contains(msg, "unknown command")
	}
	return false
}

func toAny(ss []string) []interface{} {
	out := make([]interface{}, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
