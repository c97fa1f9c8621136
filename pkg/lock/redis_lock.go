package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisLock 基于Redis的租户级互斥锁
// 对账扫描要求同一租户同一时刻只有一个扫描实例在跑，
// 通过 SETNX + 租约过期实现（修复动作本身幂等，锁只是避免重复劳动）
type RedisLock struct {
	client *redis.Client
	prefix string
}

// Config Redis连接配置
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
	Prefix   string
}

// NewRedisLock 创建锁管理器
func NewRedisLock(config *Config) *RedisLock {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", config.Host, config.Port),
		Password: config.Password,
		DB:       config.DB,
	})

	prefix := config.Prefix
	if prefix == "" {
		prefix = "bidexpert"
	}

	return &RedisLock{
		client: client,
		prefix: prefix,
	}
}

// Close 关闭Redis连接
func (l *RedisLock) Close() error {
	return l.client.Close()
}

// Ping 测试Redis连接
func (l *RedisLock) Ping() error {
	ctx := context.Background()
	return l.client.Ping(ctx).Err()
}

// Acquire 尝试获取锁，返回是否成功
func (l *RedisLock) Acquire(key string, ttl time.Duration) (bool, error) {
	ctx := context.Background()
	return l.client.SetNX(ctx, l.lockKey(key), time.Now().Unix(), ttl).Result()
}

// Release 释放锁
func (l *RedisLock) Release(key string) error {
	ctx := context.Background()
	return l.client.Del(ctx, l.lockKey(key)).Err()
}

func (l *RedisLock) lockKey(key string) string {
	return fmt.Sprintf("%s:lock:%s", l.prefix, key)
}
