package database

import (
	"bidexpert/pkg/config"
	"bidexpert/pkg/lock"
	"sync"
)

var (
	redisLockInstance *lock.RedisLock
	redisLockOnce     sync.Once
)

// GetRedisLock 获取Redis锁管理器的单例实例
func GetRedisLock() *lock.RedisLock {
	redisLockOnce.Do(func() {
		cfg := config.GetConfig()
		redisLockInstance = lock.NewRedisLock(&lock.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
	})
	return redisLockInstance
}

// CloseRedisLock 关闭Redis连接
func CloseRedisLock() error {
	if redisLockInstance != nil {
		return redisLockInstance.Close()
	}
	return nil
}
