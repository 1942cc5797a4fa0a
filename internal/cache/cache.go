package cache

import (
	"encoding/json"
	"strings"
	"time"
)

// Cache 缓存接口
// 内容查询结果、切分结果等都以字符串形式缓存
type Cache interface {
	Get(key string) (value string, found bool, err error)
	Set(key string, value string, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Factory 缓存工厂函数类型
type Factory func(config Config) (Cache, error)

// 注册的缓存实现
var registry = make(map[string]Factory)

// RegisterCache 注册缓存实现
func RegisterCache(name string, factory Factory) {
	registry[name] = factory
}

// NewCache 创建缓存实例
func NewCache(config Config) (Cache, error) {
	if factory, ok := registry[config.Type]; ok {
		return factory(config)
	}
	// 默认使用内存缓存
	return NewMemoryCache(config)
}

// Config 缓存配置
type Config struct {
	// 缓存类型: "memory", "redis"
	Type string
	// Redis连接地址 (仅Redis缓存使用)
	RedisAddr string
	// Redis密码 (仅Redis缓存使用)
	RedisPassword string
	// Redis数据库编号 (仅Redis缓存使用)
	RedisDB int
	// 键前缀，多个站点共用一个Redis时用于隔离 (仅Redis缓存使用)
	KeyPrefix string
	// 默认缓存过期时间
	DefaultTTL time.Duration
	// 自动清理间隔时间 (仅内存缓存使用)
	CleanupInterval time.Duration
}

// DefaultConfig 返回默认缓存配置
func DefaultConfig() Config {
	return Config{
		Type:            "memory",
		KeyPrefix:       "site",
		DefaultTTL:      time.Minute,
		CleanupInterval: 5 * time.Minute,
	}
}

// GenerateCacheKey 生成标准化的缓存键
func GenerateCacheKey(prefix string, parts ...string) string {
	if len(parts) == 0 {
		return prefix
	}
	return prefix + ":" + strings.Join(parts, ":")
}

// GetJSON 读取并解码JSON缓存项
// 解码失败视为未命中
func GetJSON(c Cache, key string, out interface{}) (bool, error) {
	value, found, err := c.Get(key)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal([]byte(value), out); err != nil {
		return false, nil
	}
	return true, nil
}

// SetJSON 编码后写入缓存
func SetJSON(c Cache, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Set(key, string(data), ttl)
}
