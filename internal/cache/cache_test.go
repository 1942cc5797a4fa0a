package cache

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMemoryCache 测试内存缓存的基本功能
func TestMemoryCache(t *testing.T) {
	cache, err := NewMemoryCache(Config{
		Type:            "memory",
		DefaultTTL:      time.Second * 2,
		CleanupInterval: time.Second,
	})
	require.NoError(t, err)

	// 测试Set和Get
	require.NoError(t, cache.Set("key1", "value1", 0))
	val, found, err := cache.Get("key1")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "value1", val)

	// 测试不存在的键
	val, found, err = cache.Get("non-existent")
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, val)

	// 测试过期
	require.NoError(t, cache.Set("expire-soon", "temp-value", time.Millisecond*200))
	time.Sleep(time.Millisecond * 400)
	_, found, err = cache.Get("expire-soon")
	assert.NoError(t, err)
	assert.False(t, found)

	// 测试删除
	require.NoError(t, cache.Set("to-delete", "delete-me", 0))
	require.NoError(t, cache.Delete("to-delete"))
	_, found, _ = cache.Get("to-delete")
	assert.False(t, found)

	// 测试清空
	require.NoError(t, cache.Set("key2", "value2", 0))
	require.NoError(t, cache.Clear())
	_, found, _ = cache.Get("key2")
	assert.False(t, found)
	assert.Equal(t, 0, cache.(*MemoryCache).ItemCount())
}

// TestRedisCache 使用miniredis测试Redis缓存
func TestRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)

	cache, err := NewRedisCache(Config{
		Type:       "redis",
		RedisAddr:  mr.Addr(),
		KeyPrefix:  "site",
		DefaultTTL: time.Minute,
	})
	require.NoError(t, err)
	defer cache.(*RedisCache).Close()

	require.NoError(t, cache.Set("home", "payload", 0))
	assert.True(t, mr.Exists("site:home"))
	assert.Equal(t, time.Minute, mr.TTL("site:home"))

	val, found, err := cache.Get("home")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "payload", val)

	_, found, err = cache.Get("missing")
	assert.NoError(t, err)
	assert.False(t, found)

	// 过期
	require.NoError(t, cache.Set("short", "x", time.Second))
	mr.FastForward(2 * time.Second)
	_, found, _ = cache.Get("short")
	assert.False(t, found)

	// Clear只删除本前缀下的键
	require.NoError(t, mr.Set("other:key", "keep"))
	require.NoError(t, cache.Set("a", "1", 0))
	require.NoError(t, cache.Set("b", "2", 0))
	require.NoError(t, cache.Clear())
	assert.False(t, mr.Exists("site:a"))
	assert.False(t, mr.Exists("site:b"))
	assert.True(t, mr.Exists("other:key"))

	require.NoError(t, cache.Set("c", "3", 0))
	require.NoError(t, cache.Delete("c"))
	assert.False(t, mr.Exists("site:c"))
}

// TestCacheFactory 测试缓存工厂函数
func TestCacheFactory(t *testing.T) {
	memCache, err := NewCache(DefaultConfig())
	assert.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, memCache)

	mr := miniredis.RunT(t)
	redisCache, err := NewCache(Config{Type: "redis", RedisAddr: mr.Addr()})
	require.NoError(t, err)
	assert.IsType(t, &RedisCache{}, redisCache)

	// 未知类型回退到内存缓存
	unknownCache, err := NewCache(Config{Type: "unknown-type"})
	assert.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, unknownCache)

	// Redis不可用时返回错误
	_, err = NewCache(Config{Type: "redis", RedisAddr: "127.0.0.1:1"})
	assert.Error(t, err)
}

// TestGenerateCacheKey 测试缓存键生成
func TestGenerateCacheKey(t *testing.T) {
	assert.Equal(t, "prefix", GenerateCacheKey("prefix"))
	assert.Equal(t, "prefix:part1", GenerateCacheKey("prefix", "part1"))
	assert.Equal(t, "prefix:part1:part2:part3", GenerateCacheKey("prefix", "part1", "part2", "part3"))
}

func TestJSONHelpers(t *testing.T) {
	c, err := NewMemoryCache(DefaultConfig())
	require.NoError(t, err)

	type item struct {
		Name string `json:"name"`
	}
	require.NoError(t, SetJSON(c, "k", item{Name: "hero"}, 0))

	var got item
	found, err := GetJSON(c, "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "hero", got.Name)

	require.NoError(t, c.Set("bad", "{not json", 0))
	found, err = GetJSON(c, "bad", &got)
	assert.NoError(t, err)
	assert.False(t, found)
}
