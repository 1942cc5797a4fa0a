package richtext

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"time"

	"github.com/fyerfyer/motorsport-site/internal/cache"
)

// Memo 缓存切分结果
// 同一文档在多次渲染之间只切分一次
type Memo struct {
	cache cache.Cache
	ttl   time.Duration
}

// NewMemo 创建切分结果缓存
func NewMemo(c cache.Cache, ttl time.Duration) *Memo {
	return &Memo{cache: c, ttl: ttl}
}

// Split 带缓存的切分
// 缓存读写失败不影响结果，直接退回到实时计算
func (m *Memo) Split(doc Document, maxChars int) SplitResult {
	if m == nil || m.cache == nil {
		return Split(doc, maxChars)
	}

	key, err := Fingerprint(doc)
	if err != nil {
		return Split(doc, maxChars)
	}
	key = cache.GenerateCacheKey("richtext_split", key, strconv.Itoa(maxChars))

	if cached, found, err := m.cache.Get(key); err == nil && found {
		var result SplitResult
		if err := json.Unmarshal([]byte(cached), &result); err == nil {
			if result.Before == nil {
				result.Before = Document{}
			}
			if result.After == nil {
				result.After = Document{}
			}
			return result
		}
	}

	result := Split(doc, maxChars)
	if data, err := json.Marshal(result); err == nil {
		_ = m.cache.Set(key, string(data), m.ttl)
	}
	return result
}

// Fingerprint 文档内容指纹
func Fingerprint(doc Document) (string, error) {
	if doc == nil {
		doc = Document{}
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
