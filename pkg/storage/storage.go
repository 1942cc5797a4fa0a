package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// ErrObjectNotFound 对象不存在
var ErrObjectNotFound = errors.New("object not found")

// ObjectInfo 对象元数据
type ObjectInfo struct {
	Key         string    // 对象键，使用 / 分隔
	Size        int64     // 大小(字节)
	ContentType string    // MIME类型
	ModifiedAt  time.Time // 最后修改时间
}

// Storage 对象存储接口
// 以键寻址，同一个键重复写入会覆盖旧内容
type Storage interface {
	// Put 写入对象
	Put(ctx context.Context, key string, reader io.Reader, contentType string) (ObjectInfo, error)

	// Get 读取对象内容，对象不存在时返回 ErrObjectNotFound
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete 删除对象，对象不存在不算错误
	Delete(ctx context.Context, key string) error

	// List 列出指定前缀下的对象
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)

	// Exists 检查对象是否存在
	Exists(ctx context.Context, key string) (bool, error)
}

// Config 存储配置
type Config struct {
	Type      string // local 或 minio
	Path      string // 本地存储路径
	Bucket    string // MinIO桶名称
	Endpoint  string // MinIO端点
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// New 根据配置创建存储实例
func New(cfg Config) (Storage, error) {
	switch cfg.Type {
	case "", "local":
		return NewLocalStorage(LocalConfig{Path: cfg.Path})
	case "minio":
		return NewMinioStorage(MinioConfig{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			UseSSL:    cfg.UseSSL,
			Bucket:    cfg.Bucket,
		})
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// cleanKey 规范化对象键，拒绝跳出根目录的键
func cleanKey(key string) (string, error) {
	k := path.Clean("/" + strings.ReplaceAll(key, "\\", "/"))
	k = strings.TrimPrefix(k, "/")
	if k == "" || k == "." {
		return "", fmt.Errorf("invalid object key: %q", key)
	}
	return k, nil
}

// getMimeType 根据扩展名判断MIME类型
func getMimeType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return "application/json"
	case ".pdf":
		return "application/pdf"
	case ".xml":
		return "application/xml"
	case ".txt":
		return "text/plain"
	case ".html":
		return "text/html"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}
