package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStorage 本地文件存储实现
type LocalStorage struct {
	basePath string // 基础存储路径
}

// LocalConfig 本地存储配置
type LocalConfig struct {
	Path string // 本地存储路径
}

// NewLocalStorage 创建本地存储实例
func NewLocalStorage(cfg LocalConfig) (*LocalStorage, error) {
	if cfg.Path == "" {
		cfg.Path = "./data/storage"
	}

	// 确保路径是绝对路径
	absPath, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %v", err)
	}

	// 确保目录存在
	if err := os.MkdirAll(absPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %v", err)
	}

	return &LocalStorage{
		basePath: absPath,
	}, nil
}

func (s *LocalStorage) filePath(key string) (string, error) {
	k, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.basePath, filepath.FromSlash(k)), nil
}

// Put 写入对象
// 先写临时文件再重命名，读者不会看到写了一半的内容
func (s *LocalStorage) Put(ctx context.Context, key string, reader io.Reader, contentType string) (ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, err
	}
	target, err := s.filePath(key)
	if err != nil {
		return ObjectInfo{}, err
	}

	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return ObjectInfo{}, fmt.Errorf("failed to create directory: %v", err)
	}

	tmp := filepath.Join(dir, ".tmp-"+uuid.New().String())
	file, err := os.Create(tmp)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("failed to create file: %v", err)
	}

	size, err := io.Copy(file, reader)
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp)
		return ObjectInfo{}, fmt.Errorf("failed to write file: %v", err)
	}

	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return ObjectInfo{}, fmt.Errorf("failed to move file into place: %v", err)
	}

	if contentType == "" {
		contentType = getMimeType(target)
	}
	stat, err := os.Stat(target)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("failed to stat file: %v", err)
	}

	k, _ := cleanKey(key)
	return ObjectInfo{
		Key:         k,
		Size:        size,
		ContentType: contentType,
		ModifiedAt:  stat.ModTime(),
	}, nil
}

// Get 获取对象内容
func (s *LocalStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	target, err := s.filePath(key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to open file: %v", err)
	}
	return file, nil
}

// Delete 删除对象
func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	target, err := s.filePath(key)
	if err != nil {
		return err
	}

	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %v", err)
	}
	return nil
}

// List 列出前缀下的对象，按键的字典序返回
func (s *LocalStorage) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var objects []ObjectInfo

	err := filepath.WalkDir(s.basePath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".tmp-") {
			return nil
		}

		rel, err := filepath.Rel(s.basePath, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		objects = append(objects, ObjectInfo{
			Key:         key,
			Size:        info.Size(),
			ContentType: getMimeType(key),
			ModifiedAt:  info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %v", err)
	}

	return objects, nil
}

// Exists 检查对象是否存在
func (s *LocalStorage) Exists(ctx context.Context, key string) (bool, error) {
	target, err := s.filePath(key)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(target)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}
