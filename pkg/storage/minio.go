package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStorage MinIO存储实现
type MinioStorage struct {
	client     *minio.Client // MinIO客户端
	bucketName string        // 存储桶名称
}

// MinioConfig MinIO存储配置
type MinioConfig struct {
	Endpoint  string // MinIO服务端点
	AccessKey string // 访问密钥ID
	SecretKey string // 秘密访问密钥
	UseSSL    bool   // 是否使用SSL
	Bucket    string // 存储桶名称
}

// NewMinioStorage 创建MinIO存储实例
func NewMinioStorage(cfg MinioConfig) (*MinioStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %v", err)
	}

	// 检查存储桶是否存在，不存在则创建
	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check if bucket exists: %v", err)
	}

	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %v", err)
		}
	}

	return &MinioStorage{
		client:     client,
		bucketName: cfg.Bucket,
	}, nil
}

// Put 写入对象
// 快照和PDF都很小，整体读入内存后上传
func (s *MinioStorage) Put(ctx context.Context, key string, reader io.Reader, contentType string) (ObjectInfo, error) {
	k, err := cleanKey(key)
	if err != nil {
		return ObjectInfo{}, err
	}

	content, err := io.ReadAll(reader)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("failed to read object content: %v", err)
	}
	if contentType == "" {
		contentType = getMimeType(k)
	}

	info, err := s.client.PutObject(
		ctx,
		s.bucketName,
		k,
		bytes.NewReader(content),
		int64(len(content)),
		minio.PutObjectOptions{ContentType: contentType},
	)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("failed to upload object: %v", err)
	}

	return ObjectInfo{
		Key:         k,
		Size:        info.Size,
		ContentType: contentType,
		ModifiedAt:  info.LastModified,
	}, nil
}

// Get 获取对象
// GetObject是惰性的，先Stat以便区分不存在的对象
func (s *MinioStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	k, err := cleanKey(key)
	if err != nil {
		return nil, err
	}

	if _, err := s.client.StatObject(ctx, s.bucketName, k, minio.StatObjectOptions{}); err != nil {
		if isNoSuchKey(err) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to stat object: %v", err)
	}

	obj, err := s.client.GetObject(ctx, s.bucketName, k, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %v", err)
	}
	return obj, nil
}

// Delete 删除对象
func (s *MinioStorage) Delete(ctx context.Context, key string) error {
	k, err := cleanKey(key)
	if err != nil {
		return err
	}

	if err := s.client.RemoveObject(ctx, s.bucketName, k, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object: %v", err)
	}
	return nil
}

// List 列出前缀下的对象
func (s *MinioStorage) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var objects []ObjectInfo

	objectCh := s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{
		Prefix:    strings.TrimPrefix(prefix, "/"),
		Recursive: true,
	})

	for object := range objectCh {
		if object.Err != nil {
			return nil, fmt.Errorf("error listing objects: %v", object.Err)
		}
		objects = append(objects, ObjectInfo{
			Key:         object.Key,
			Size:        object.Size,
			ContentType: getMimeType(object.Key),
			ModifiedAt:  object.LastModified,
		})
	}

	return objects, nil
}

// Exists 检查对象是否存在
func (s *MinioStorage) Exists(ctx context.Context, key string) (bool, error) {
	k, err := cleanKey(key)
	if err != nil {
		return false, err
	}

	_, err = s.client.StatObject(ctx, s.bucketName, k, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if isNoSuchKey(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat object: %v", err)
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}
