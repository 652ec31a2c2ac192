package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"

	"easypro/backend/config"
)

// OSSStorage 阿里云 OSS 存储
type OSSStorage struct {
	bucket *oss.Bucket
	prefix string
}

// NewOSSStorage 创建 OSS 存储
func NewOSSStorage(cfg *config.OSSConfig) (*OSSStorage, error) {
	if cfg.Endpoint == "" || cfg.AccessKeyID == "" || cfg.AccessKeySecret == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("OSS 配置不完整: endpoint/access_key_id/access_key_secret/bucket")
	}
	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("oss.New: %w", err)
	}
	bucket, err := client.Bucket(cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("client.Bucket: %w", err)
	}
	return &OSSStorage{bucket: bucket, prefix: strings.Trim(cfg.Prefix, "/")}, nil
}

func (s *OSSStorage) objectKey(key string) (string, error) {
	k, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	if s.prefix == "" || strings.HasPrefix(k, s.prefix+"/") {
		return k, nil
	}
	return path.Join(s.prefix, k), nil
}

func (s *OSSStorage) Save(ctx context.Context, key string, r io.Reader) (string, error) {
	k, err := s.objectKey(key)
	if err != nil {
		return "", err
	}
	if err := s.bucket.PutObject(k, r, oss.WithContext(ctx)); err != nil {
		return "", fmt.Errorf("上传 OSS 失败: %w", err)
	}
	return k, nil
}

func (s *OSSStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	k, err := s.objectKey(key)
	if err != nil {
		return nil, err
	}
	return s.bucket.GetObject(k, oss.WithContext(ctx))
}

func (s *OSSStorage) Delete(ctx context.Context, key string) error {
	k, err := s.objectKey(key)
	if err != nil {
		return err
	}
	return s.bucket.DeleteObject(k, oss.WithContext(ctx))
}
