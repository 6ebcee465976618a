// Package storage connects to the MinIO/S3 bucket that backs the minio provider.
package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"TemplePlayer/config"
	"TemplePlayer/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// NewMinioClient 创建 MinIO 客户端
func NewMinioClient(cfg *config.Config) (*minio.Client, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	logger.Info("[MinIO] client created",
		logger.String("endpoint", cfg.MinioEndpoint),
		logger.String("bucket", cfg.MinioBucket),
		logger.Bool("ssl", cfg.MinioUseSSL))
	return client, nil
}

// Lister lists bucket objects. *minio.Client implements it.
type Lister interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
}

// BucketStats 存储桶统计信息
type BucketStats struct {
	Bucket       string
	Prefix       string
	TotalObjects int64
	TotalSize    int64
	LastModified time.Time
	ByExtension  map[string]int64 // object count per lowercased extension
}

// CollectStats walks every object under prefix and aggregates them.
func CollectStats(ctx context.Context, l Lister, bucket, prefix string) (*BucketStats, error) {
	exists, err := l.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %s does not exist", bucket)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stats := &BucketStats{Bucket: bucket, Prefix: prefix, ByExtension: make(map[string]int64)}
	for object := range l.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if object.Err != nil {
			return nil, fmt.Errorf("list objects: %w", object.Err)
		}
		stats.TotalObjects++
		stats.TotalSize += object.Size
		if object.LastModified.After(stats.LastModified) {
			stats.LastModified = object.LastModified
		}
		ext := strings.ToLower(path.Ext(object.Key))
		if ext == "" {
			ext = "other"
		}
		stats.ByExtension[ext]++
	}
	return stats, nil
}

// FormatSize 格式化文件大小
func FormatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
