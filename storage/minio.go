package storage

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"Bt1QPlay/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var minioClient *minio.Client

// InitMinio 初始化 MinIO 客户端并确认存储桶存在
func InitMinio(cfg *config.Config) error {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{
			Region: cfg.MinioRegion,
		}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	minioClient = client
	return nil
}

// Ready 报告客户端是否已初始化
func Ready() bool {
	return minioClient != nil
}

// PresignAudioURL 为存储桶内的音频对象生成限时的预签名GET地址，
// 作为交给播放会话的定位符。引擎本身不获取音频字节。
func PresignAudioURL(ctx context.Context, cfg *config.Config, objectPath string, ttl time.Duration) (string, error) {
	if minioClient == nil {
		return "", fmt.Errorf("MinIO client not initialized")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}

	presigned, err := minioClient.PresignedGetObject(ctx, cfg.MinioBucket, objectPath, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to presign audio url: %w", err)
	}
	return presigned.String(), nil
}
