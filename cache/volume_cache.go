package cache

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"Bt1QPlay/logger"

	"github.com/go-redis/redis/v8"
)

// VolumeCache 基于Redis持久化播放器的用户音量偏好。
// 每个播放器一个字符串键，值为 [0,1] 范围内的十进制小数。
type VolumeCache struct{}

// NewVolumeCache 创建音量缓存
func NewVolumeCache() *VolumeCache {
	return &VolumeCache{}
}

// VolumeKey 根据播放器标识生成Redis键
func VolumeKey(key string) string {
	return fmt.Sprintf("player:volume:%s", key)
}

// Load 读取持久化的音量。键不存在、值无法解析或越界时返回 false，
// 由调用方回退到默认音量。
func (c *VolumeCache) Load(ctx context.Context, key string) (float64, bool) {
	if RedisClient == nil {
		return 0, false
	}

	raw, err := RedisClient.Get(ctx, VolumeKey(key)).Result()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("failed to load persisted volume",
				logger.ErrorField(err),
				logger.String("key", key))
		}
		return 0, false
	}

	vol, ok := parseVolume(raw)
	if !ok {
		// 损坏的值按缺失处理
		logger.Warn("discarding malformed persisted volume",
			logger.String("key", key),
			logger.String("raw", raw))
		return 0, false
	}
	return vol, true
}

// Save 以规范十进制字符串写入音量，不设置过期时间。
func (c *VolumeCache) Save(ctx context.Context, key string, value float64) error {
	if RedisClient == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	raw := strconv.FormatFloat(value, 'f', -1, 64)
	if err := RedisClient.Set(ctx, VolumeKey(key), raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to save volume: %w", err)
	}
	return nil
}

// parseVolume 解析并校验持久化的音量字符串
func parseVolume(raw string) (float64, bool) {
	vol, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	if math.IsNaN(vol) || vol < 0 || vol > 1 {
		return 0, false
	}
	return vol, true
}
