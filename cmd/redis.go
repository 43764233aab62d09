package cmd

import (
	"context"
	"fmt"
	"log"

	"Bt1QPlay/cache"
	"Bt1QPlay/config"

	"github.com/spf13/cobra"
)

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Redis连接测试",
	Long:  `测试Redis连接，并读取当前持久化的播放音量。`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		fmt.Printf("Redis配置: %s:%s, DB: %d\n", cfg.RedisHost, cfg.RedisPort, cfg.RedisDB)

		if err := cache.ConnectRedis(cfg); err != nil {
			log.Fatalf("无法连接到Redis: %v", err)
		}
		fmt.Println("Redis连接成功！")

		ctx := context.Background()
		volumes := cache.NewVolumeCache()
		if vol, ok := volumes.Load(ctx, cfg.PlayerVolumeKey); ok {
			fmt.Printf("持久化音量 [%s]: %v\n", cfg.PlayerVolumeKey, vol)
		} else {
			fmt.Printf("键 [%s] 下没有有效的持久化音量\n", cfg.PlayerVolumeKey)
		}

		if err := cache.CloseRedis(); err != nil {
			log.Printf("关闭Redis连接时发生错误: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(redisCmd)
}
