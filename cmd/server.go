package cmd

import (
	"Bt1QPlay/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动播放协调服务器",
	Long:  `启动播放协调服务器，提供共享播放会话的控制接口与状态推送。`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
