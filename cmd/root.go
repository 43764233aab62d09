package cmd

import (
	"fmt"
	"os"

	"Bt1QPlay/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "bt1qplay",
	Short: "Bt1QPlay is a playback coordination service for audio widgets.",
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
