package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var cfg *Config

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "cbgame",
		Short: "Client for the codebreaker game server",
		Long: `cbgame is a client for the codebreaker game server.

It can join and play a multiplayer game over the line-oriented TCP
protocol, and query the read-only status API.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.GameAddr, "addr", cfg.GameAddr, "Game server address (env: CBGAME_ADDR)")
	rootCmd.PersistentFlags().StringVar(&cfg.StatusURL, "status-url", cfg.StatusURL, "Status API base URL (env: CBGAME_STATUS_URL)")

	// Add subcommands
	rootCmd.AddCommand(newPlayCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
