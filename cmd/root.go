package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/healthmap/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "healthmap",
	Short: "Map directory of hospitals and patient associations",
	Long:  "Serves a caching proxy in front of the organization spreadsheet, and lists, searches, exports and adds organizations through it.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		if u, _ := cmd.Flags().GetString("base-url"); u != "" {
			cfg.Client.BaseURL = u
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().String("base-url", "", "proxy base URL for data commands (default from config)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
