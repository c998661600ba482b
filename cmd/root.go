package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/docfill/internal/config"
)

var (
	cfg         *config.Config
	sessionFlag string
)

var rootCmd = &cobra.Command{
	Use:   "docfill",
	Short: "Document-derived auto-fill for academic record forms",
	Long:  "Sends supporting documents to the extraction service, keeps the result per session, and maps it onto record forms without overwriting typed values.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if sessionFlag != "" {
			c.Session.ID = sessionFlag
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&sessionFlag, "session", "", "session id (default from config)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
