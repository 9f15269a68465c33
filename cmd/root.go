package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tephra-labs/volcmatch/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "volcmatch",
	Short: "Sample to volcano matching engine",
	Long:  "Matches geochemical rock samples to source volcanoes by scoring spatial, tectonic, temporal, and petrological evidence against a volcano catalog.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
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
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
