package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vampbrain/SafeSteps/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "safesteps",
	Short: "Spatial risk engine and route safety scorer",
	Long:  "Scores candidate travel routes against a crime-hotspot model: exponential distance-decay risk, hour-of-day adjustment, percentile-calibrated classification, and safest-route recommendation.",
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
