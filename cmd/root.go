package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garagedata/vehiclefacts/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "vehiclefacts",
	Short: "Vehicle attribute resolution engine",
	Long:  "Resolves vehicle attributes from noisy multi-source observations into canonical values with calibrated confidence, evidence audit trails, and TTL caching.",
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
