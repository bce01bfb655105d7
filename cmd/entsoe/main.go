package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/icodeforyou/entsoe-go/config"
	"github.com/icodeforyou/entsoe-go/logging"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

var Version = "?.?.?"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type app struct {
	cnfg   *config.AppConfig
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "entsoe",
		Short:         "Download load, price and imbalance series from the ENTSO-E transparency portal",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			cnfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			a.cnfg = cnfg

			level := cnfg.Logging.GetConsoleLevel()
			if s, _ := cmd.Flags().GetString("log-level"); s != "" {
				level = logging.LevelFromString(&s)
			}
			a.logger = slog.New(tint.NewHandler(cmd.ErrOrStderr(), &tint.Options{
				Level:      level,
				TimeFormat: time.RFC3339,
			}))
			slog.SetDefault(a.logger)
			return nil
		},
	}

	root.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	root.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(
		newQueryCmd(a, "load", "Total load per control area"),
		newQueryCmd(a, "price", "Day-ahead prices per bidding zone"),
		newQueryCmd(a, "imbalance", "Imbalance prices and volumes per market balancing area"),
		newAreasCmd(),
	)
	return root
}
