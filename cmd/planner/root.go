package main

import (
	"deco-planner/internal/config"
	"deco-planner/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app общее состояние команд: конфигурация и логгер после PersistentPreRunE.
type app struct {
	cfgFile  string
	logLevel string
	cfg      *config.Config
	logger   *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "planner",
		Short: "Decompression dive planner",
		Long: `Plans open circuit dives with Bühlmann ZH-L16C and gradient factors:
decompression profile, no decompression limit, oxygen toxicity,
gas consumption with rock bottom reserve and nitrox calculators.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	rootCmd.AddCommand(newCalculateCmd(a), newNitroxCmd(a), newVersionCmd())
	return rootCmd
}

func (a *app) init() error {
	cfg, err := config.LoadFile(a.cfgFile)
	if err != nil {
		return err
	}

	log, err := logger.New(a.logLevel, false)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = log
	return nil
}
