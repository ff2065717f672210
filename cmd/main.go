package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"go-raidguard/internal/bootstrap"
	"go-raidguard/internal/config"
	"go-raidguard/internal/logging"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "raidguard",
		Short:         "Raid and spam protection for Discord servers",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "config.json", "path to the JSON config file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")

	root.AddCommand(newTiersCommand(opts))
	return root
}

func loadConfig(opts *rootOptions) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config load failed, using defaults: %v\n", err)
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	return cfg, cfg.Validate()
}

func run(ctx context.Context, opts *rootOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Path)
	if err != nil {
		return err
	}
	logging.SetGlobal(logger)
	defer logging.Sync()

	tiers, err := config.LoadTierTable(cfg.Detection.ThresholdFile)
	if err != nil {
		return err
	}

	b := bootstrap.New(cfg, tiers, logger)
	if err := b.Initialize(); err != nil {
		logger.Error("startup failed: %v", err)
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := b.Run(ctx); err != nil {
		logger.Error("raidguard stopped with error: %v", err)
		return err
	}
	logger.Info("Shutdown complete")
	return nil
}

func newTiersCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tiers",
		Short: "Print the effective detection tiers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadOrDefault(opts.configPath)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Config load failed, using defaults: %v\n", err)
			}

			tiers, err := config.LoadTierTable(cfg.Detection.ThresholdFile)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, kind := range tiers.Kinds() {
				for _, tier := range tiers.Tiers(kind) {
					fmt.Fprintln(out, tier.String())
				}
			}
			return nil
		},
	}
}
