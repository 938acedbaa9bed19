// Package cmd defines and implements the CLI commands for the crawler-notifier executable.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/crawler-notifier/internal/app"
	"github.com/JakeFAU/crawler-notifier/internal/config"
	"github.com/JakeFAU/crawler-notifier/internal/crawler"
	"github.com/JakeFAU/crawler-notifier/internal/logging"
)

// Runner is the part of the application the commands use. Tests replace it.
type Runner interface {
	RunJob(ctx context.Context, name string) (crawler.RunResult, error)
	Close() error
}

// newApp is the application factory. It's a variable so tests can inject a fake.
var newApp = func(ctx context.Context, cfg config.Config, logger *zap.Logger) (Runner, error) {
	return app.NewApp(ctx, cfg, logger)
}

// newLogger is replaced in tests to capture output.
var newLogger = func(cfg config.Config) (*zap.Logger, error) {
	return logging.New(logging.Options{
		Development: cfg.Logging.Development,
		Level:       cfg.Logging.Level,
	})
}

type cli struct {
	cfgFile string
	cfg     config.Config
	logger  *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	cmd := &cobra.Command{
		Use:   "crawler-notifier",
		Short: "Runs monitoring jobs and notifies a chat channel about alerts.",
		Long: `crawler-notifier fetches a JSON endpoint for every target of a job,
evaluates each response and sends alerts to a chat channel. After a delivery
the target stays quiet until the job's daily cutoff.`,
		SilenceUsage:  true,
		SilenceErrors: true,

		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load(c.cfgFile)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return fmt.Errorf("logger init failed: %w", err)
			}
			c.cfg = cfg
			c.logger = logger
			return nil
		},

		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&c.cfgFile, "config", "", "path to config file")

	cmd.AddCommand(newCrawlCmd(c))
	cmd.AddCommand(newJobsCmd(c))

	return cmd
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}
