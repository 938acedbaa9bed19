package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newCrawlCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "crawl <job>",
		Short: "Runs one sweep of a configured job",
		Long: `Fetches every target of the job in order, evaluates the responses and
sends alerts. The first fetch or parse failure is announced and ends the run
with a non-zero exit status.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCrawl(cmd, args[0])
		},
	}
}

func (c *cli) runCrawl(cmd *cobra.Command, name string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, c.cfg, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize application services: %w", err)
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			c.logger.Warn("failed to close application services", zap.Error(cerr))
		}
	}()

	result, err := a.RunJob(ctx, name)
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s: fetched=%d alerts=%d sent=%d suppressed=%d\n",
		name, result.Status,
		result.Counters.Fetched, result.Counters.Alerts,
		result.Counters.Sent, result.Counters.Suppressed,
	)
	if err != nil {
		return fmt.Errorf("run %s: %w", name, err)
	}
	return nil
}
