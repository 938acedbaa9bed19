package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newJobsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "jobs",
		Short: "Lists configured jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "JOB\tCUTOFF\tTARGETS\tURL")
			for _, name := range c.cfg.JobNames() {
				desc, _, err := c.cfg.Job(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					desc.Name, desc.QuietCutoff, strings.Join(desc.Targets, ","), desc.URLTemplate)
			}
			return w.Flush()
		},
	}
}
