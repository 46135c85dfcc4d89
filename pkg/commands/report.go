package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"tableflip.dev/journal/pkg/commands/options"
	"tableflip.dev/journal/pkg/runner/report"

	base "github.com/n3wscott/cli-base/pkg/commands/options"
)

func addReport(topLevel *cobra.Command) {
	so := &options.SinceOptions{}
	showID := true

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Display recent entries grouped by day.",
		Example: `
journal report
journal report --days 3
journal report --since 2/28
journal report --last 1w2d`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			until := time.Now()
			since, err := so.GetSince(until)
			if err != nil {
				return oo.HandleError(err)
			}
			return withEnv(false, func(ctx context.Context, env *environment) error {
				r := report.Report{
					Service: env.service,
					Since:   since,
					Until:   until,
					ShowID:  showID,
					JSON:    oo.JSON,
				}
				return r.Do(ctx)
			})
		},
	}

	options.AddSinceArgs(cmd, so)
	options.AddShowIDArgs(cmd, &showID)
	base.AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}
