package commands

import (
	"context"

	"github.com/spf13/cobra"

	"tableflip.dev/journal/pkg/runner/watch"

	base "github.com/n3wscott/cli-base/pkg/commands/options"
)

func addWatch(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream change events until interrupted.",
		Example: `
journal watch
journal watch --json
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(false, func(ctx context.Context, env *environment) error {
				w := watch.Watch{
					Service: env.service,
					JSON:    oo.JSON,
				}
				return w.Do(ctx)
			})
		},
	}

	base.AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}
