package commands

import (
	"context"

	"github.com/spf13/cobra"

	"tableflip.dev/journal/pkg/runner/ui"
)

func addUI(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "ui",
		Short: "open the text-based user interface",
		Example: `
journal ui
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(true, func(ctx context.Context, env *environment) error {
				i := ui.UI{
					Service: env.service,
					Options: env.draftOptions(),
				}
				return i.Do(ctx)
			})
		},
	}

	topLevel.AddCommand(cmd)
}
