package commands

import (
	"context"

	"github.com/spf13/cobra"

	"tableflip.dev/journal/pkg/commands/options"
	"tableflip.dev/journal/pkg/runner/edit"

	base "github.com/n3wscott/cli-base/pkg/commands/options"
)

func addEdit(topLevel *cobra.Command) {
	eo := &options.EntryOptions{}

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit an entry through a draft session.",
		Long: base.Wrap80("Edit opens a draft session for the entry, replaces the fields " +
			"given by flags and closes the session. Clearing both title and content " +
			"deletes the entry, exactly as leaving a blank draft in the UI does."),
		Example: `
journal edit 3 --title "Monday"
journal edit 3 --title "" --content ""
`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: entryCompletions,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return oo.HandleError(err)
			}
			return withEnv(false, func(ctx context.Context, env *environment) error {
				e := edit.Edit{
					Service: env.service,
					ID:      id,
					Options: env.draftOptions(),
					JSON:    oo.JSON,
				}
				if eo.TitleSet(cmd) {
					e.Title = &eo.Title
				}
				if eo.ContentSet(cmd) {
					e.Content = &eo.Content
				}
				return e.Do(ctx)
			})
		},
	}

	options.AddEntryArgs(cmd, eo)
	base.AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}
