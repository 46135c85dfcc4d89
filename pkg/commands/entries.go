package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"tableflip.dev/journal/pkg/commands/options"
	"tableflip.dev/journal/pkg/printers"
	"tableflip.dev/journal/pkg/runner/add"
	"tableflip.dev/journal/pkg/runner/list"
	"tableflip.dev/journal/pkg/runner/prune"
	"tableflip.dev/journal/pkg/runner/remove"
	"tableflip.dev/journal/pkg/runner/show"

	base "github.com/n3wscott/cli-base/pkg/commands/options"
)

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid entry id %q", arg)
	}
	return id, nil
}

func addList(topLevel *cobra.Command) {
	lo := &options.ListOptions{}

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List entries, newest first.",
		Example: `
journal list
journal list --all --json
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(false, func(ctx context.Context, env *environment) error {
				l := list.List{
					Service: env.service,
					All:     lo.All,
					ShowID:  lo.ShowID,
					JSON:    oo.JSON,
				}
				return l.Do(ctx)
			})
		},
	}

	options.AddListArgs(cmd, lo)
	base.AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}

func addShow(topLevel *cobra.Command) {
	showID := true

	cmd := &cobra.Command{
		Use:               "show <id>",
		Short:             "Print one entry.",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: entryCompletions,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return oo.HandleError(err)
			}
			return withEnv(false, func(ctx context.Context, env *environment) error {
				s := show.Show{
					Service: env.service,
					ID:      id,
					ShowID:  showID,
					JSON:    oo.JSON,
				}
				return s.Do(ctx)
			})
		},
	}

	options.AddShowIDArgs(cmd, &showID)
	base.AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}

func addAdd(topLevel *cobra.Command) {
	eo := &options.EntryOptions{}

	cmd := &cobra.Command{
		Use:   "add [words...]",
		Short: "Add an entry.",
		Long: base.Wrap80("Add an entry. Positional words become the content unless " +
			"--content is given. An entry with neither title nor content is refused."),
		Example: `
journal add --title standup talked about the release
journal add -t "Groceries" -c "eggs, milk"
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			eo.ContentFromArgs(args)
			return withEnv(false, func(ctx context.Context, env *environment) error {
				a := add.Add{
					Service: env.service,
					Title:   eo.Title,
					Content: eo.Content,
					JSON:    oo.JSON,
				}
				return a.Do(ctx)
			})
		},
	}

	options.AddEntryArgs(cmd, eo)
	base.AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}

func addRemove(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:               "rm <id>",
		Aliases:           []string{"remove", "delete"},
		Short:             "Delete an entry.",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: entryCompletions,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return oo.HandleError(err)
			}
			return withEnv(false, func(ctx context.Context, env *environment) error {
				r := remove.Remove{
					Service: env.service,
					ID:      id,
					JSON:    oo.JSON,
				}
				return r.Do(ctx)
			})
		},
	}

	base.AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}

func addPrune(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete entries with neither title nor content.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(false, func(ctx context.Context, env *environment) error {
				p := prune.Prune{
					Service: env.service,
					JSON:    oo.JSON,
				}
				return p.Do(ctx)
			})
		},
	}

	base.AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}

// entryCompletions offers stored ids, described by their titles.
func entryCompletions(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	env, err := loadEnv(false)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	defer env.Close()
	all, err := env.service.Entries(context.Background(), false)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	ids := make([]string, 0, len(all))
	for _, e := range all {
		ids = append(ids, fmt.Sprintf("%d\t%s", e.ID, printers.DisplayTitle(e)))
	}
	return ids, cobra.ShellCompDirectiveNoFileComp
}
