package commands

import (
	"github.com/spf13/cobra"

	base "github.com/n3wscott/cli-base/pkg/commands/options"
)

var (
	oo = &base.OutputOptions{}
)

func New() *cobra.Command {

	cmd := &cobra.Command{
		Use:   "journal",
		Short: base.Wrap80("Journaling on the command line, with drafts that save themselves."),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	AddCommands(cmd)
	return cmd
}

func AddCommands(topLevel *cobra.Command) {
	addList(topLevel)
	addShow(topLevel)
	addAdd(topLevel)
	addEdit(topLevel)
	addRemove(topLevel)
	addPrune(topLevel)
	addReport(topLevel)
	addWatch(topLevel)
	addUI(topLevel)
	addCompletions(topLevel)
	addVersion(topLevel)
}
