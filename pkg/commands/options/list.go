package options

import (
	"github.com/spf13/cobra"
)

// ListOptions
type ListOptions struct {
	All    bool
	ShowID bool
}

func AddListArgs(cmd *cobra.Command, o *ListOptions) {
	cmd.Flags().BoolVarP(&o.All, "all", "a", false,
		"Include empty drafts.")
	AddShowIDArgs(cmd, &o.ShowID)
}

func AddShowIDArgs(cmd *cobra.Command, showID *bool) {
	cmd.Flags().BoolVarP(showID, "show-id", "k", true,
		"Show the ID of each entry.")
}
