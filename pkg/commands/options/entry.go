package options

import (
	"strings"

	"github.com/spf13/cobra"
)

// EntryOptions
type EntryOptions struct {
	Title   string
	Content string
}

func AddEntryArgs(cmd *cobra.Command, o *EntryOptions) {
	cmd.Flags().StringVarP(&o.Title, "title", "t", "",
		"Title of the entry.")
	cmd.Flags().StringVarP(&o.Content, "content", "c", "",
		"Content of the entry.")
}

// TitleSet reports whether --title was given, even as an empty string.
func (o *EntryOptions) TitleSet(cmd *cobra.Command) bool {
	return cmd.Flags().Changed("title")
}

// ContentSet reports whether --content was given, even as an empty string.
func (o *EntryOptions) ContentSet(cmd *cobra.Command) bool {
	return cmd.Flags().Changed("content")
}

// ContentFromArgs uses positional words as content unless --content was set.
func (o *EntryOptions) ContentFromArgs(args []string) {
	if o.Content == "" && len(args) > 0 {
		o.Content = strings.Join(args, " ")
	}
}
