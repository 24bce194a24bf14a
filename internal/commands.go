package internal

import "github.com/spf13/cobra"

func RegisterSubCommands(root *cobra.Command) {
	root.AddCommand(
		NewInitCmd(),
		NewUpdateCmd(),
		NewRollbackCmd(),
		NewUseCmd(),
		NewListCmd(),
		NewChangelogCmd(),
		NewCompareCmd(),
		NewRemoveCmd(),
	)
}
