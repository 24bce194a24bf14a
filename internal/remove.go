package internal

import (
	"github.com/spf13/cobra"

	"github.com/lowrydr/tapline/internal/logger"
	"github.com/lowrydr/tapline/internal/version"
)

func NewRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <version>",
		Short: "Remove a stored version",
		Long: `Delete a version's binary and metadata from the local store. The active
version is protected; switch with 'use' or 'rollback' first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			st, err := loadStore()
			if err != nil {
				return err
			}
			ver := version.Normalize(args[0])
			if err := st.Remove(ver); err != nil {
				return err
			}
			logger.Success("Removed version %s from the store", ver)
			return nil
		},
	}
	return cmd
}
