package internal

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/lowrydr/tapline/internal/logger"
)

func NewRollbackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rollback <version>",
		Short: "Roll back to a previously installed version",
		Long: `Reinstall a version already present in the local store. No network access
is needed; the stored binary is placed and the current pointer moved.

Examples:
  tapline rollback 1.0.72`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			p, cfg, err := newPipeline()
			if err != nil {
				return err
			}
			res, err := p.Rollback(context.Background(), args[0])
			if err != nil {
				return err
			}
			logger.Success("Rolled %s back to %s", cfg.Binary, res.To)
			return nil
		},
	}
	return cmd
}
