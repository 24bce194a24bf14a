package internal

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/lowrydr/tapline/internal/logger"
)

func NewUseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "use <version>",
		Short: "Activate an already installed version",
		Long: `Activate a version that is present in the store without downloading
anything. Useful after pre-staging a version with 'update' on another
channel, or to flip between retained versions.`,
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
			logger.Success("Now using %s %s", cfg.Binary, res.To)
			return nil
		},
	}
	return cmd
}
