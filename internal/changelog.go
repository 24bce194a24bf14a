package internal

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lowrydr/tapline/internal/logger"
	"github.com/lowrydr/tapline/internal/pipeline"
)

func NewChangelogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "changelog [version]",
		Short: "Show release notes for a version",
		Long: `Print the release notes for the given version, or for the latest release
when no version is given.

Examples:
  tapline changelog
  tapline changelog 1.0.73`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			p, _, err := newPipeline()
			if err != nil {
				return err
			}
			ver := ""
			if len(args) == 1 {
				ver = args[0]
			}
			rel, err := p.Changelog(context.Background(), ver)
			if err != nil {
				return err
			}
			if rel.Stale {
				logger.Warn("release data may be stale (network unavailable, served from cache)")
			}
			fmt.Println(pipeline.FormatNotes(rel))
			return nil
		},
	}
	return cmd
}
