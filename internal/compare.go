package internal

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lowrydr/tapline/internal/logger"
	"github.com/lowrydr/tapline/internal/printer"
)

func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <from> <to>",
		Short: "Compare two versions",
		Long: `Dry-run comparison of two releases: publish dates plus the release notes
of the target version. Either side may be "latest".

Examples:
  tapline compare 1.0.72 1.0.73
  tapline compare 1.0.72 latest`,
		Args: cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			p, _, err := newPipeline()
			if err != nil {
				return err
			}
			res, err := p.Compare(context.Background(), args[0], args[1])
			if err != nil {
				return err
			}
			if res.Stale {
				logger.Warn("release data may be stale (network unavailable, served from cache)")
			}

			cp := printer.NewColorPrinter()
			d := res.Diff
			fmt.Printf("%s\n\n", cp.Highlight("Version comparison"))
			fmt.Printf("  From: %s (published %s)\n", d.FromTag, d.FromDate.Format("2006-01-02"))
			fmt.Printf("  To:   %s (published %s)\n\n", d.ToTag, d.ToDate.Format("2006-01-02"))
			fmt.Printf("Changes in %s:\n%s\n", d.ToTag, d.Notes)
			return nil
		},
	}
	return cmd
}
