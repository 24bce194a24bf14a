package internal

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/lowrydr/tapline/internal/logger"
	"github.com/lowrydr/tapline/internal/printer"
)

// how many remote releases list --remote shows
const remoteCount = 10

func NewListCmd() *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List installed versions",
		Long: `Show the versions retained in the local store, newest install first,
optionally alongside the latest remote release.

Examples:
  tapline list
  tapline list --remote`,
		RunE: func(_ *cobra.Command, _ []string) error {
			p, _, err := newPipeline()
			if err != nil {
				return err
			}
			res, err := p.ListRecords()
			if err != nil {
				return err
			}

			st, err := loadStore()
			if err != nil {
				return err
			}
			current, _, err := st.CurrentVersion()
			if err != nil {
				return err
			}

			cp := printer.NewColorPrinter()
			table := logger.CreateTable([]string{"Version", "Installed", "Released", "Checksum", "Active"})
			for _, rec := range res.Records {
				active := ""
				if rec.Version == current {
					active = cp.Success("current")
				}
				checks := cp.Warning("unverified")
				if rec.Checksum != "" {
					checks = cp.Success("sha256")
				}
				_ = table.Append([]string{
					rec.Version,
					rec.InstalledAt.Format(time.RFC3339),
					rec.ReleaseDate.Format("2006-01-02"),
					checks,
					active,
				})
			}
			if err := table.Render(); err != nil {
				return err
			}

			if remote {
				releases, err := p.RecentReleases(context.Background(), remoteCount)
				if err != nil {
					logger.Warn("could not reach the release API: %v", err)
					return nil
				}

				installed := make(map[string]bool, len(res.Records))
				for _, rec := range res.Records {
					installed[rec.Version] = true
				}

				logger.Info("Recent remote releases:")
				rt := logger.CreateTable([]string{"Tag", "Published", "Installed"})
				for _, rel := range releases {
					mark := ""
					if installed[rel.Version()] {
						mark = cp.Success("yes")
					}
					_ = rt.Append([]string{
						rel.TagName,
						rel.PublishedAt.Format("2006-01-02"),
						mark,
					})
				}
				if err := rt.Render(); err != nil {
					return err
				}
				if len(releases) > 0 && releases[0].Stale {
					logger.Warn("release data may be stale (network unavailable, served from cache)")
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "Also show the latest remote release")

	return cmd
}
