package internal

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lowrydr/tapline/internal/logger"
	"github.com/lowrydr/tapline/internal/pipeline"
	"github.com/lowrydr/tapline/internal/utils"
)

func NewUpdateCmd() *cobra.Command {
	var (
		force bool
		check bool
		asset string
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update the managed binary to the latest release",
		Long: `Fetch the latest release, download and verify its artifact, and install it.
The previously active version stays in the store until retention evicts it.

Examples:
  tapline update              # update if a newer release exists
  tapline update --force      # reinstall even when already up to date
  tapline update --check      # only report whether an update exists`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, cfg, err := newPipeline()
			if err != nil {
				return err
			}

			ctx := context.Background()

			if check {
				return runCheck(ctx, p)
			}

			p.SetObserver(progressObserver())

			res, err := p.Update(ctx, pipeline.UpdateOptions{Force: force, Asset: asset})
			if err != nil {
				return err
			}

			for _, w := range res.Warnings {
				logger.Warn("%s", w)
			}
			if res.Stale {
				logger.Warn("release data may be stale (network unavailable, served from cache)")
			}

			switch res.Outcome {
			case pipeline.UpToDate:
				logger.Success("Already on the latest version (%s)", res.From)
			case pipeline.Updated:
				if res.From == "" {
					logger.Success("Installed %s %s", cfg.Binary, res.To)
				} else {
					logger.Success("Updated %s %s -> %s", cfg.Binary, res.From, res.To)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Update even if already on the latest version")
	cmd.Flags().BoolVar(&check, "check", false, "Only check whether an update is available")
	cmd.Flags().StringVar(&asset, "asset", "", "Override the release asset to download")

	return cmd
}

func runCheck(ctx context.Context, p *pipeline.Pipeline) error {
	res, err := p.Compare(ctx, "latest", "latest")
	if err != nil {
		return err
	}
	recs, lerr := p.ListRecords()
	local := "none"
	if lerr == nil && len(recs.Records) > 0 {
		local = recs.Records[0].Version
	}
	logger.Info("Latest release: %s (local: %s)", res.To, local)
	return nil
}

// progressObserver renders a plain single-line progress readout. Rendering
// stays out of the core: this is CLI glue around the advisory callback.
func progressObserver() func(done, total int64) {
	if logger.FlagQuiet {
		return nil
	}
	var lastPct int64 = -1
	return func(done, total int64) {
		if total <= 0 {
			fmt.Fprintf(os.Stdout, "\rdownloaded %s", utils.HumanSize(done))
			return
		}
		pct := done * 100 / total
		if pct != lastPct {
			lastPct = pct
			fmt.Fprintf(os.Stdout, "\rdownloading... %3d%% (%s / %s)", pct, utils.HumanSize(done), utils.HumanSize(total))
		}
		if done >= total {
			fmt.Fprintln(os.Stdout)
		}
	}
}
