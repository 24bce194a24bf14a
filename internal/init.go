package internal

import (
	"github.com/spf13/cobra"

	"github.com/lowrydr/tapline/internal/globalconfig"
	"github.com/lowrydr/tapline/internal/logger"
)

func NewInitCmd() *cobra.Command {
	var (
		repo   string
		binary string
		keep   int
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the persistent configuration",
		Long: `Create or update ~/.config/tapline/config.yml with the release repository,
managed binary name and retention bound.

Examples:
  tapline init
  tapline init --repo sst/opencode --binary opencode --keep 2`,
		RunE: func(_ *cobra.Command, _ []string) error {
			pc, err := globalconfig.Load()
			if err != nil {
				return err
			}
			if repo != "" {
				pc.Repo = repo
			}
			if binary != "" {
				pc.Binary = binary
			}
			if keep > 0 {
				pc.KeepVersions = keep
			}
			if err := pc.Save(); err != nil {
				return err
			}
			logger.Success("Configuration saved (repo=%s binary=%s keep=%d)", pc.Repo, pc.Binary, pc.KeepVersions)
			return nil
		},
	}

	cmd.Flags().StringVar(&repo, "repo", "", "Release repository (owner/name)")
	cmd.Flags().StringVar(&binary, "binary", "", "Managed binary name")
	cmd.Flags().IntVar(&keep, "keep", 0, "Non-current versions to retain")

	return cmd
}
