package internal

import (
	"github.com/spf13/cobra"

	"github.com/lowrydr/tapline/internal/logger"
	"github.com/lowrydr/tapline/internal/version"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tapline",
		Short: "Version manager for externally released binaries",
		Long: `Tapline fetches releases of a managed binary, verifies and installs them,
and keeps a bounded history of previous versions for inspection and rollback.`,
		Example: `  tapline update
  tapline rollback 1.0.72
  tapline list`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			logger.ConfigureFromFlags()
		},
		Run: func(cmd *cobra.Command, _ []string) {
			if v, _ := cmd.Flags().GetBool("version"); v {
				version.PrintVersion()
				return
			}
			_ = cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.Flags().BoolP("version", "v", false, "Print version information")
	cmd.PersistentFlags().BoolVarP(&logger.FlagVerbose, "verbose", "V", false, "Enable debug output")
	cmd.PersistentFlags().BoolVarP(&logger.FlagQuiet, "quiet", "q", false, "Only print errors")
	cmd.PersistentFlags().BoolVar(&logger.FlagJSON, "json-logs", false, "Log in JSON (CI)")

	RegisterSubCommands(cmd)

	return cmd
}

func Execute() error {
	return NewRootCmd().Execute()
}
