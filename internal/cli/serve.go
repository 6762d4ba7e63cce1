package cli

import (
	"github.com/spf13/cobra"

	"sheetmatch/internal/api"
	"sheetmatch/internal/config"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Serve exposes upload, comparison and export over HTTP.

Example:
  sheetmatch serve --port 8001`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return api.Serve(cmd.Context(), *a.cfg, a.logger)
		},
	}

	cmd.Flags().Int("port", config.DefaultPort, "listen port")
	_ = a.v.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	return cmd
}
