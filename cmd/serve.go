package cmd

import (
	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/azurely-cli/pkg/logging"
	"github.com/otherjamesbrown/azurely-cli/pkg/webui"
)

// NewServeCommand creates the serve command.
func NewServeCommand(deps *CommandDeps) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the upload page in a browser",
		Long: `Start the browser UI. Each browser gets its own session with the same
select, analyze and reset flow as the analyze command.

Besides the page, the server exposes:
  /healthz   liveness
  /version   build information
  /metrics   Prometheus metrics
  /api/state the current session as JSON

Examples:
  azurely serve
  azurely serve --listen 0.0.0.0:8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, backend, err := deps.backend()
			if err != nil {
				return err
			}
			if listen == "" {
				listen = cfg.Serve.Listen
			}

			opts := webui.Options{
				SessionTTL:  cfg.Serve.SessionTTL,
				UploadLimit: cfg.Serve.UploadLimit,
				Language:    cfg.Language,
				Logger:      deps.logger(),
				Metrics:     deps.Metrics,
			}
			if deps.Registry != nil {
				opts.Gatherer = deps.Registry
			}

			srv, err := webui.NewServer(backend, opts)
			if err != nil {
				return err
			}

			deps.logger().Info("starting ui",
				logging.F("listen", listen),
				logging.F("api_url", cfg.APIURL),
			)
			cmd.PrintErrf("Serving on http://%s (Ctrl-C to stop)\n", listen)
			return srv.Start(cmd.Context(), listen)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "address to listen on (default from config serve.listen)")

	return cmd
}
