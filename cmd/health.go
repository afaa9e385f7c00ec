package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/azurely-cli/client"
	"github.com/otherjamesbrown/azurely-cli/config"
	azerrors "github.com/otherjamesbrown/azurely-cli/pkg/errors"
	"github.com/otherjamesbrown/azurely-cli/pkg/render"
)

// healthTimeout bounds the probe unless the configured timeout is shorter.
const healthTimeout = 10 * time.Second

// healthReport is the json/yaml form of a health check.
type healthReport struct {
	APIURL    string               `json:"api_url" yaml:"api_url"`
	Healthy   bool                 `json:"healthy" yaml:"healthy"`
	LatencyMS int64                `json:"latency_ms,omitempty" yaml:"latency_ms,omitempty"`
	Service   *client.HealthStatus `json:"service,omitempty" yaml:"service,omitempty"`
	Error     string               `json:"error,omitempty" yaml:"error,omitempty"`
	Code      azerrors.ErrorCode   `json:"code,omitempty" yaml:"code,omitempty"`
	Action    string               `json:"suggested_action,omitempty" yaml:"suggested_action,omitempty"`
}

// NewHealthCommand creates the health command.
func NewHealthCommand(deps *CommandDeps) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check the analysis service and its providers",
		Long: `Query the analysis service health endpoint and report the status of the
service and of its speech and summarisation providers.

Exits non-zero when the service is unreachable or any provider is down.

Examples:
  azurely health
  azurely health --json
  azurely health --api-url http://analysis.internal:8000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHealth(cmd.Context(), deps, cmd.OutOrStdout(), jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON (same as -o json)")

	return cmd
}

func runHealth(ctx context.Context, deps *CommandDeps, out io.Writer, jsonOutput bool) error {
	cfg, backend, err := deps.backend()
	if err != nil {
		return err
	}

	timeout := healthTimeout
	if cfg.Timeout > 0 && cfg.Timeout < timeout {
		timeout = cfg.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	report := healthReport{APIURL: cfg.APIURL}
	status, err := backend.Health(ctx)
	if err != nil {
		report.Code = azerrors.Classify(err)
		report.Error = err.Error()
		report.Action = azerrors.GetSuggestedAction(report.Code)
	} else {
		report.Service = status
		report.Healthy = status.Healthy()
		report.LatencyMS = status.Latency.Milliseconds()
	}

	format := cfg.OutputFormat
	if jsonOutput {
		format = config.OutputFormatJSON
	}

	switch format {
	case config.OutputFormatJSON, config.OutputFormatYAML:
		if err := render.Encode(out, format, report); err != nil {
			return err
		}
	default:
		writeHealthText(out, report, render.ColorEnabled(out))
	}

	if !report.Healthy {
		return ErrReported
	}
	return nil
}

func writeHealthText(w io.Writer, r healthReport, color bool) {
	mark := func(ok bool) string {
		switch {
		case ok && color:
			return "\033[32m✓\033[0m"
		case ok:
			return "✓"
		case color:
			return "\033[31m✗\033[0m"
		default:
			return "✗"
		}
	}

	fmt.Fprintf(w, "Analysis service: %s\n", r.APIURL)
	if r.Service == nil {
		fmt.Fprintf(w, "  %s unreachable: %s\n", mark(false), azerrors.GetDescription(r.Code))
		fmt.Fprintf(w, "    %s\n", r.Error)
		fmt.Fprintf(w, "  Suggested: %s\n", r.Action)
		return
	}

	s := r.Service
	fmt.Fprintf(w, "  %s service       %s (%s, %dms)\n", mark(s.Status == "ok"), s.Status, s.Service, r.LatencyMS)
	fmt.Fprintf(w, "  %s azure speech  %s\n", mark(s.AzureSpeech == client.DependencyConnected), s.AzureSpeech)
	fmt.Fprintf(w, "  %s azure openai  %s\n", mark(s.AzureOpenAI == client.DependencyConnected), s.AzureOpenAI)
	if !r.Healthy {
		fmt.Fprintf(w, "  Suggested: %s\n", azerrors.GetSuggestedAction(azerrors.ErrUpstreamFailed))
	}
}
