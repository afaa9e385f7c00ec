// Package cmd provides the subcommands of the azurely CLI.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/term"

	"github.com/otherjamesbrown/azurely-cli/client"
	"github.com/otherjamesbrown/azurely-cli/config"
	"github.com/otherjamesbrown/azurely-cli/credentials"
	"github.com/otherjamesbrown/azurely-cli/pkg/logging"
	"github.com/otherjamesbrown/azurely-cli/pkg/observability"
	"github.com/otherjamesbrown/azurely-cli/pkg/session"
)

// Backend is what the commands need from the analysis service.
type Backend interface {
	session.Analyzer
	Health(ctx context.Context) (*client.HealthStatus, error)
}

// CommandDeps holds the dependencies shared by the azurely commands.
// Tests replace the constructors; production uses DefaultDeps.
type CommandDeps struct {
	Config     *config.CLIConfig
	LoadConfig func() (*config.CLIConfig, error)

	Logger   logging.Logger
	Registry *prometheus.Registry
	Metrics  *observability.Metrics

	// NewBackend builds the analysis client for cfg.
	NewBackend func(cfg *config.CLIConfig, deps *CommandDeps) (Backend, error)

	// OpenStore opens the credential store.
	OpenStore func() (*credentials.Store, error)

	// ReadSecret prompts for a secret without echo.
	ReadSecret func(prompt string) (string, error)

	Stdin  io.Reader
	Stderr io.Writer
}

// DefaultDeps returns the dependencies for production use.
func DefaultDeps() *CommandDeps {
	reg := prometheus.NewRegistry()
	return &CommandDeps{
		LoadConfig: config.LoadConfig,
		Logger:     logging.NewNopLogger(),
		Registry:   reg,
		Metrics:    observability.NewMetrics(reg),
		NewBackend: newHTTPBackend,
		OpenStore:  credentials.NewStore,
		ReadSecret: readSecret,
		Stdin:      os.Stdin,
		Stderr:     os.Stderr,
	}
}

// loadedConfig returns the configuration, loading it on first use.
func (d *CommandDeps) loadedConfig() (*config.CLIConfig, error) {
	if d.Config != nil {
		return d.Config, nil
	}
	cfg, err := d.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	d.Config = cfg
	return cfg, nil
}

func (d *CommandDeps) logger() logging.Logger {
	if d.Logger == nil {
		return logging.NewNopLogger()
	}
	return d.Logger
}

func (d *CommandDeps) stderr() io.Writer {
	if d.Stderr == nil {
		return os.Stderr
	}
	return d.Stderr
}

// backend builds the analysis client from the loaded configuration.
func (d *CommandDeps) backend() (*config.CLIConfig, Backend, error) {
	cfg, err := d.loadedConfig()
	if err != nil {
		return nil, nil, err
	}
	b, err := d.NewBackend(cfg, d)
	if err != nil {
		return nil, nil, fmt.Errorf("creating analysis client: %w", err)
	}
	return cfg, b, nil
}

func newHTTPBackend(cfg *config.CLIConfig, deps *CommandDeps) (Backend, error) {
	apiKey, err := credentials.ResolveAPIKey()
	if err != nil {
		deps.logger().Warn("ignoring stored credentials", logging.Err(err))
		apiKey = ""
	}

	opts := client.DefaultOptions()
	opts.Timeout = cfg.Timeout
	opts.APIKey = apiKey
	opts.Logger = deps.logger()
	opts.Metrics = deps.Metrics
	return client.NewFromConfig(cfg, opts)
}

// readSecret reads a line from the terminal without echo.
func readSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

// NewLogger builds the CLI logger from configuration. Debug forces debug level.
func NewLogger(cfg *config.CLIConfig, w io.Writer) logging.Logger {
	lc := logging.DefaultConfig()
	lc.Output = w
	lc.Level = logging.ParseLevel(cfg.Log.Level)
	if cfg.Debug {
		lc.Level = logging.LevelDebug
	}
	lc.JSONFormat = cfg.Log.JSON
	if cfg.Log.File != "" {
		lc.File = &logging.FileConfig{Path: cfg.Log.File}
	}
	return logging.NewLogger(lc)
}
