// Package main provides the azurely CLI entry point.
// azurely uploads meeting recordings to the analysis service and shows the
// transcription summary, key points and action items.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/azurely-cli/cmd"
	"github.com/otherjamesbrown/azurely-cli/config"
	"github.com/otherjamesbrown/azurely-cli/pkg/buildinfo"
	"github.com/otherjamesbrown/azurely-cli/pkg/logging"
	"github.com/otherjamesbrown/azurely-cli/pkg/render"
)

// globalFlags are the persistent flags that override configuration.
type globalFlags struct {
	apiURL       string
	timeout      time.Duration
	outputFormat string
	debug        bool
	insecure     bool
}

// skipConfig lists commands that run without loading configuration.
var skipConfig = map[string]bool{
	"version":    true,
	"help":       true,
	"completion": true,
	"init":       true,
	"set":        true,
}

func newRootCommand(deps *cmd.CommandDeps) *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "azurely",
		Short: "Azurely CLI - meeting recording analysis",
		Long: `azurely uploads a meeting recording to the Azurely analysis service and
shows the transcription, an executive summary, key points and action items.

COMMON WORKFLOWS:
  Analyze a recording:  azurely analyze standup.m4a --language en-GB
  Browser upload page:  azurely serve  →  open http://127.0.0.1:8080
  Check the backend:    azurely health

Configuration lives in ~/.azurely/config.yaml (azurely config init) and can be
overridden with AZURELY_* environment variables and the flags below.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(c *cobra.Command, args []string) error {
			if skipConfig[c.Name()] {
				return nil
			}

			cfg, err := deps.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
			if err := applyFlags(cfg, flags); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			deps.Config = cfg
			deps.Logger = cmd.NewLogger(cfg, deps.Stderr)
			logging.SetGlobal(deps.Logger)
			deps.Logger.Debug("configuration loaded",
				logging.F("command", c.CommandPath()),
				logging.F("api_url", cfg.APIURL),
				logging.F("timeout", cfg.Timeout),
				logging.F("language", cfg.Language.String()),
			)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.apiURL, "api-url", "", "analysis service base URL (default http://localhost:8000)")
	pf.DurationVar(&flags.timeout, "timeout", 0, "per-request timeout (e.g., 90s, 20m)")
	pf.StringVarP(&flags.outputFormat, "output", "o", "", "output format: text, json, yaml")
	pf.BoolVar(&flags.debug, "debug", false, "enable debug logging")
	pf.BoolVar(&flags.insecure, "insecure", false, "skip TLS certificate verification")

	root.AddGroup(
		&cobra.Group{ID: "analysis", Title: "Analysis:"},
		&cobra.Group{ID: "setup", Title: "Setup:"},
	)

	for _, c := range []*cobra.Command{
		cmd.NewAnalyzeCommand(deps),
		cmd.NewServeCommand(deps),
		cmd.NewLanguagesCommand(deps),
	} {
		c.GroupID = "analysis"
		root.AddCommand(c)
	}
	for _, c := range []*cobra.Command{
		cmd.NewHealthCommand(deps),
		cmd.NewConfigCommand(deps),
		cmd.NewAuthCommand(deps),
	} {
		c.GroupID = "setup"
		root.AddCommand(c)
	}

	root.AddCommand(newVersionCommand(flags))
	root.AddCommand(newCompletionCommand(root))

	return root
}

// applyFlags overrides cfg with any global flags that were set.
func applyFlags(cfg *config.CLIConfig, f *globalFlags) error {
	if f.apiURL != "" {
		cfg.APIURL = f.apiURL
	}
	if f.timeout != 0 {
		cfg.Timeout = f.timeout
	}
	if f.outputFormat != "" {
		format := config.OutputFormat(f.outputFormat)
		if !format.IsValid() {
			return fmt.Errorf("invalid output format: %s (must be text, json, or yaml)", f.outputFormat)
		}
		cfg.OutputFormat = format
	}
	if f.debug {
		cfg.Debug = true
	}
	if f.insecure {
		cfg.TLS.SkipVerify = true
	}
	return nil
}

func newVersionCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Print the version, commit hash, and build time of the azurely CLI.

Examples:
  azurely version
  azurely version -o json`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			info := buildinfo.Get(buildinfo.ServiceName)
			out := c.OutOrStdout()

			switch format := config.OutputFormat(flags.outputFormat); format {
			case config.OutputFormatJSON, config.OutputFormatYAML:
				return render.Encode(out, format, info)
			}

			fmt.Fprintf(out, "azurely version %s\n", info.Version)
			fmt.Fprintf(out, "  commit:     %s\n", info.Commit)
			fmt.Fprintf(out, "  built:      %s\n", info.BuildTime)
			return nil
		},
	}
}

func newCompletionCommand(root *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for azurely.

Bash:
  $ source <(azurely completion bash)

Zsh:
  $ azurely completion zsh > "${fpath[1]}/_azurely"

Fish:
  $ azurely completion fish | source

PowerShell:
  PS> azurely completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(c *cobra.Command, args []string) error {
			out := c.OutOrStdout()
			switch args[0] {
			case "bash":
				return root.GenBashCompletion(out)
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
}

// run executes the CLI and returns the process exit code.
func run(ctx context.Context, args []string, stderr io.Writer) int {
	deps := cmd.DefaultDeps()
	deps.Stderr = stderr

	root := newRootCommand(deps)
	root.SetArgs(args)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, cmd.ErrReported):
		return 1
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(stderr, "Interrupted.")
		return 130
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}
