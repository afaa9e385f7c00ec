package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/azurely-cli/config"
	"github.com/otherjamesbrown/azurely-cli/pkg/analysis"
)

// NewConfigCommand creates the config command group.
func NewConfigCommand(deps *CommandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  `View and modify the azurely CLI configuration settings.`,
	}

	cmd.AddCommand(newConfigShowCommand(deps))
	cmd.AddCommand(newConfigInitCommand())
	cmd.AddCommand(newConfigSetCommand())

	return cmd
}

func newConfigShowCommand(deps *CommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  `Display the effective configuration: defaults, then the config file, then environment and flags.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := deps.loadedConfig()
			if err != nil {
				return err
			}
			writeConfig(cmd.OutOrStdout(), cfg)
			return nil
		},
	}
}

func writeConfig(w io.Writer, cfg *config.CLIConfig) {
	configPath, _ := config.ConfigPath()

	fmt.Fprintln(w, "Current configuration:")
	fmt.Fprintf(w, "  Config file:    %s\n", configPath)
	fmt.Fprintf(w, "  API URL:        %s\n", cfg.APIURL)
	fmt.Fprintf(w, "    analyze:      %s\n", cfg.AnalyzeURL())
	fmt.Fprintf(w, "    health:       %s\n", cfg.HealthURL())
	fmt.Fprintf(w, "  Timeout:        %s\n", cfg.Timeout)
	fmt.Fprintf(w, "  Language:       %s (%s)\n", cfg.Language, cfg.Language.DisplayName())
	fmt.Fprintf(w, "  Output format:  %s\n", cfg.OutputFormat)
	fmt.Fprintf(w, "  Debug:          %t\n", cfg.Debug)
	fmt.Fprintf(w, "  TLS insecure:   %t\n", cfg.TLS.SkipVerify)
	fmt.Fprintf(w, "  UI listen:      %s\n", cfg.Serve.Listen)
	fmt.Fprintf(w, "  UI session TTL: %s\n", cfg.Serve.SessionTTL)
	fmt.Fprintf(w, "  Log level:      %s\n", cfg.Log.Level)
	if cfg.Log.File != "" {
		fmt.Fprintf(w, "  Log file:       %s\n", cfg.Log.File)
	}
}

func newConfigInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration file",
		Long:  `Create a new configuration file with default values if one doesn't exist.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			configPath, err := config.ConfigPath()
			if err != nil {
				return fmt.Errorf("getting config path: %w", err)
			}

			if _, err := os.Stat(configPath); err == nil && !force {
				fmt.Fprintf(out, "Configuration file already exists: %s\n", configPath)
				fmt.Fprintln(out, "Use 'azurely config show' to view current settings, or --force to overwrite.")
				return nil
			}

			defaultCfg := config.DefaultConfig()
			if err := config.SaveConfig(defaultCfg); err != nil {
				return fmt.Errorf("saving configuration: %w", err)
			}

			fmt.Fprintf(out, "Created configuration file: %s\n", configPath)
			fmt.Fprintln(out, "\nDefault settings:")
			fmt.Fprintf(out, "  API URL:        %s\n", defaultCfg.APIURL)
			fmt.Fprintf(out, "  Timeout:        %s\n", defaultCfg.Timeout)
			fmt.Fprintf(out, "  Language:       %s\n", defaultCfg.Language)
			fmt.Fprintf(out, "  Output format:  %s\n", defaultCfg.OutputFormat)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing configuration file")

	return cmd
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value in the config file.

Available keys:
  api_url        - Analysis service base URL (http or https)
  timeout        - Per-request timeout (e.g., 90s, 10m)
  language       - Default recording language (see 'azurely languages')
  output_format  - Default output format (text, json, yaml)
  debug          - Enable debug logging (true/false)
  listen         - Browser UI listen address (host:port)
  log_level      - debug, info, warn or error
  log_file       - Rotated JSON log file path (empty to disable)

Examples:
  azurely config set api_url http://analysis.internal:8000
  azurely config set language en-GB
  azurely config set timeout 20m`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			current, err := config.LoadConfig()
			if err != nil {
				current = config.DefaultConfig()
			}

			if err := setConfigValue(current, key, value); err != nil {
				return err
			}
			if err := current.Validate(); err != nil {
				return err
			}

			if err := config.SaveConfig(current); err != nil {
				return fmt.Errorf("saving configuration: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
			return nil
		},
	}
}

func setConfigValue(cfg *config.CLIConfig, key, value string) error {
	switch key {
	case "api_url":
		cfg.APIURL = value
	case "timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid timeout value: %w", err)
		}
		cfg.Timeout = d
	case "language":
		lang, err := analysis.ParseLanguage(value)
		if err != nil {
			return err
		}
		cfg.Language = lang
	case "output_format":
		format := config.OutputFormat(value)
		if !format.IsValid() {
			return fmt.Errorf("invalid output format: %s (must be text, json, or yaml)", value)
		}
		cfg.OutputFormat = format
	case "debug":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid debug value: %s (must be true or false)", value)
		}
		cfg.Debug = b
	case "listen":
		cfg.Serve.Listen = value
	case "log_level":
		cfg.Log.Level = value
	case "log_file":
		cfg.Log.File = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}
