// Package config provides configuration management for the azurely command-line tool.
// It supports loading configuration from YAML files, environment variables, and command-line flags.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/otherjamesbrown/azurely-cli/pkg/analysis"
)

// OutputFormat defines the supported output formats for CLI results.
type OutputFormat string

const (
	// OutputFormatText is human-readable plain text output.
	OutputFormatText OutputFormat = "text"
	// OutputFormatJSON is JSON-formatted output for machine processing.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatYAML is YAML-formatted output for machine processing.
	OutputFormatYAML OutputFormat = "yaml"
)

// Default configuration values.
const (
	DefaultAPIURL       = "http://localhost:8000"
	DefaultTimeout      = 10 * time.Minute
	DefaultOutputFormat = OutputFormatText
	DefaultConfigDir    = ".azurely"
	DefaultConfigFile   = "config.yaml"
	DefaultListenAddr   = "127.0.0.1:8080"
	DefaultSessionTTL   = 2 * time.Hour
	DefaultUploadLimit  = "100M"
	DefaultLogLevel     = "warn"
)

// TLSConfig holds client TLS settings for talking to an https analysis service.
type TLSConfig struct {
	// CACert is the path to a CA bundle used to verify the service.
	CACert string `yaml:"ca_cert,omitempty"`

	// SkipVerify disables server certificate verification (insecure, for testing only).
	SkipVerify bool `yaml:"skip_verify,omitempty"`
}

// ResolvePaths expands ~ in paths.
func (c *TLSConfig) ResolvePaths() {
	c.CACert = expandPath(c.CACert)
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// ServeConfig holds settings for the browser UI server.
type ServeConfig struct {
	// Listen is the host:port the UI binds to.
	Listen string `yaml:"listen,omitempty"`

	// SessionTTL drops browser sessions idle for longer than this.
	SessionTTL time.Duration `yaml:"-"`

	// UploadLimit caps request bodies, in echo BodyLimit notation ("100M").
	UploadLimit string `yaml:"upload_limit,omitempty"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level,omitempty"`

	// JSON switches console output to JSON lines.
	JSON bool `yaml:"json,omitempty"`

	// File, when set, receives a rotated JSON copy of every entry.
	File string `yaml:"file,omitempty"`
}

// CLIConfig holds the CLI configuration settings.
type CLIConfig struct {
	// APIURL is the base URL of the analysis service (no trailing /api).
	APIURL string `yaml:"api_url"`

	// Timeout bounds each HTTP request to the analysis service.
	Timeout time.Duration `yaml:"timeout"`

	// Language is the default locale tag for new analyses.
	Language analysis.Language `yaml:"language"`

	// OutputFormat specifies the default output format for commands.
	OutputFormat OutputFormat `yaml:"output_format"`

	// Debug enables verbose debug logging.
	Debug bool `yaml:"debug,omitempty"`

	// TLS contains the client TLS settings.
	TLS TLSConfig `yaml:"tls,omitempty"`

	// Serve contains browser UI settings.
	Serve ServeConfig `yaml:"serve,omitempty"`

	// Log contains logger settings.
	Log LogConfig `yaml:"log,omitempty"`
}

// DefaultConfig returns a CLIConfig with default values.
func DefaultConfig() *CLIConfig {
	return &CLIConfig{
		APIURL:       DefaultAPIURL,
		Timeout:      DefaultTimeout,
		Language:     analysis.DefaultLanguage,
		OutputFormat: DefaultOutputFormat,
		Serve: ServeConfig{
			Listen:      DefaultListenAddr,
			SessionTTL:  DefaultSessionTTL,
			UploadLimit: DefaultUploadLimit,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
	}
}

// ConfigDir returns the configuration directory path.
// Uses $AZURELY_CONFIG_DIR if set, otherwise ~/.azurely
func ConfigDir() (string, error) {
	if dir := os.Getenv("AZURELY_CONFIG_DIR"); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}

	return filepath.Join(home, DefaultConfigDir), nil
}

// ConfigPath returns the full path to the configuration file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultConfigFile), nil
}

// LoadConfig loads the CLI configuration from file and environment variables.
// Configuration is loaded in this order (later sources override earlier):
// 1. Default values
// 2. Config file (~/.azurely/config.yaml or $AZURELY_CONFIG_DIR/config.yaml)
// 3. Environment variables (AZURELY_API_URL, AZURELY_TIMEOUT, AZURELY_LANGUAGE, ...)
// Command-line flags are applied by the caller afterwards.
func LoadConfig() (*CLIConfig, error) {
	cfg := DefaultConfig()

	configPath, err := ConfigPath()
	if err != nil {
		return nil, fmt.Errorf("getting config path: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	loadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// configFile mirrors CLIConfig with durations as strings.
type configFile struct {
	APIURL       string       `yaml:"api_url,omitempty"`
	Timeout      string       `yaml:"timeout,omitempty"`
	Language     string       `yaml:"language,omitempty"`
	OutputFormat OutputFormat `yaml:"output_format,omitempty"`
	Debug        bool         `yaml:"debug,omitempty"`
	TLS          TLSConfig    `yaml:"tls,omitempty"`
	Serve        struct {
		Listen      string `yaml:"listen,omitempty"`
		SessionTTL  string `yaml:"session_ttl,omitempty"`
		UploadLimit string `yaml:"upload_limit,omitempty"`
	} `yaml:"serve,omitempty"`
	Log LogConfig `yaml:"log,omitempty"`
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(cfg *CLIConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var fileCfg configFile
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	if fileCfg.APIURL != "" {
		cfg.APIURL = fileCfg.APIURL
	}
	if fileCfg.Timeout != "" {
		timeout, err := time.ParseDuration(fileCfg.Timeout)
		if err != nil {
			return fmt.Errorf("parsing timeout: %w", err)
		}
		cfg.Timeout = timeout
	}
	if fileCfg.Language != "" {
		lang, err := analysis.ParseLanguage(fileCfg.Language)
		if err != nil {
			return fmt.Errorf("parsing language: %w", err)
		}
		cfg.Language = lang
	}
	if fileCfg.OutputFormat != "" {
		cfg.OutputFormat = fileCfg.OutputFormat
	}
	cfg.Debug = fileCfg.Debug
	cfg.TLS = fileCfg.TLS

	if fileCfg.Serve.Listen != "" {
		cfg.Serve.Listen = fileCfg.Serve.Listen
	}
	if fileCfg.Serve.SessionTTL != "" {
		ttl, err := time.ParseDuration(fileCfg.Serve.SessionTTL)
		if err != nil {
			return fmt.Errorf("parsing serve.session_ttl: %w", err)
		}
		cfg.Serve.SessionTTL = ttl
	}
	if fileCfg.Serve.UploadLimit != "" {
		cfg.Serve.UploadLimit = fileCfg.Serve.UploadLimit
	}

	if fileCfg.Log.Level != "" {
		cfg.Log.Level = fileCfg.Log.Level
	}
	cfg.Log.JSON = fileCfg.Log.JSON
	if fileCfg.Log.File != "" {
		cfg.Log.File = expandPath(fileCfg.Log.File)
	}

	return nil
}

// loadFromEnv overlays environment variables onto the configuration.
// Malformed values are ignored so a bad env var never blocks the CLI.
func loadFromEnv(cfg *CLIConfig) {
	if v := os.Getenv("AZURELY_API_URL"); v != "" {
		cfg.APIURL = v
	}

	if v := os.Getenv("AZURELY_TIMEOUT"); v != "" {
		if timeout, err := time.ParseDuration(v); err == nil {
			cfg.Timeout = timeout
		}
	}

	if v := os.Getenv("AZURELY_LANGUAGE"); v != "" {
		if lang, err := analysis.ParseLanguage(v); err == nil {
			cfg.Language = lang
		}
	}

	if v := os.Getenv("AZURELY_OUTPUT_FORMAT"); v != "" {
		cfg.OutputFormat = OutputFormat(v)
	}

	if v := os.Getenv("AZURELY_DEBUG"); v == "true" || v == "1" {
		cfg.Debug = true
	}

	if v := os.Getenv("AZURELY_TLS_CA_CERT"); v != "" {
		cfg.TLS.CACert = v
	}

	if v := os.Getenv("AZURELY_TLS_SKIP_VERIFY"); v == "true" || v == "1" {
		cfg.TLS.SkipVerify = true
	}

	if v := os.Getenv("AZURELY_LISTEN"); v != "" {
		cfg.Serve.Listen = v
	}

	if v := os.Getenv("AZURELY_SESSION_TTL"); v != "" {
		if ttl, err := time.ParseDuration(v); err == nil {
			cfg.Serve.SessionTTL = ttl
		}
	}

	if v := os.Getenv("AZURELY_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	if v := os.Getenv("AZURELY_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}

	if v := os.Getenv("AZURELY_LOG_JSON"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Log.JSON = b
		}
	}
}

// Validate checks that the configuration is valid.
func (c *CLIConfig) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("api_url is required")
	}

	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api_url: %q (must be an http or https URL)", c.APIURL)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}

	if !c.Language.IsValid() {
		return fmt.Errorf("invalid language: %q", c.Language)
	}

	if !c.OutputFormat.IsValid() {
		return fmt.Errorf("invalid output_format: %q (must be text, json, or yaml)", c.OutputFormat)
	}

	if c.Serve.SessionTTL <= 0 {
		return fmt.Errorf("serve.session_ttl must be positive")
	}

	return nil
}

// IsValid checks if the output format is valid.
func (f OutputFormat) IsValid() bool {
	switch f {
	case OutputFormatText, OutputFormatJSON, OutputFormatYAML:
		return true
	default:
		return false
	}
}

// String returns the string representation of the output format.
func (f OutputFormat) String() string {
	return string(f)
}

// SaveConfig saves the configuration to the config file.
func SaveConfig(cfg *CLIConfig) error {
	configDir, err := ConfigDir()
	if err != nil {
		return fmt.Errorf("getting config directory: %w", err)
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(configDir, DefaultConfigFile)

	fileCfg := configFile{
		APIURL:       cfg.APIURL,
		Timeout:      cfg.Timeout.String(),
		Language:     cfg.Language.String(),
		OutputFormat: cfg.OutputFormat,
		Debug:        cfg.Debug,
		TLS:          cfg.TLS,
		Log:          cfg.Log,
	}
	fileCfg.Serve.Listen = cfg.Serve.Listen
	fileCfg.Serve.SessionTTL = cfg.Serve.SessionTTL.String()
	fileCfg.Serve.UploadLimit = cfg.Serve.UploadLimit

	data, err := yaml.Marshal(&fileCfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// AnalyzeURL returns the analysis endpoint derived from APIURL.
func (c *CLIConfig) AnalyzeURL() string {
	return strings.TrimRight(c.APIURL, "/") + "/api/analyze"
}

// HealthURL returns the backend health endpoint derived from APIURL.
func (c *CLIConfig) HealthURL() string {
	return strings.TrimRight(c.APIURL, "/") + "/health/"
}
