package client

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"github.com/otherjamesbrown/azurely-cli/config"
)

// LoadClientTLSConfig creates a tls.Config for https service URLs.
// Returns nil when neither a CA bundle nor skip-verify is configured,
// leaving the system defaults in place.
func LoadClientTLSConfig(cfg *config.TLSConfig) (*tls.Config, error) {
	if cfg == nil || (cfg.CACert == "" && !cfg.SkipVerify) {
		return nil, nil
	}

	cfg.ResolvePaths()

	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: cfg.SkipVerify,
	}

	// Load CA certificate for server verification (unless SkipVerify is set).
	if cfg.CACert != "" && !cfg.SkipVerify {
		caCert, err := os.ReadFile(cfg.CACert)
		if err != nil {
			return nil, fmt.Errorf("read CA cert: %w", err)
		}

		caPool, err := x509.SystemCertPool()
		if err != nil || caPool == nil {
			caPool = x509.NewCertPool()
		}
		if !caPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("parse CA cert: invalid PEM")
		}

		tlsConfig.RootCAs = caPool
	}

	return tlsConfig, nil
}

// NewFromConfig builds an AnalysisClient from CLI configuration.
func NewFromConfig(cfg *config.CLIConfig, opts *Options) (*AnalysisClient, error) {
	if opts == nil {
		opts = DefaultOptions()
		opts.Timeout = cfg.Timeout
	}
	if opts.Timeout <= 0 {
		opts.Timeout = cfg.Timeout
	}
	if opts.TLSConfig == nil {
		tlsConfig, err := LoadClientTLSConfig(&cfg.TLS)
		if err != nil {
			return nil, err
		}
		opts.TLSConfig = tlsConfig
	}
	return NewAnalysisClient(cfg.APIURL, opts)
}
