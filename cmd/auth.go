package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/azurely-cli/credentials"
)

// minAPIKeyLength rejects obviously truncated keys.
const minAPIKeyLength = 8

// NewAuthCommand creates the auth command group.
func NewAuthCommand(deps *CommandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the analysis service API key",
		Long: `Manage the API key sent to the analysis service as a bearer token.

The key is stored encrypted in ~/.azurely/credentials.yaml. The encryption key
comes from AZURELY_ENCRYPTION_KEY if set, otherwise from AZURELY_PASSPHRASE
through Argon2id, otherwise from the system keyring.

AZURELY_API_KEY takes precedence over the stored key. A local backend that
needs no key works without logging in.`,
	}

	cmd.AddCommand(newLoginCommand(deps))
	cmd.AddCommand(newLogoutCommand(deps))
	cmd.AddCommand(newAuthStatusCommand(deps))

	return cmd
}

func newLoginCommand(deps *CommandDeps) *cobra.Command {
	var (
		apiKey         string
		nonInteractive bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an API key",
		Long: `Store an API key for the analysis service.

Examples:
  # Interactive login (prompts for the key without echo)
  azurely auth login

  # Login with a key flag
  azurely auth login --api-key az-abc123...

  # Login with the key from the environment
  AZURELY_API_KEY=az-abc123... azurely auth login`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(deps, cmd.OutOrStdout(), apiKey, nonInteractive)
		},
	}

	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key for the analysis service")
	cmd.Flags().BoolVar(&nonInteractive, "non-interactive", false, "fail instead of prompting for input")

	return cmd
}

func runLogin(deps *CommandDeps, out io.Writer, apiKey string, nonInteractive bool) error {
	if apiKey == "" {
		if envKey := os.Getenv(credentials.APIKeyEnv); envKey != "" {
			apiKey = envKey
			fmt.Fprintf(out, "Using API key from %s environment variable\n", credentials.APIKeyEnv)
		}
	}

	if apiKey == "" {
		if nonInteractive {
			return errors.New("no API key provided and --non-interactive flag set")
		}
		key, err := deps.ReadSecret("API key: ")
		if err != nil {
			return fmt.Errorf("reading API key: %w", err)
		}
		apiKey = key
	}

	apiKey = strings.TrimSpace(apiKey)
	if err := validateAPIKey(apiKey); err != nil {
		return fmt.Errorf("invalid credentials: %w", err)
	}

	store, err := deps.OpenStore()
	if err != nil {
		return fmt.Errorf("initializing credential store: %w", err)
	}

	creds := &credentials.Credentials{APIKey: apiKey}
	if cfg, err := deps.loadedConfig(); err == nil {
		creds.APIURL = cfg.APIURL
	}
	if err := store.Save(creds); err != nil {
		return fmt.Errorf("saving credentials: %w", err)
	}

	fmt.Fprintln(out, "Login successful!")
	fmt.Fprintf(out, "  API Key: %s\n", credentials.MaskAPIKey(apiKey))
	fmt.Fprintf(out, "  Key ID:  %s\n", credentials.GenerateAPIKeyID(apiKey))

	credPath, _ := credentials.CredentialsPath()
	fmt.Fprintf(out, "\nCredentials stored in: %s\n", credPath)
	return nil
}

func validateAPIKey(apiKey string) error {
	if apiKey == "" {
		return errors.New("API key is empty")
	}
	if len(apiKey) < minAPIKeyLength {
		return errors.New("API key is too short")
	}
	if strings.ContainsAny(apiKey, " \t\r\n") {
		return errors.New("API key contains whitespace")
	}
	return nil
}

func newLogoutCommand(deps *CommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored API key",
		Long: `Remove the stored API key. AZURELY_API_KEY is not affected.

Examples:
  azurely auth logout`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			store, err := deps.OpenStore()
			if err != nil {
				return fmt.Errorf("initializing credential store: %w", err)
			}

			if !store.Exists() {
				fmt.Fprintln(out, "No stored credentials found.")
				return nil
			}
			if err := store.Delete(); err != nil {
				return fmt.Errorf("removing credentials: %w", err)
			}

			fmt.Fprintln(out, "Logged out successfully.")
			if os.Getenv(credentials.APIKeyEnv) != "" {
				fmt.Fprintf(out, "\nNote: %s environment variable is still set.\n", credentials.APIKeyEnv)
				fmt.Fprintf(out, "Unset it with: unset %s\n", credentials.APIKeyEnv)
			}
			return nil
		},
	}
}

func newAuthStatusCommand(deps *CommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which API key is in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthStatus(deps, cmd.OutOrStdout())
		},
	}
}

func runAuthStatus(deps *CommandDeps, out io.Writer) error {
	fmt.Fprintln(out, "Authentication Status")
	fmt.Fprintln(out, "=====================")
	fmt.Fprintln(out)

	envKey := os.Getenv(credentials.APIKeyEnv)
	if envKey != "" {
		fmt.Fprintf(out, "Environment: %s = %s (active)\n\n", credentials.APIKeyEnv, credentials.MaskAPIKey(envKey))
	}

	store, err := deps.OpenStore()
	if err != nil {
		return fmt.Errorf("initializing credential store: %w", err)
	}

	creds, err := store.Load()
	switch {
	case errors.Is(err, credentials.ErrNoCredentials):
		fmt.Fprintln(out, "Stored Credentials: None")
		if envKey == "" {
			fmt.Fprintln(out, "\nNo API key configured. Requests are sent without Authorization.")
			fmt.Fprintln(out, "Run 'azurely auth login' if your service requires a key.")
		}
		return nil
	case err != nil:
		return fmt.Errorf("loading credentials: %w", err)
	}

	fmt.Fprintln(out, "Stored Credentials:")
	fmt.Fprintf(out, "  API Key:      %s\n", credentials.MaskAPIKey(creds.APIKey))
	fmt.Fprintf(out, "  Key ID:       %s\n", credentials.GenerateAPIKeyID(creds.APIKey))
	if creds.APIURL != "" {
		fmt.Fprintf(out, "  Service:      %s\n", creds.APIURL)
	}
	fmt.Fprintf(out, "  Last Updated: %s\n", creds.LastUpdated.Format(time.RFC3339))
	fmt.Fprintf(out, "  Encryption:   %s\n", store.KeyDescription())

	fmt.Fprintln(out)
	if envKey != "" {
		fmt.Fprintf(out, "Active Credential Source: Environment variable (%s takes precedence)\n", credentials.APIKeyEnv)
	} else {
		fmt.Fprintln(out, "Active Credential Source: Stored credentials")
	}
	return nil
}
