package cmd

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/azurely-cli/credentials"
)

func runAuthCmd(t *testing.T, deps *CommandDeps, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewAuthCommand(deps)
	cmd.SetOut(out)
	cmd.SetArgs(args)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	err := cmd.Execute()
	return out.String(), err
}

func TestValidateAPIKey(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		errMsg string
	}{
		{name: "valid", key: "az-test-api-key-12345"},
		{name: "empty", key: "", errMsg: "API key is empty"},
		{name: "short", key: "short", errMsg: "API key is too short"},
		{name: "whitespace", key: "az-test key-12345", errMsg: "API key contains whitespace"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateAPIKey(tt.key)
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLogin_WithFlag(t *testing.T) {
	deps, _ := newTestDeps(t, nil)

	out, err := runAuthCmd(t, deps, "login", "--api-key", "az-flag-key-123456")
	require.NoError(t, err)
	assert.Contains(t, out, "Login successful!")
	assert.Contains(t, out, credentials.MaskAPIKey("az-flag-key-123456"))

	store, err := credentials.NewStore()
	require.NoError(t, err)
	creds, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "az-flag-key-123456", creds.APIKey)
	assert.Equal(t, "http://localhost:8000", creds.APIURL)
}

func TestLogin_FromEnvironment(t *testing.T) {
	deps, _ := newTestDeps(t, nil)
	t.Setenv(credentials.APIKeyEnv, "az-env-key-7890")

	out, err := runAuthCmd(t, deps, "login")
	require.NoError(t, err)
	assert.Contains(t, out, "Using API key from AZURELY_API_KEY")
}

func TestLogin_Prompt(t *testing.T) {
	deps, _ := newTestDeps(t, nil)
	var prompted string
	deps.ReadSecret = func(prompt string) (string, error) {
		prompted = prompt
		return "  az-prompted-key-1  ", nil
	}

	_, err := runAuthCmd(t, deps, "login")
	require.NoError(t, err)
	assert.Equal(t, "API key: ", prompted)

	store, err := credentials.NewStore()
	require.NoError(t, err)
	creds, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "az-prompted-key-1", creds.APIKey)
}

func TestLogin_PromptError(t *testing.T) {
	deps, _ := newTestDeps(t, nil)
	deps.ReadSecret = func(string) (string, error) { return "", errors.New("not a terminal") }

	_, err := runAuthCmd(t, deps, "login")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a terminal")
}

func TestLogin_NonInteractive(t *testing.T) {
	deps, _ := newTestDeps(t, nil)

	_, err := runAuthCmd(t, deps, "login", "--non-interactive")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--non-interactive")
}

func TestLogin_RejectsShortKey(t *testing.T) {
	deps, _ := newTestDeps(t, nil)

	_, err := runAuthCmd(t, deps, "login", "--api-key", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too short")
}

func TestLogout(t *testing.T) {
	deps, _ := newTestDeps(t, nil)

	out, err := runAuthCmd(t, deps, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "No stored credentials found.")

	_, err = runAuthCmd(t, deps, "login", "--api-key", "az-flag-key-123456")
	require.NoError(t, err)

	t.Setenv(credentials.APIKeyEnv, "az-env-key-7890")
	out, err = runAuthCmd(t, deps, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out successfully.")
	assert.Contains(t, out, "AZURELY_API_KEY environment variable is still set")

	store, err := credentials.NewStore()
	require.NoError(t, err)
	assert.False(t, store.Exists())
}

func TestAuthStatus(t *testing.T) {
	deps, _ := newTestDeps(t, nil)

	out, err := runAuthCmd(t, deps, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Stored Credentials: None")
	assert.Contains(t, out, "No API key configured")

	_, err = runAuthCmd(t, deps, "login", "--api-key", "az-flag-key-123456")
	require.NoError(t, err)

	out, err = runAuthCmd(t, deps, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Key ID:       "+credentials.GenerateAPIKeyID("az-flag-key-123456"))
	assert.Contains(t, out, "Encryption:   Environment variable (AZURELY_ENCRYPTION_KEY)")
	assert.Contains(t, out, "Active Credential Source: Stored credentials")

	t.Setenv(credentials.APIKeyEnv, "az-env-key-7890")
	out, err = runAuthCmd(t, deps, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "(active)")
	assert.Contains(t, out, "AZURELY_API_KEY takes precedence")
}
