package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/azurely-cli/config"
	"github.com/otherjamesbrown/azurely-cli/pkg/analysis"
)

func runConfigCmd(t *testing.T, deps *CommandDeps, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewConfigCommand(deps)
	cmd.SetOut(out)
	cmd.SetArgs(args)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigInit(t *testing.T) {
	deps, _ := newTestDeps(t, nil)
	dir := os.Getenv("AZURELY_CONFIG_DIR")

	out, err := runConfigCmd(t, deps, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Created configuration file: "+filepath.Join(dir, config.DefaultConfigFile))
	assert.FileExists(t, filepath.Join(dir, config.DefaultConfigFile))

	out, err = runConfigCmd(t, deps, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")

	out, err = runConfigCmd(t, deps, "init", "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "Created configuration file")
}

func TestConfigSet(t *testing.T) {
	deps, _ := newTestDeps(t, nil)

	_, err := runConfigCmd(t, deps, "set", "language", "en-gb")
	require.NoError(t, err)
	_, err = runConfigCmd(t, deps, "set", "timeout", "20m")
	require.NoError(t, err)
	_, err = runConfigCmd(t, deps, "set", "api_url", "https://analysis.example.com")
	require.NoError(t, err)

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, analysis.LanguageEnglishGB, cfg.Language)
	assert.Equal(t, 20*time.Minute, cfg.Timeout)
	assert.Equal(t, "https://analysis.example.com", cfg.APIURL)
}

func TestConfigSet_Invalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"language", "de-DE"},
		{"timeout", "soon"},
		{"output_format", "xml"},
		{"debug", "maybe"},
		{"api_url", "ftp://nope"},
		{"tenant_id", "x"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			deps, _ := newTestDeps(t, nil)
			_, err := runConfigCmd(t, deps, "set", tt.key, tt.value)
			assert.Error(t, err)
		})
	}
}

func TestConfigShow(t *testing.T) {
	deps, _ := newTestDeps(t, nil)
	deps.Config.Language = analysis.LanguageSpanishES
	deps.Config.Log.File = "/tmp/azurely.log"

	out, err := runConfigCmd(t, deps, "show")
	require.NoError(t, err)
	assert.Contains(t, out, "API URL:        http://localhost:8000")
	assert.Contains(t, out, "analyze:      http://localhost:8000/api/analyze")
	assert.Contains(t, out, "Language:       es-ES")
	assert.Contains(t, out, "Log file:       /tmp/azurely.log")
}
