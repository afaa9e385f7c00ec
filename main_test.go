package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/azurely-cli/cmd"
	"github.com/otherjamesbrown/azurely-cli/config"
	"github.com/otherjamesbrown/azurely-cli/pkg/analysis"
	"github.com/otherjamesbrown/azurely-cli/pkg/buildinfo"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("AZURELY_CONFIG_DIR", t.TempDir())
	t.Setenv("AZURELY_ENCRYPTION_KEY", "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef")
	t.Setenv("AZURELY_API_KEY", "")
	t.Setenv("AZURELY_API_URL", "")
	t.Setenv("AZURELY_OUTPUT_FORMAT", "")
}

func execute(t *testing.T, deps *cmd.CommandDeps, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	root := newRootCommand(deps)
	root.SetOut(out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	isolate(t)
	deps := cmd.DefaultDeps()
	deps.Stderr = &bytes.Buffer{}

	out, err := execute(t, deps, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "azurely version "+buildinfo.Get(buildinfo.ServiceName).Version)

	out, err = execute(t, deps, "version", "-o", "json")
	require.NoError(t, err)
	var info buildinfo.Info
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, buildinfo.ServiceName, info.ServiceName)
}

func TestVersionSkipsConfig(t *testing.T) {
	isolate(t)
	deps := cmd.DefaultDeps()
	deps.LoadConfig = func() (*config.CLIConfig, error) {
		t.Fatal("config loaded for version")
		return nil, nil
	}

	_, err := execute(t, deps, "version")
	require.NoError(t, err)
}

func TestFlagsOverrideConfig(t *testing.T) {
	isolate(t)
	t.Setenv("AZURELY_API_URL", "http://from-env:9000")

	deps := cmd.DefaultDeps()
	deps.Stderr = &bytes.Buffer{}

	_, err := execute(t, deps, "config", "show",
		"--api-url", "https://from-flag:8443",
		"--timeout", "45s",
		"-o", "yaml",
		"--debug",
		"--insecure",
	)
	require.NoError(t, err)
	require.NotNil(t, deps.Config)
	assert.Equal(t, "https://from-flag:8443", deps.Config.APIURL)
	assert.Equal(t, 45*time.Second, deps.Config.Timeout)
	assert.Equal(t, config.OutputFormatYAML, deps.Config.OutputFormat)
	assert.True(t, deps.Config.Debug)
	assert.True(t, deps.Config.TLS.SkipVerify)
}

func TestEnvUsedWithoutFlags(t *testing.T) {
	isolate(t)
	t.Setenv("AZURELY_API_URL", "http://from-env:9000")

	deps := cmd.DefaultDeps()
	deps.Stderr = &bytes.Buffer{}

	_, err := execute(t, deps, "config", "show")
	require.NoError(t, err)
	assert.Equal(t, "http://from-env:9000", deps.Config.APIURL)
	assert.Equal(t, analysis.DefaultLanguage, deps.Config.Language)
}

func TestInvalidOutputFlag(t *testing.T) {
	isolate(t)
	deps := cmd.DefaultDeps()

	_, err := execute(t, deps, "languages", "-o", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output format")
}

func TestRun_ExitCodes(t *testing.T) {
	isolate(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"degraded"}`))
	}))
	defer srv.Close()

	stderr := &bytes.Buffer{}
	assert.Equal(t, 0, run(context.Background(), []string{"version"}, stderr))
	assert.Empty(t, stderr.String())

	stderr.Reset()
	assert.Equal(t, 1, run(context.Background(), []string{"health", "--api-url", srv.URL}, stderr))
	assert.NotContains(t, stderr.String(), "Error:")

	stderr.Reset()
	assert.Equal(t, 1, run(context.Background(), []string{"analyze"}, stderr))
	assert.Contains(t, stderr.String(), "Error:")
}

func TestCommandsRegistered(t *testing.T) {
	root := newRootCommand(cmd.DefaultDeps())
	for _, name := range []string{"analyze", "serve", "languages", "health", "config", "auth", "version", "completion"} {
		c, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, c.Name())
	}
}
