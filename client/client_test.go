package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/azurely-cli/config"
	"github.com/otherjamesbrown/azurely-cli/pkg/analysis"
	azerrors "github.com/otherjamesbrown/azurely-cli/pkg/errors"
	"github.com/otherjamesbrown/azurely-cli/pkg/observability"
)

const sampleBody = `{"summary":"S","key_points":["a","b"],"action_items":[{"task":"T","assignee":null,"deadline":null}],"transcription":"we agreed to ship","duration_estimate":"12m","language_detected":"en"}`

func newRequest(t *testing.T, name string, data []byte, lang analysis.Language) analysis.Request {
	t.Helper()
	req, err := analysis.NewRequest(analysis.CandidateFromBytes(name, data), lang)
	require.NoError(t, err)
	return req
}

func TestNewAnalysisClient(t *testing.T) {
	_, err := NewAnalysisClient("  ", nil)
	assert.Error(t, err)

	c, err := NewAnalysisClient("http://localhost:8000/", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", c.BaseURL())
}

func TestAnalyze_SendsMultipartForm(t *testing.T) {
	var (
		gotLanguage string
		gotFileName string
		gotFileType string
		gotFile     []byte
		gotAuth     string
		gotReqID    string
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, AnalyzePath, r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotLanguage = r.FormValue("language")
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		gotFileName = hdr.Filename
		gotFileType = hdr.Header.Get("Content-Type")
		gotFile, _ = io.ReadAll(f)
		gotAuth = r.Header.Get("Authorization")
		gotReqID = r.Header.Get(RequestIDHeader)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleBody))
	}))
	defer srv.Close()

	c, err := NewAnalysisClient(srv.URL, &Options{APIKey: "az-key"})
	require.NoError(t, err)

	res, err := c.Analyze(context.Background(), newRequest(t, "Standup.MP3", []byte("ID3 audio"), analysis.LanguageSpanishMX))
	require.NoError(t, err)

	assert.Equal(t, "es-MX", gotLanguage)
	assert.Equal(t, "Standup.MP3", gotFileName)
	assert.Equal(t, "audio/mpeg", gotFileType)
	assert.Equal(t, "ID3 audio", string(gotFile))
	assert.Equal(t, "Bearer az-key", gotAuth)
	assert.Len(t, gotReqID, 36)

	assert.Equal(t, "S", res.Summary)
	assert.Equal(t, []string{"a", "b"}, res.KeyPoints)
	require.Len(t, res.ActionItems, 1)
	assert.Equal(t, "T", res.ActionItems[0].Task)
}

func TestAnalyze_NoAuthHeaderWithoutKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(sampleBody))
	}))
	defer srv.Close()

	c, err := NewAnalysisClient(srv.URL, nil)
	require.NoError(t, err)
	_, err = c.Analyze(context.Background(), newRequest(t, "a.wav", []byte("RIFF"), analysis.DefaultLanguage))
	require.NoError(t, err)
}

func TestAnalyze_ServiceErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantDetail string
		wantCode   azerrors.ErrorCode
	}{
		{"detail string", http.StatusInternalServerError, `{"detail":"boom"}`, "boom", azerrors.ErrServerError},
		{"no body", http.StatusInternalServerError, ``, "", azerrors.ErrServerError},
		{"non json body", http.StatusBadGateway, `<html>bad gateway</html>`, "", azerrors.ErrUpstreamFailed},
		{"too large", http.StatusRequestEntityTooLarge, `{"detail":"Audio file too large: 30.0MB. Max allowed: 25MB"}`, "Audio file too large: 30.0MB. Max allowed: 25MB", azerrors.ErrPayloadTooLarge},
		{"validation list", http.StatusUnprocessableEntity, `{"detail":[{"msg":"field required"},{"msg":"bad language"}]}`, "field required; bad language", azerrors.ErrServerError},
		{"detail not string", http.StatusBadRequest, `{"detail":42}`, "", azerrors.ErrServerError},
		{"unauthorized", http.StatusUnauthorized, `{"detail":"invalid key"}`, "invalid key", azerrors.ErrAuthRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c, err := NewAnalysisClient(srv.URL, nil)
			require.NoError(t, err)

			_, err = c.Analyze(context.Background(), newRequest(t, "a.ogg", []byte("OggS"), analysis.DefaultLanguage))
			require.Error(t, err)

			var svc *azerrors.ServiceError
			require.True(t, errors.As(err, &svc), "want ServiceError, got %T", err)
			assert.Equal(t, tt.status, svc.Status)
			assert.Equal(t, tt.wantDetail, svc.Detail)
			assert.Equal(t, tt.wantCode, azerrors.Classify(err))
		})
	}
}

func TestAnalyze_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"summary": `))
	}))
	defer srv.Close()

	c, err := NewAnalysisClient(srv.URL, nil)
	require.NoError(t, err)

	_, err = c.Analyze(context.Background(), newRequest(t, "a.m4a", []byte("x"), analysis.DefaultLanguage))
	require.Error(t, err)
	assert.True(t, azerrors.IsParse(err))

	var perr *azerrors.ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, http.StatusOK, perr.Status)
}

func TestAnalyze_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := NewAnalysisClient(url, nil)
	require.NoError(t, err)

	_, err = c.Analyze(context.Background(), newRequest(t, "a.mp4", []byte("x"), analysis.DefaultLanguage))
	require.Error(t, err)
	assert.True(t, azerrors.IsTransport(err))
	assert.Equal(t, azerrors.ErrConnectionFailed, azerrors.Classify(err))
}

func TestAnalyze_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c, err := NewAnalysisClient(srv.URL, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = c.Analyze(ctx, newRequest(t, "a.mp3", []byte("x"), analysis.DefaultLanguage))
	require.Error(t, err)
	assert.True(t, azerrors.IsTransport(err))
	assert.Equal(t, azerrors.ErrTimeout, azerrors.Classify(err))
}

func TestAnalyze_OpenFailure(t *testing.T) {
	c, err := NewAnalysisClient("http://127.0.0.1:1", nil)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "gone.mp3")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0600))
	cand, err := analysis.CandidateFromPath(path)
	require.NoError(t, err)
	require.NoError(t, os.Remove(path))

	req, err := analysis.NewRequest(cand, analysis.DefaultLanguage)
	require.NoError(t, err)

	_, err = c.Analyze(context.Background(), req)
	require.Error(t, err)
	assert.False(t, azerrors.IsTransport(err))
}

func TestAnalyze_RecordsMetrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleBody))
	}))
	defer srv.Close()

	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	c, err := NewAnalysisClient(srv.URL, &Options{Metrics: metrics})
	require.NoError(t, err)

	_, err = c.Analyze(context.Background(), newRequest(t, "a.mp3", []byte("12345"), analysis.DefaultLanguage))
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AnalysisRequestsTotal.WithLabelValues(observability.OutcomeSuccess, "")))
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, HealthPath, r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"ok","service":"Azurely API","azure_speech":"connected","azure_openai":"error"}`))
	}))
	defer srv.Close()

	c, err := NewAnalysisClient(srv.URL, nil)
	require.NoError(t, err)

	h, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Azurely API", h.Service)
	assert.Equal(t, DependencyConnected, h.AzureSpeech)
	assert.False(t, h.Healthy())

	h.AzureOpenAI = DependencyConnected
	assert.True(t, h.Healthy())
}

func TestHealth_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := NewAnalysisClient(srv.URL, nil)
	require.NoError(t, err)
	_, err = c.Health(context.Background())
	assert.True(t, azerrors.IsService(err))

	down, err := NewAnalysisClient("http://127.0.0.1:1", nil)
	require.NoError(t, err)
	_, err = down.Health(context.Background())
	assert.True(t, azerrors.IsTransport(err))
}

func TestLoadClientTLSConfig(t *testing.T) {
	cfg, err := LoadClientTLSConfig(&config.TLSConfig{})
	require.NoError(t, err)
	assert.Nil(t, cfg)

	cfg, err = LoadClientTLSConfig(&config.TLSConfig{SkipVerify: true})
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.True(t, cfg.InsecureSkipVerify)

	_, err = LoadClientTLSConfig(&config.TLSConfig{CACert: filepath.Join(t.TempDir(), "missing.pem")})
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.pem")
	require.NoError(t, os.WriteFile(bad, []byte("not a cert"), 0600))
	_, err = LoadClientTLSConfig(&config.TLSConfig{CACert: bad})
	assert.Error(t, err)
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.APIURL = "https://meetings.example.com/"
	cfg.Timeout = 42 * time.Second

	c, err := NewFromConfig(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://meetings.example.com", c.BaseURL())
	assert.Equal(t, 42*time.Second, c.httpClient.Timeout)
}
