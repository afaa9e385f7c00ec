// Package client provides the HTTP client for the meeting analysis service.
// It handles the multipart upload, response decoding, error classification,
// and health checking.
package client

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/otherjamesbrown/azurely-cli/pkg/analysis"
	"github.com/otherjamesbrown/azurely-cli/pkg/buildinfo"
	azerrors "github.com/otherjamesbrown/azurely-cli/pkg/errors"
	"github.com/otherjamesbrown/azurely-cli/pkg/logging"
	"github.com/otherjamesbrown/azurely-cli/pkg/observability"
)

// Endpoint paths relative to the base URL.
const (
	AnalyzePath = "/api/analyze"
	HealthPath  = "/health/"
)

// Default client settings.
const (
	DefaultTimeout = 10 * time.Minute

	// maxErrorBody caps how much of a non-2xx body is read looking for "detail".
	maxErrorBody = 64 << 10
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// contentTypes maps accepted extensions to the part Content-Type sent upstream.
var contentTypes = map[string]string{
	"mp3": "audio/mpeg",
	"wav": "audio/wav",
	"m4a": "audio/mp4",
	"ogg": "audio/ogg",
	"mp4": "video/mp4",
}

// Options configures the AnalysisClient.
type Options struct {
	// Timeout bounds each HTTP round trip, upload included.
	Timeout time.Duration

	// TLSConfig is used for https base URLs. Nil means system defaults.
	TLSConfig *tls.Config

	// APIKey is sent as a bearer token when non-empty.
	APIKey string

	// UserAgent overrides the default User-Agent header.
	UserAgent string

	// Logger receives debug and error entries. Nil discards them.
	Logger logging.Logger

	// Metrics records request outcomes. Nil disables metrics.
	Metrics *observability.Metrics

	// HTTPClient replaces the client built from Timeout and TLSConfig.
	HTTPClient *http.Client
}

// DefaultOptions returns Options with default values.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: buildinfo.UserAgent(),
	}
}

// AnalysisClient talks to the analysis service over HTTP.
type AnalysisClient struct {
	baseURL    string
	httpClient *http.Client
	apiKey     string
	userAgent  string
	logger     logging.Logger
	tracer     *observability.Tracer
	metrics    *observability.Metrics
}

// NewAnalysisClient creates a client for the service rooted at baseURL
// (for example "http://localhost:8000").
func NewAnalysisClient(baseURL string, opts *Options) (*AnalysisClient, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("base URL is required")
	}
	if opts == nil {
		opts = DefaultOptions()
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if opts.TLSConfig != nil {
			transport.TLSClientConfig = opts.TLSConfig
		}
		httpClient = &http.Client{Timeout: timeout, Transport: transport}
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = buildinfo.UserAgent()
	}

	return &AnalysisClient{
		baseURL:    baseURL,
		httpClient: httpClient,
		apiKey:     opts.APIKey,
		userAgent:  userAgent,
		logger:     logger.With(logging.F("component", "analysis_client")),
		tracer:     observability.NewTracer(),
		metrics:    opts.Metrics,
	}, nil
}

// BaseURL returns the service root the client was built with.
func (c *AnalysisClient) BaseURL() string {
	return c.baseURL
}

// Analyze uploads the request's file and language and decodes the result.
//
// Errors are typed: *azerrors.TransportError when no response arrived,
// *azerrors.ServiceError for non-2xx statuses, *azerrors.ParseError when a
// 2xx body is not a valid result.
func (c *AnalysisClient) Analyze(ctx context.Context, req analysis.Request) (*analysis.Result, error) {
	start := time.Now()
	requestID := uuid.NewString()
	url := c.baseURL + AnalyzePath

	ctx, span := c.tracer.StartAnalyzeSpan(ctx, req.File.Name, req.File.Extension, req.Language.String(), req.File.SizeBytes)
	defer span.End()
	helper := observability.NewSpanHelper(span)
	helper.SetRequestID(requestID)

	log := c.logger.WithContext(logging.WithRequestID(ctx, requestID))
	log.Debug("uploading audio",
		logging.F("file", req.File.Name),
		logging.F("size_bytes", req.File.SizeBytes),
		logging.F("language", req.Language.String()),
	)

	result, status, err := c.analyze(ctx, url, requestID, req)
	elapsed := time.Since(start)
	if status != 0 {
		helper.SetHTTPStatus(status)
	}

	if err != nil {
		code := azerrors.Classify(err)
		helper.SetError(err, string(code))
		c.metrics.RecordAnalysis(observability.OutcomeError, string(code), elapsed.Seconds())
		log.Warn("analysis failed",
			logging.Err(err),
			logging.F("code", string(code)),
			logging.F("duration", elapsed),
		)
		return nil, err
	}

	helper.SetResult(result.WordCount(), len(result.ActionItems))
	helper.SetSuccess()
	c.metrics.RecordAnalysis(observability.OutcomeSuccess, "", elapsed.Seconds())
	c.metrics.RecordUpload(req.File.SizeBytes)
	log.Info("analysis complete",
		logging.F("words", result.WordCount()),
		logging.F("key_points", len(result.KeyPoints)),
		logging.F("action_items", len(result.ActionItems)),
		logging.F("duration", elapsed),
	)
	return result, nil
}

func (c *AnalysisClient) analyze(ctx context.Context, url, requestID string, req analysis.Request) (*analysis.Result, int, error) {
	src, err := req.File.Open()
	if err != nil {
		return nil, 0, fmt.Errorf("opening %s: %w", req.File.Name, err)
	}

	body, contentType := multipartBody(src, req)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		body.Close()
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")
	c.setCommonHeaders(httpReq, requestID)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, 0, &azerrors.TransportError{Op: http.MethodPost, URL: url, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, &azerrors.ServiceError{
			Status: resp.StatusCode,
			Detail: readDetail(resp.Body),
		}
	}

	var result analysis.Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, resp.StatusCode, &azerrors.ParseError{Status: resp.StatusCode, Cause: err}
	}
	return &result, resp.StatusCode, nil
}

// multipartBody streams the form through a pipe so large recordings are not
// buffered in memory. It closes src when the copy finishes.
func multipartBody(src io.ReadCloser, req analysis.Request) (io.ReadCloser, string) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		defer src.Close()

		err := writeForm(mw, src, req)
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	return pr, mw.FormDataContentType()
}

func writeForm(mw *multipart.Writer, src io.Reader, req analysis.Request) error {
	if err := mw.WriteField("language", req.Language.String()); err != nil {
		return err
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(req.File.Name)))
	ct, ok := contentTypes[req.File.Extension]
	if !ok {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, src)
	return err
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

func (c *AnalysisClient) setCommonHeaders(req *http.Request, requestID string) {
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("User-Agent", c.userAgent)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// readDetail extracts the service's "detail" message from an error body.
// FastAPI-style validation lists are joined on "; ". Returns "" when absent.
func readDetail(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}

	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(data, &body); err != nil || len(body.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(body.Detail, &s); err == nil {
		return s
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(body.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
