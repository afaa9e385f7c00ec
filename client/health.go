package client

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	azerrors "github.com/otherjamesbrown/azurely-cli/pkg/errors"
	"github.com/otherjamesbrown/azurely-cli/pkg/logging"
	"github.com/otherjamesbrown/azurely-cli/pkg/observability"
)

// Dependency status values reported by the service.
const (
	DependencyConnected = "connected"
	DependencyError     = "error"
)

// HealthStatus is the body of the service's health endpoint.
type HealthStatus struct {
	Status      string `json:"status" yaml:"status"`
	Service     string `json:"service" yaml:"service"`
	AzureSpeech string `json:"azure_speech" yaml:"azure_speech"`
	AzureOpenAI string `json:"azure_openai" yaml:"azure_openai"`

	// Latency is measured client-side and not part of the body.
	Latency time.Duration `json:"-" yaml:"-"`
}

// Healthy reports whether the service and both of its dependencies are up.
func (h *HealthStatus) Healthy() bool {
	return h != nil && h.Status == "ok" &&
		h.AzureSpeech == DependencyConnected &&
		h.AzureOpenAI == DependencyConnected
}

// Health queries the service health endpoint.
func (c *AnalysisClient) Health(ctx context.Context) (*HealthStatus, error) {
	requestID := uuid.NewString()
	url := c.baseURL + HealthPath

	ctx, span := c.tracer.StartHealthSpan(ctx)
	defer span.End()
	helper := observability.NewSpanHelper(span)
	helper.SetRequestID(requestID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	c.setCommonHeaders(req, requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(start)
	if err != nil {
		err = &azerrors.TransportError{Op: http.MethodGet, URL: url, Cause: err}
		helper.SetError(err, string(azerrors.Classify(err)))
		return nil, err
	}
	defer resp.Body.Close()
	helper.SetHTTPStatus(resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := &azerrors.ServiceError{Status: resp.StatusCode, Detail: readDetail(resp.Body)}
		helper.SetError(err, string(azerrors.Classify(err)))
		return nil, err
	}

	var status HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		perr := &azerrors.ParseError{Status: resp.StatusCode, Cause: err}
		helper.SetError(perr, string(azerrors.ErrMalformedResponse))
		return nil, perr
	}
	status.Latency = latency

	helper.SetSuccess()
	c.logger.Debug("health checked",
		logging.F("status", status.Status),
		logging.F("latency", latency),
	)
	return &status, nil
}
