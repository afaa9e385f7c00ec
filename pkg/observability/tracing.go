// Package observability provides tracing and Prometheus metrics for meeting analysis.
package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// TracerName is the name of the tracer for analysis operations.
	TracerName = "azurely"
)

// Span attribute keys
const (
	AttrFileName     = "file.name"
	AttrFileSize     = "file.size_bytes"
	AttrFileFormat   = "file.extension"
	AttrLanguage     = "language"
	AttrRequestID    = "request_id"
	AttrHTTPStatus   = "http.status_code"
	AttrErrorCode    = "error_code"
	AttrWordCount    = "transcript.words"
	AttrActionItems  = "action_items"
	AttrSessionState = "session.state"
)

// Span names
const (
	SpanAnalyze = "azurely.analyze"
	SpanHealth  = "azurely.health"
)

// Tracer provides distributed tracing for analysis calls.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a tracer from the global otel provider.
func NewTracer() *Tracer {
	return &Tracer{
		tracer: otel.Tracer(TracerName),
	}
}

// StartAnalyzeSpan starts a span covering one upload and its response.
func (t *Tracer) StartAnalyzeSpan(ctx context.Context, fileName, extension, language string, sizeBytes int64) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanAnalyze,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(AttrFileName, fileName),
			attribute.String(AttrFileFormat, extension),
			attribute.String(AttrLanguage, language),
			attribute.Int64(AttrFileSize, sizeBytes),
		),
	)
}

// StartHealthSpan starts a span for a backend health probe.
func (t *Tracer) StartHealthSpan(ctx context.Context) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanHealth, trace.WithSpanKind(trace.SpanKindClient))
}

// SpanHelper provides convenient methods for working with the current span.
type SpanHelper struct {
	span trace.Span
}

// NewSpanHelper creates a new span helper for the given span.
func NewSpanHelper(span trace.Span) *SpanHelper {
	return &SpanHelper{span: span}
}

// SetRequestID tags the span with the X-Request-ID sent upstream.
func (h *SpanHelper) SetRequestID(id string) {
	h.span.SetAttributes(attribute.String(AttrRequestID, id))
}

// SetHTTPStatus records the response status.
func (h *SpanHelper) SetHTTPStatus(status int) {
	h.span.SetAttributes(attribute.Int(AttrHTTPStatus, status))
}

// SetResult records the shape of a decoded result.
func (h *SpanHelper) SetResult(words, actionItems int) {
	h.span.SetAttributes(
		attribute.Int(AttrWordCount, words),
		attribute.Int(AttrActionItems, actionItems),
	)
}

// SetError records an error on the span.
func (h *SpanHelper) SetError(err error, errorCode string) {
	h.span.SetStatus(codes.Error, err.Error())
	h.span.SetAttributes(attribute.String(AttrErrorCode, errorCode))
	h.span.RecordError(err)
}

// SetSuccess marks the span as successful.
func (h *SpanHelper) SetSuccess() {
	h.span.SetStatus(codes.Ok, "")
}

// AddEvent adds an event to the span.
func (h *SpanHelper) AddEvent(name string, attrs ...attribute.KeyValue) {
	h.span.AddEvent(name, trace.WithAttributes(attrs...))
}

// GetTraceID returns the trace ID from the context.
func GetTraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().HasTraceID() {
		return span.SpanContext().TraceID().String()
	}
	return ""
}
