package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCodeRegistry_Completeness(t *testing.T) {
	allCodes := []ErrorCode{
		ErrUnsupportedFormat,
		ErrUnsupportedLanguage,
		ErrConnectionFailed,
		ErrTimeout,
		ErrContextCancelled,
		ErrAuthRejected,
		ErrPayloadTooLarge,
		ErrFormatRejected,
		ErrUpstreamFailed,
		ErrServerError,
		ErrMalformedResponse,
		ErrUnknown,
	}

	for _, code := range allCodes {
		t.Run(string(code), func(t *testing.T) {
			info, ok := ErrorCodeRegistry[code]
			assert.True(t, ok, "ErrorCode %s should be in registry", code)
			assert.Equal(t, code, info.Code, "Registry entry should have matching code")
			assert.NotEmpty(t, info.Description, "Description should not be empty")
			assert.NotEmpty(t, info.SuggestedAction, "SuggestedAction should not be empty")
		})
	}
}

func TestIsLocal(t *testing.T) {
	assert.True(t, IsLocal(ErrUnsupportedFormat))
	assert.True(t, IsLocal(ErrUnsupportedLanguage))
	assert.False(t, IsLocal(ErrConnectionFailed))
	assert.False(t, IsLocal(ErrServerError))
	assert.False(t, IsLocal("not_a_code"))
}

func TestGetSuggestedAction(t *testing.T) {
	for code := range ErrorCodeRegistry {
		action := GetSuggestedAction(code)
		assert.True(t, len(action) > 15, "Action for %s should be meaningful: %s", code, action)
	}

	action := GetSuggestedAction("unknown_code")
	assert.Contains(t, action, "--debug")
}

func TestGetDescription(t *testing.T) {
	for code := range ErrorCodeRegistry {
		assert.NotEmpty(t, GetDescription(code), "Code %s should have a description", code)
	}
	assert.Equal(t, "Unknown error", GetDescription("unknown_code"))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"nil", nil, ""},
		{"deadline", fmt.Errorf("post: %w", context.DeadlineExceeded), ErrTimeout},
		{"cancelled", &TransportError{Cause: context.Canceled}, ErrContextCancelled},
		{"refused", &TransportError{Op: "POST", Cause: errors.New("connection refused")}, ErrConnectionFailed},
		{"401", &ServiceError{Status: 401}, ErrAuthRejected},
		{"413", &ServiceError{Status: 413, Detail: "Audio file too large"}, ErrPayloadTooLarge},
		{"415", &ServiceError{Status: 415}, ErrFormatRejected},
		{"502", &ServiceError{Status: 502}, ErrUpstreamFailed},
		{"500", &ServiceError{Status: 500}, ErrServerError},
		{"parse", &ParseError{Status: 200, Cause: errors.New("bad")}, ErrMalformedResponse},
		{"other", errors.New("boom"), ErrUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestServiceError_Message(t *testing.T) {
	assert.Equal(t, "service returned 500: boom", (&ServiceError{Status: 500, Detail: "boom"}).Error())
	assert.Equal(t, "service returned 503", (&ServiceError{Status: 503}).Error())
}
