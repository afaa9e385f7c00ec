package errors

// ErrorCodeInfo contains metadata about an error code.
type ErrorCodeInfo struct {
	Code            ErrorCode
	Local           bool
	Description     string
	SuggestedAction string
}

// ErrorCodeRegistry maps error codes to their metadata.
var ErrorCodeRegistry = map[ErrorCode]ErrorCodeInfo{
	ErrUnsupportedFormat: {
		Code:            ErrUnsupportedFormat,
		Local:           true,
		Description:     "File extension is not an accepted audio format",
		SuggestedAction: "Convert the recording to mp3, wav, m4a, ogg or mp4",
	},
	ErrUnsupportedLanguage: {
		Code:            ErrUnsupportedLanguage,
		Local:           true,
		Description:     "Language tag is not one of the supported locales",
		SuggestedAction: "List supported tags: azurely languages",
	},
	ErrConnectionFailed: {
		Code:            ErrConnectionFailed,
		Description:     "Analysis service could not be reached",
		SuggestedAction: "Check the backend is running and api_url is correct: azurely health",
	},
	ErrTimeout: {
		Code:            ErrTimeout,
		Description:     "Request exceeded the configured timeout",
		SuggestedAction: "Raise the timeout: azurely analyze --timeout 20m",
	},
	ErrContextCancelled: {
		Code:            ErrContextCancelled,
		Description:     "Request cancelled before it completed",
		SuggestedAction: "Re-run the command; cancellation usually means Ctrl-C",
	},
	ErrAuthRejected: {
		Code:            ErrAuthRejected,
		Description:     "Service rejected the request credentials",
		SuggestedAction: "Store a valid key: azurely auth login",
	},
	ErrPayloadTooLarge: {
		Code:            ErrPayloadTooLarge,
		Description:     "Audio file exceeds the service size limit",
		SuggestedAction: "Trim or compress the recording before uploading",
	},
	ErrFormatRejected: {
		Code:            ErrFormatRejected,
		Description:     "Service refused the audio format",
		SuggestedAction: "Re-encode the recording as wav or mp3",
	},
	ErrUpstreamFailed: {
		Code:            ErrUpstreamFailed,
		Description:     "Transcription or summarisation provider failed",
		SuggestedAction: "Check provider status: azurely health",
	},
	ErrServerError: {
		Code:            ErrServerError,
		Description:     "Service returned an error status",
		SuggestedAction: "Inspect the backend logs for the request id printed with --debug",
	},
	ErrMalformedResponse: {
		Code:            ErrMalformedResponse,
		Description:     "Service response could not be decoded",
		SuggestedAction: "Verify api_url points at an Azurely analysis service",
	},
	ErrUnknown: {
		Code:            ErrUnknown,
		Description:     "Unclassified error",
		SuggestedAction: "Re-run with --debug for details",
	},
}

// IsLocal returns true if the code is raised before any request is sent.
func IsLocal(code ErrorCode) bool {
	if info, ok := ErrorCodeRegistry[code]; ok {
		return info.Local
	}
	return false
}

// GetSuggestedAction returns the suggested action for the given error code.
func GetSuggestedAction(code ErrorCode) string {
	if info, ok := ErrorCodeRegistry[code]; ok {
		return info.SuggestedAction
	}
	return "Re-run with --debug for details"
}

// GetDescription returns the human-readable description for the given error code.
func GetDescription(code ErrorCode) string {
	if info, ok := ErrorCodeRegistry[code]; ok {
		return info.Description
	}
	return "Unknown error"
}
