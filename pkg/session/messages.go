package session

import (
	"errors"
	"fmt"

	azerrors "github.com/otherjamesbrown/azurely-cli/pkg/errors"
)

// ConnectionFailedMessage is shown when no response arrived at all.
const ConnectionFailedMessage = "Connection failed. Make sure the backend is running on localhost:8000."

// UserMessage maps an analysis error to the text shown in the Error state.
// A service-provided detail is used verbatim. A non-2xx status without one,
// or a 2xx body that could not be decoded, yields "Server error: <status>".
// Everything else is reported as a connection failure.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var svc *azerrors.ServiceError
	if errors.As(err, &svc) {
		if svc.Detail != "" {
			return svc.Detail
		}
		return serverError(svc.Status)
	}

	var perr *azerrors.ParseError
	if errors.As(err, &perr) {
		return serverError(perr.Status)
	}

	return ConnectionFailedMessage
}

func serverError(status int) string {
	return fmt.Sprintf("Server error: %d", status)
}
