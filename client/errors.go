package client

import (
	"github.com/pkg/errors"
)

// ErrorKind classifies a failed format interaction.
type ErrorKind string

const (
	// KindMissingInput means the server rejected empty code.
	KindMissingInput ErrorKind = "MissingInput"
	// KindFormatFailure means the formatter could not format the code.
	KindFormatFailure ErrorKind = "FormatFailure"
	// KindTransportFailure is produced on the client only: the server could
	// not be reached or answered with something unexpected.
	KindTransportFailure ErrorKind = "TransportFailure"
)

// Messages used when the server did not supply one.
const (
	MessageNetworkFailure     = "Network error: could not reach the formatting service"
	MessageUnexpectedResponse = "Unexpected response from the formatting service"
	MessageUnknown            = "An unknown error occurred"
)

// FormatError is a failed format interaction as shown to the user.
type FormatError struct {
	cause      error
	Kind       ErrorKind
	Message    string
	HTTPStatus int // 0 when no response was received
}

func (e *FormatError) Error() string {
	return e.Message
}

func (e *FormatError) Unwrap() error {
	return e.cause
}

func newTransportError(status int, message string, cause error) *FormatError {
	return &FormatError{Kind: KindTransportFailure, Message: message, HTTPStatus: status, cause: cause}
}

// AsFormatError returns err as a *FormatError. Errors that did not come from
// the client become transport failures carrying their own text.
func AsFormatError(err error) *FormatError {
	if err == nil {
		return nil
	}
	var fe *FormatError
	if errors.As(err, &fe) {
		return fe
	}
	message := err.Error()
	if message == "" {
		message = MessageUnknown
	}
	return newTransportError(0, message, err)
}
