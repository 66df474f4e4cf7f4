package llm

import (
	"errors"
	"fmt"
)

// ErrCompletion is matched by every *CompletionError via errors.Is.
var ErrCompletion = errors.New("completion failed")

// CompletionError is returned for any failure of a single completion round trip:
// transport failure, non-success status, or a malformed or empty body.
type CompletionError struct {
	// Reason is a short machine-friendly description, e.g. "bad_status".
	Reason string
	// StatusCode is the HTTP status when a response was received, 0 otherwise.
	StatusCode int
	// Err is the underlying cause, if any.
	Err error
}

func (e *CompletionError) Error() string {
	msg := "completion failed: " + e.Reason
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrCompletion.
func (e *CompletionError) Is(target error) bool {
	return target == ErrCompletion
}

// Failure reasons reported in CompletionError.Reason.
const (
	ReasonEncode    = "encode_request"
	ReasonTransport = "transport"
	ReasonStatus    = "bad_status"
	ReasonDecode    = "decode_response"
	ReasonNoChoices = "no_choices"
)
