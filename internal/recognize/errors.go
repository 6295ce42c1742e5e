package recognize

import (
	"errors"
	"fmt"
)

// ErrRecognition matches every failure returned by Client.Submit.
var ErrRecognition = errors.New("recognition failed")

// Error describes a failed recognition call.
type Error struct {
	// Op names the failing stage: "encode", "request", "status" or "decode".
	Op string
	// StatusCode is the HTTP status when the backend answered.
	StatusCode int
	// RequestID is the id sent in the X-Request-Id header.
	RequestID string
	Err       error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("recognition %s (status %d): %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("recognition %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrRecognition) hold for every *Error.
func (e *Error) Is(target error) bool { return target == ErrRecognition }
