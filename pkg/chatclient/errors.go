package chatclient

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrRequestFailed matches every *RequestFailure via errors.Is.
	ErrRequestFailed = errors.New("chat request failed")
	// ErrEmptyMessage is returned for blank text before any request is made.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrNoResponse is the cause when a reply carries no response string.
	ErrNoResponse = errors.New("reply has no response field")
)

// RequestFailure is the single failure class of the chat exchange. Transport
// errors and unparseable replies are not distinguished by callers.
type RequestFailure struct {
	Method     string
	URL        string
	StatusCode int
	Cause      error
}

func (e *RequestFailure) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s (status %d): %v", e.Method, e.URL, e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Cause)
}

func (e *RequestFailure) Unwrap() error { return e.Cause }

// Is makes every RequestFailure match ErrRequestFailed.
func (e *RequestFailure) Is(target error) bool { return target == ErrRequestFailed }
