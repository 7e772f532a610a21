package remote

import (
	"errors"
	"fmt"
	"net/http"

	domain "github.com/bledden/tinker-voice/pkg/types"
)

// Error kinds shared by every vendor integration.
var (
	ErrMissingCredential = errors.New("missing credential")
	ErrTransport         = errors.New("transport failure")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrNotFound          = errors.New("not found")
	ErrRateLimited       = errors.New("rate limited")
	ErrRemote            = errors.New("remote error")
	ErrInvalidResponse   = errors.New("invalid response")
)

// Error is a failed vendor call. It matches its Kind and its cause with
// errors.Is and errors.As.
type Error struct {
	Service  domain.Service
	Kind     error
	Status   int
	Resource string
	Body     string
	Err      error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == ErrNotFound && e.Resource != "":
		return fmt.Sprintf("%s: %v: %s", e.Service, e.Kind, e.Resource)
	case e.Kind == ErrRemote:
		return fmt.Sprintf("%s: %v (status %d): %s", e.Service, e.Kind, e.Status, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v: %v", e.Service, e.Kind, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%s: %v (status %d)", e.Service, e.Kind, e.Status)
	default:
		return fmt.Sprintf("%s: %v", e.Service, e.Kind)
	}
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// IsRetryable reports whether err is a transport failure that a caller with
// attempts remaining may retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransport)
}

// classify maps a non-2xx HTTP status to the error taxonomy. 429 always
// maps to ErrRateLimited regardless of the response body.
func classify(service domain.Service, status int, body []byte, resource string) *Error {
	e := &Error{Service: service, Status: status}
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		e.Kind = ErrUnauthorized
	case http.StatusNotFound:
		e.Kind = ErrNotFound
		e.Resource = resource
	case http.StatusTooManyRequests:
		e.Kind = ErrRateLimited
	default:
		e.Kind = ErrRemote
		e.Body = string(body)
	}
	return e
}
