package gdocs

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
)

var ErrNotFound = errors.New("not found")

// ProviderError is a failed Drive/Slides call. Code is the HTTP status
// reported by Google, 0 when the call never got a response.
type ProviderError struct {
	Op   string
	Code int
	Err  error
}

func (e *ProviderError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s: %d: %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func (e *ProviderError) Is(target error) bool {
	return target == ErrNotFound && e.Code == http.StatusNotFound
}

// Message returns the provider's own message when there is one.
func (e *ProviderError) Message() string {
	var gerr *googleapi.Error
	if errors.As(e.Err, &gerr) && gerr.Message != "" {
		return gerr.Message
	}
	return e.Err.Error()
}

func classify(op string, err error) error {
	pe := &ProviderError{Op: op, Err: err}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		pe.Code = gerr.Code
	}
	return pe
}

// Code extracts the provider status code from err, 0 if none.
func Code(err error) int {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return 0
}
