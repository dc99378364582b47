package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/comigor/llm-smoke/internal/config"
)

// CallError reports a failed chat completion. StatusCode is zero when no HTTP response arrived.
type CallError struct {
	Provider   config.Provider
	StatusCode int
	Message    string
	Err        error
}

func (e *CallError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "llm call to %s failed", e.Provider)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	switch {
	case e.Message != "":
		b.WriteString(": " + e.Message)
	case e.Err != nil:
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *CallError) Unwrap() error { return e.Err }

// IsAuthFailure reports whether the provider rejected the credentials.
func (e *CallError) IsAuthFailure() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

func newCallError(p config.Provider, err error) *CallError {
	ce := &CallError{Provider: p, Err: err}

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		ce.StatusCode = apiErr.HTTPStatusCode
		ce.Message = apiErr.Message
	case errors.As(err, &reqErr):
		ce.StatusCode = reqErr.HTTPStatusCode
		ce.Message = reqErr.Error()
	default:
		ce.Message = err.Error()
	}
	return ce
}
