package submission

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrBreakerOpen is returned while the circuit breaker fails fast.
	ErrBreakerOpen = errors.New("submission: form service unavailable")
	// ErrRateLimited is returned when the limiter cannot grant a token before
	// the context deadline.
	ErrRateLimited = errors.New("submission: rate limited")
	// ErrMissingFormID is returned when no form id is configured.
	ErrMissingFormID = errors.New("submission: form id is required")
)

// FieldError is one entry of the form service's error payload.
type FieldError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type errorBody struct {
	Error  string       `json:"error,omitempty"`
	Errors []FieldError `json:"errors,omitempty"`
}

// ResponseError reports a non-2xx reply from the form service.
type ResponseError struct {
	StatusCode int
	Message    string
	Fields     []FieldError
}

func (e *ResponseError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "submission: form service returned %d", e.StatusCode)
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for _, f := range e.Fields {
			if f.Field != "" {
				parts = append(parts, f.Field+": "+f.Message)
			} else {
				parts = append(parts, f.Message)
			}
		}
		b.WriteString(" (")
		b.WriteString(strings.Join(parts, "; "))
		b.WriteString(")")
	}
	return b.String()
}

// Temporary reports whether the failure is on the service side.
func (e *ResponseError) Temporary() bool {
	return e != nil && (e.StatusCode >= 500 || e.StatusCode == 429)
}

// FieldMessages groups field errors by field name. Errors without a field
// are collected under the empty key.
func (e *ResponseError) FieldMessages() map[string][]string {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	out := make(map[string][]string)
	for _, f := range e.Fields {
		out[f.Field] = append(out[f.Field], f.Message)
	}
	for key := range out {
		sort.Strings(out[key])
	}
	return out
}

// AsResponseError unwraps err into a *ResponseError.
func AsResponseError(err error) (*ResponseError, bool) {
	var target *ResponseError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}
