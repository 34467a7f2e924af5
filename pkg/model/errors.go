package model

import (
	"fmt"
	"strings"
)

// MissingCredentialError is returned when a network strategy runs without a credential.
type MissingCredentialError struct {
	Strategy Strategy
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("strategy %q requires an API credential", e.Strategy)
}

// UnsupportedStrategyError names a strategy tag that is not recognised.
type UnsupportedStrategyError struct {
	Strategy string
}

func (e *UnsupportedStrategyError) Error() string {
	return fmt.Sprintf("unsupported analysis strategy: %q", e.Strategy)
}

// UnsupportedLocaleError names a locale tag that has no vocabulary tables.
type UnsupportedLocaleError struct {
	Locale string
}

func (e *UnsupportedLocaleError) Error() string {
	return fmt.Sprintf("unsupported locale: %q", e.Locale)
}

// ExternalServiceError is a non-success response from the generative service.
type ExternalServiceError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s api error: status %d: %s", e.Provider, e.StatusCode, truncate(e.Body, 300))
}

// MalformedResponseError is a successful response whose content holds no parsable JSON object.
type MalformedResponseError struct {
	Reason  string
	Content string
	Err     error
}

func (e *MalformedResponseError) Error() string {
	msg := "malformed response: " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// JSONShapeError reports a parsed response that lacks required top-level keys.
type JSONShapeError struct {
	Missing []string
}

func (e *JSONShapeError) Error() string {
	return "response JSON is missing required keys: " + strings.Join(e.Missing, ", ")
}

// RunError is a failed extraction run. It carries the log trail accumulated up to the
// failure so callers can show diagnostics.
type RunError struct {
	Strategy Strategy
	Logs     []string
	Err      error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%s analysis failed: %v", e.Strategy, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
