package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
)

// ErrorType categorizes catalog fetch failures for logs and metrics.
type ErrorType string

const (
	ErrTimeout   ErrorType = "timeout"    // context deadline, client timeout
	ErrAuth      ErrorType = "auth"       // 401/403, bad or missing credentials
	ErrNotFound  ErrorType = "not_found"  // 404, unknown spreadsheet
	ErrBadRange  ErrorType = "bad_range"  // 400, sheet renamed or removed
	ErrRateLimit ErrorType = "rate_limit" // 429, Sheets quota
	ErrServer    ErrorType = "server"     // 5xx
	ErrDecode    ErrorType = "decode"     // row failed DecodeRow
	ErrUnknown   ErrorType = "unknown"
)

// FetchError wraps a failed gateway call.
type FetchError struct {
	Op    string // "list_brands" | "list_rows"
	Brand string
	Type  ErrorType
	Err   error
}

func (e *FetchError) Error() string {
	if e.Brand != "" {
		return fmt.Sprintf("catalog %s %q: %s: %v", e.Op, e.Brand, e.Type, e.Err)
	}
	return fmt.Sprintf("catalog %s: %s: %v", e.Op, e.Type, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func newFetchError(op, brand string, err error) *FetchError {
	return &FetchError{Op: op, Brand: brand, Type: Classify(err), Err: err}
}

// Classify inspects an error returned by the Sheets client.
func Classify(err error) ErrorType {
	if err == nil {
		return ErrUnknown
	}
	if errors.Is(err, ErrMalformedRow) {
		return ErrDecode
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Code == http.StatusUnauthorized || gerr.Code == http.StatusForbidden:
			return ErrAuth
		case gerr.Code == http.StatusNotFound:
			return ErrNotFound
		case gerr.Code == http.StatusBadRequest:
			return ErrBadRange
		case gerr.Code == http.StatusTooManyRequests:
			return ErrRateLimit
		case gerr.Code >= 500:
			return ErrServer
		}
	}

	raw := strings.ToLower(err.Error())
	switch {
	case strings.Contains(raw, "timeout"), strings.Contains(raw, "deadline exceeded"):
		return ErrTimeout
	case strings.Contains(raw, "oauth2"), strings.Contains(raw, "credentials"):
		return ErrAuth
	}
	return ErrUnknown
}

// TypeOf returns the classification of a gateway error, or ErrUnknown.
func TypeOf(err error) ErrorType {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Type
	}
	return ErrUnknown
}
