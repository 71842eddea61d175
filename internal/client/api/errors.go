package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/atinyakov/FloraFacts/internal/identify"
)

// ErrUnauthorized is returned for 401 responses.
var ErrUnauthorized = errors.New("unauthorized")

// StatusError is a non-2xx response. Message holds the server's user-facing
// text when the body carried one.
type StatusError struct {
	Code    int
	Message string
	kind    error
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("server returned %d", e.Code)
}

// Unwrap exposes the error kind the status stands for, so callers can use
// errors.Is with the identify sentinels.
func (e *StatusError) Unwrap() error { return e.kind }

func newStatusError(code int, msg string, identifyCall bool) *StatusError {
	e := &StatusError{Code: code, Message: msg}
	switch code {
	case http.StatusUnauthorized:
		e.kind = ErrUnauthorized
	case http.StatusServiceUnavailable:
		e.kind = identify.ErrOverloaded
	case http.StatusConflict:
		e.kind = identify.ErrSuperseded
	case http.StatusGatewayTimeout:
		e.kind = context.DeadlineExceeded
	}
	if !identifyCall {
		return e
	}
	switch {
	case code == http.StatusBadRequest && msg == identify.Message(identify.ErrNotAPlant):
		e.kind = identify.ErrNotAPlant
	case code == http.StatusBadRequest:
		e.kind = identify.ErrInvalidImage
	case code == http.StatusInternalServerError && msg == identify.Message(identify.ErrNotConfigured):
		e.kind = identify.ErrNotConfigured
	}
	return e
}
