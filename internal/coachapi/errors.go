// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package coachapi

import (
	"context"
	"errors"
	"fmt"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeConnection
	ErrTypeTimeout
	ErrTypeCanceled
	ErrTypeInvalidResponse
)

// String returns the error type name used in logs.
func (t ErrorType) String() string {
	switch t {
	case ErrTypeConnection:
		return "connection"
	case ErrTypeTimeout:
		return "timeout"
	case ErrTypeCanceled:
		return "canceled"
	case ErrTypeInvalidResponse:
		return "invalid_response"
	default:
		return "unknown"
	}
}

// ClientError is a transport or decoding failure on the client side.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// APIError is a non-success response from the backend. Detail is the
// response body verbatim, or a fixed fallback when the body is empty.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return e.Detail
}

// Fallback details used when the backend gives nothing to show.
const (
	detailEmptyBody = "Failed to get response from API"
	detailNoBody    = "No response body"
)

// ErrNoBody is returned when a successful response carries no body at all.
var ErrNoBody = &ClientError{Type: ErrTypeInvalidResponse, Message: detailNoBody}

// IsTimeout reports whether err is a deadline expiry.
func IsTimeout(err error) bool {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Type == ErrTypeTimeout
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// IsCanceled reports whether err is caused by the caller cancelling.
func IsCanceled(err error) bool {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Type == ErrTypeCanceled
	}
	return errors.Is(err, context.Canceled)
}

// StatusCode returns the HTTP status of an APIError, or 0.
func StatusCode(err error) int {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.StatusCode
	}
	return 0
}

// transportError classifies an error from the HTTP round trip or a body
// read, using ctx to tell cancellation from timeouts.
func transportError(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.Canceled) || errors.Is(err, context.Canceled):
		return &ClientError{Type: ErrTypeCanceled, Message: op + " canceled", Cause: context.Canceled}
	case errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded):
		return &ClientError{Type: ErrTypeTimeout, Message: op + " timed out", Cause: context.DeadlineExceeded}
	default:
		return &ClientError{Type: ErrTypeConnection, Message: fmt.Sprintf("%s failed", op), Cause: err}
	}
}
