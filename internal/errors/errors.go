// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package errors defines the error taxonomy shared by the store, the
// moderation workflow and the HTTP API. Callers classify failures with
// errors.Is against the sentinels below; concrete errors are built with
// NewError/WithError and marked with one of them.
package errors

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

var (
	ErrValidation        = new(ErrCodeValidation, "validation failed")
	ErrNotFound          = new(ErrCodeNotFound, "resource not found")
	ErrConnection        = new(ErrCodeConnection, "datastore unavailable")
	ErrConflict          = new(ErrCodeConflict, "concurrent modification")
	ErrInvalidTransition = new(ErrCodeInvalidTransition, "invalid status transition")
	ErrPermissionDenied  = new(ErrCodePermissionDenied, "permission denied")
	ErrUnauthenticated   = new(ErrCodeUnauthenticated, "authentication required")
	ErrSystem            = new(ErrCodeSystem, "system error")

	statusCodeMap = map[error]int{
		ErrValidation:        http.StatusUnprocessableEntity,
		ErrNotFound:          http.StatusNotFound,
		ErrConnection:        http.StatusServiceUnavailable,
		ErrConflict:          http.StatusConflict,
		ErrInvalidTransition: http.StatusConflict,
		ErrPermissionDenied:  http.StatusForbidden,
		ErrUnauthenticated:   http.StatusUnauthorized,
		ErrSystem:            http.StatusInternalServerError,
	}
)

const (
	ErrCodeValidation        = "validation_error"
	ErrCodeNotFound          = "not_found"
	ErrCodeConnection        = "connection_error"
	ErrCodeConflict          = "conflict"
	ErrCodeInvalidTransition = "invalid_transition"
	ErrCodePermissionDenied  = "permission_denied"
	ErrCodeUnauthenticated   = "unauthenticated"
	ErrCodeSystem            = "system_error"
)

// InternalError is a classification sentinel.
type InternalError struct {
	Code    string // machine-readable code, also used in API bodies
	Message string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches any InternalError carrying the same code.
func (e *InternalError) Is(target error) bool {
	t, ok := target.(*InternalError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func new(code, message string) *InternalError {
	return &InternalError{Code: code, Message: message}
}

// As is errors.As re-exported so callers need a single import.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Is is errors.Is re-exported so callers need a single import.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

func IsValidation(err error) bool        { return errors.Is(err, ErrValidation) }
func IsNotFound(err error) bool          { return errors.Is(err, ErrNotFound) }
func IsConnection(err error) bool        { return errors.Is(err, ErrConnection) }
func IsConflict(err error) bool          { return errors.Is(err, ErrConflict) }
func IsInvalidTransition(err error) bool { return errors.Is(err, ErrInvalidTransition) }
func IsPermissionDenied(err error) bool  { return errors.Is(err, ErrPermissionDenied) }
func IsUnauthenticated(err error) bool   { return errors.Is(err, ErrUnauthenticated) }

// Sentinel returns the classification sentinel err was marked with, or
// ErrSystem when it carries none.
func Sentinel(err error) *InternalError {
	for e := range statusCodeMap {
		if errors.Is(err, e) {
			return e.(*InternalError)
		}
	}
	return ErrSystem
}

// HTTPStatusFromErr maps a classified error to an HTTP status code.
func HTTPStatusFromErr(err error) int {
	return statusCodeMap[Sentinel(err)]
}

// Hint returns the user-facing hints attached to err, joined by "; ".
func Hint(err error) string {
	return errors.FlattenHints(err)
}

// Details returns the per-field details attached with WithReportableDetails.
func Details(err error) map[string]string {
	details := map[string]string{}
	for _, d := range errors.GetAllDetails(err) {
		var m map[string]string
		if decodeDetails(d, &m) {
			for k, v := range m {
				details[k] = v
			}
		}
	}
	if len(details) == 0 {
		return nil
	}
	return details
}
