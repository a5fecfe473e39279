package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the machine-readable error category returned to clients.
type Kind string

const (
	KindValidation   Kind = "VALIDATION_ERROR"
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindForbidden    Kind = "FORBIDDEN"
	KindNotFound     Kind = "NOT_FOUND"
	KindInvalidState Kind = "INVALID_STATE"
	KindConflict     Kind = "CONFLICT"
	KindStore        Kind = "STORE_ERROR"
	KindRateLimited  Kind = "RATE_LIMITED"
)

// AppError is an error carrying its client-facing kind, message and HTTP
// status. Internal holds the underlying cause and is never serialized.
type AppError struct {
	Kind       Kind   `json:"kind"`
	Message    string `json:"msg"`
	HTTPStatus int    `json:"-"`
	Internal   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Internal)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Internal
}

func NewValidationError(message string) *AppError {
	return &AppError{Kind: KindValidation, Message: message, HTTPStatus: http.StatusBadRequest}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{Kind: KindUnauthorized, Message: message, HTTPStatus: http.StatusUnauthorized}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{Kind: KindForbidden, Message: message, HTTPStatus: http.StatusForbidden}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{Kind: KindNotFound, Message: message, HTTPStatus: http.StatusNotFound}
}

// NewInvalidStateError reports a transition that is not legal from the
// current status.
func NewInvalidStateError(message string) *AppError {
	return &AppError{Kind: KindInvalidState, Message: message, HTTPStatus: http.StatusBadRequest}
}

func NewConflictError(message string) *AppError {
	return &AppError{Kind: KindConflict, Message: message, HTTPStatus: http.StatusConflict}
}

func NewRateLimitedError(message string) *AppError {
	return &AppError{Kind: KindRateLimited, Message: message, HTTPStatus: http.StatusTooManyRequests}
}

// NewStoreError wraps a persistence or upstream failure.
func NewStoreError(operation string, internal error) *AppError {
	return &AppError{
		Kind:       KindStore,
		Message:    fmt.Sprintf("Failed to %s", operation),
		HTTPStatus: http.StatusInternalServerError,
		Internal:   internal,
	}
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// FromError converts any error into an AppError, treating unknown errors as
// internal store failures.
func FromError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{
		Kind:       KindStore,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Internal:   err,
	}
}
