// Package errors defines the storefront error taxonomy.
//
// Every failure surfaced by the client falls in one of three kinds:
// validation (detected locally, no network call made), server (the API
// answered with a non-success status) and network (the request never got
// a usable answer). Auth and cart operations convert these into a Result
// at the container boundary; lower layers return *ServiceError values.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure.
type Kind string

const (
	KindValidation Kind = "validation"
	KindServer     Kind = "server"
	KindNetwork    Kind = "network"
	KindInternal   Kind = "internal"
)

// Error codes.
const (
	CodeValidation   = "VALIDATION_FAILED"
	CodeAuthRequired = "AUTH_REQUIRED"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeInvalidToken = "INVALID_TOKEN"
	CodeNotFound     = "NOT_FOUND"
	CodeServer       = "SERVER_ERROR"
	CodeNetwork      = "NETWORK_ERROR"
	CodeInternal     = "INTERNAL_ERROR"
)

// Messages shown to users for failures that carry no server detail.
const (
	MsgNetwork      = "Network error. Please try again."
	MsgAuthRequired = "Please login to add items to cart"
)

// ServiceError is a classified storefront failure.
type ServiceError struct {
	Code       string
	Kind       Kind
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// WithDetails attaches a key/value pair and returns the same error.
func (e *ServiceError) WithDetails(key string, value any) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// Validation reports a locally detected precondition failure.
func Validation(field, reason string) *ServiceError {
	return &ServiceError{
		Code:       CodeValidation,
		Kind:       KindValidation,
		Message:    fmt.Sprintf("%s: %s", field, reason),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"field": field},
	}
}

// Actions named in AuthRequired messages.
const (
	ActionCartAdd    = "add items to cart"
	ActionCartRemove = "remove items from cart"
	ActionCartUpdate = "update items in cart"
)

// AuthRequired reports an operation attempted without a signed-in user.
// An empty action yields the add-to-cart message.
func AuthRequired(action string) *ServiceError {
	msg := MsgAuthRequired
	if action != "" && action != ActionCartAdd {
		msg = "Please login to " + action
	}
	return &ServiceError{
		Code:       CodeAuthRequired,
		Kind:       KindValidation,
		Message:    msg,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// Unauthorized reports a server rejection of credentials.
func Unauthorized(message string) *ServiceError {
	if message == "" {
		message = "Unauthorized"
	}
	return &ServiceError{
		Code:       CodeUnauthorized,
		Kind:       KindServer,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// InvalidToken reports a stored token that is unusable.
func InvalidToken(err error) *ServiceError {
	return &ServiceError{
		Code:       CodeInvalidToken,
		Kind:       KindServer,
		Message:    "Invalid or expired token",
		HTTPStatus: http.StatusUnauthorized,
		Err:        err,
	}
}

// NotFound reports a missing resource.
func NotFound(resource, id string) *ServiceError {
	msg := resource + " not found"
	if id != "" {
		msg = fmt.Sprintf("%s %q not found", resource, id)
	}
	return &ServiceError{
		Code:       CodeNotFound,
		Kind:       KindServer,
		Message:    msg,
		HTTPStatus: http.StatusNotFound,
	}
}

// Server wraps a non-success response. detail is the server-provided
// message, if any.
func Server(status int, detail string) *ServiceError {
	code := CodeServer
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		code = CodeUnauthorized
	case http.StatusNotFound:
		code = CodeNotFound
	}
	if detail == "" {
		detail = http.StatusText(status)
	}
	return &ServiceError{
		Code:       code,
		Kind:       KindServer,
		Message:    detail,
		HTTPStatus: status,
	}
}

// Network wraps a transport failure behind the generic network message.
func Network(err error) *ServiceError {
	return &ServiceError{
		Code:       CodeNetwork,
		Kind:       KindNetwork,
		Message:    MsgNetwork,
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

// Internal wraps an unexpected client-side failure.
func Internal(message string, err error) *ServiceError {
	return &ServiceError{
		Code:       CodeInternal,
		Kind:       KindInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// GetServiceError extracts a *ServiceError from an error chain.
func GetServiceError(err error) *ServiceError {
	var se *ServiceError
	if errors.As(err, &se) {
		return se
	}
	return nil
}

// KindOf returns the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	if se := GetServiceError(err); se != nil {
		return se.Kind
	}
	return KindInternal
}

// IsKind reports whether err is a ServiceError of the given kind.
func IsKind(err error, kind Kind) bool {
	se := GetServiceError(err)
	return se != nil && se.Kind == kind
}

// IsAuthRequired reports whether err is the local sign-in precondition.
func IsAuthRequired(err error) bool {
	se := GetServiceError(err)
	return se != nil && se.Code == CodeAuthRequired
}

// UserMessage returns the message safe to display for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if se := GetServiceError(err); se != nil {
		return se.Message
	}
	return MsgNetwork
}
