package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrPermission        = errors.New("permission denied")
	ErrInvalidInput      = errors.New("invalid input")
	ErrConflict          = errors.New("conflict")
	ErrInternal          = errors.New("internal server error")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrRemoteNotFound    = errors.New("remote resource not found")
	ErrRemoteUnavailable = errors.New("remote service unavailable")
)

// FieldError names one request field that failed validation.
type FieldError struct {
	Param string `json:"param"`
	Msg   string `json:"msg"`
}

type AppError struct {
	BaseError error
	Message   string
	Details   string
	Fields    []FieldError
	Err       error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (Details: %s, Cause: %v)", e.BaseError.Error(), e.Message, e.Details, e.Err)
	}
	return fmt.Sprintf("%s: %s (Details: %s)", e.BaseError.Error(), e.Message, e.Details)
}

func (e *AppError) Unwrap() error {
	return e.BaseError
}

func NewAppError(base error, msg, details string, err error) *AppError {
	return &AppError{BaseError: base, Message: msg, Details: details, Err: err}
}

func NewNotFound(resource, identifier string) *AppError {
	msg := fmt.Sprintf("%s not found", resource)
	details := fmt.Sprintf("%s with identifier '%s' was not found", resource, identifier)
	return NewAppError(ErrNotFound, msg, details, nil)
}

func NewInvalidInput(details string, err error) *AppError {
	return NewAppError(ErrInvalidInput, "Invalid input provided", details, err)
}

// NewValidation reports every failing field at once.
func NewValidation(fields ...FieldError) *AppError {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Param
	}
	appErr := NewAppError(ErrInvalidInput, "Validation failed", "invalid fields: "+strings.Join(names, ", "), nil)
	appErr.Fields = fields
	return appErr
}

func NewConflict(resource, field, value string) *AppError {
	msg := fmt.Sprintf("%s conflict", resource)
	details := fmt.Sprintf("%s with %s '%s' already exists", resource, field, value)
	return NewAppError(ErrConflict, msg, details, nil)
}

func NewInternal(details string, err error) *AppError {
	return NewAppError(ErrInternal, "An internal server error occurred", details, err)
}

func NewUnauthorized(details string, err error) *AppError {
	return NewAppError(ErrUnauthorized, "Invalid credentials", details, err)
}

func NewPermissionDenied(details string) *AppError {
	return NewAppError(ErrPermission, "Permission denied", details, nil)
}

func NewRemoteNotFound(resource, identifier string) *AppError {
	msg := fmt.Sprintf("No %s found", resource)
	details := fmt.Sprintf("remote %s '%s' was not found", resource, identifier)
	return NewAppError(ErrRemoteNotFound, msg, details, nil)
}

func NewRemoteUnavailable(details string, err error) *AppError {
	return NewAppError(ErrRemoteUnavailable, "Remote service unavailable", details, err)
}

func ToHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrRemoteNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrInvalidInput) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrPermission) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrConflict) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrRemoteUnavailable) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// ToJSON renders the caller-facing body. Internal causes never leave the process.
func (e *AppError) ToJSON() gin.H {
	if len(e.Fields) > 0 {
		return gin.H{"errors": e.Fields}
	}
	if errors.Is(e.BaseError, ErrInternal) {
		return gin.H{"msg": "Server error"}
	}
	return gin.H{"msg": e.Message}
}
