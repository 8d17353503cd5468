package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeDuplicate    ErrorType = "DUPLICATE"
	ErrorTypeCredentials  ErrorType = "INVALID_CREDENTIALS"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed   ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidRequestBody ErrorCode = "INVALID_REQUEST_BODY"
	ErrCodeRequestTooLarge    ErrorCode = "REQUEST_TOO_LARGE"
	ErrCodeInvalidEmail       ErrorCode = "INVALID_EMAIL"
	ErrCodePasswordTooShort   ErrorCode = "PASSWORD_TOO_SHORT"
	ErrCodePasswordTooLong    ErrorCode = "PASSWORD_TOO_LONG"
	ErrCodeInvalidDepartment  ErrorCode = "INVALID_DEPARTMENT"
	ErrCodeInvalidImage       ErrorCode = "INVALID_IMAGE"
	ErrCodeImageTooLarge      ErrorCode = "IMAGE_TOO_LARGE"

	ErrCodeDuplicateAccount  ErrorCode = "DUPLICATE_ACCOUNT"
	ErrCodeDuplicateEmployee ErrorCode = "DUPLICATE_EMPLOYEE"

	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeNoToken            ErrorCode = "NO_TOKEN"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"

	ErrCodeEmployeeNotFound ErrorCode = "EMPLOYEE_NOT_FOUND"

	ErrCodePersistence ErrorCode = "PERSISTENCE_ERROR"
	ErrCodeInternal    ErrorCode = "INTERNAL_ERROR"
)

// AppError is the single error shape that crosses the handler boundary.
// Only Message (or the first validation detail) is ever shown to the client.
type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if msg := e.firstValidationMessage(); msg != "" {
		return msg
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// PublicMessage is the human-readable message safe to return to callers.
func (e *AppError) PublicMessage() string {
	if msg := e.firstValidationMessage(); msg != "" {
		return msg
	}
	return e.Message
}

// GetDetailedMessage joins every validation failure, for logs.
func (e *AppError) GetDetailedMessage() string {
	if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
		messages := make([]string, len(validationErrors.Errors))
		for i, err := range validationErrors.Errors {
			messages[i] = err.Message
		}
		return strings.Join(messages, "; ")
	}
	return e.Message
}

func (e *AppError) firstValidationMessage() string {
	if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
		return validationErrors.Errors[0].Message
	}
	return ""
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches on Code so the package-level sentinels work with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func (e *AppError) WithCause(cause error) *AppError {
	cp := *e
	cp.Cause = cause
	return &cp
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

// NewDuplicateError reports a uniqueness violation. The observed API answers
// these with 400, not 409.
func NewDuplicateError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeDuplicate,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewPersistenceError(cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       ErrCodePersistence,
		Message:    "Server error",
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       ErrCodeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

var (
	ErrInvalidRequestBody = NewValidationError("invalid request body", ErrCodeInvalidRequestBody)
	ErrRequestTooLarge    = &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeRequestTooLarge,
		Message:    "request body too large",
		StatusCode: http.StatusRequestEntityTooLarge,
	}

	ErrDuplicateAccount  = NewDuplicateError("User already exists", ErrCodeDuplicateAccount)
	ErrDuplicateEmployee = NewDuplicateError("Employee with this email already exists", ErrCodeDuplicateEmployee)

	ErrInvalidCredentials = &AppError{
		Type:       ErrorTypeCredentials,
		Code:       ErrCodeInvalidCredentials,
		Message:    "Invalid credentials",
		StatusCode: http.StatusBadRequest,
	}

	ErrNoToken      = NewUnauthorizedError("no token provided", ErrCodeNoToken)
	ErrInvalidToken = NewUnauthorizedError("invalid token", ErrCodeInvalidToken)

	ErrEmployeeNotFound = NewNotFoundError("Employee not found", ErrCodeEmployeeNotFound)
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Response is the wire shape of every error payload.
type Response struct {
	Error string `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, Response) {
	return e.StatusCode, Response{Error: e.PublicMessage()}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
