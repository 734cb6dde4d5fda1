package engine

import "fmt"

// FieldErrors maps a field name to its validation messages.
type FieldErrors map[string][]string

func (fe FieldErrors) add(field, msg string) {
	fe[field] = append(fe[field], msg)
}

type AppError struct {
	Code    string      `json:"code"`
	Status  int         `json:"-"`
	Message string      `json:"message"`
	Details FieldErrors `json:"errors,omitempty"`
	// Diagnostic carries the underlying storage error for logs only.
	Diagnostic string `json:"-"`
}

func (e *AppError) Error() string {
	if e.Diagnostic != "" {
		return e.Message + ": " + e.Diagnostic
	}
	return e.Message
}

func NewAppError(code string, status int, msg string) *AppError {
	return &AppError{Code: code, Status: status, Message: msg}
}

func NotFoundError(msg string) *AppError {
	return &AppError{Code: "NOT_FOUND", Status: 404, Message: msg}
}

func UnknownEntityError(name string) *AppError {
	return &AppError{
		Code:    "UNKNOWN_ENTITY",
		Status:  404,
		Message: fmt.Sprintf("Entidad desconocida: %s", name),
	}
}

func ValidationError(details FieldErrors) *AppError {
	return &AppError{
		Code:    "VALIDATION_FAILED",
		Status:  422,
		Message: "Error de validación.",
		Details: details,
	}
}

func ConflictError(msg string) *AppError {
	return &AppError{Code: "CONFLICT", Status: 409, Message: msg}
}

func ConstraintViolationError(msg string, cause error) *AppError {
	appErr := &AppError{Code: "CONSTRAINT_VIOLATION", Status: 409, Message: msg}
	if cause != nil {
		appErr.Diagnostic = cause.Error()
	}
	return appErr
}

func InvalidPayloadError(msg string) *AppError {
	return &AppError{Code: "INVALID_PAYLOAD", Status: 400, Message: msg}
}

func UnauthorizedError(msg string) *AppError {
	return &AppError{Code: "UNAUTHORIZED", Status: 401, Message: msg}
}

func ForbiddenError(msg string) *AppError {
	return &AppError{Code: "FORBIDDEN", Status: 403, Message: msg}
}
