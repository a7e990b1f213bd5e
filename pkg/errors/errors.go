package custom_error

import (
	"errors"
	"fmt"
)

type CustomError interface {
	Error() string
}

// ValidationError reports a rejected request before anything was written.
type ValidationError struct {
	Field   string `json:"property"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

type InsufficientQuantityError struct {
	Requested int `json:"requested"`
	Available int `json:"available"`
}

func (e *InsufficientQuantityError) Error() string {
	return fmt.Sprintf("requested quantity (%d) is greater than available (%d)", e.Requested, e.Available)
}

type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func NewNotFoundError(kind, id string) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id}
}

type UniqueViolationError struct {
	message string
	code    string // PostgreSQL error code (e.g., "23505")
}

type ForeignKeyViolationError struct {
	message string
	code    string // PostgreSQL error code (e.g., "23503")
}

func (f *ForeignKeyViolationError) Error() string {
	return fmt.Sprintf("%s (code: %s)", f.message, f.code)
}

func (e *UniqueViolationError) Error() string {
	return fmt.Sprintf("%s (code: %s)", e.message, e.code)
}

func WrapDBError(message, code string) CustomError {
	switch code {
	case "23505":
		return &UniqueViolationError{
			message: message,
			code:    code,
		}
	case "23503":
		return &ForeignKeyViolationError{
			message: "Value is already used by other resources " + message,
			code:    code,
		}
	default:
		return fmt.Errorf("uncategorized error occurred with code %s: %s", code, message)
	}
}

// IsRejection reports whether err is a validation outcome rather than a store failure.
func IsRejection(err error) bool {
	var (
		validation *ValidationError
		quantity   *InsufficientQuantityError
		notFound   *NotFoundError
	)
	return errors.As(err, &validation) || errors.As(err, &quantity) || errors.As(err, &notFound)
}
