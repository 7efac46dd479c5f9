package shared

import (
	"errors"
	"net/http"
)

// Kind classifies a domain-level failure. The set is closed: every error
// crossing the application boundary carries exactly one of these kinds, and
// the HTTP layer maps kinds to status codes without inspecting causes.
type Kind string

const (
	KindValidation  Kind = "VALIDATION"
	KindAuth        Kind = "AUTH"
	KindNotFound    Kind = "NOT_FOUND"
	KindDuplicate   Kind = "DUPLICATE"
	KindForeignKey  Kind = "FOREIGN_KEY_VIOLATION"
	KindDatabase    Kind = "DATABASE"
	KindCache       Kind = "CACHE"
	KindApplication Kind = "APPLICATION"
)

// IsValid checks if the kind belongs to the closed set
func (k Kind) IsValid() bool {
	switch k {
	case KindValidation, KindAuth, KindNotFound, KindDuplicate,
		KindForeignKey, KindDatabase, KindCache, KindApplication:
		return true
	}
	return false
}

// String returns the string representation of the kind
func (k Kind) String() string {
	return string(k)
}

// HTTPStatus returns the status code the boundary reports for this kind
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindForeignKey:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindDuplicate:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// DefaultMessage returns the message used when an error of this kind
// carries none of its own
func (k Kind) DefaultMessage() string {
	switch k {
	case KindValidation:
		return "Invalid input provided"
	case KindAuth:
		return "Authentication failed"
	case KindNotFound:
		return "Resource not found"
	case KindDuplicate:
		return "Resource already exists"
	case KindForeignKey:
		return "Operation violates a reference to another resource"
	case KindDatabase:
		return "Database operation failed"
	case KindCache:
		return "Cache operation failed"
	default:
		return "An unexpected error occurred"
	}
}

// DomainError represents a domain-level error
type DomainError struct {
	Kind     Kind           `json:"kind"`
	Message  string         `json:"message"`
	Metadata map[string]any `json:"metadata,omitempty"`
	cause    error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.DefaultMessage()
	}
	if e.cause != nil {
		return msg + ": " + e.cause.Error()
	}
	return msg
}

// Unwrap exposes the underlying cause for errors.Is/As chains
func (e *DomainError) Unwrap() error {
	return e.cause
}

// WithMeta attaches one structured metadata entry and returns the error
func (e *DomainError) WithMeta(key string, value any) *DomainError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]any)
	}
	e.Metadata[key] = value
	return e
}

// NewDomainError creates a new domain error of the given kind
func NewDomainError(kind Kind, message string) *DomainError {
	return &DomainError{Kind: kind, Message: message}
}

// Wrap creates a domain error of the given kind around a cause
func Wrap(kind Kind, message string, cause error) *DomainError {
	return &DomainError{Kind: kind, Message: message, cause: cause}
}

// NewValidation creates a Validation-kind error
func NewValidation(message string) *DomainError {
	return NewDomainError(KindValidation, message)
}

// NewAuth creates an Auth-kind error
func NewAuth(message string) *DomainError {
	return NewDomainError(KindAuth, message)
}

// NewNotFound creates a NotFound-kind error
func NewNotFound(message string) *DomainError {
	return NewDomainError(KindNotFound, message)
}

// NewDuplicate creates a Duplicate-kind error
func NewDuplicate(message string) *DomainError {
	return NewDomainError(KindDuplicate, message)
}

// NewForeignKey creates a ForeignKeyViolation-kind error
func NewForeignKey(message string) *DomainError {
	return NewDomainError(KindForeignKey, message)
}

// NewDatabase creates a Database-kind error
func NewDatabase(message string) *DomainError {
	return NewDomainError(KindDatabase, message)
}

// NewCache creates a Cache-kind error
func NewCache(message string) *DomainError {
	return NewDomainError(KindCache, message)
}

// NewApplication creates an Application-kind error
func NewApplication(message string) *DomainError {
	return NewDomainError(KindApplication, message)
}

// From returns err unchanged when it already carries a domain kind.
// Anything else is wrapped into the Application kind with the original
// error text captured as metadata so the cause survives classification.
func From(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return Wrap(KindApplication, "", err).WithMeta("cause", err.Error())
}

// KindOf reports the kind carried by err, when it carries one
func KindOf(err error) (Kind, bool) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Kind, true
	}
	return "", false
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
