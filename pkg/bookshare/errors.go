package bookshare

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Error types
var (
	// ErrUnauthenticated indicates the caller presented no verified identity
	ErrUnauthenticated = errors.New("authentication required")

	// ErrUserNotFound indicates no local user record exists for the caller
	ErrUserNotFound = errors.New("user not found")

	// ErrBookNotFound indicates a book was not found or is not owned by the caller
	ErrBookNotFound = errors.New("book not found")

	// ErrDuplicateUser indicates a uniqueness violation on the user record
	ErrDuplicateUser = errors.New("user already exists")

	// ErrInvalidEmail indicates a malformed email address
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrInvalidCategory indicates a category outside the closed set
	ErrInvalidCategory = errors.New("invalid category")

	// ErrInvalidDocumentType indicates a non-PDF document payload
	ErrInvalidDocumentType = errors.New("only PDF files are allowed")

	// ErrInvalidImageType indicates a non-image cover payload
	ErrInvalidImageType = errors.New("only image files are allowed")

	// ErrPayloadTooLarge indicates a payload over the upload size ceiling
	ErrPayloadTooLarge = errors.New("file exceeds maximum upload size")

	// ErrInvalidBlobURL indicates a stored blob URL no storage key can
	// be derived from
	ErrInvalidBlobURL = errors.New("cannot derive blob key from url")
)

// ValidationError reports every missing or invalid input field at once
// rather than stopping at the first.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Fields, ", "))
}

// UserError represents an error related to user record operations
type UserError struct {
	ExternalID string
	Op         string
	Err        error
}

func (e *UserError) Error() string {
	return fmt.Sprintf("user operation %s failed for identity %s: %v", e.Op, e.ExternalID, e.Err)
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// BookError represents an error related to book record operations
type BookError struct {
	BookID uuid.UUID
	Op     string
	Err    error
}

func (e *BookError) Error() string {
	return fmt.Sprintf("book operation %s failed for book %s: %v", e.Op, e.BookID, e.Err)
}

func (e *BookError) Unwrap() error {
	return e.Err
}

// StorageError represents an error related to blob storage operations
type StorageError struct {
	Key string
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
