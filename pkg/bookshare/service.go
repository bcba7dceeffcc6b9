package bookshare

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the main interface for the bookshare library
type Service interface {
	// User operations. SaveUserProfile reconciles the verified external
	// identity with the local user record: it creates the record on
	// first contact and updates it in place afterwards. The boolean
	// result is true when a new record was created.
	SaveUserProfile(ctx context.Context, req SaveUserRequest) (*User, bool, error)
	GetUserProfile(ctx context.Context, externalID string) (*User, error)
	UpdateUserProfile(ctx context.Context, req UpdateUserRequest) (*User, error)
	DeleteUserAccount(ctx context.Context, externalID string) error

	// Book operations. SubmitBook uploads both attached files to the
	// blob store and persists the book record only after both uploads
	// succeed. DeleteBook removes the record and best-effort removes
	// the two associated blobs.
	SubmitBook(ctx context.Context, req SubmitBookRequest) (*Book, error)
	DeleteBook(ctx context.Context, bookID uuid.UUID, callerExternalID string) (*DeleteBookResult, error)

	// Read paths
	ListMyBooks(ctx context.Context, callerExternalID string) ([]*BookWithOwner, error)
	ListBooks(ctx context.Context, req ListBooksRequest) ([]*BookWithOwner, error)
	GetBook(ctx context.Context, id uuid.UUID) (*BookWithOwner, error)
}
