package bookshare

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// BlobStore defines the interface for blob storage backends. The book
// service only ever uploads by stream and deletes by key; everything
// else about the backing store is opaque.
type BlobStore interface {
	// Upload stores the stream under params.ObjectKey and returns a
	// durable URL for the stored blob.
	Upload(ctx context.Context, reader io.Reader, params UploadParams) (string, error)

	// Delete removes the blob stored under objectKey.
	Delete(ctx context.Context, objectKey string, resource ResourceType) error
}

// UploadParams contains parameters for uploading a blob
type UploadParams struct {
	ObjectKey string
	MimeType  string
	Resource  ResourceType
}

// Repository defines the interface for user and book persistence.
// Implementations provide single-record atomicity; no cross-record
// transactional guarantees are assumed by the service.
type Repository interface {
	// User operations
	CreateUser(ctx context.Context, user *User) error
	GetUserByExternalID(ctx context.Context, externalID string) (*User, error)
	UpdateUser(ctx context.Context, user *User) error
	DeleteUser(ctx context.Context, id uuid.UUID) error

	// Book operations
	CreateBook(ctx context.Context, book *Book) error
	GetBook(ctx context.Context, id uuid.UUID) (*BookWithOwner, error)
	DeleteBook(ctx context.Context, id uuid.UUID) error
	ListBooksByOwner(ctx context.Context, ownerID uuid.UUID) ([]*BookWithOwner, error)
	ListBooks(ctx context.Context, limit, offset int) ([]*BookWithOwner, error)
}
