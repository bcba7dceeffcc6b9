package bookshare

import (
	"time"

	"github.com/google/uuid"
)

// Category is the domain type for book categories. The set is closed;
// submissions outside of it are rejected.
type Category string

// Category constants (typed).
const (
	CategoryTechnologies  Category = "Technologies"
	CategoryBusiness      Category = "Business"
	CategoryEntertainment Category = "Entertainment"
	CategoryScience       Category = "Science"
	CategoryPolitics      Category = "Politics"
)

// Categories returns all valid book categories.
func Categories() []Category {
	return []Category{
		CategoryTechnologies,
		CategoryBusiness,
		CategoryEntertainment,
		CategoryScience,
		CategoryPolitics,
	}
}

// IsValid reports whether c is a member of the closed category set.
func (c Category) IsValid() bool {
	switch c {
	case CategoryTechnologies, CategoryBusiness, CategoryEntertainment,
		CategoryScience, CategoryPolitics:
		return true
	}
	return false
}

// User represents a local profile for an externally authenticated caller.
// ExternalID is the verified identifier issued by the identity provider;
// at most one User exists per ExternalID.
type User struct {
	ID         uuid.UUID `json:"id"`
	ExternalID string    `json:"external_id"`
	Email      string    `json:"email"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Book represents one uploaded book. ContentURL and CoverURL are the
// durable URLs returned by the blob store; OwnerID references the User
// that submitted the book and is immutable after creation.
type Book struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	Category   Category  `json:"category"`
	OwnerID    uuid.UUID `json:"owner_id"`
	ContentURL string    `json:"content_url"`
	CoverURL   string    `json:"cover_url"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// BookWithOwner is a Book with the owning user's public fields joined in.
// Read paths return this shape so clients can render author information
// without a second lookup.
type BookWithOwner struct {
	Book
	Owner *User `json:"owner,omitempty"`
}

// ResourceType tags a blob by its role so storage backends can apply
// resource-specific handling (e.g. content type defaults, folders).
type ResourceType string

// Resource type constants (typed).
const (
	ResourceDocument ResourceType = "document"
	ResourceImage    ResourceType = "image"
)

// BlobCleanup records the outcome of one best-effort blob deletion. A
// non-nil Err never aborts the surrounding operation; it exists for
// logging only.
type BlobCleanup struct {
	Key      string
	Resource ResourceType
	Err      error
}

// DeleteBookResult reports a completed book deletion together with the
// outcomes of the associated blob cleanups. The record deletion itself
// succeeded whenever a result is returned; Cleanup entries may still
// carry errors.
type DeleteBookResult struct {
	BookID  uuid.UUID
	Cleanup []BlobCleanup
}

// CleanupFailures returns the cleanup entries that failed.
func (r *DeleteBookResult) CleanupFailures() []BlobCleanup {
	var failed []BlobCleanup
	for _, c := range r.Cleanup {
		if c.Err != nil {
			failed = append(failed, c)
		}
	}
	return failed
}
