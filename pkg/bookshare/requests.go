package bookshare

import (
	"mime"
	"path"
)

// FilePayload is an in-memory file received from a multipart upload.
type FilePayload struct {
	Data     []byte
	MimeType string
	FileName string
}

// Present reports whether a payload was actually submitted.
func (p FilePayload) Present() bool {
	return len(p.Data) > 0
}

// ContentType returns the payload's declared MIME type, falling back to
// the type implied by the file extension when the client sent none.
func (p FilePayload) ContentType() string {
	if p.MimeType != "" {
		return p.MimeType
	}
	return mime.TypeByExtension(path.Ext(p.FileName))
}

// SaveUserRequest contains parameters for creating or updating the
// caller's user record.
type SaveUserRequest struct {
	ExternalID string
	Email      string
	FirstName  string
	LastName   string
}

// UpdateUserRequest contains parameters for a partial profile update.
// Empty fields are left unchanged.
type UpdateUserRequest struct {
	ExternalID string
	Email      string
	FirstName  string
	LastName   string
}

// SubmitBookRequest contains parameters for submitting a new book.
type SubmitBookRequest struct {
	CallerExternalID string
	Title            string
	Category         Category
	Document         FilePayload
	Cover            FilePayload
}

// ListBooksRequest contains pagination parameters for the global
// listing. Non-positive values fall back to page 1 and the default
// page size.
type ListBooksRequest struct {
	Page  int
	Limit int
}
