package bookshare

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// MaxUploadSize is the per-file size ceiling for book submissions.
const MaxUploadSize = 5 << 20 // 5 MiB

// DefaultPageSize is the page size for the global listing when the
// client does not supply one.
const DefaultPageSize = 10

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// service implements the Service interface
type service struct {
	repository Repository
	blobs      BlobStore
	logger     *slog.Logger
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithBlobStore sets the blob storage backend for the service
func WithBlobStore(store BlobStore) Option {
	return func(s *service) {
		s.blobs = store
	}
}

// WithLogger sets the logger used for non-fatal side effect reporting
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, errors.New("repository is required")
	}
	if s.blobs == nil {
		return nil, errors.New("blob store is required")
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s, nil
}

// User operations

func (s *service) SaveUserProfile(ctx context.Context, req SaveUserRequest) (*User, bool, error) {
	if req.ExternalID == "" {
		return nil, false, ErrUnauthenticated
	}

	var missing []string
	if strings.TrimSpace(req.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(req.FirstName) == "" {
		missing = append(missing, "firstName")
	}
	if strings.TrimSpace(req.LastName) == "" {
		missing = append(missing, "lastName")
	}
	if len(missing) > 0 {
		return nil, false, &ValidationError{Fields: missing}
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !emailPattern.MatchString(email) {
		return nil, false, ErrInvalidEmail
	}

	now := time.Now().UTC()

	existing, err := s.repository.GetUserByExternalID(ctx, req.ExternalID)
	switch {
	case err == nil:
		existing.Email = email
		existing.FirstName = strings.TrimSpace(req.FirstName)
		existing.LastName = strings.TrimSpace(req.LastName)
		existing.UpdatedAt = now
		if err := s.repository.UpdateUser(ctx, existing); err != nil {
			return nil, false, &UserError{ExternalID: req.ExternalID, Op: "update", Err: err}
		}
		return existing, false, nil
	case !isNotFound(err):
		return nil, false, &UserError{ExternalID: req.ExternalID, Op: "lookup", Err: err}
	}

	user := &User{
		ID:         uuid.New(),
		ExternalID: req.ExternalID,
		Email:      email,
		FirstName:  strings.TrimSpace(req.FirstName),
		LastName:   strings.TrimSpace(req.LastName),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repository.CreateUser(ctx, user); err != nil {
		if isDuplicate(err) {
			return nil, false, ErrDuplicateUser
		}
		return nil, false, &UserError{ExternalID: req.ExternalID, Op: "create", Err: err}
	}

	return user, true, nil
}

func (s *service) GetUserProfile(ctx context.Context, externalID string) (*User, error) {
	if externalID == "" {
		return nil, ErrUnauthenticated
	}
	return s.repository.GetUserByExternalID(ctx, externalID)
}

func (s *service) UpdateUserProfile(ctx context.Context, req UpdateUserRequest) (*User, error) {
	if req.ExternalID == "" {
		return nil, ErrUnauthenticated
	}

	user, err := s.repository.GetUserByExternalID(ctx, req.ExternalID)
	if err != nil {
		return nil, err
	}

	if req.Email != "" {
		email := strings.ToLower(strings.TrimSpace(req.Email))
		if !emailPattern.MatchString(email) {
			return nil, ErrInvalidEmail
		}
		user.Email = email
	}
	if req.FirstName != "" {
		user.FirstName = strings.TrimSpace(req.FirstName)
	}
	if req.LastName != "" {
		user.LastName = strings.TrimSpace(req.LastName)
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.repository.UpdateUser(ctx, user); err != nil {
		return nil, &UserError{ExternalID: req.ExternalID, Op: "update", Err: err}
	}

	return user, nil
}

func (s *service) DeleteUserAccount(ctx context.Context, externalID string) error {
	if externalID == "" {
		return ErrUnauthenticated
	}

	user, err := s.repository.GetUserByExternalID(ctx, externalID)
	if err != nil {
		return err
	}

	if err := s.repository.DeleteUser(ctx, user.ID); err != nil {
		return &UserError{ExternalID: externalID, Op: "delete", Err: err}
	}

	return nil
}

// Book operations

// SubmitBook validates the submission, uploads document and cover
// concurrently, and persists the book record only after both uploads
// succeed. A failed upload aborts persistence; the sibling blob that
// may already be stored is not rolled back.
func (s *service) SubmitBook(ctx context.Context, req SubmitBookRequest) (*Book, error) {
	if req.CallerExternalID == "" {
		return nil, ErrUnauthenticated
	}

	owner, err := s.repository.GetUserByExternalID(ctx, req.CallerExternalID)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)

	var missing []string
	if title == "" {
		missing = append(missing, "title")
	}
	if req.Category == "" {
		missing = append(missing, "content")
	}
	if !req.Document.Present() {
		missing = append(missing, "pdf file")
	}
	if !req.Cover.Present() {
		missing = append(missing, "cover image")
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Fields: missing}
	}

	if !req.Category.IsValid() {
		return nil, ErrInvalidCategory
	}
	docType := req.Document.ContentType()
	coverType := req.Cover.ContentType()
	if docType != "application/pdf" {
		return nil, ErrInvalidDocumentType
	}
	if !strings.HasPrefix(coverType, "image/") {
		return nil, ErrInvalidImageType
	}
	if len(req.Document.Data) > MaxUploadSize || len(req.Cover.Data) > MaxUploadSize {
		return nil, ErrPayloadTooLarge
	}

	now := time.Now().UTC()
	docKey := documentKey(title, now)
	imgKey := coverKey(title, now)

	// The two uploads have no data dependency on each other; fire both
	// and await both. Persistence is gated on both succeeding.
	var contentURL, coverURL string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		url, err := s.blobs.Upload(gctx, bytes.NewReader(req.Document.Data), UploadParams{
			ObjectKey: docKey,
			MimeType:  docType,
			Resource:  ResourceDocument,
		})
		if err != nil {
			return &StorageError{Key: docKey, Op: "upload", Err: err}
		}
		contentURL = url
		return nil
	})
	g.Go(func() error {
		url, err := s.blobs.Upload(gctx, bytes.NewReader(req.Cover.Data), UploadParams{
			ObjectKey: imgKey,
			MimeType:  coverType,
			Resource:  ResourceImage,
		})
		if err != nil {
			return &StorageError{Key: imgKey, Op: "upload", Err: err}
		}
		coverURL = url
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	book := &Book{
		ID:         uuid.New(),
		Title:      title,
		Category:   req.Category,
		OwnerID:    owner.ID,
		ContentURL: contentURL,
		CoverURL:   coverURL,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repository.CreateBook(ctx, book); err != nil {
		// Both blobs stay uploaded and orphaned.
		return nil, &BookError{BookID: book.ID, Op: "create", Err: err}
	}

	return book, nil
}

// DeleteBook removes the caller's book record. The two associated blobs
// are deleted best-effort first; their failures are recorded in the
// result and logged but never abort the record deletion.
func (s *service) DeleteBook(ctx context.Context, bookID uuid.UUID, callerExternalID string) (*DeleteBookResult, error) {
	if callerExternalID == "" {
		return nil, ErrUnauthenticated
	}

	caller, err := s.repository.GetUserByExternalID(ctx, callerExternalID)
	if err != nil {
		return nil, err
	}

	book, err := s.repository.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	// Not-found and not-owned are deliberately indistinguishable.
	if book.OwnerID != caller.ID {
		return nil, ErrBookNotFound
	}

	result := &DeleteBookResult{BookID: bookID}
	for _, blob := range []struct {
		url      string
		resource ResourceType
	}{
		{book.ContentURL, ResourceDocument},
		{book.CoverURL, ResourceImage},
	} {
		cleanup := BlobCleanup{Resource: blob.resource}
		cleanup.Key = BlobKeyFromURL(blob.url)
		if cleanup.Key == "" {
			cleanup.Err = &StorageError{Op: "derive key", Err: ErrInvalidBlobURL}
		} else if err := s.blobs.Delete(ctx, cleanup.Key, blob.resource); err != nil {
			cleanup.Err = &StorageError{Key: cleanup.Key, Op: "delete", Err: err}
		}
		if cleanup.Err != nil {
			s.logger.Warn("blob cleanup failed",
				"book_id", bookID.String(),
				"key", cleanup.Key,
				"resource", string(blob.resource),
				"err", cleanup.Err)
		}
		result.Cleanup = append(result.Cleanup, cleanup)
	}

	if err := s.repository.DeleteBook(ctx, bookID); err != nil {
		return nil, &BookError{BookID: bookID, Op: "delete", Err: err}
	}

	return result, nil
}

// Read paths

func (s *service) ListMyBooks(ctx context.Context, callerExternalID string) ([]*BookWithOwner, error) {
	if callerExternalID == "" {
		return nil, ErrUnauthenticated
	}

	caller, err := s.repository.GetUserByExternalID(ctx, callerExternalID)
	if err != nil {
		return nil, err
	}

	return s.repository.ListBooksByOwner(ctx, caller.ID)
}

func (s *service) ListBooks(ctx context.Context, req ListBooksRequest) ([]*BookWithOwner, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit < 1 {
		limit = DefaultPageSize
	}

	return s.repository.ListBooks(ctx, limit, (page-1)*limit)
}

func (s *service) GetBook(ctx context.Context, id uuid.UUID) (*BookWithOwner, error) {
	return s.repository.GetBook(ctx, id)
}

// isNotFound reports whether err is one of the domain not-found errors.
func isNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrBookNotFound)
}

func isDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicateUser)
}
