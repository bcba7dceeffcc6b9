package bookshare_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/bookshare/pkg/bookshare"
	repomemory "github.com/openshelf/bookshare/pkg/bookshare/repo/memory"
	storagememory "github.com/openshelf/bookshare/pkg/bookshare/storage/memory"
)

// fakeBlobStore counts calls and can be told to fail, so tests can
// assert which gateway interactions happened.
type fakeBlobStore struct {
	mu          sync.Mutex
	uploadCalls int
	deleteCalls int
	uploadErr   error
	deleteErr   error
}

func (f *fakeBlobStore) Upload(ctx context.Context, reader io.Reader, params bookshare.UploadParams) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploadCalls++
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	return "https://cdn.example.com/" + params.ObjectKey, nil
}

func (f *fakeBlobStore) Delete(ctx context.Context, objectKey string, resource bookshare.ResourceType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	return f.deleteErr
}

func (f *fakeBlobStore) counts() (uploads, deletes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uploadCalls, f.deleteCalls
}

func newService(t *testing.T, store bookshare.BlobStore) (bookshare.Service, bookshare.Repository) {
	t.Helper()
	repo := repomemory.New()
	svc, err := bookshare.New(
		bookshare.WithRepository(repo),
		bookshare.WithBlobStore(store),
	)
	require.NoError(t, err)
	return svc, repo
}

func saveUser(t *testing.T, svc bookshare.Service, externalID string) *bookshare.User {
	t.Helper()
	user, _, err := svc.SaveUserProfile(context.Background(), bookshare.SaveUserRequest{
		ExternalID: externalID,
		Email:      externalID + "@example.com",
		FirstName:  "Jane",
		LastName:   "Doe",
	})
	require.NoError(t, err)
	return user
}

func validSubmission(externalID string) bookshare.SubmitBookRequest {
	return bookshare.SubmitBookRequest{
		CallerExternalID: externalID,
		Title:            "Go in Action",
		Category:         bookshare.CategoryTechnologies,
		Document: bookshare.FilePayload{
			Data:     []byte("%PDF-1.7 fake"),
			MimeType: "application/pdf",
			FileName: "book.pdf",
		},
		Cover: bookshare.FilePayload{
			Data:     []byte("\x89PNG fake"),
			MimeType: "image/png",
			FileName: "cover.png",
		},
	}
}

func TestNew(t *testing.T) {
	t.Run("requires repository", func(t *testing.T) {
		_, err := bookshare.New(bookshare.WithBlobStore(storagememory.New()))
		assert.Error(t, err)
	})

	t.Run("requires blob store", func(t *testing.T) {
		_, err := bookshare.New(bookshare.WithRepository(repomemory.New()))
		assert.Error(t, err)
	})
}

func TestSaveUserProfile(t *testing.T) {
	svc, _ := newService(t, storagememory.New())
	ctx := context.Background()

	user, created, err := svc.SaveUserProfile(ctx, bookshare.SaveUserRequest{
		ExternalID: "ext_1",
		Email:      "  Jane.Doe@Example.COM ",
		FirstName:  "Jane",
		LastName:   "Doe",
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, "jane.doe@example.com", user.Email)

	// Saving again for the same identity updates in place.
	updated, created, err := svc.SaveUserProfile(ctx, bookshare.SaveUserRequest{
		ExternalID: "ext_1",
		Email:      "jane@example.com",
		FirstName:  "Janet",
		LastName:   "Doe",
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, user.ID, updated.ID)
	assert.Equal(t, "Janet", updated.FirstName)

	fetched, err := svc.GetUserProfile(ctx, "ext_1")
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", fetched.Email)
}

func TestSaveUserProfileValidation(t *testing.T) {
	svc, _ := newService(t, storagememory.New())
	ctx := context.Background()

	t.Run("missing identity", func(t *testing.T) {
		_, _, err := svc.SaveUserProfile(ctx, bookshare.SaveUserRequest{Email: "a@b.co"})
		assert.ErrorIs(t, err, bookshare.ErrUnauthenticated)
	})

	t.Run("enumerates all missing fields", func(t *testing.T) {
		_, _, err := svc.SaveUserProfile(ctx, bookshare.SaveUserRequest{ExternalID: "ext_2"})
		var validation *bookshare.ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Equal(t, []string{"email", "firstName", "lastName"}, validation.Fields)
	})

	t.Run("rejects malformed email", func(t *testing.T) {
		_, _, err := svc.SaveUserProfile(ctx, bookshare.SaveUserRequest{
			ExternalID: "ext_2",
			Email:      "not-an-email",
			FirstName:  "Jane",
			LastName:   "Doe",
		})
		assert.ErrorIs(t, err, bookshare.ErrInvalidEmail)
	})
}

func TestUpdateUserProfilePartial(t *testing.T) {
	svc, _ := newService(t, storagememory.New())
	ctx := context.Background()
	saveUser(t, svc, "ext_1")

	updated, err := svc.UpdateUserProfile(ctx, bookshare.UpdateUserRequest{
		ExternalID: "ext_1",
		FirstName:  "Janet",
	})
	require.NoError(t, err)
	assert.Equal(t, "Janet", updated.FirstName)
	assert.Equal(t, "Doe", updated.LastName)
	assert.Equal(t, "ext_1@example.com", updated.Email)

	_, err = svc.UpdateUserProfile(ctx, bookshare.UpdateUserRequest{
		ExternalID: "ext_1",
		Email:      "broken",
	})
	assert.ErrorIs(t, err, bookshare.ErrInvalidEmail)
}

func TestDeleteUserAccount(t *testing.T) {
	svc, _ := newService(t, storagememory.New())
	ctx := context.Background()
	saveUser(t, svc, "ext_1")

	require.NoError(t, svc.DeleteUserAccount(ctx, "ext_1"))

	_, err := svc.GetUserProfile(ctx, "ext_1")
	assert.ErrorIs(t, err, bookshare.ErrUserNotFound)

	err = svc.DeleteUserAccount(ctx, "ext_1")
	assert.ErrorIs(t, err, bookshare.ErrUserNotFound)
}

func TestDeleteUserAccountRemovesBooks(t *testing.T) {
	svc, _ := newService(t, storagememory.New())
	ctx := context.Background()
	saveUser(t, svc, "ext_1")
	saveUser(t, svc, "ext_2")

	book, err := svc.SubmitBook(ctx, validSubmission("ext_1"))
	require.NoError(t, err)
	keeper, err := svc.SubmitBook(ctx, validSubmission("ext_2"))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteUserAccount(ctx, "ext_1"))

	// The deleted account's books leave the listing with it; nothing
	// ownerless ever surfaces.
	books, err := svc.ListBooks(ctx, bookshare.ListBooksRequest{})
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, keeper.ID, books[0].ID)
	require.NotNil(t, books[0].Owner)

	_, err = svc.GetBook(ctx, book.ID)
	assert.ErrorIs(t, err, bookshare.ErrBookNotFound)
}

func TestSubmitBook(t *testing.T) {
	store := storagememory.New()
	svc, _ := newService(t, store)
	ctx := context.Background()
	owner := saveUser(t, svc, "ext_1")

	book, err := svc.SubmitBook(ctx, validSubmission("ext_1"))
	require.NoError(t, err)

	assert.Equal(t, "Go in Action", book.Title)
	assert.Equal(t, bookshare.CategoryTechnologies, book.Category)
	assert.Equal(t, owner.ID, book.OwnerID)
	assert.NotEmpty(t, book.ContentURL)
	assert.NotEmpty(t, book.CoverURL)
	assert.NotEqual(t, book.ContentURL, book.CoverURL)
	assert.Equal(t, 2, store.Len())

	// Both blobs land under their resource folders and their keys
	// round-trip through the durable URLs.
	docKey := bookshare.BlobKeyFromURL(book.ContentURL)
	assert.True(t, strings.HasPrefix(docKey, "library_pdfs/pdf_"))
	_, mime, ok := store.Get(docKey)
	require.True(t, ok)
	assert.Equal(t, "application/pdf", mime)

	coverKey := bookshare.BlobKeyFromURL(book.CoverURL)
	assert.True(t, strings.HasPrefix(coverKey, "library_covers/cover_"))
	_, _, ok = store.Get(coverKey)
	assert.True(t, ok)
}

func TestSubmitBookValidation(t *testing.T) {
	t.Run("unknown caller", func(t *testing.T) {
		store := &fakeBlobStore{}
		svc, _ := newService(t, store)
		_, err := svc.SubmitBook(context.Background(), validSubmission("ghost"))
		assert.ErrorIs(t, err, bookshare.ErrUserNotFound)
	})

	t.Run("enumerates all missing fields", func(t *testing.T) {
		store := &fakeBlobStore{}
		svc, _ := newService(t, store)
		saveUser(t, svc, "ext_1")

		_, err := svc.SubmitBook(context.Background(), bookshare.SubmitBookRequest{
			CallerExternalID: "ext_1",
		})
		var validation *bookshare.ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Equal(t, []string{"title", "content", "pdf file", "cover image"}, validation.Fields)
	})

	cases := []struct {
		name    string
		mutate  func(*bookshare.SubmitBookRequest)
		wantErr error
	}{
		{
			name:    "invalid category",
			mutate:  func(r *bookshare.SubmitBookRequest) { r.Category = "Cooking" },
			wantErr: bookshare.ErrInvalidCategory,
		},
		{
			name:    "non-pdf document",
			mutate:  func(r *bookshare.SubmitBookRequest) { r.Document.MimeType = "text/plain" },
			wantErr: bookshare.ErrInvalidDocumentType,
		},
		{
			name:    "non-image cover",
			mutate:  func(r *bookshare.SubmitBookRequest) { r.Cover.MimeType = "application/zip" },
			wantErr: bookshare.ErrInvalidImageType,
		},
		{
			name: "oversize document",
			mutate: func(r *bookshare.SubmitBookRequest) {
				r.Document.Data = make([]byte, bookshare.MaxUploadSize+1)
			},
			wantErr: bookshare.ErrPayloadTooLarge,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeBlobStore{}
			svc, _ := newService(t, store)
			saveUser(t, svc, "ext_1")

			req := validSubmission("ext_1")
			tc.mutate(&req)

			_, err := svc.SubmitBook(context.Background(), req)
			assert.ErrorIs(t, err, tc.wantErr)

			// Rejected submissions never reach the blob store.
			uploads, _ := store.counts()
			assert.Zero(t, uploads)
		})
	}
}

func TestSubmitBookUploadFailure(t *testing.T) {
	store := &fakeBlobStore{uploadErr: errors.New("gateway unavailable")}
	svc, _ := newService(t, store)
	ctx := context.Background()
	saveUser(t, svc, "ext_1")

	_, err := svc.SubmitBook(ctx, validSubmission("ext_1"))
	var storageErr *bookshare.StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "upload", storageErr.Op)

	// No record is persisted when an upload fails.
	books, err := svc.ListBooks(ctx, bookshare.ListBooksRequest{})
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestDeleteBook(t *testing.T) {
	store := storagememory.New()
	svc, _ := newService(t, store)
	ctx := context.Background()
	saveUser(t, svc, "ext_1")

	book, err := svc.SubmitBook(ctx, validSubmission("ext_1"))
	require.NoError(t, err)
	require.Equal(t, 2, store.Len())

	result, err := svc.DeleteBook(ctx, book.ID, "ext_1")
	require.NoError(t, err)
	assert.Equal(t, book.ID, result.BookID)
	assert.Len(t, result.Cleanup, 2)
	assert.Empty(t, result.CleanupFailures())
	assert.Equal(t, 0, store.Len())

	_, err = svc.GetBook(ctx, book.ID)
	assert.ErrorIs(t, err, bookshare.ErrBookNotFound)
}

func TestDeleteBookNotOwned(t *testing.T) {
	store := storagememory.New()
	svc, _ := newService(t, store)
	ctx := context.Background()
	saveUser(t, svc, "ext_1")
	saveUser(t, svc, "ext_2")

	book, err := svc.SubmitBook(ctx, validSubmission("ext_1"))
	require.NoError(t, err)

	_, err = svc.DeleteBook(ctx, book.ID, "ext_2")
	assert.ErrorIs(t, err, bookshare.ErrBookNotFound)

	// The record and both blobs are untouched.
	_, err = svc.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, store.Len())
}

func TestSubmitBookMimeFromFileName(t *testing.T) {
	store := storagememory.New()
	svc, _ := newService(t, store)
	ctx := context.Background()
	saveUser(t, svc, "ext_1")

	// No declared MIME types; the file extensions carry them instead.
	req := validSubmission("ext_1")
	req.Document.MimeType = ""
	req.Cover.MimeType = ""

	book, err := svc.SubmitBook(ctx, req)
	require.NoError(t, err)

	_, mime, ok := store.Get(bookshare.BlobKeyFromURL(book.ContentURL))
	require.True(t, ok)
	assert.Equal(t, "application/pdf", mime)

	_, mime, ok = store.Get(bookshare.BlobKeyFromURL(book.CoverURL))
	require.True(t, ok)
	assert.Equal(t, "image/png", mime)
}

func TestDeleteBookUnderivableBlobURL(t *testing.T) {
	svc, repo := newService(t, storagememory.New())
	ctx := context.Background()
	owner := saveUser(t, svc, "ext_1")

	// Seed a record whose stored URLs yield no storage key.
	book := &bookshare.Book{
		ID:         uuid.New(),
		Title:      "Broken",
		Category:   bookshare.CategoryScience,
		OwnerID:    owner.ID,
		ContentURL: "https://cdn.example.com/solo",
		CoverURL:   "",
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	require.NoError(t, repo.CreateBook(ctx, book))

	result, err := svc.DeleteBook(ctx, book.ID, "ext_1")
	require.NoError(t, err)

	failures := result.CleanupFailures()
	require.Len(t, failures, 2)
	for _, cleanup := range failures {
		assert.ErrorIs(t, cleanup.Err, bookshare.ErrInvalidBlobURL)
	}

	// The record deletion still went through.
	_, err = svc.GetBook(ctx, book.ID)
	assert.ErrorIs(t, err, bookshare.ErrBookNotFound)
}

func TestDeleteBookBlobCleanupFailure(t *testing.T) {
	store := &fakeBlobStore{deleteErr: errors.New("gateway unavailable")}
	svc, _ := newService(t, store)
	ctx := context.Background()
	saveUser(t, svc, "ext_1")

	book, err := svc.SubmitBook(ctx, validSubmission("ext_1"))
	require.NoError(t, err)

	// Failed blob deletions are recorded but never abort the record
	// deletion.
	result, err := svc.DeleteBook(ctx, book.ID, "ext_1")
	require.NoError(t, err)
	assert.Len(t, result.CleanupFailures(), 2)

	_, err = svc.GetBook(ctx, book.ID)
	assert.ErrorIs(t, err, bookshare.ErrBookNotFound)
}

func TestListMyBooks(t *testing.T) {
	svc, _ := newService(t, storagememory.New())
	ctx := context.Background()
	saveUser(t, svc, "ext_1")
	saveUser(t, svc, "ext_2")

	_, err := svc.SubmitBook(ctx, validSubmission("ext_1"))
	require.NoError(t, err)

	mine, err := svc.ListMyBooks(ctx, "ext_1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.NotNil(t, mine[0].Owner)
	assert.Equal(t, "ext_1", mine[0].Owner.ExternalID)

	theirs, err := svc.ListMyBooks(ctx, "ext_2")
	require.NoError(t, err)
	assert.Empty(t, theirs)
}

func TestListBooksPagination(t *testing.T) {
	svc, repo := newService(t, storagememory.New())
	ctx := context.Background()
	owner := saveUser(t, svc, "ext_1")

	// Seed records with distinct timestamps so ordering is unambiguous.
	base := time.Now().UTC().Add(-time.Hour)
	titles := []string{"Oldest", "Middle", "Newest"}
	for i, title := range titles {
		err := repo.CreateBook(ctx, &bookshare.Book{
			ID:         uuid.New(),
			Title:      title,
			Category:   bookshare.CategoryScience,
			OwnerID:    owner.ID,
			ContentURL: "memory://blobs/library_pdfs/pdf_1",
			CoverURL:   "memory://blobs/library_covers/cover_1",
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
			UpdatedAt:  base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	page1, err := svc.ListBooks(ctx, bookshare.ListBooksRequest{Page: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page1, 2)
	assert.Equal(t, "Newest", page1[0].Title)
	assert.Equal(t, "Middle", page1[1].Title)

	page2, err := svc.ListBooks(ctx, bookshare.ListBooksRequest{Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, "Oldest", page2[0].Title)

	// Out-of-range pages yield an empty slice, not an error.
	page3, err := svc.ListBooks(ctx, bookshare.ListBooksRequest{Page: 3, Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, page3)

	// Non-positive values fall back to the defaults.
	all, err := svc.ListBooks(ctx, bookshare.ListBooksRequest{Page: 0, Limit: -1})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
