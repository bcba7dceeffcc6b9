package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/openshelf/bookshare/pkg/bookshare"
)

// Repository implements bookshare.Repository using in-memory storage
type Repository struct {
	mu              sync.RWMutex
	users           map[uuid.UUID]*bookshare.User
	usersByExternal map[string]uuid.UUID
	books           map[uuid.UUID]*bookshare.Book
}

// New creates a new in-memory repository
func New() bookshare.Repository {
	return &Repository{
		users:           make(map[uuid.UUID]*bookshare.User),
		usersByExternal: make(map[string]uuid.UUID),
		books:           make(map[uuid.UUID]*bookshare.Book),
	}
}

// User operations

func (r *Repository) CreateUser(ctx context.Context, user *bookshare.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.usersByExternal[user.ExternalID]; exists {
		return bookshare.ErrDuplicateUser
	}

	// Store a copy to avoid external modifications
	userCopy := *user
	r.users[user.ID] = &userCopy
	r.usersByExternal[user.ExternalID] = user.ID

	return nil
}

func (r *Repository) GetUserByExternalID(ctx context.Context, externalID string) (*bookshare.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.usersByExternal[externalID]
	if !exists {
		return nil, bookshare.ErrUserNotFound
	}
	userCopy := *r.users[id]
	return &userCopy, nil
}

func (r *Repository) UpdateUser(ctx context.Context, user *bookshare.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[user.ID]; !exists {
		return bookshare.ErrUserNotFound
	}

	userCopy := *user
	r.users[user.ID] = &userCopy

	return nil
}

func (r *Repository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, exists := r.users[id]
	if !exists {
		return bookshare.ErrUserNotFound
	}

	delete(r.usersByExternal, user.ExternalID)
	delete(r.users, id)

	// Mirror the relational schema's ON DELETE CASCADE: a deleted
	// account takes its book records with it.
	for bookID, book := range r.books {
		if book.OwnerID == id {
			delete(r.books, bookID)
		}
	}

	return nil
}

// Book operations

func (r *Repository) CreateBook(ctx context.Context, book *bookshare.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[book.OwnerID]; !exists {
		return bookshare.ErrUserNotFound
	}

	bookCopy := *book
	r.books[book.ID] = &bookCopy

	return nil
}

func (r *Repository) GetBook(ctx context.Context, id uuid.UUID) (*bookshare.BookWithOwner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	book, exists := r.books[id]
	if !exists {
		return nil, bookshare.ErrBookNotFound
	}

	return r.withOwner(book), nil
}

func (r *Repository) DeleteBook(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.books[id]; !exists {
		return bookshare.ErrBookNotFound
	}

	delete(r.books, id)
	return nil
}

func (r *Repository) ListBooksByOwner(ctx context.Context, ownerID uuid.UUID) ([]*bookshare.BookWithOwner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := []*bookshare.BookWithOwner{}
	for _, book := range r.books {
		if book.OwnerID == ownerID {
			result = append(result, r.withOwner(book))
		}
	}
	sortByCreatedDesc(result)

	return result, nil
}

func (r *Repository) ListBooks(ctx context.Context, limit, offset int) ([]*bookshare.BookWithOwner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*bookshare.BookWithOwner, 0, len(r.books))
	for _, book := range r.books {
		all = append(all, r.withOwner(book))
	}
	sortByCreatedDesc(all)

	if offset >= len(all) {
		return []*bookshare.BookWithOwner{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}

	return all[offset:end], nil
}

// withOwner joins the owning user's fields in. Callers must hold the lock.
func (r *Repository) withOwner(book *bookshare.Book) *bookshare.BookWithOwner {
	bookCopy := *book
	joined := &bookshare.BookWithOwner{Book: bookCopy}
	if owner, exists := r.users[book.OwnerID]; exists {
		ownerCopy := *owner
		joined.Owner = &ownerCopy
	}
	return joined
}

// sortByCreatedDesc orders most recent first; ties break on ID so
// pagination stays stable within one process.
func sortByCreatedDesc(books []*bookshare.BookWithOwner) {
	sort.Slice(books, func(i, j int) bool {
		if books[i].CreatedAt.Equal(books[j].CreatedAt) {
			return books[i].ID.String() > books[j].ID.String()
		}
		return books[i].CreatedAt.After(books[j].CreatedAt)
	})
}
