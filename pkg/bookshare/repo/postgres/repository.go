package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/openshelf/bookshare/pkg/bookshare"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements bookshare.Repository using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) bookshare.Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) bookshare.Repository {
	return &Repository{db: pool}
}

// translateError maps driver-level errors onto the domain sentinels.
func translateError(err error, notFound error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return bookshare.ErrDuplicateUser
		case "23503": // foreign_key_violation
			return bookshare.ErrUserNotFound
		}
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}
	return err
}

// User operations

func (r *Repository) CreateUser(ctx context.Context, user *bookshare.User) error {
	query := `
		INSERT INTO users (
			id, external_id, email, first_name, last_name, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		user.ID, user.ExternalID, user.Email,
		user.FirstName, user.LastName, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return translateError(err, bookshare.ErrUserNotFound)
	}

	return nil
}

func (r *Repository) GetUserByExternalID(ctx context.Context, externalID string) (*bookshare.User, error) {
	query := `
		SELECT id, external_id, email, first_name, last_name, created_at, updated_at
		FROM users WHERE external_id = $1`

	var user bookshare.User
	err := r.db.QueryRow(ctx, query, externalID).Scan(
		&user.ID, &user.ExternalID, &user.Email,
		&user.FirstName, &user.LastName, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, translateError(err, bookshare.ErrUserNotFound)
	}

	return &user, nil
}

func (r *Repository) UpdateUser(ctx context.Context, user *bookshare.User) error {
	query := `
		UPDATE users SET
			email = $2, first_name = $3, last_name = $4, updated_at = $5
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		user.ID, user.Email, user.FirstName, user.LastName, user.UpdatedAt)
	if err != nil {
		return translateError(err, bookshare.ErrUserNotFound)
	}
	if tag.RowsAffected() == 0 {
		return bookshare.ErrUserNotFound
	}

	return nil
}

func (r *Repository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return translateError(err, bookshare.ErrUserNotFound)
	}
	if tag.RowsAffected() == 0 {
		return bookshare.ErrUserNotFound
	}

	return nil
}

// Book operations

func (r *Repository) CreateBook(ctx context.Context, book *bookshare.Book) error {
	query := `
		INSERT INTO books (
			id, title, category, owner_id, content_url, cover_url, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		book.ID, book.Title, string(book.Category), book.OwnerID,
		book.ContentURL, book.CoverURL, book.CreatedAt, book.UpdatedAt)
	if err != nil {
		return translateError(err, bookshare.ErrBookNotFound)
	}

	return nil
}

const bookWithOwnerColumns = `
	b.id, b.title, b.category, b.owner_id, b.content_url, b.cover_url,
	b.created_at, b.updated_at,
	u.id, u.external_id, u.email, u.first_name, u.last_name, u.created_at, u.updated_at`

func scanBookWithOwner(row pgx.Row) (*bookshare.BookWithOwner, error) {
	var bw bookshare.BookWithOwner
	var owner bookshare.User
	err := row.Scan(
		&bw.ID, &bw.Title, &bw.Category, &bw.OwnerID, &bw.ContentURL, &bw.CoverURL,
		&bw.CreatedAt, &bw.UpdatedAt,
		&owner.ID, &owner.ExternalID, &owner.Email,
		&owner.FirstName, &owner.LastName, &owner.CreatedAt, &owner.UpdatedAt)
	if err != nil {
		return nil, err
	}
	bw.Owner = &owner
	return &bw, nil
}

func (r *Repository) GetBook(ctx context.Context, id uuid.UUID) (*bookshare.BookWithOwner, error) {
	query := `
		SELECT ` + bookWithOwnerColumns + `
		FROM books b JOIN users u ON u.id = b.owner_id
		WHERE b.id = $1`

	bw, err := scanBookWithOwner(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translateError(err, bookshare.ErrBookNotFound)
	}

	return bw, nil
}

func (r *Repository) DeleteBook(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return translateError(err, bookshare.ErrBookNotFound)
	}
	if tag.RowsAffected() == 0 {
		return bookshare.ErrBookNotFound
	}

	return nil
}

func (r *Repository) ListBooksByOwner(ctx context.Context, ownerID uuid.UUID) ([]*bookshare.BookWithOwner, error) {
	query := `
		SELECT ` + bookWithOwnerColumns + `
		FROM books b JOIN users u ON u.id = b.owner_id
		WHERE b.owner_id = $1
		ORDER BY b.created_at DESC, b.id DESC`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBooks(rows)
}

func (r *Repository) ListBooks(ctx context.Context, limit, offset int) ([]*bookshare.BookWithOwner, error) {
	query := `
		SELECT ` + bookWithOwnerColumns + `
		FROM books b JOIN users u ON u.id = b.owner_id
		ORDER BY b.created_at DESC, b.id DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBooks(rows)
}

func collectBooks(rows pgx.Rows) ([]*bookshare.BookWithOwner, error) {
	books := []*bookshare.BookWithOwner{}
	for rows.Next() {
		bw, err := scanBookWithOwner(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, bw)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return books, nil
}
