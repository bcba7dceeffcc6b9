package api

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/openshelf/bookshare/pkg/bookshare"
)

// multipartMemoryLimit bounds how much of a parsed form is held in
// memory before spilling to disk.
const multipartMemoryLimit = 10 << 20

// BookHandler handles HTTP requests for book upload, listing and deletion
type BookHandler struct {
	service bookshare.Service
}

// NewBookHandler creates a new book handler
func NewBookHandler(service bookshare.Service) *BookHandler {
	return &BookHandler{service: service}
}

// AuthorResponse is the owner projection joined into book responses
type AuthorResponse struct {
	ID        string `json:"_id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// BookResponse is the response body for a book
type BookResponse struct {
	ID         string          `json:"_id"`
	Title      string          `json:"title"`
	Content    string          `json:"content"`
	PDF        string          `json:"pdf"`
	CoverImage string          `json:"coverImage"`
	Author     *AuthorResponse `json:"author,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

func newBookResponse(book *bookshare.Book, owner *bookshare.User) BookResponse {
	resp := BookResponse{
		ID:         book.ID.String(),
		Title:      book.Title,
		Content:    string(book.Category),
		PDF:        book.ContentURL,
		CoverImage: book.CoverURL,
		CreatedAt:  book.CreatedAt,
		UpdatedAt:  book.UpdatedAt,
	}
	if owner != nil {
		resp.Author = &AuthorResponse{
			ID:        owner.ID.String(),
			FirstName: owner.FirstName,
			LastName:  owner.LastName,
			Email:     owner.Email,
		}
	}
	return resp
}

func newBookListResponse(books []*bookshare.BookWithOwner) []BookResponse {
	resp := make([]BookResponse, 0, len(books))
	for _, bw := range books {
		resp = append(resp, newBookResponse(&bw.Book, bw.Owner))
	}
	return resp
}

// SubmitBook accepts a multipart form with title, content (category),
// a pdf file field and a coverImage file field, and returns the created
// book record with 201.
func (h *BookHandler) SubmitBook(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		renderUnauthenticated(w, r)
		return
	}

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Message: "File upload error: " + err.Error()})
		return
	}

	document, err := readFilePayload(r, "pdf")
	if err != nil {
		renderError(w, r, err)
		return
	}
	cover, err := readFilePayload(r, "coverImage")
	if err != nil {
		renderError(w, r, err)
		return
	}

	book, err := h.service.SubmitBook(r.Context(), bookshare.SubmitBookRequest{
		CallerExternalID: identity,
		Title:            r.FormValue("title"),
		Category:         bookshare.Category(r.FormValue("content")),
		Document:         document,
		Cover:            cover,
	})
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]interface{}{
		"message": "Book uploaded successfully",
		"post":    newBookResponse(book, nil),
	})
}

// readFilePayload loads one multipart file field into memory. A missing
// field yields an empty payload so the service can enumerate every
// missing field at once. Reads are capped just above the upload ceiling
// so oversize files are detected without buffering them whole.
func readFilePayload(r *http.Request, field string) (bookshare.FilePayload, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return bookshare.FilePayload{}, nil
		}
		return bookshare.FilePayload{}, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, bookshare.MaxUploadSize+1))
	if err != nil {
		return bookshare.FilePayload{}, err
	}

	return bookshare.FilePayload{
		Data:     data,
		MimeType: fileMimeType(header),
		FileName: header.Filename,
	}, nil
}

func fileMimeType(header *multipart.FileHeader) string {
	return header.Header.Get("Content-Type")
}

// ListMyBooks returns all of the caller's books, most recent first.
func (h *BookHandler) ListMyBooks(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		renderUnauthenticated(w, r)
		return
	}

	books, err := h.service.ListMyBooks(r.Context(), identity)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, newBookListResponse(books))
}

// ListBooks returns the public paginated listing, most recent first.
// Out-of-range pages yield an empty array.
func (h *BookHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	books, err := h.service.ListBooks(r.Context(), bookshare.ListBooksRequest{
		Page:  page,
		Limit: limit,
	})
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, newBookListResponse(books))
}

// GetBook returns a single book by ID, public.
func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, bookshare.ErrBookNotFound)
		return
	}

	book, err := h.service.GetBook(r.Context(), id)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, newBookResponse(&book.Book, book.Owner))
}

// DeleteBook removes the caller's book. Blob cleanup outcomes are
// logged by the service and never surfaced to the caller.
func (h *BookHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		renderUnauthenticated(w, r)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, bookshare.ErrBookNotFound)
		return
	}

	if _, err := h.service.DeleteBook(r.Context(), id, identity); err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"message": "Book deleted successfully",
	})
}
