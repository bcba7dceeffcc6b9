package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/openshelf/bookshare/pkg/bookshare"
)

// ErrorResponse is the JSON body for every error outcome.
type ErrorResponse struct {
	Message string   `json:"message"`
	Fields  []string `json:"fields,omitempty"`
}

// renderError translates a domain error into an HTTP response. Every
// error path produces a JSON body; unrecognized errors become opaque
// 500s and are logged with their detail.
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	body := ErrorResponse{Message: "Internal server error"}

	var validation *bookshare.ValidationError
	switch {
	case errors.Is(err, bookshare.ErrUnauthenticated):
		status = http.StatusUnauthorized
		body.Message = "Authentication failed - no user ID found"
	case errors.As(err, &validation):
		status = http.StatusBadRequest
		body.Message = validation.Error()
		body.Fields = validation.Fields
	case errors.Is(err, bookshare.ErrInvalidCategory):
		status = http.StatusBadRequest
		body.Message = invalidCategoryMessage()
	case errors.Is(err, bookshare.ErrInvalidEmail),
		errors.Is(err, bookshare.ErrInvalidDocumentType),
		errors.Is(err, bookshare.ErrInvalidImageType):
		status = http.StatusBadRequest
		body.Message = unwrapMessage(err)
	case errors.Is(err, bookshare.ErrPayloadTooLarge):
		status = http.StatusBadRequest
		body.Message = "File upload error: file exceeds maximum upload size (5 MiB)"
	case errors.Is(err, bookshare.ErrUserNotFound):
		status = http.StatusNotFound
		body.Message = "User not found. Please refresh and try again."
	case errors.Is(err, bookshare.ErrBookNotFound):
		status = http.StatusNotFound
		body.Message = "Book not found or unauthorized"
	case errors.Is(err, bookshare.ErrDuplicateUser):
		status = http.StatusConflict
		body.Message = "User already exists"
	default:
		slog.Error("request failed", "path", r.URL.Path, "err", err)
	}

	render.Status(r, status)
	render.JSON(w, r, body)
}

// unwrapMessage surfaces the sentinel's own text for client errors that
// need no rewording.
func unwrapMessage(err error) string {
	for _, sentinel := range []error{
		bookshare.ErrInvalidEmail,
		bookshare.ErrInvalidDocumentType,
		bookshare.ErrInvalidImageType,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}

// invalidCategoryMessage names the closed category set so clients can
// self-correct.
func invalidCategoryMessage() string {
	categories := bookshare.Categories()
	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, string(c))
	}
	return "invalid category, must be one of: " + strings.Join(names, ", ")
}
