package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/openshelf/bookshare/pkg/bookshare"
)

// UserHandler handles HTTP requests for user profile reconciliation
type UserHandler struct {
	service bookshare.Service
}

// NewUserHandler creates a new user handler
func NewUserHandler(service bookshare.Service) *UserHandler {
	return &UserHandler{service: service}
}

// SaveUserRequest is the request body for saving a user profile
type SaveUserRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// UserResponse is the response body for a user profile
type UserResponse struct {
	ID         string    `json:"_id"`
	ExternalID string    `json:"externalId"`
	Email      string    `json:"email"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func newUserResponse(user *bookshare.User) UserResponse {
	return UserResponse{
		ID:         user.ID.String(),
		ExternalID: user.ExternalID,
		Email:      user.Email,
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		CreatedAt:  user.CreatedAt,
		UpdatedAt:  user.UpdatedAt,
	}
}

// SaveProfile creates the caller's user record on first contact and
// updates it in place afterwards. 201 on create, 200 on update.
func (h *UserHandler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		renderUnauthenticated(w, r)
		return
	}

	var req SaveUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Message: "Invalid request body"})
		return
	}

	user, created, err := h.service.SaveUserProfile(r.Context(), bookshare.SaveUserRequest{
		ExternalID: identity,
		Email:      req.Email,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
	})
	if err != nil {
		renderError(w, r, err)
		return
	}

	message := "User updated successfully"
	status := http.StatusOK
	if created {
		message = "User created successfully"
		status = http.StatusCreated
	}

	render.Status(r, status)
	render.JSON(w, r, map[string]interface{}{
		"message": message,
		"user":    newUserResponse(user),
	})
}

// GetProfile returns the caller's user record, 404 when not yet synced.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		renderUnauthenticated(w, r)
		return
	}

	user, err := h.service.GetUserProfile(r.Context(), identity)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"user": newUserResponse(user),
	})
}

// UpdateProfile applies a partial update to the caller's record.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		renderUnauthenticated(w, r)
		return
	}

	var req SaveUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Message: "Invalid request body"})
		return
	}

	user, err := h.service.UpdateUserProfile(r.Context(), bookshare.UpdateUserRequest{
		ExternalID: identity,
		Email:      req.Email,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
	})
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"message": "User updated successfully",
		"user":    newUserResponse(user),
	})
}

// DeleteAccount removes the caller's user record.
func (h *UserHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		renderUnauthenticated(w, r)
		return
	}

	if err := h.service.DeleteUserAccount(r.Context(), identity); err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"message": "User deleted successfully",
	})
}
