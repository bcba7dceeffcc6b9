package api

import (
	"net/http"
	"time"

	"github.com/go-chi/render"
)

// HealthStatus reports which pieces of process-wide configuration are
// present. It carries no business semantics.
type HealthStatus struct {
	Environment        string `json:"environment"`
	JWTConfigured      bool   `json:"jwtConfigured"`
	DatabaseConfigured bool   `json:"databaseConfigured"`
	StorageConfigured  bool   `json:"storageConfigured"`
}

// HealthHandler answers the liveness/config-presence probe
type HealthHandler struct {
	status HealthStatus
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(status HealthStatus) *HealthHandler {
	return &HealthHandler{status: status}
}

// Check responds with liveness plus config-presence flags.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status":      "OK",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"environment": h.status,
	})
}
