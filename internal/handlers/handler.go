package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/eldtechnologies/roomboard/internal/apperr"
	"github.com/eldtechnologies/roomboard/internal/directory"
	"github.com/eldtechnologies/roomboard/internal/gate"
	"github.com/eldtechnologies/roomboard/internal/session"
	"github.com/eldtechnologies/roomboard/internal/store"
	"github.com/eldtechnologies/roomboard/internal/thread"
	"github.com/eldtechnologies/roomboard/internal/upload"
)

// Deps are the services the handlers call into.
type Deps struct {
	Store          store.DataStore
	Sessions       session.Store
	Directory      *directory.Directory
	Gate           *gate.Gate
	Admin          *gate.Admin
	Thread         *thread.Store
	Uploads        *upload.Ingestor
	MaxUploadBytes int64
	UploadTimeout  time.Duration // Read/write deadline for upload requests; server default when zero
	Logger         zerolog.Logger
}

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	Deps
}

// NewHandler creates a new Handler with the given services.
func NewHandler(deps Deps) *Handler {
	return &Handler{Deps: deps}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

// fail maps a service error to its HTTP status and writes it.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		h.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	h.Error(w, status, err.Error())
}

// decode reads a JSON request body into v.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// SuccessResponse is returned by mutating endpoints.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
