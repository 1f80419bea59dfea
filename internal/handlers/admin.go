package handlers

import (
	"net/http"

	"github.com/eldtechnologies/roomboard/internal/session"
)

// AdminLoginRequest represents the admin login request.
type AdminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AdminSessionResponse reports whether the caller is logged in as admin.
type AdminSessionResponse struct {
	Admin bool `json:"admin"`
}

// AdminLogin handles admin login.
func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req AdminLoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.Admin.Login(r.Context(), req.Username, req.Password); err != nil {
		h.fail(w, r, err)
		return
	}

	h.JSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// AdminLogout handles admin logout.
func (h *Handler) AdminLogout(w http.ResponseWriter, r *http.Request) {
	h.Admin.Logout(r.Context())
	h.JSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// AdminSession reports the caller's admin status.
func (h *Handler) AdminSession(w http.ResponseWriter, r *http.Request) {
	h.JSON(w, http.StatusOK, AdminSessionResponse{Admin: session.FromContext(r.Context()).IsAdmin()})
}
