package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eldtechnologies/roomboard/internal/directory"
)

// CreateRoomRequest represents the room creation request.
type CreateRoomRequest struct {
	Name        string `json:"room_name"`
	Description string `json:"room_description"`
	IsLocked    bool   `json:"is_locked"`
	Password    string `json:"room_password"`
}

// CreateRoomResponse represents the room creation response.
type CreateRoomResponse struct {
	Success bool   `json:"success"`
	RoomID  string `json:"room_id"`
}

// UpdateRoomRequest represents the room update request.
type UpdateRoomRequest struct {
	RoomID string `json:"room_id"`
	CreateRoomRequest
}

// DeleteRoomRequest represents the room deletion request.
type DeleteRoomRequest struct {
	RoomID string `json:"room_id"`
}

// VerifyPasswordRequest represents a room unlock attempt.
type VerifyPasswordRequest struct {
	RoomID   string `json:"room_id"`
	Password string `json:"password"`
}

// RoomViewResponse is what a visitor sees when entering a room.
type RoomViewResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsLocked    bool   `json:"is_locked"`
}

// CreateRoom handles room creation (admin).
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if !h.decode(w, r, &req) {
		return
	}

	id, err := h.Directory.CreateRoom(r.Context(), directory.CreateRoomInput{
		Name:        req.Name,
		Description: req.Description,
		IsLocked:    req.IsLocked,
		Password:    req.Password,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.JSON(w, http.StatusOK, CreateRoomResponse{Success: true, RoomID: id})
}

// UpdateRoom handles room updates (admin).
func (h *Handler) UpdateRoom(w http.ResponseWriter, r *http.Request) {
	var req UpdateRoomRequest
	if !h.decode(w, r, &req) {
		return
	}

	err := h.Directory.UpdateRoom(r.Context(), directory.UpdateRoomInput{
		ID:          req.RoomID,
		Name:        req.Name,
		Description: req.Description,
		IsLocked:    req.IsLocked,
		Password:    req.Password,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.JSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// DeleteRoom handles room deletion with all its messages (admin).
func (h *Handler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	var req DeleteRoomRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.Directory.DeleteRoom(r.Context(), req.RoomID); err != nil {
		h.fail(w, r, err)
		return
	}

	h.JSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// ListRooms handles listing every room.
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.Directory.ListRooms(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, rooms)
}

// VerifyRoomPassword handles a room unlock attempt.
func (h *Handler) VerifyRoomPassword(w http.ResponseWriter, r *http.Request) {
	var req VerifyPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	ok, err := h.Gate.VerifyPassword(r.Context(), req.RoomID, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !ok {
		h.JSON(w, http.StatusOK, SuccessResponse{Success: false, Error: "Incorrect password"})
		return
	}

	h.JSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// RoomView handles entering a room, refusing locked rooms the session has not unlocked.
func (h *Handler) RoomView(w http.ResponseWriter, r *http.Request) {
	room, err := h.Gate.Enter(r.Context(), chi.URLParam(r, "room_id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.JSON(w, http.StatusOK, RoomViewResponse{
		ID:          room.ID,
		Name:        room.DisplayName(),
		Description: room.Description,
		IsLocked:    room.IsLocked,
	})
}
