package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"

	"github.com/eldtechnologies/roomboard/internal/metrics"
	"github.com/eldtechnologies/roomboard/internal/models"
	"github.com/eldtechnologies/roomboard/internal/thread"
)

// multipartMemory is how much of an upload form is buffered before spilling to disk.
const multipartMemory = 1 << 20

// SendMessageRequest represents the text message request.
type SendMessageRequest struct {
	RoomID      string `json:"room_id"`
	Message     string `json:"message"`
	AnonymousID string `json:"anonymous_id"`
	ParentID    string `json:"parent_id,omitempty"`
}

// UploadResponse represents the file upload response.
type UploadResponse struct {
	Success bool   `json:"success"`
	FileURL string `json:"file_url"`
}

// ReplyResponse is the frozen parent embedded in a reply.
type ReplyResponse struct {
	ID          string  `json:"id"`
	Text        string  `json:"text,omitempty"`
	FileURL     string  `json:"file_url,omitempty"`
	FileName    string  `json:"file_name,omitempty"`
	FileType    string  `json:"file_type,omitempty"`
	AnonymousID string  `json:"anonymous_id,omitempty"`
	Timestamp   string  `json:"timestamp,omitempty"`
	ParentID    *string `json:"parent_id"`
}

// MessageResponse represents a message in API responses.
type MessageResponse struct {
	ID          string         `json:"id"`
	Text        string         `json:"text,omitempty"`
	FileURL     string         `json:"file_url,omitempty"`
	FileName    string         `json:"file_name,omitempty"`
	FileType    string         `json:"file_type,omitempty"`
	AnonymousID string         `json:"anonymous_id"`
	Timestamp   string         `json:"timestamp"`
	ParentID    *string        `json:"parent_id"`
	ReplyTo     *ReplyResponse `json:"reply_to_message"`
}

// SendMessage handles posting a text message.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if !h.decode(w, r, &req) {
		return
	}

	_, err := h.Thread.PostText(r.Context(), thread.PostInput{
		RoomID:      req.RoomID,
		Text:        req.Message,
		AnonymousID: req.AnonymousID,
		ParentID:    req.ParentID,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.JSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// UploadFile handles a multipart upload and posts it as a file message.
func (h *Handler) UploadFile(w http.ResponseWriter, r *http.Request) {
	if h.UploadTimeout > 0 {
		deadline := time.Now().Add(h.UploadTimeout)
		rc := http.NewResponseController(w)
		_ = rc.SetReadDeadline(deadline)
		_ = rc.SetWriteDeadline(deadline)
	}

	if r.ContentLength > h.MaxUploadBytes {
		metrics.UploadsRejected.WithLabelValues("too_large").Inc()
		h.Error(w, http.StatusRequestEntityTooLarge, "File too large")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			metrics.UploadsRejected.WithLabelValues("too_large").Inc()
			h.Error(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		h.Error(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		metrics.UploadsRejected.WithLabelValues("missing").Inc()
		h.Error(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	roomID := r.FormValue("room_id")
	if roomID == "" {
		metrics.UploadsRejected.WithLabelValues("missing_room").Inc()
		h.Error(w, http.StatusBadRequest, "Missing room_id")
		return
	}

	res, err := h.Uploads.Ingest(r.Context(), file, header.Filename)
	if err != nil {
		metrics.UploadsRejected.WithLabelValues("invalid").Inc()
		h.fail(w, r, err)
		return
	}
	metrics.UploadBytes.Add(float64(res.Size))

	_, err = h.Thread.PostFile(r.Context(), thread.FileInput{
		RoomID:      roomID,
		AnonymousID: r.FormValue("anonymous_id"),
		ParentID:    r.FormValue("parent_id"),
		Attachment:  res.Attachment,
	})
	if err != nil {
		h.Uploads.Discard(res)
		h.fail(w, r, err)
		return
	}

	h.JSON(w, http.StatusOK, UploadResponse{Success: true, FileURL: res.Attachment.URL})
}

// GetMessages handles listing a room's messages in order.
func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "room_id")

	messages, err := h.Thread.List(r.Context(), roomID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.JSON(w, http.StatusOK, lo.Map(messages, func(m models.Message, _ int) MessageResponse {
		return toMessageResponse(m)
	}))
}

func toMessageResponse(m models.Message) MessageResponse {
	resp := MessageResponse{
		ID:          m.ID,
		Text:        m.Text,
		AnonymousID: m.AnonymousID,
		Timestamp:   m.Timestamp.Local().Format(thread.TimestampLayout),
		ParentID:    lo.EmptyableToPtr(m.ParentID),
	}
	if m.File != nil {
		resp.FileURL = m.File.URL
		resp.FileName = m.File.Name
		resp.FileType = m.File.Type
	}
	if m.Reply != nil {
		reply := &ReplyResponse{
			ID:          m.Reply.ID,
			Text:        m.Reply.Text,
			FileURL:     m.Reply.FileURL,
			FileName:    m.Reply.FileName,
			FileType:    m.Reply.FileType,
			AnonymousID: m.Reply.AnonymousID,
			ParentID:    lo.EmptyableToPtr(m.Reply.ParentID),
		}
		if m.Reply.Timestamp != nil {
			reply.Timestamp = m.Reply.Timestamp.Local().Format(thread.TimestampLayout)
		}
		resp.ReplyTo = reply
	}
	return resp
}
