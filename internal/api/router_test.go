package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/eldtechnologies/roomboard/internal/api/middleware"
	"github.com/eldtechnologies/roomboard/internal/directory"
	"github.com/eldtechnologies/roomboard/internal/gate"
	"github.com/eldtechnologies/roomboard/internal/handlers"
	"github.com/eldtechnologies/roomboard/internal/session"
	"github.com/eldtechnologies/roomboard/internal/store"
	"github.com/eldtechnologies/roomboard/internal/thread"
	"github.com/eldtechnologies/roomboard/internal/upload"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := zerolog.Nop()

	db, err := store.NewSQLiteStore(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(db.Close)

	uploadDir := filepath.Join(t.TempDir(), "uploads")
	ingestor, err := upload.NewIngestor(uploadDir, "/uploads/", logger)
	require.NoError(t, err)

	sessions := session.NewMemoryStore()
	comparer := gate.PlaintextComparer{}

	router := NewRouter(logger, Options{
		Handlers: handlers.Deps{
			Store:          db,
			Sessions:       sessions,
			Directory:      directory.New(db, comparer, logger),
			Gate:           gate.New(db, comparer, logger),
			Admin:          gate.NewAdmin("admin", "letmein", logger),
			Thread:         thread.New(db, logger),
			Uploads:        ingestor,
			MaxUploadBytes: 64 << 10,
			Logger:         logger,
		},
		Sessions: middleware.SessionOptions{
			Store:  sessions,
			Secret: []byte("test-secret"),
			TTL:    time.Hour,
			Logger: logger,
		},
		UploadDir: uploadDir,
		StaticDir: t.TempDir(),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

// visitor is a browser-like client holding its own session cookie.
type visitor struct {
	t      *testing.T
	srv    *httptest.Server
	client *http.Client
}

func newVisitor(t *testing.T, srv *httptest.Server) *visitor {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &visitor{t: t, srv: srv, client: &http.Client{Jar: jar}}
}

func (v *visitor) do(method, path, contentType string, body io.Reader) (int, []byte) {
	v.t.Helper()
	req, err := http.NewRequest(method, v.srv.URL+path, body)
	require.NoError(v.t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := v.client.Do(req)
	require.NoError(v.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(v.t, err)
	return resp.StatusCode, data
}

func (v *visitor) post(path string, payload any) (int, map[string]any) {
	v.t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(v.t, err)
	status, data := v.do(http.MethodPost, path, "application/json", bytes.NewReader(raw))
	var out map[string]any
	require.NoError(v.t, json.Unmarshal(data, &out), string(data))
	return status, out
}

func (v *visitor) get(path string, out any) int {
	v.t.Helper()
	status, data := v.do(http.MethodGet, path, "", nil)
	if out != nil {
		require.NoError(v.t, json.Unmarshal(data, out), string(data))
	}
	return status
}

func (v *visitor) loginAdmin() {
	v.t.Helper()
	status, body := v.post("/admin/login", map[string]string{"username": "admin", "password": "letmein"})
	require.Equal(v.t, http.StatusOK, status, body)
}

func TestPlainPostScenario(t *testing.T) {
	req := require.New(t)
	srv := newTestServer(t)
	v := newVisitor(t, srv)

	status, body := v.post("/api/send_message", map[string]string{"room_id": "general", "message": "hi", "anonymous_id": "anon-1"})
	req.Equal(http.StatusOK, status)
	req.Equal(true, body["success"])

	var msgs []map[string]any
	req.Equal(http.StatusOK, v.get("/api/get_messages/general", &msgs))
	req.Len(msgs, 1)
	req.Equal("hi", msgs[0]["text"])
	req.Equal("anon-1", msgs[0]["anonymous_id"])
	req.NotEmpty(msgs[0]["id"])
	req.Regexp(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`, msgs[0]["timestamp"])
	req.Contains(msgs[0], "parent_id")
	req.Nil(msgs[0]["parent_id"])
	req.Contains(msgs[0], "reply_to_message")
	req.Nil(msgs[0]["reply_to_message"])
	req.NotContains(msgs[0], "file_url")

	status, body = v.post("/api/send_message", map[string]string{"room_id": "general"})
	req.Equal(http.StatusBadRequest, status)
	req.Equal("Missing room_id or message", body["error"])
}

func TestReplyScenario(t *testing.T) {
	req := require.New(t)
	srv := newTestServer(t)
	v := newVisitor(t, srv)

	v.post("/api/send_message", map[string]string{"room_id": "general", "message": "parent", "anonymous_id": "anon-1"})
	var msgs []map[string]any
	v.get("/api/get_messages/general", &msgs)
	parentID := msgs[0]["id"].(string)

	status, _ := v.post("/api/send_message", map[string]string{"room_id": "general", "message": "child", "parent_id": parentID})
	req.Equal(http.StatusOK, status)
	status, _ = v.post("/api/send_message", map[string]string{"room_id": "general", "message": "orphan", "parent_id": "gone"})
	req.Equal(http.StatusOK, status)

	v.get("/api/get_messages/general", &msgs)
	req.Len(msgs, 3)
	req.Equal(parentID, msgs[1]["parent_id"])
	reply := msgs[1]["reply_to_message"].(map[string]any)
	req.Equal(parentID, reply["id"])
	req.Equal("parent", reply["text"])
	req.Equal("anon-1", reply["anonymous_id"])
	req.Equal("gone", msgs[2]["parent_id"])
	req.Nil(msgs[2]["reply_to_message"])
}

func TestUploadScenario(t *testing.T) {
	req := require.New(t)
	srv := newTestServer(t)
	v := newVisitor(t, srv)

	upload := func(filename, roomID string, content []byte) (int, map[string]any) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		if roomID != "" {
			mw.WriteField("room_id", roomID)
		}
		mw.WriteField("anonymous_id", "anon-9")
		if filename != "-" {
			fw, err := mw.CreateFormFile("file", filename)
			req.NoError(err)
			fw.Write(content)
		}
		req.NoError(mw.Close())
		status, data := v.do(http.MethodPost, "/api/upload_file", mw.FormDataContentType(), &buf)
		var out map[string]any
		req.NoError(json.Unmarshal(data, &out), string(data))
		return status, out
	}

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\x0dIHDR")
	status, body := upload("holiday photo.png", "general", png)
	req.Equal(http.StatusOK, status, body)
	fileURL := body["file_url"].(string)
	req.Regexp(`^/uploads/[0-9a-f-]{36}_holiday_photo\.png$`, fileURL)

	code, data := v.do(http.MethodGet, fileURL, "", nil)
	req.Equal(http.StatusOK, code)
	req.Equal(png, data)

	var msgs []map[string]any
	v.get("/api/get_messages/general", &msgs)
	req.Len(msgs, 1)
	req.Equal(fileURL, msgs[0]["file_url"])
	req.Equal("holiday_photo.png", msgs[0]["file_name"])
	req.Equal("image", msgs[0]["file_type"])
	req.NotContains(msgs[0], "text")

	pdf := []byte("%PDF-1.4\n%%EOF\n")
	status, body = upload("report..final.pdf", "general", pdf)
	req.Equal(http.StatusOK, status, body)
	dotted := body["file_url"].(string)
	req.Regexp(`^/uploads/[0-9a-f-]{36}_report\.final\.pdf$`, dotted)
	code, data = v.do(http.MethodGet, dotted, "", nil)
	req.Equal(http.StatusOK, code)
	req.Equal(pdf, data)

	status, body = upload("archive.zip", "general", []byte("PK"))
	req.Equal(http.StatusBadRequest, status)
	req.Equal("File type not allowed", body["error"])

	status, body = upload("noext", "general", []byte("x"))
	req.Equal(http.StatusBadRequest, status)
	req.Equal("File type not allowed", body["error"])

	status, body = upload("-", "general", nil)
	req.Equal(http.StatusBadRequest, status)
	req.Equal("No file provided", body["error"])

	status, body = upload("notes.txt", "", []byte("x"))
	req.Equal(http.StatusBadRequest, status)
	req.Equal("Missing room_id", body["error"])

	status, _ = upload("big.txt", "general", bytes.Repeat([]byte("a"), 128<<10))
	req.Equal(http.StatusRequestEntityTooLarge, status)

	code, _ = v.do(http.MethodGet, "/uploads/", "", nil)
	req.Equal(http.StatusNotFound, code)
}

func TestTeamSyncScenario(t *testing.T) {
	req := require.New(t)
	srv := newTestServer(t)
	admin := newVisitor(t, srv)
	guest := newVisitor(t, srv)

	status, body := admin.post("/api/create_room", map[string]any{
		"room_name": "Team Sync", "room_description": "weekly", "is_locked": true, "room_password": "s3cret",
	})
	req.Equal(http.StatusUnauthorized, status)
	req.Equal("Unauthorized", body["error"])

	var sess map[string]bool
	admin.get("/admin/session", &sess)
	req.False(sess["admin"])

	admin.loginAdmin()
	admin.get("/admin/session", &sess)
	req.True(sess["admin"])

	status, body = admin.post("/api/create_room", map[string]any{
		"room_name": "Team Sync", "room_description": "weekly", "is_locked": true, "room_password": "s3cret",
	})
	req.Equal(http.StatusOK, status, body)
	req.Equal("team-sync", body["room_id"])

	var rooms []map[string]any
	req.Equal(http.StatusOK, guest.get("/api/get_rooms", &rooms))
	req.Len(rooms, 1)
	req.NotContains(rooms[0], "password")
	req.Equal(true, rooms[0]["is_locked"])

	var view map[string]any
	req.Equal(http.StatusForbidden, guest.get("/api/rooms/team-sync", &view))

	status, body = guest.post("/api/verify_room_password", map[string]string{"room_id": "team-sync", "password": "wrong"})
	req.Equal(http.StatusOK, status)
	req.Equal(false, body["success"])
	req.Equal("Incorrect password", body["error"])

	status, body = guest.post("/api/verify_room_password", map[string]string{"room_id": "team-sync", "password": "s3cret"})
	req.Equal(http.StatusOK, status)
	req.Equal(true, body["success"])

	req.Equal(http.StatusOK, guest.get("/api/rooms/team-sync", &view))
	req.Equal("Team Sync", view["name"])
	req.Equal("weekly", view["description"])

	status, _ = guest.post("/api/verify_room_password", map[string]string{"room_id": "missing", "password": "x"})
	req.Equal(http.StatusNotFound, status)
	status, _ = guest.post("/api/verify_room_password", map[string]string{"room_id": "team-sync"})
	req.Equal(http.StatusBadRequest, status)
	req.Equal(http.StatusNotFound, guest.get("/api/rooms/missing", &view))

	// A second visitor has not unlocked the room
	req.Equal(http.StatusForbidden, newVisitor(t, srv).get("/api/rooms/team-sync", &view))
}

func TestRoomAdministration(t *testing.T) {
	req := require.New(t)
	srv := newTestServer(t)
	admin := newVisitor(t, srv)
	admin.loginAdmin()

	_, body := admin.post("/api/create_room", map[string]any{"room_name": "Doomed"})
	roomID := body["room_id"].(string)

	status, body := admin.post("/api/update_room", map[string]any{"room_id": "null", "room_name": "x"})
	req.Equal(http.StatusBadRequest, status)
	req.Equal("Room ID and name are required", body["error"])
	status, _ = admin.post("/api/update_room", map[string]any{"room_id": "missing", "room_name": "x"})
	req.Equal(http.StatusNotFound, status)
	status, _ = admin.post("/api/update_room", map[string]any{"room_id": roomID, "room_name": "Still Doomed"})
	req.Equal(http.StatusOK, status)

	for _, text := range []string{"one", "two", "three"} {
		status, _ := admin.post("/api/send_message", map[string]string{"room_id": roomID, "message": text})
		req.Equal(http.StatusOK, status)
	}

	status, _ = admin.post("/api/delete_room", map[string]string{"room_id": roomID})
	req.Equal(http.StatusOK, status)

	var msgs []map[string]any
	req.Equal(http.StatusOK, admin.get("/api/get_messages/"+roomID, &msgs))
	req.Empty(msgs)
	status, _ = admin.post("/api/delete_room", map[string]string{"room_id": roomID})
	req.Equal(http.StatusNotFound, status)
	status, _ = admin.post("/api/delete_room", map[string]string{})
	req.Equal(http.StatusBadRequest, status)

	status, _ = admin.post("/admin/logout", map[string]string{})
	req.Equal(http.StatusOK, status)
	status, _ = admin.post("/api/delete_room", map[string]string{"room_id": "anything"})
	req.Equal(http.StatusUnauthorized, status)
}

func TestAdminLoginRejected(t *testing.T) {
	v := newVisitor(t, newTestServer(t))

	status, body := v.post("/admin/login", map[string]string{"username": "admin", "password": "nope"})
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "Invalid credentials", body["error"])

	status, _ = v.post("/admin/login", map[string]string{})
	require.Equal(t, http.StatusBadRequest, status)
}

func TestHealthAndInfo(t *testing.T) {
	req := require.New(t)
	v := newVisitor(t, newTestServer(t))

	var health handlers.HealthResponse
	req.Equal(http.StatusOK, v.get("/health", &health))
	req.Equal("healthy", health.Status)
	req.Equal("pass", health.Checks["database"].Status)

	var info handlers.RootResponse
	req.Equal(http.StatusOK, v.get("/api", &info))
	req.Equal("roomboard", info.Name)

	code, data := v.do(http.MethodGet, "/metrics", "", nil)
	req.Equal(http.StatusOK, code)
	req.Contains(string(data), "roomboard_http_requests_total")
}
