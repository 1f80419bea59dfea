// Package roomboard provides a client for the roomboard HTTP API.
package roomboard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Client is a roomboard API client. It keeps the server session cookie, so
// room unlocks and admin logins carry over between calls.
type Client struct {
	BaseURL     string
	ConfigDir   string
	AnonymousID string
	HTTPClient  *http.Client
}

// Error is a non-2xx API response.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("roomboard error %d: %s", e.Status, e.Message)
}

// NewClient creates a new client. The pseudonym used for posting is loaded
// from the config directory, or generated and saved on first use.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	configDir := os.Getenv("ROOMBOARD_CONFIG")
	if configDir == "" {
		home, _ := os.UserHomeDir()
		configDir = filepath.Join(home, ".roomboard")
	}

	jar, _ := cookiejar.New(nil)
	c := &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		ConfigDir:  configDir,
		HTTPClient: &http.Client{Timeout: 30 * time.Second, Jar: jar},
	}

	if err := c.LoadIdentity(); err != nil {
		c.AnonymousID = "anon-" + uuid.NewString()[:8]
	}
	return c
}

// LoadIdentity reads the saved pseudonym from disk.
func (c *Client) LoadIdentity() error {
	data, err := os.ReadFile(filepath.Join(c.ConfigDir, "anonymous_id"))
	if err != nil {
		return err
	}
	id := strings.TrimSpace(string(data))
	if id == "" {
		return fmt.Errorf("empty anonymous id in %s", c.ConfigDir)
	}
	c.AnonymousID = id
	return nil
}

// SaveIdentity writes the pseudonym to disk.
func (c *Client) SaveIdentity() error {
	if err := os.MkdirAll(c.ConfigDir, 0700); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.ConfigDir, "anonymous_id"), []byte(c.AnonymousID+"\n"), 0600)
}

// doRequest performs an HTTP request and decodes a JSON response into out.
func (c *Client) doRequest(method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequest(method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		json.Unmarshal(respBody, &errResp)
		return &Error{Status: resp.StatusCode, Message: errResp.Error}
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(respBody, out)
}

func (c *Client) postJSON(path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return c.doRequest(http.MethodPost, path, "application/json", bytes.NewReader(body), out)
}

// Result is the acknowledgement returned by mutating endpoints.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Reply is the frozen copy of a parent message embedded in a reply.
type Reply struct {
	ID          string  `json:"id"`
	Text        string  `json:"text,omitempty"`
	FileURL     string  `json:"file_url,omitempty"`
	FileName    string  `json:"file_name,omitempty"`
	FileType    string  `json:"file_type,omitempty"`
	AnonymousID string  `json:"anonymous_id,omitempty"`
	Timestamp   string  `json:"timestamp,omitempty"`
	ParentID    *string `json:"parent_id"`
}

// Message represents a room message.
type Message struct {
	ID          string  `json:"id"`
	Text        string  `json:"text,omitempty"`
	FileURL     string  `json:"file_url,omitempty"`
	FileName    string  `json:"file_name,omitempty"`
	FileType    string  `json:"file_type,omitempty"`
	AnonymousID string  `json:"anonymous_id"`
	Timestamp   string  `json:"timestamp"` // Server local time, "2006-01-02 15:04:05"
	ParentID    *string `json:"parent_id"`
	ReplyTo     *Reply  `json:"reply_to_message"`
}

// GetMessages retrieves every message of a room in order.
func (c *Client) GetMessages(roomID string) ([]Message, error) {
	var msgs []Message
	if err := c.doRequest(http.MethodGet, "/api/get_messages/"+url.PathEscape(roomID), "", nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// PostMessageRequest is the request body for posting a text message.
type PostMessageRequest struct {
	RoomID      string `json:"room_id"`
	Message     string `json:"message"`
	AnonymousID string `json:"anonymous_id"`
	ParentID    string `json:"parent_id,omitempty"`
}

// PostMessage posts a text message, as a reply when parentID is set.
func (c *Client) PostMessage(roomID, text, parentID string) error {
	req := PostMessageRequest{RoomID: roomID, Message: text, AnonymousID: c.AnonymousID, ParentID: parentID}
	return c.postJSON("/api/send_message", req, nil)
}

// UploadFile posts a file message and returns the URL it is served from.
func (c *Client) UploadFile(roomID, filename string, content io.Reader, parentID string) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := map[string]string{"room_id": roomID, "anonymous_id": c.AnonymousID, "parent_id": parentID}
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := mw.WriteField(k, v); err != nil {
			return "", err
		}
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(fw, content); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	var resp struct {
		FileURL string `json:"file_url"`
	}
	if err := c.doRequest(http.MethodPost, "/api/upload_file", mw.FormDataContentType(), &buf, &resp); err != nil {
		return "", err
	}
	return resp.FileURL, nil
}

// Room represents room metadata as listed by the server.
type Room struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	IsLocked    bool       `json:"is_locked"`
	CreatedBy   string     `json:"created_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// ListRooms lists every room.
func (c *Client) ListRooms() ([]Room, error) {
	var rooms []Room
	if err := c.doRequest(http.MethodGet, "/api/get_rooms", "", nil, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

// GetRoom enters a room. Locked rooms fail with status 403 until unlocked.
func (c *Client) GetRoom(roomID string) (*Room, error) {
	var room Room
	if err := c.doRequest(http.MethodGet, "/api/rooms/"+url.PathEscape(roomID), "", nil, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

// VerifyPassword unlocks a room for this client's session.
func (c *Client) VerifyPassword(roomID, password string) (bool, error) {
	var res Result
	req := map[string]string{"room_id": roomID, "password": password}
	if err := c.postJSON("/api/verify_room_password", req, &res); err != nil {
		return false, err
	}
	return res.Success, nil
}

// RoomRequest is the request body for creating or updating a room.
type RoomRequest struct {
	RoomID      string `json:"room_id,omitempty"`
	Name        string `json:"room_name"`
	Description string `json:"room_description"`
	IsLocked    bool   `json:"is_locked"`
	Password    string `json:"room_password,omitempty"`
}

// CreateRoom creates a room and returns its id (admin).
func (c *Client) CreateRoom(req RoomRequest) (string, error) {
	var resp struct {
		RoomID string `json:"room_id"`
	}
	if err := c.postJSON("/api/create_room", req, &resp); err != nil {
		return "", err
	}
	return resp.RoomID, nil
}

// UpdateRoom updates a room (admin).
func (c *Client) UpdateRoom(req RoomRequest) error {
	return c.postJSON("/api/update_room", req, nil)
}

// DeleteRoom deletes a room and all of its messages (admin).
func (c *Client) DeleteRoom(roomID string) error {
	return c.postJSON("/api/delete_room", map[string]string{"room_id": roomID}, nil)
}

// AdminLogin logs this client's session in as administrator.
func (c *Client) AdminLogin(username, password string) error {
	return c.postJSON("/admin/login", map[string]string{"username": username, "password": password}, nil)
}

// AdminLogout ends the admin session.
func (c *Client) AdminLogout() error {
	return c.postJSON("/admin/logout", struct{}{}, nil)
}

// HealthResponse is the response from the health endpoint.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	Checks    map[string]interface{} `json:"checks"`
	Timestamp string                 `json:"timestamp"`
}

// Health checks server health.
func (c *Client) Health() (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.doRequest(http.MethodGet, "/health", "", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
