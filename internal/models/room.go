package models

import (
	"strings"
	"time"
)

// Room represents a named message channel that may be locked behind a shared password.
type Room struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	IsLocked    bool       `json:"is_locked"`
	Password    string     `json:"-"` // Never serialized to clients
	CreatedBy   string     `json:"created_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// DisplayName returns the room name, or a title-cased form of the id when the name is empty.
func (r *Room) DisplayName() string {
	if strings.TrimSpace(r.Name) != "" {
		return r.Name
	}
	words := strings.Fields(strings.ReplaceAll(r.ID, "-", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

// RoomUpdate carries the mutable fields of a room.
// A nil Password leaves the stored password untouched.
type RoomUpdate struct {
	Name        string
	Description string
	IsLocked    bool
	Password    *string
}
