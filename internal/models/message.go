package models

import (
	"errors"
	"time"
)

var (
	ErrEmptyMessage     = errors.New("message has neither text nor attachment")
	ErrAmbiguousMessage = errors.New("message has both text and attachment")
)

// Attachment describes an uploaded file referenced by a message.
type Attachment struct {
	URL  string `json:"file_url"`
	Name string `json:"file_name"`
	Type string `json:"file_type"` // image, video, audio or document
}

// Message is a single entry in a room's thread. Exactly one of Text or File is set.
type Message struct {
	ID          string
	RoomID      string
	Text        string
	File        *Attachment
	AnonymousID string
	Timestamp   *time.Time // Store-assigned; nil until resolved
	ParentID    string
	Reply       *ReplySnapshot
}

// Validate checks that the message carries exactly one body kind.
func (m *Message) Validate() error {
	hasFile := m.File != nil && m.File.URL != ""
	switch {
	case m.Text == "" && !hasFile:
		return ErrEmptyMessage
	case m.Text != "" && hasFile:
		return ErrAmbiguousMessage
	}
	return nil
}

// Snapshot freezes the message content for embedding in a reply.
func (m *Message) Snapshot() *ReplySnapshot {
	s := &ReplySnapshot{
		ID:          m.ID,
		Text:        m.Text,
		AnonymousID: m.AnonymousID,
		ParentID:    m.ParentID,
	}
	if m.File != nil {
		s.FileURL = m.File.URL
		s.FileName = m.File.Name
		s.FileType = m.File.Type
	}
	if m.Timestamp != nil {
		ts := *m.Timestamp
		s.Timestamp = &ts
	}
	return s
}

// ReplySnapshot is an immutable copy of a parent message captured when a reply is created.
type ReplySnapshot struct {
	ID          string     `json:"id"`
	Text        string     `json:"text,omitempty"`
	FileURL     string     `json:"file_url,omitempty"`
	FileName    string     `json:"file_name,omitempty"`
	FileType    string     `json:"file_type,omitempty"`
	AnonymousID string     `json:"anonymous_id,omitempty"`
	Timestamp   *time.Time `json:"timestamp,omitempty"`
	ParentID    string     `json:"parent_id,omitempty"`
}
