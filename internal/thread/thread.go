// Package thread implements the room-scoped, append-only message log.
package thread

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/eldtechnologies/roomboard/internal/apperr"
	"github.com/eldtechnologies/roomboard/internal/metrics"
	"github.com/eldtechnologies/roomboard/internal/models"
	"github.com/eldtechnologies/roomboard/internal/store"
)

// TimestampLayout is the local-time format timestamps are displayed in.
const TimestampLayout = "2006-01-02 15:04:05"

// PostInput is a text message submission.
type PostInput struct {
	RoomID      string `validate:"required"`
	Text        string `validate:"required"`
	AnonymousID string
	ParentID    string
}

// FileInput is an attachment message submission.
type FileInput struct {
	RoomID      string `validate:"required"`
	AnonymousID string
	ParentID    string
	Attachment  models.Attachment
}

// Store appends and lists messages on top of a MessageStore.
type Store struct {
	messages store.MessageStore
	logger   zerolog.Logger
	now      func() time.Time
}

// New creates a thread store.
func New(messages store.MessageStore, logger zerolog.Logger) *Store {
	return &Store{messages: messages, logger: logger, now: time.Now}
}

// PostText appends a text message, capturing the parent snapshot when replying.
func (s *Store) PostText(ctx context.Context, in PostInput) (*models.Message, error) {
	if err := apperr.Validate(in, "Missing room_id or message"); err != nil {
		return nil, err
	}

	msg := &models.Message{
		RoomID:      in.RoomID,
		Text:        in.Text,
		AnonymousID: in.AnonymousID,
		ParentID:    in.ParentID,
	}
	if err := s.append(ctx, msg); err != nil {
		return nil, err
	}
	metrics.MessagesPosted.WithLabelValues("text").Inc()
	return msg, nil
}

// PostFile appends an attachment message with the same threading rules as PostText.
func (s *Store) PostFile(ctx context.Context, in FileInput) (*models.Message, error) {
	if err := apperr.Validate(in, "Missing room_id"); err != nil {
		return nil, err
	}
	if in.Attachment.URL == "" {
		return nil, apperr.Validation("No file selected")
	}

	file := in.Attachment
	msg := &models.Message{
		RoomID:      in.RoomID,
		File:        &file,
		AnonymousID: in.AnonymousID,
		ParentID:    in.ParentID,
	}
	if err := s.append(ctx, msg); err != nil {
		return nil, err
	}
	metrics.MessagesPosted.WithLabelValues("file").Inc()
	return msg, nil
}

func (s *Store) append(ctx context.Context, msg *models.Message) error {
	if err := msg.Validate(); err != nil {
		return apperr.Validation(err.Error())
	}

	if msg.ParentID != "" {
		parent, err := s.messages.GetMessage(ctx, msg.RoomID, msg.ParentID)
		if err != nil {
			return apperr.Storage(err)
		}
		if parent != nil {
			msg.Reply = parent.Snapshot()
		} else {
			s.logger.Debug().
				Str("room_id", msg.RoomID).
				Str("parent_id", msg.ParentID).
				Msg("reply parent not found, storing without snapshot")
		}
	}

	if err := s.messages.AddMessage(ctx, msg); err != nil {
		if errors.Is(err, models.ErrEmptyMessage) || errors.Is(err, models.ErrAmbiguousMessage) {
			return apperr.Validation(err.Error())
		}
		return apperr.Storage(err)
	}
	return nil
}

// List returns the room's messages ordered by (timestamp, id).
// Messages lacking a timestamp are reported at the current time.
func (s *Store) List(ctx context.Context, roomID string) ([]models.Message, error) {
	messages := make([]models.Message, 0)
	err := s.messages.StreamMessages(ctx, roomID, func(m models.Message) error {
		if m.Timestamp == nil {
			now := s.now()
			m.Timestamp = &now
		}
		messages = append(messages, m)
		return nil
	})
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return messages, nil
}
