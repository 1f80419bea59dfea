package store

import (
	"context"
	"errors"

	"github.com/eldtechnologies/roomboard/internal/models"
)

// ErrRoomNotFound is returned by updates and deletes addressing a missing room.
var ErrRoomNotFound = errors.New("room not found")

// RoomStore persists room documents keyed by slug.
// Lookups return nil, nil when the room does not exist.
type RoomStore interface {
	GetRoom(ctx context.Context, id string) (*models.Room, error)
	CreateRoom(ctx context.Context, room *models.Room) error
	UpdateRoom(ctx context.Context, id string, update models.RoomUpdate) error
	// DeleteRoom removes the room and every message it owns, returning the number of messages removed.
	DeleteRoom(ctx context.Context, id string) (int64, error)
	ListRooms(ctx context.Context) ([]models.Room, error)
}

// MessageStore persists messages keyed by room then message id.
type MessageStore interface {
	// AddMessage assigns the message id and timestamp and appends it to its room.
	AddMessage(ctx context.Context, msg *models.Message) error
	GetMessage(ctx context.Context, roomID, msgID string) (*models.Message, error)
	// StreamMessages calls fn for each message of the room in (timestamp, id) order.
	StreamMessages(ctx context.Context, roomID string, fn func(models.Message) error) error
}

// DataStore is the full document store used by the server.
// Both PostgresStore and SQLiteStore implement this interface.
type DataStore interface {
	// Connection management
	Close()
	Ping(ctx context.Context) error

	RoomStore
	MessageStore
}
