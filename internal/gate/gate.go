// Package gate decides who may enter a room and who may administer them.
package gate

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/eldtechnologies/roomboard/internal/apperr"
	"github.com/eldtechnologies/roomboard/internal/metrics"
	"github.com/eldtechnologies/roomboard/internal/models"
	"github.com/eldtechnologies/roomboard/internal/session"
)

// RoomGetter looks up rooms; it returns nil, nil for an unknown id.
type RoomGetter interface {
	GetRoom(ctx context.Context, id string) (*models.Room, error)
}

// Gate verifies room passwords and records unlocks in the request session.
type Gate struct {
	rooms    RoomGetter
	comparer Comparer
	logger   zerolog.Logger
}

// New creates a gate.
func New(rooms RoomGetter, comparer Comparer, logger zerolog.Logger) *Gate {
	return &Gate{rooms: rooms, comparer: comparer, logger: logger}
}

// Comparer returns the password policy rooms are sealed with.
func (g *Gate) Comparer() Comparer {
	return g.comparer
}

type verifyInput struct {
	RoomID   string `validate:"required"`
	Password string `validate:"required"`
}

// VerifyPassword checks supplied against the room's password. On a match the
// room is unlocked for the rest of the session.
func (g *Gate) VerifyPassword(ctx context.Context, roomID, supplied string) (bool, error) {
	if err := apperr.Validate(verifyInput{RoomID: roomID, Password: supplied}, "Missing room_id or password"); err != nil {
		return false, err
	}

	room, err := g.lookup(ctx, roomID)
	if err != nil {
		return false, err
	}

	if !g.comparer.Compare(room.Password, supplied) {
		metrics.PasswordVerifications.WithLabelValues("failure").Inc()
		return false, nil
	}

	metrics.PasswordVerifications.WithLabelValues("success").Inc()
	if s := session.FromContext(ctx); s != nil {
		s.Grant(roomID)
	} else {
		g.logger.Warn().Str("room_id", roomID).Msg("password verified without a session")
	}
	return true, nil
}

// Enter returns the room if the session may view it.
func (g *Gate) Enter(ctx context.Context, roomID string) (*models.Room, error) {
	room, err := g.lookup(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.IsLocked && !session.FromContext(ctx).HasAccess(roomID) {
		return nil, apperr.Locked("Room is locked")
	}
	return room, nil
}

func (g *Gate) lookup(ctx context.Context, roomID string) (*models.Room, error) {
	room, err := g.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	if room == nil {
		return nil, apperr.NotFound("Room not found")
	}
	return room, nil
}
