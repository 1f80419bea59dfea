// Package directory manages room identity and lifecycle.
package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/eldtechnologies/roomboard/internal/apperr"
	"github.com/eldtechnologies/roomboard/internal/gate"
	"github.com/eldtechnologies/roomboard/internal/metrics"
	"github.com/eldtechnologies/roomboard/internal/models"
	"github.com/eldtechnologies/roomboard/internal/store"
)

// CreatedByAdmin is the creator recorded on every room.
const CreatedByAdmin = "admin"

// CreateRoomInput is an admin request to create a room.
type CreateRoomInput struct {
	Name        string
	Description string
	IsLocked    bool
	Password    string
}

// UpdateRoomInput is an admin request to change a room's mutable fields.
type UpdateRoomInput struct {
	ID          string `validate:"required,ne=null"`
	Name        string `validate:"required"`
	Description string
	IsLocked    bool
	Password    string
}

// Directory creates, updates, lists and deletes rooms.
type Directory struct {
	rooms    store.RoomStore
	comparer gate.Comparer
	logger   zerolog.Logger
	now      func() time.Time
}

// New creates a directory that seals room passwords with comparer.
func New(rooms store.RoomStore, comparer gate.Comparer, logger zerolog.Logger) *Directory {
	return &Directory{rooms: rooms, comparer: comparer, logger: logger, now: time.Now}
}

// CreateRoom persists a new room and returns its id.
func (d *Directory) CreateRoom(ctx context.Context, in CreateRoomInput) (string, error) {
	if err := gate.RequireAdmin(ctx); err != nil {
		return "", err
	}
	if strings.TrimSpace(in.Name) == "" {
		return "", apperr.Validation("Room name is required")
	}

	now := d.now()
	id := Slug(in.Name, now)
	existing, err := d.rooms.GetRoom(ctx, id)
	if err != nil {
		return "", apperr.Storage(err)
	}
	if existing != nil {
		id = fmt.Sprintf("%s-%d", id, now.Unix())
	}

	room := &models.Room{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		IsLocked:    in.IsLocked,
		CreatedBy:   CreatedByAdmin,
	}
	if in.IsLocked {
		sealed, err := d.comparer.Seal(in.Password)
		if err != nil {
			return "", apperr.Storage(err)
		}
		room.Password = sealed
	}

	if err := d.rooms.CreateRoom(ctx, room); err != nil {
		return "", apperr.Storage(err)
	}

	metrics.RoomsCreated.Inc()
	d.logger.Info().Str("room_id", id).Bool("locked", in.IsLocked).Msg("room created")
	return id, nil
}

// UpdateRoom rewrites the room's name, description and lock state. The
// password changes only when the room stays locked and a new one is given.
func (d *Directory) UpdateRoom(ctx context.Context, in UpdateRoomInput) error {
	if err := gate.RequireAdmin(ctx); err != nil {
		return err
	}
	if err := apperr.Validate(in, "Room ID and name are required"); err != nil {
		return err
	}

	update := models.RoomUpdate{
		Name:        in.Name,
		Description: in.Description,
		IsLocked:    in.IsLocked,
	}
	if in.IsLocked && in.Password != "" {
		sealed, err := d.comparer.Seal(in.Password)
		if err != nil {
			return apperr.Storage(err)
		}
		update.Password = &sealed
	}

	if err := d.rooms.UpdateRoom(ctx, in.ID, update); err != nil {
		if errors.Is(err, store.ErrRoomNotFound) {
			return apperr.NotFound("Room not found")
		}
		return apperr.Storage(err)
	}

	d.logger.Info().Str("room_id", in.ID).Bool("locked", in.IsLocked).Msg("room updated")
	return nil
}

// DeleteRoom removes the room together with all of its messages.
func (d *Directory) DeleteRoom(ctx context.Context, id string) error {
	if err := gate.RequireAdmin(ctx); err != nil {
		return err
	}
	if id == "" {
		return apperr.Validation("Room ID is required")
	}

	removed, err := d.rooms.DeleteRoom(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRoomNotFound) {
			return apperr.NotFound("Room not found")
		}
		return apperr.Storage(err)
	}

	metrics.RoomsDeleted.Inc()
	metrics.MessagesCascaded.Add(float64(removed))
	d.logger.Info().Str("room_id", id).Int64("messages", removed).Msg("room deleted")
	return nil
}

// ListRooms returns every room.
func (d *Directory) ListRooms(ctx context.Context) ([]models.Room, error) {
	rooms, err := d.rooms.ListRooms(ctx)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	if rooms == nil {
		rooms = []models.Room{}
	}
	return rooms, nil
}

// GetRoom returns the room with the given id.
func (d *Directory) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	room, err := d.rooms.GetRoom(ctx, id)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	if room == nil {
		return nil, apperr.NotFound("Room not found")
	}
	return room, nil
}
