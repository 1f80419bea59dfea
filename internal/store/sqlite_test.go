package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/eldtechnologies/roomboard/internal/models"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func collect(t *testing.T, s MessageStore, roomID string) []models.Message {
	t.Helper()
	var out []models.Message
	err := s.StreamMessages(context.Background(), roomID, func(m models.Message) error {
		out = append(out, m)
		return nil
	})
	require.NoError(t, err)
	return out
}

func TestSQLiteRoomLifecycle(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := newTestSQLite(t)

	room := &models.Room{ID: "team-sync", Name: "Team Sync", IsLocked: true, Password: "secret", CreatedBy: "admin"}
	req.NoError(s.CreateRoom(ctx, room))
	req.False(room.CreatedAt.IsZero())

	got, err := s.GetRoom(ctx, "team-sync")
	req.NoError(err)
	req.Equal("Team Sync", got.Name)
	req.True(got.IsLocked)
	req.Equal("secret", got.Password)
	req.Nil(got.UpdatedAt)

	// Unlocking without a password keeps the stored one
	req.NoError(s.UpdateRoom(ctx, "team-sync", models.RoomUpdate{Name: "Team Sync 2", Description: "weekly"}))
	got, err = s.GetRoom(ctx, "team-sync")
	req.NoError(err)
	req.Equal("Team Sync 2", got.Name)
	req.Equal("weekly", got.Description)
	req.False(got.IsLocked)
	req.Equal("secret", got.Password)
	req.NotNil(got.UpdatedAt)

	newPassword := "hunter2"
	req.NoError(s.UpdateRoom(ctx, "team-sync", models.RoomUpdate{Name: "Team Sync", IsLocked: true, Password: &newPassword}))
	got, err = s.GetRoom(ctx, "team-sync")
	req.NoError(err)
	req.Equal("hunter2", got.Password)

	req.ErrorIs(s.UpdateRoom(ctx, "missing", models.RoomUpdate{Name: "x"}), ErrRoomNotFound)

	missing, err := s.GetRoom(ctx, "missing")
	req.NoError(err)
	req.Nil(missing)
}

func TestSQLiteCreateDuplicateRoomFails(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := newTestSQLite(t)

	req.NoError(s.CreateRoom(ctx, &models.Room{ID: "general", Name: "General"}))
	req.Error(s.CreateRoom(ctx, &models.Room{ID: "general", Name: "General"}))
}

func TestSQLiteListRooms(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := newTestSQLite(t)

	rooms, err := s.ListRooms(ctx)
	req.NoError(err)
	req.Empty(rooms)

	req.NoError(s.CreateRoom(ctx, &models.Room{ID: "a", Name: "A"}))
	req.NoError(s.CreateRoom(ctx, &models.Room{ID: "b", Name: "B", IsLocked: true, Password: "pw"}))

	rooms, err = s.ListRooms(ctx)
	req.NoError(err)
	req.Len(rooms, 2)
	req.Equal("a", rooms[0].ID)
	req.Equal("b", rooms[1].ID)
}

func TestSQLiteMessagesOrdered(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := newTestSQLite(t)

	// A clock that goes backwards must not reorder messages
	clock := []time.Time{
		time.Date(2026, 1, 1, 12, 0, 2, 0, time.UTC),
		time.Date(2026, 1, 1, 12, 0, 1, 0, time.UTC),
		time.Date(2026, 1, 1, 12, 0, 3, 0, time.UTC),
	}
	i := 0
	s.now = func() time.Time {
		ts := clock[i%len(clock)]
		i++
		return ts
	}

	for _, text := range []string{"first", "second", "third"} {
		msg := &models.Message{RoomID: "general", Text: text, AnonymousID: "anon1"}
		req.NoError(s.AddMessage(ctx, msg))
		req.NotEmpty(msg.ID)
		req.NotNil(msg.Timestamp)
	}
	req.NoError(s.AddMessage(ctx, &models.Message{RoomID: "other", Text: "elsewhere"}))

	msgs := collect(t, s, "general")
	req.Len(msgs, 3)
	req.Equal("first", msgs[0].Text)
	req.Equal("second", msgs[1].Text)
	req.Equal("third", msgs[2].Text)
	for j := 1; j < len(msgs); j++ {
		req.False(msgs[j].Timestamp.Before(*msgs[j-1].Timestamp))
	}
}

func TestSQLiteMessageBodiesAndSnapshot(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := newTestSQLite(t)

	parent := &models.Message{RoomID: "general", Text: "hello", AnonymousID: "anon1"}
	req.NoError(s.AddMessage(ctx, parent))

	reply := &models.Message{
		RoomID:      "general",
		File:        &models.Attachment{URL: "/uploads/x_photo.png", Name: "photo.png", Type: "image"},
		AnonymousID: "anon2",
		ParentID:    parent.ID,
		Reply:       parent.Snapshot(),
	}
	req.NoError(s.AddMessage(ctx, reply))

	got, err := s.GetMessage(ctx, "general", reply.ID)
	req.NoError(err)
	req.Empty(got.Text)
	req.Equal("photo.png", got.File.Name)
	req.Equal("image", got.File.Type)
	req.Equal(parent.ID, got.ParentID)
	req.Equal(parent.ID, got.Reply.ID)
	req.Equal("hello", got.Reply.Text)

	// Messages are scoped to their room
	other, err := s.GetMessage(ctx, "other", reply.ID)
	req.NoError(err)
	req.Nil(other)
}

func TestSQLiteRejectsInvalidBody(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := newTestSQLite(t)

	req.ErrorIs(s.AddMessage(ctx, &models.Message{RoomID: "general"}), models.ErrEmptyMessage)
	req.ErrorIs(s.AddMessage(ctx, &models.Message{
		RoomID: "general",
		Text:   "both",
		File:   &models.Attachment{URL: "/uploads/a.png", Name: "a.png", Type: "image"},
	}), models.ErrAmbiguousMessage)
}

func TestSQLiteDeleteRoomCascades(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := newTestSQLite(t)

	req.NoError(s.CreateRoom(ctx, &models.Room{ID: "doomed", Name: "Doomed"}))
	for _, text := range []string{"a", "b", "c"} {
		req.NoError(s.AddMessage(ctx, &models.Message{RoomID: "doomed", Text: text}))
	}
	req.NoError(s.AddMessage(ctx, &models.Message{RoomID: "survivor", Text: "stay"}))

	deleted, err := s.DeleteRoom(ctx, "doomed")
	req.NoError(err)
	req.EqualValues(3, deleted)

	room, err := s.GetRoom(ctx, "doomed")
	req.NoError(err)
	req.Nil(room)
	req.Empty(collect(t, s, "doomed"))
	req.Len(collect(t, s, "survivor"), 1)

	_, err = s.DeleteRoom(ctx, "doomed")
	req.ErrorIs(err, ErrRoomNotFound)
}

func TestSQLiteTimestampSurvivesReopen(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	path := t.TempDir() + "/board.db"

	s, err := NewSQLiteStore(ctx, path)
	req.NoError(err)
	future := time.Now().Add(time.Hour)
	s.now = func() time.Time { return future }
	req.NoError(s.AddMessage(ctx, &models.Message{RoomID: "general", Text: "from the future"}))
	s.Close()

	s, err = NewSQLiteStore(ctx, path)
	req.NoError(err)
	defer s.Close()

	msg := &models.Message{RoomID: "general", Text: "now"}
	req.NoError(s.AddMessage(ctx, msg))
	req.False(msg.Timestamp.Before(future))

	msgs := collect(t, s, "general")
	req.Equal("from the future", msgs[0].Text)
	req.Equal("now", msgs[1].Text)
}
