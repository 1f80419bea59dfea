package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"

	"github.com/eldtechnologies/roomboard/internal/models"
)

// PostgresStore handles PostgreSQL database operations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store with a connection pool.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// GetRoom retrieves a room by ID.
func (s *PostgresStore) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	room := &models.Room{}
	var password *string
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, description, is_locked, password, created_by, created_at, updated_at
		FROM rooms WHERE id = $1
	`, id).Scan(
		&room.ID,
		&room.Name,
		&room.Description,
		&room.IsLocked,
		&password,
		&room.CreatedBy,
		&room.CreatedAt,
		&room.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if password != nil {
		room.Password = *password
	}
	return room, nil
}

// CreateRoom inserts a new room document; created_at comes from the server clock.
func (s *PostgresStore) CreateRoom(ctx context.Context, room *models.Room) error {
	return s.pool.QueryRow(ctx, `
		INSERT INTO rooms (id, name, description, is_locked, password, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, room.ID, room.Name, room.Description, room.IsLocked, nullable(room.Password), room.CreatedBy).Scan(&room.CreatedAt)
}

// UpdateRoom applies update to an existing room.
func (s *PostgresStore) UpdateRoom(ctx context.Context, id string, update models.RoomUpdate) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE rooms
		SET name = $2, description = $3, is_locked = $4,
		    password = CASE WHEN $5::boolean THEN $6 ELSE password END,
		    updated_at = clock_timestamp()
		WHERE id = $1
	`, id, update.Name, update.Description, update.IsLocked, update.Password != nil, update.Password)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRoomNotFound
	}
	return nil
}

// DeleteRoom removes the room and its messages in a single transaction.
func (s *PostgresStore) DeleteRoom(ctx context.Context, id string) (int64, error) {
	var deleted int64
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		// Lock the room row so concurrent posts see a consistent cascade
		var exists bool
		err := tx.QueryRow(ctx, `SELECT TRUE FROM rooms WHERE id = $1 FOR UPDATE`, id).Scan(&exists)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrRoomNotFound
			}
			return err
		}

		tag, err := tx.Exec(ctx, `DELETE FROM messages WHERE room_id = $1`, id)
		if err != nil {
			return err
		}
		deleted = tag.RowsAffected()

		_, err = tx.Exec(ctx, `DELETE FROM rooms WHERE id = $1`, id)
		return err
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// ListRooms returns every room in creation order.
func (s *PostgresStore) ListRooms(ctx context.Context) ([]models.Room, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, description, is_locked, password, created_by, created_at, updated_at
		FROM rooms
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rooms := []models.Room{}
	for rows.Next() {
		var room models.Room
		var password *string
		err := rows.Scan(
			&room.ID,
			&room.Name,
			&room.Description,
			&room.IsLocked,
			&password,
			&room.CreatedBy,
			&room.CreatedAt,
			&room.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		if password != nil {
			room.Password = *password
		}
		rooms = append(rooms, room)
	}

	return rooms, rows.Err()
}

// AddMessage stores a message; the timestamp is assigned by the database clock.
func (s *PostgresStore) AddMessage(ctx context.Context, msg *models.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	if msg.ID == "" {
		msg.ID = ulid.Make().String()
	}

	snapshot, err := encodeSnapshot(msg.Reply)
	if err != nil {
		return err
	}
	var snapshotArg any
	if snapshot != nil {
		snapshotArg = string(snapshot)
	}
	text, fileURL, fileName, fileType := bodyColumns(msg)

	var ts time.Time
	err = s.pool.QueryRow(ctx, `
		INSERT INTO messages (id, room_id, text, file_url, file_name, file_type, anonymous_id, parent_id, reply_snapshot)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb)
		RETURNING ts
	`, msg.ID, msg.RoomID, text, fileURL, fileName, fileType, msg.AnonymousID, nullable(msg.ParentID), snapshotArg).Scan(&ts)
	if err != nil {
		return err
	}

	ts = ts.UTC()
	msg.Timestamp = &ts
	return nil
}

// GetMessage retrieves a message by ID within a room.
func (s *PostgresStore) GetMessage(ctx context.Context, roomID, msgID string) (*models.Message, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+messageColumns+`
		FROM messages WHERE room_id = $1 AND id = $2
	`, roomID, msgID)

	msg, err := scanPostgresMessage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

// StreamMessages walks the room's messages in timestamp order.
func (s *PostgresStore) StreamMessages(ctx context.Context, roomID string, fn func(models.Message) error) error {
	rows, err := s.pool.Query(ctx, `
		SELECT `+messageColumns+`
		FROM messages WHERE room_id = $1
		ORDER BY ts ASC NULLS LAST, id ASC
	`, roomID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		msg, err := scanPostgresMessage(rows)
		if err != nil {
			return err
		}
		if err := fn(msg); err != nil {
			return err
		}
	}
	return rows.Err()
}

func scanPostgresMessage(row pgx.Row) (models.Message, error) {
	var r messageRow
	var ts *time.Time

	err := row.Scan(
		&r.id,
		&r.roomID,
		&r.text,
		&r.fileURL,
		&r.fileName,
		&r.fileType,
		&r.anonymousID,
		&ts,
		&r.parentID,
		&r.snapshot,
	)
	if err != nil {
		return models.Message{}, err
	}

	msg, err := r.toMessage()
	if err != nil {
		return models.Message{}, err
	}
	if ts != nil {
		utc := ts.UTC()
		msg.Timestamp = &utc
	}
	return msg, nil
}
