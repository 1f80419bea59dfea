package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"

	"github.com/eldtechnologies/roomboard/internal/models"
)

// SQLiteStore handles SQLite database operations.
type SQLiteStore struct {
	db *sql.DB

	// mu serializes message inserts so timestamps never go backwards.
	mu     sync.Mutex
	lastTS int64
	now    func() time.Time
}

// NewSQLiteStore creates a new SQLite store.
// If dbPath is empty, defaults to "./data/roomboard.db". ":memory:" opens a private in-memory database.
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./data/roomboard.db"
	}

	dsn := dbPath
	if dbPath != ":memory:" {
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, err
		}
		dsn = dbPath + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	store := &SQLiteStore{db: db, now: time.Now}

	// Initialize schema
	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if err := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(ts), 0) FROM messages`).Scan(&store.lastTS); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// initSchema creates tables if they don't exist.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS rooms (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		is_locked INTEGER NOT NULL DEFAULT 0,
		password TEXT,
		created_by TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		room_id TEXT NOT NULL,
		text TEXT,
		file_url TEXT,
		file_name TEXT,
		file_type TEXT,
		anonymous_id TEXT NOT NULL DEFAULT '',
		ts INTEGER,
		parent_id TEXT,
		reply_snapshot TEXT,
		CHECK ((text IS NULL) <> (file_url IS NULL))
	);

	CREATE INDEX IF NOT EXISTS idx_messages_room_ts ON messages(room_id, ts, id);
	CREATE INDEX IF NOT EXISTS idx_rooms_created ON rooms(created_at);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() {
	s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetRoom retrieves a room by ID.
func (s *SQLiteStore) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	room := &models.Room{}
	var isLockedInt int
	var password sql.NullString
	var updatedAt sql.NullTime

	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, is_locked, password, created_by, created_at, updated_at
		FROM rooms WHERE id = ?
	`, id).Scan(
		&room.ID,
		&room.Name,
		&room.Description,
		&isLockedInt,
		&password,
		&room.CreatedBy,
		&room.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	room.IsLocked = isLockedInt == 1
	room.Password = password.String
	if updatedAt.Valid {
		room.UpdatedAt = &updatedAt.Time
	}
	return room, nil
}

// CreateRoom inserts a new room document. The creation time is assigned here.
func (s *SQLiteStore) CreateRoom(ctx context.Context, room *models.Room) error {
	now := s.now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rooms (id, name, description, is_locked, password, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, room.ID, room.Name, room.Description, boolToInt(room.IsLocked), nullable(room.Password), room.CreatedBy, now)
	if err != nil {
		return err
	}

	room.CreatedAt = now
	return nil
}

// UpdateRoom applies update to an existing room.
func (s *SQLiteStore) UpdateRoom(ctx context.Context, id string, update models.RoomUpdate) error {
	now := s.now().UTC()

	var (
		res sql.Result
		err error
	)
	if update.Password != nil {
		res, err = s.db.ExecContext(ctx, `
			UPDATE rooms SET name = ?, description = ?, is_locked = ?, password = ?, updated_at = ?
			WHERE id = ?
		`, update.Name, update.Description, boolToInt(update.IsLocked), *update.Password, now, id)
	} else {
		res, err = s.db.ExecContext(ctx, `
			UPDATE rooms SET name = ?, description = ?, is_locked = ?, updated_at = ?
			WHERE id = ?
		`, update.Name, update.Description, boolToInt(update.IsLocked), now, id)
	}
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRoomNotFound
	}
	return nil
}

// DeleteRoom removes the room and its messages in a single transaction.
func (s *SQLiteStore) DeleteRoom(ctx context.Context, id string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM rooms WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrRoomNotFound
		}
		return 0, err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE room_id = ?`, id)
	if err != nil {
		return 0, err
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return deleted, nil
}

// ListRooms returns every room in creation order.
func (s *SQLiteStore) ListRooms(ctx context.Context) ([]models.Room, error) {
	rows, err := s.db.QueryContext(ctx, `
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
		var isLockedInt int
		var password sql.NullString
		var updatedAt sql.NullTime

		err := rows.Scan(
			&room.ID,
			&room.Name,
			&room.Description,
			&isLockedInt,
			&password,
			&room.CreatedBy,
			&room.CreatedAt,
			&updatedAt,
		)
		if err != nil {
			return nil, err
		}

		room.IsLocked = isLockedInt == 1
		room.Password = password.String
		if updatedAt.Valid {
			t := updatedAt.Time
			room.UpdatedAt = &t
		}
		rooms = append(rooms, room)
	}

	return rooms, rows.Err()
}

// nextTimestamp returns a timestamp no earlier than the last one issued. Caller holds mu.
func (s *SQLiteStore) nextTimestamp() int64 {
	ts := s.now().UnixNano()
	if ts < s.lastTS {
		ts = s.lastTS
	}
	return ts
}

// AddMessage stores a message, assigning its ULID and timestamp.
func (s *SQLiteStore) AddMessage(ctx context.Context, msg *models.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	// Generate ULID if not set
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

	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.nextTimestamp()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO messages (`+messageColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, msg.ID, msg.RoomID, text, fileURL, fileName, fileType, msg.AnonymousID, ts, nullable(msg.ParentID), snapshotArg)
	if err != nil {
		return err
	}

	s.lastTS = ts
	stamp := time.Unix(0, ts).UTC()
	msg.Timestamp = &stamp
	return nil
}

// GetMessage retrieves a message by ID within a room.
func (s *SQLiteStore) GetMessage(ctx context.Context, roomID, msgID string) (*models.Message, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+messageColumns+`
		FROM messages WHERE room_id = ? AND id = ?
	`, roomID, msgID)

	msg, err := scanSQLiteMessage(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

// StreamMessages walks the room's messages in timestamp order.
func (s *SQLiteStore) StreamMessages(ctx context.Context, roomID string, fn func(models.Message) error) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+messageColumns+`
		FROM messages WHERE room_id = ?
		ORDER BY ts ASC, id ASC
	`, roomID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		msg, err := scanSQLiteMessage(rows)
		if err != nil {
			return err
		}
		if err := fn(msg); err != nil {
			return err
		}
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteMessage(row rowScanner) (models.Message, error) {
	var r messageRow
	var ts sql.NullInt64

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
	if ts.Valid {
		stamp := time.Unix(0, ts.Int64).UTC()
		msg.Timestamp = &stamp
	}
	return msg, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
