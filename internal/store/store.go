package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"pma-companion/pkg/models"
)

// Store is the companion's device-local cache. It stands in for the
// browser's localStorage: the persisted session identity, the offline
// chat journal and the permanent-location fallback all live here.
type Store struct {
	db *sql.DB
}

// Open opens or creates the cache database at path.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate cache: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS session (
		id          INTEGER PRIMARY KEY CHECK (id = 1),
		user_id     TEXT NOT NULL,
		username    TEXT NOT NULL,
		is_alzheimer INTEGER NOT NULL DEFAULT 0,
		device_id   TEXT NOT NULL,
		saved_at    TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS chat_messages (
		sender     TEXT NOT NULL,
		message    TEXT NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (sender, created_at)
	);

	CREATE TABLE IF NOT EXISTS permanent_locations (
		patient_id TEXT PRIMARY KEY,
		payload    TEXT NOT NULL,
		saved_at   TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SessionRecord is the persisted identity, restored on restart so the
// user does not have to log in again.
type SessionRecord struct {
	UserID      string
	Username    string
	IsAlzheimer bool
	DeviceID    string
}

func (s *Store) SaveSession(rec SessionRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO session (id, user_id, username, is_alzheimer, device_id, saved_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			username = excluded.username,
			is_alzheimer = excluded.is_alzheimer,
			device_id = excluded.device_id,
			saved_at = excluded.saved_at
	`, rec.UserID, rec.Username, boolToInt(rec.IsAlzheimer), rec.DeviceID, time.Now().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// LoadSession returns the persisted identity, or nil when nobody is
// logged in.
func (s *Store) LoadSession() (*SessionRecord, error) {
	var rec SessionRecord
	var isAlz int
	err := s.db.QueryRow(`
		SELECT user_id, username, is_alzheimer, device_id FROM session WHERE id = 1
	`).Scan(&rec.UserID, &rec.Username, &isAlz, &rec.DeviceID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	rec.IsAlzheimer = isAlz != 0
	return &rec, nil
}

// ClearSession removes the persisted identity (logout).
func (s *Store) ClearSession() error {
	if _, err := s.db.Exec(`DELETE FROM session`); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// AppendChatMessage journals a message for offline history. Duplicate
// (sender, createdAt) pairs are ignored, matching the in-memory dedup
// key.
func (s *Store) AppendChatMessage(msg models.ChatMessage) error {
	_, err := s.db.Exec(`
		INSERT INTO chat_messages (sender, message, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(sender, created_at) DO NOTHING
	`, msg.Sender, msg.Message, msg.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to journal chat message: %w", err)
	}
	return nil
}

// ChatHistory returns the journaled messages from a sender, oldest
// first.
func (s *Store) ChatHistory(sender string) ([]models.ChatMessage, error) {
	rows, err := s.db.Query(`
		SELECT sender, message, created_at FROM chat_messages
		WHERE sender = ?
		ORDER BY created_at ASC
	`, sender)
	if err != nil {
		return nil, fmt.Errorf("failed to read chat history: %w", err)
	}
	defer rows.Close()

	var history []models.ChatMessage
	for rows.Next() {
		var msg models.ChatMessage
		var createdAt string
		if err := rows.Scan(&msg.Sender, &msg.Message, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		msg.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		history = append(history, msg)
	}

	return history, rows.Err()
}

// SavePermanentLocation caches the safe/home coordinate locally, used as
// fallback when the backend is unreachable.
func (s *Store) SavePermanentLocation(patientID string, loc models.SavedLocation) error {
	payload, err := json.Marshal(loc)
	if err != nil {
		return fmt.Errorf("failed to encode location: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO permanent_locations (patient_id, payload, saved_at)
		VALUES (?, ?, ?)
		ON CONFLICT(patient_id) DO UPDATE SET
			payload = excluded.payload,
			saved_at = excluded.saved_at
	`, patientID, string(payload), time.Now().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to cache permanent location: %w", err)
	}
	return nil
}

// PermanentLocation returns the locally cached coordinate, or nil when
// none was ever saved.
func (s *Store) PermanentLocation(patientID string) (*models.SavedLocation, error) {
	var payload string
	err := s.db.QueryRow(`
		SELECT payload FROM permanent_locations WHERE patient_id = ?
	`, patientID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached location: %w", err)
	}

	var loc models.SavedLocation
	if err := json.Unmarshal([]byte(payload), &loc); err != nil {
		return nil, fmt.Errorf("failed to decode cached location: %w", err)
	}
	return &loc, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
