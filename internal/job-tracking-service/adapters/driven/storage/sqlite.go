package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"mechanic-setu/internal/job-tracking-service/core/domain/model"
	"mechanic-setu/internal/mylogger"
)

// Two single-slot tables: the active job and the last submitted form
// draft. The CHECK constraint makes a second record impossible.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS active_job (
	slot INTEGER PRIMARY KEY CHECK (slot = 1),
	payload TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS form_draft (
	slot INTEGER PRIMARY KEY CHECK (slot = 1),
	payload TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// SessionStore persists the one active job across process restarts.
type SessionStore struct {
	db     *sql.DB
	logger mylogger.Logger
}

// New opens (or creates) the store at path. An empty path defaults to
// ~/.mechanic-setu/setu.db.
func New(path string, l mylogger.Logger) (*SessionStore, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		dir := filepath.Join(home, ".mechanic-setu")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		path = filepath.Join(dir, "setu.db")
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}
	return Open(db, l)
}

// Open wires an existing database handle. Tests pass :memory:.
func Open(db *sql.DB, l mylogger.Logger) (*SessionStore, error) {
	if _, err := db.Exec(schemaSQL); err != nil {
		return nil, fmt.Errorf("initializing session store schema: %w", err)
	}
	return &SessionStore{db: db, logger: l.Action("session_store")}, nil
}

func (s *SessionStore) Close() error {
	return s.db.Close()
}

// Load reads the persisted record. Absent rows, corrupt payloads, and
// id mismatches all behave as "no active job"; stale entries are
// expected at this boundary and must never fail the caller.
func (s *SessionStore) Load(expectedRequestID string) (*model.ActiveJobRecord, bool) {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM active_job WHERE slot = 1`).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false
	}
	if err != nil {
		s.logger.Error("reading active job slot", err)
		return nil, false
	}

	var rec model.ActiveJobRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		s.logger.Error("corrupt active job payload, treating as absent", err)
		return nil, false
	}
	if rec.RequestID == "" {
		return nil, false
	}
	if expectedRequestID != "" && rec.RequestID != expectedRequestID {
		s.logger.Warn("stored job does not match expected request",
			"stored", rec.RequestID, "expected", expectedRequestID)
		return nil, false
	}
	return &rec, true
}

// Save overwrites the single slot. Idempotent.
func (s *SessionStore) Save(rec *model.ActiveJobRecord) error {
	if rec == nil {
		return s.Clear()
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding active job: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO active_job (slot, payload, updated_at) VALUES (1, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(slot) DO UPDATE SET payload = excluded.payload, updated_at = CURRENT_TIMESTAMP`,
		string(payload))
	if err != nil {
		return fmt.Errorf("saving active job: %w", err)
	}
	return nil
}

// Clear removes the job slot and the form draft in one transaction, so
// a terminal resolution never leaves half the state behind.
func (s *SessionStore) Clear() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning clear transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM active_job WHERE slot = 1`); err != nil {
		return fmt.Errorf("clearing active job: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM form_draft WHERE slot = 1`); err != nil {
		return fmt.Errorf("clearing form draft: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing clear: %w", err)
	}
	return nil
}

func (s *SessionStore) SaveDraft(d *model.RequestDetails) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encoding form draft: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO form_draft (slot, payload, updated_at) VALUES (1, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(slot) DO UPDATE SET payload = excluded.payload, updated_at = CURRENT_TIMESTAMP`,
		string(payload))
	if err != nil {
		return fmt.Errorf("saving form draft: %w", err)
	}
	return nil
}

func (s *SessionStore) LoadDraft() (*model.RequestDetails, bool) {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM form_draft WHERE slot = 1`).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false
	}
	if err != nil {
		s.logger.Error("reading form draft slot", err)
		return nil, false
	}
	var d model.RequestDetails
	if err := json.Unmarshal([]byte(payload), &d); err != nil {
		s.logger.Error("corrupt form draft payload, treating as absent", err)
		return nil, false
	}
	return &d, true
}
