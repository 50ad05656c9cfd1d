// Package archive persists a summary record of each terminal mission.
// Only the outcome is stored, not the live stream: the row is written once
// when a mission completes, fails or is cancelled. Transcripts compress
// well, so they are kept as one zstd blob per mission.
package archive

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"

	"github.com/mtzanidakis/skopos/internal/config"
	"github.com/mtzanidakis/skopos/internal/mission"
)

type Archive struct {
	db  *sql.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// Record is one archived mission.
type Record struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Status     mission.Status  `json:"status"`
	Agents     int             `json:"agents"`
	Messages   int             `json:"messages"`
	Artifacts  int             `json:"artifacts"`
	LastError  string          `json:"last_error,omitempty"`
	Transcript []mission.Entry `json:"transcript,omitempty"`
	ArchivedAt time.Time       `json:"archived_at"`
}

func New(cfg config.ArchiveConfig) (*Archive, error) {
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// Enable WAL mode for concurrent read/write access and set a busy
	// timeout so writers retry instead of immediately returning SQLITE_BUSY.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("exec %s: %w", p, err)
		}
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}

	a := &Archive{db: db, enc: enc, dec: dec}
	if err := a.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return a, nil
}

func (a *Archive) Close() error {
	a.enc.Close()
	a.dec.Close()
	return a.db.Close()
}

func (a *Archive) migrate() error {
	_, err := a.db.Exec(`
		CREATE TABLE IF NOT EXISTS missions (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			status TEXT NOT NULL,
			agents INTEGER NOT NULL DEFAULT 0,
			messages INTEGER NOT NULL DEFAULT 0,
			artifacts INTEGER NOT NULL DEFAULT 0,
			last_error TEXT,
			transcript BLOB,
			archived_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`)
	return err
}

// Record stores the terminal snapshot of a mission, replacing any earlier
// row for the same id.
func (a *Archive) Record(m mission.Mission) error {
	transcript, err := json.Marshal(m.Transcript)
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}
	blob := a.enc.EncodeAll(transcript, nil)

	_, err = a.db.Exec(`
		INSERT INTO missions (id, title, status, agents, messages, artifacts, last_error, transcript, archived_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			status = excluded.status,
			agents = excluded.agents,
			messages = excluded.messages,
			artifacts = excluded.artifacts,
			last_error = excluded.last_error,
			transcript = excluded.transcript,
			archived_at = CURRENT_TIMESTAMP`,
		m.ID, m.Title, string(m.Status), len(m.Agents), len(m.Transcript), len(m.Artifacts), m.LastError, blob)
	if err != nil {
		return fmt.Errorf("record mission: %w", err)
	}
	return nil
}

// Get loads one archived mission with its transcript.
func (a *Archive) Get(id string) (*Record, error) {
	r := &Record{}
	var lastError sql.NullString
	var blob []byte
	err := a.db.QueryRow(`SELECT id, title, status, agents, messages, artifacts, last_error, transcript, archived_at FROM missions WHERE id = ?`, id).
		Scan(&r.ID, &r.Title, &r.Status, &r.Agents, &r.Messages, &r.Artifacts, &lastError, &blob, &r.ArchivedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get mission: %w", err)
	}
	r.LastError = lastError.String

	if len(blob) > 0 {
		transcript, err := a.dec.DecodeAll(blob, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress transcript: %w", err)
		}
		if err := json.Unmarshal(transcript, &r.Transcript); err != nil {
			return nil, fmt.Errorf("unmarshal transcript: %w", err)
		}
	}
	return r, nil
}

// List returns archived mission summaries, newest first, without
// transcripts.
func (a *Archive) List() ([]Record, error) {
	rows, err := a.db.Query(`SELECT id, title, status, agents, messages, artifacts, last_error, archived_at FROM missions ORDER BY archived_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list missions: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var lastError sql.NullString
		if err := rows.Scan(&r.ID, &r.Title, &r.Status, &r.Agents, &r.Messages, &r.Artifacts, &lastError, &r.ArchivedAt); err != nil {
			return nil, fmt.Errorf("scan mission: %w", err)
		}
		r.LastError = lastError.String
		out = append(out, r)
	}
	return out, rows.Err()
}
