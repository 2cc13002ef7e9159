// Package store persists profiles, session snapshots, and completed
// hand records in SQLite. Snapshots are the fast-moving session state;
// hand records are append-only ground truth that zone statistics are
// recomputed from on restore.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lox/pokertrainer/internal/snapshot"
)

const schema = `
CREATE TABLE IF NOT EXISTS player_profiles (
	id TEXT PRIMARY KEY,
	display_name TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	last_login_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS app_snapshots (
	profile_id TEXT PRIMARY KEY REFERENCES player_profiles(id),
	payload_json TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS hand_records (
	id TEXT PRIMARY KEY,
	profile_id TEXT NOT NULL REFERENCES player_profiles(id),
	zone_id TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	winner TEXT NOT NULL,
	hero_seat TEXT NOT NULL,
	pot INTEGER NOT NULL,
	big_blind INTEGER NOT NULL,
	result_text TEXT NOT NULL,
	stage_chips_json TEXT NOT NULL,
	action_history_json TEXT NOT NULL,
	bankroll_json TEXT NOT NULL,
	hero_stats_json TEXT NOT NULL,
	progress_json TEXT NOT NULL,
	hand_json TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_hand_records_profile_created
	ON hand_records(profile_id, created_at DESC);
`

// ErrSnapshotSchema is returned when a stored snapshot was written by
// an incompatible build.
var ErrSnapshotSchema = errors.New("store: snapshot schema version mismatch")

// Store wraps the SQLite handle.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the trainer database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("store: database path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Profile is a local player identity.
type Profile struct {
	ID          string
	DisplayName string
	CreatedAt   time.Time
	LastLoginAt time.Time
}

// EnsureProfile returns the profile with the given id, creating it on
// first use, and stamps last_login_at either way.
func (s *Store) EnsureProfile(ctx context.Context, id, displayName string) (Profile, error) {
	now := time.Now().UTC()
	var p Profile
	var createdAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, display_name, created_at FROM player_profiles WHERE id = ?`, id,
	).Scan(&p.ID, &p.DisplayName, &createdAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO player_profiles (id, display_name, created_at, last_login_at) VALUES (?, ?, ?, ?)`,
			id, displayName, now.UnixMilli(), now.UnixMilli(),
		); err != nil {
			return Profile{}, fmt.Errorf("store: create profile: %w", err)
		}
		return Profile{ID: id, DisplayName: displayName, CreatedAt: now, LastLoginAt: now}, nil
	case err != nil:
		return Profile{}, fmt.Errorf("store: load profile: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE player_profiles SET last_login_at = ? WHERE id = ?`, now.UnixMilli(), id,
	); err != nil {
		return Profile{}, fmt.Errorf("store: touch profile: %w", err)
	}
	p.CreatedAt = time.UnixMilli(createdAt).UTC()
	p.LastLoginAt = now
	return p, nil
}

// SaveSnapshot upserts the session snapshot for a profile.
func (s *Store) SaveSnapshot(ctx context.Context, profileID string, env snapshot.Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("store: encode snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO app_snapshots (profile_id, payload_json, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(profile_id) DO UPDATE SET payload_json = excluded.payload_json, updated_at = excluded.updated_at`,
		profileID, string(payload), time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("store: save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the stored snapshot for a profile, nil when
// none exists, or ErrSnapshotSchema when the stored version is
// incompatible.
func (s *Store) LoadSnapshot(ctx context.Context, profileID string) (*snapshot.Envelope, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload_json FROM app_snapshots WHERE profile_id = ?`, profileID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: load snapshot: %w", err)
	}
	var env snapshot.Envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return nil, fmt.Errorf("store: decode snapshot: %w", err)
	}
	if env.SchemaVersion != snapshot.SchemaVersion {
		return nil, fmt.Errorf("%w: stored %d, supported %d", ErrSnapshotSchema, env.SchemaVersion, snapshot.SchemaVersion)
	}
	return &env, nil
}
