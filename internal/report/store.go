// Package report persists run history and renders operator-facing
// summaries of dispatch outcomes.
package report

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"quantum/internal/config"
	"quantum/internal/dispatch"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped whenever schema.sql changes; mismatched
// databases must be deleted and recreated.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created by a different
// release.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Run is one persisted invocation.
type Run struct {
	ID          string
	CreatedAt   time.Time
	Input       string
	Strategy    string
	Preset      string
	TotalTracks int
	Succeeded   int
	Cohesion    *float64
}

// TrackRecord is one persisted engine call within a run.
type TrackRecord struct {
	RunID        string
	Position     int
	Candidate    string
	Profile      string
	Preset       string
	OutputPath   string
	Success      bool
	ErrorMessage string
}

// Store manages run history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the run history database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "runs.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// SaveOutcome records one dispatched run and its per-track results.
func (s *Store) SaveOutcome(ctx context.Context, input, presetName string, outcome dispatch.Outcome) (Run, error) {
	run := Run{
		ID:          uuid.NewString(),
		CreatedAt:   time.Now().UTC(),
		Input:       input,
		Strategy:    string(outcome.Strategy),
		Preset:      presetName,
		TotalTracks: len(outcome.Tracks),
		Succeeded:   outcome.Succeeded(),
	}
	if outcome.Album != nil {
		cohesion := outcome.Album.Cohesion
		run.Cohesion = &cohesion
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("begin run tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, input, strategy, preset, total_tracks, succeeded, cohesion)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.CreatedAt.Format(time.RFC3339Nano),
		run.Input,
		run.Strategy,
		nullableString(run.Preset),
		run.TotalTracks,
		run.Succeeded,
		nullableFloat(run.Cohesion),
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}

	for i, track := range outcome.Tracks {
		message := ""
		if track.Err != nil {
			message = track.Err.Error()
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_tracks (run_id, position, candidate, profile, preset, output_path, success, error_message)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID,
			i,
			track.Candidate.ID(),
			nullableString(track.Profile),
			nullableString(track.Preset),
			nullableString(track.OutputPath),
			boolToInt(track.Succeeded()),
			nullableString(message),
		)
		if err != nil {
			return Run{}, fmt.Errorf("insert run track %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("commit run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, input, strategy, preset, total_tracks, succeeded, cohesion
		 FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var (
			run       Run
			createdAt string
			preset    sql.NullString
			cohesion  sql.NullFloat64
		)
		if err := rows.Scan(&run.ID, &createdAt, &run.Input, &run.Strategy, &preset,
			&run.TotalTracks, &run.Succeeded, &cohesion); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if ts, parseErr := time.Parse(time.RFC3339Nano, createdAt); parseErr == nil {
			run.CreatedAt = ts
		}
		run.Preset = preset.String
		if cohesion.Valid {
			value := cohesion.Float64
			run.Cohesion = &value
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// FindRunIDs returns the ids of runs whose id starts with prefix, newest
// first. The full history is searched, not just the listing window.
func (s *Store) FindRunIDs(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM runs WHERE id LIKE ? || '%' ORDER BY created_at DESC`, prefix)
	if err != nil {
		return nil, fmt.Errorf("find runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan run id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Tracks returns the per-track records of one run in dispatch order.
func (s *Store) Tracks(ctx context.Context, runID string) ([]TrackRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, position, candidate, profile, preset, output_path, success, error_message
		 FROM run_tracks WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("list run tracks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tracks []TrackRecord
	for rows.Next() {
		var (
			record     TrackRecord
			profile    sql.NullString
			preset     sql.NullString
			outputPath sql.NullString
			message    sql.NullString
			success    int
		)
		if err := rows.Scan(&record.RunID, &record.Position, &record.Candidate, &profile,
			&preset, &outputPath, &success, &message); err != nil {
			return nil, fmt.Errorf("scan run track: %w", err)
		}
		record.Profile = profile.String
		record.Preset = preset.String
		record.OutputPath = outputPath.String
		record.Success = success != 0
		record.ErrorMessage = message.String
		tracks = append(tracks, record)
	}
	return tracks, rows.Err()
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableFloat(value *float64) any {
	if value == nil {
		return nil
	}
	return *value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
