package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"photoorganizer/internal/models"
)

// ErrRunNotFound is returned when a run id is not in the history.
var ErrRunNotFound = errors.New("run not found")

// Storage persists the digest cache, run history and review groups
type Storage struct {
	db     *sql.DB
	dbPath string
}

// NewStorage creates a new Storage
func NewStorage(dbPath string) (*Storage, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Digest batches and run saves come from one goroutine at a time;
	// a single connection avoids SQLITE_BUSY between them.
	db.SetMaxOpenConns(1)

	s := &Storage{db: db, dbPath: dbPath}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Current schema version
const schemaVersion = 2

// migrations defines all schema migrations
// Each migration should be idempotent (safe to run multiple times)
var migrations = []struct {
	version     int
	description string
	up          string
}{
	{
		version:     1,
		description: "Initial schema",
		up:          "", // Handled by base schema creation
	},
	{
		version:     2,
		description: "Add failed counter to runs",
		up: `
			ALTER TABLE runs ADD COLUMN failed INTEGER NOT NULL DEFAULT 0;
		`,
	},
}

// init creates the database schema
func (s *Storage) init() error {
	// Create schema_version table first
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	// Create base schema
	schema := `
	CREATE TABLE IF NOT EXISTS digests (
		path TEXT PRIMARY KEY,
		file_size INTEGER NOT NULL,
		mod_time_ns INTEGER NOT NULL,
		digest TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		input_dir TEXT NOT NULL,
		output_dir TEXT NOT NULL,
		duplicate_dir TEXT NOT NULL,
		started_at_ns INTEGER NOT NULL,
		finished_at_ns INTEGER NOT NULL,
		total_scanned INTEGER NOT NULL,
		kept INTEGER NOT NULL,
		exact_duplicates INTEGER NOT NULL,
		visual_duplicates INTEGER NOT NULL,
		skipped INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at_ns);

	CREATE TABLE IF NOT EXISTS review_groups (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		kind TEXT NOT NULL,
		keep TEXT NOT NULL,
		keep_src TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_review_groups_run ON review_groups(run_id);

	CREATE TABLE IF NOT EXISTS review_dupes (
		group_id INTEGER NOT NULL REFERENCES review_groups(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		path TEXT NOT NULL,
		PRIMARY KEY (group_id, position)
	);
	`

	_, err = s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	// Run migrations
	if err := s.migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// migrate runs pending schema migrations
func (s *Storage) migrate() error {
	currentVersion := s.getSchemaVersion()

	for _, m := range migrations {
		if m.version <= currentVersion || m.up == "" {
			continue
		}

		// Check if migration is needed (column might already exist)
		if m.version == 2 {
			if s.columnExists("runs", "failed") {
				s.setSchemaVersion(m.version)
				continue
			}
		}

		// Execute migration
		if _, err := s.db.Exec(m.up); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.version, m.description, err)
		}

		s.setSchemaVersion(m.version)
	}

	return nil
}

// getSchemaVersion returns the current schema version
func (s *Storage) getSchemaVersion() int {
	var version int
	err := s.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version)
	if err != nil {
		return 0
	}
	return version
}

// setSchemaVersion records a migration as applied
func (s *Storage) setSchemaVersion(version int) {
	s.db.Exec(`INSERT OR REPLACE INTO schema_version (version) VALUES (?)`, version)
}

// columnExists checks if a column exists in a table
func (s *Storage) columnExists(table, column string) bool {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?
	`, table, column).Scan(&count)
	if err != nil {
		return false
	}
	return count > 0
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// Path returns the database file path
func (s *Storage) Path() string {
	return s.dbPath
}

// LookupDigest returns the cached digest for path when its size and
// modification time still match.
func (s *Storage) LookupDigest(path string, size int64, modTime time.Time) (models.Digest, bool) {
	var hexDigest string
	err := s.db.QueryRow(`
		SELECT digest FROM digests
		WHERE path = ? AND file_size = ? AND mod_time_ns = ?
	`, path, size, modTime.UnixNano()).Scan(&hexDigest)
	if err != nil {
		return models.Digest{}, false
	}

	d, err := models.ParseDigest(hexDigest)
	if err != nil {
		return models.Digest{}, false
	}
	return d, true
}

// SaveDigests saves or updates multiple cache entries
func (s *Storage) SaveDigests(entries []models.DigestEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO digests (path, file_size, mod_time_ns, digest)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.Exec(e.Path, e.Size, e.ModTime.UnixNano(), e.Digest.String()); err != nil {
			return fmt.Errorf("failed to insert digest %s: %w", e.Path, err)
		}
	}

	return tx.Commit()
}

// DigestCount returns the number of cached digests
func (s *Storage) DigestCount() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM digests").Scan(&count)
	return count, err
}

// SaveRun records a finished run and its review groups
func (s *Storage) SaveRun(run *models.RunRecord, groups []models.ReviewGroup) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sum := run.Summary
	_, err = tx.Exec(`
		INSERT OR REPLACE INTO runs (id, input_dir, output_dir, duplicate_dir, started_at_ns, finished_at_ns,
			total_scanned, kept, exact_duplicates, visual_duplicates, skipped, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.InputDir, run.OutputDir, run.DuplicateDir,
		run.StartedAt.UnixNano(), run.FinishedAt.UnixNano(),
		sum.Scanned, sum.Kept, sum.ExactDuplicates, sum.VisualDuplicates, sum.Skipped, sum.Failed)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM review_dupes WHERE group_id IN (SELECT id FROM review_groups WHERE run_id = ?)`, run.ID); err != nil {
		return fmt.Errorf("failed to reset review dupes: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM review_groups WHERE run_id = ?`, run.ID); err != nil {
		return fmt.Errorf("failed to reset review groups: %w", err)
	}

	groupStmt, err := tx.Prepare(`
		INSERT INTO review_groups (run_id, position, kind, keep, keep_src)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer groupStmt.Close()

	dupeStmt, err := tx.Prepare(`INSERT INTO review_dupes (group_id, position, path) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer dupeStmt.Close()

	for i, g := range groups {
		res, err := groupStmt.Exec(run.ID, i, string(g.Kind), g.Keep, g.KeepSrc)
		if err != nil {
			return fmt.Errorf("failed to insert review group for %s: %w", g.KeepSrc, err)
		}
		groupID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read group id: %w", err)
		}
		for j, dupe := range g.Dupes {
			if _, err := dupeStmt.Exec(groupID, j, dupe); err != nil {
				return fmt.Errorf("failed to insert dupe %s: %w", dupe, err)
			}
		}
	}

	return tx.Commit()
}

const runColumns = `id, input_dir, output_dir, duplicate_dir, started_at_ns, finished_at_ns,
	total_scanned, kept, exact_duplicates, visual_duplicates, skipped, failed`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*models.RunRecord, error) {
	run := &models.RunRecord{}
	var startedNs, finishedNs int64
	err := row.Scan(
		&run.ID,
		&run.InputDir,
		&run.OutputDir,
		&run.DuplicateDir,
		&startedNs,
		&finishedNs,
		&run.Summary.Scanned,
		&run.Summary.Kept,
		&run.Summary.ExactDuplicates,
		&run.Summary.VisualDuplicates,
		&run.Summary.Skipped,
		&run.Summary.Failed,
	)
	if err != nil {
		return nil, err
	}
	run.StartedAt = time.Unix(0, startedNs)
	run.FinishedAt = time.Unix(0, finishedNs)
	return run, nil
}

// GetRuns returns up to limit runs, newest first. limit <= 0 returns all.
func (s *Storage) GetRuns(limit int) ([]*models.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at_ns DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns a single run by id
func (s *Storage) GetRun(id string) (*models.RunRecord, error) {
	run, err := scanRun(s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	return run, nil
}

// LatestRun returns the most recently started run
func (s *Storage) LatestRun() (*models.RunRecord, error) {
	run, err := scanRun(s.db.QueryRow(`SELECT ` + runColumns + ` FROM runs ORDER BY started_at_ns DESC LIMIT 1`))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	return run, nil
}

// GetReviewGroups returns the review groups of a run in recorded order
func (s *Storage) GetReviewGroups(runID string) ([]models.ReviewGroup, error) {
	rows, err := s.db.Query(`
		SELECT g.id, g.kind, g.keep, g.keep_src, d.path
		FROM review_groups g
		LEFT JOIN review_dupes d ON d.group_id = g.id
		WHERE g.run_id = ?
		ORDER BY g.position, d.position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query review groups: %w", err)
	}
	defer rows.Close()

	var (
		groups []models.ReviewGroup
		lastID int64 = -1
	)
	for rows.Next() {
		var (
			id            int64
			kind          string
			keep, keepSrc string
			dupe          sql.NullString
		)
		if err := rows.Scan(&id, &kind, &keep, &keepSrc, &dupe); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if id != lastID {
			groups = append(groups, models.ReviewGroup{
				Kind:    models.ReviewKind(kind),
				Keep:    keep,
				KeepSrc: keepSrc,
				Dupes:   []string{},
			})
			lastID = id
		}
		if dupe.Valid {
			g := &groups[len(groups)-1]
			g.Dupes = append(g.Dupes, dupe.String)
		}
	}
	return groups, rows.Err()
}
