package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/scribe/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/scribe/internal/core/domain"
	"github.com/custodia-labs/scribe/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to
// all metadata store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.scribe/data/metadata.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".scribe", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "metadata.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SRDStore returns an SRDStore interface backed by this store.
func (s *Store) SRDStore() driven.SRDStore {
	return &srdStore{store: s}
}

// JobStore returns a JobStore interface backed by this store.
func (s *Store) JobStore() driven.JobStore {
	return &jobStore{store: s}
}

// CacheStore returns a CacheStore interface backed by this store.
func (s *Store) CacheStore() driven.CacheStore {
	return &cacheStore{store: s}
}

// migrate runs all pending migrations, each in its own transaction.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", name, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== SRD Store ====================

// srdStore implements driven.SRDStore.
type srdStore struct {
	store *Store
}

var _ driven.SRDStore = (*srdStore)(nil)

// AllocateVersion reserves the next version atomically with an upsert.
func (s *srdStore) AllocateVersion(ctx context.Context, srdID string) (int, error) {
	var version int
	err := s.store.db.QueryRowContext(ctx, `
		INSERT INTO srds (id, current_version, latest_allocated, updated_at)
		VALUES (?, 0, 1, ?)
		ON CONFLICT(id) DO UPDATE SET
			latest_allocated = latest_allocated + 1,
			updated_at = excluded.updated_at
		RETURNING latest_allocated
	`, srdID, time.Now().UnixNano()).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("allocating version for %s: %w", srdID, err)
	}
	return version, nil
}

// PublishVersion raises current_version; older versions never replace newer ones.
func (s *srdStore) PublishVersion(ctx context.Context, srdID string, version int) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO srds (id, current_version, latest_allocated, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			current_version = MAX(current_version, excluded.current_version),
			latest_allocated = MAX(latest_allocated, excluded.latest_allocated),
			updated_at = excluded.updated_at
	`, srdID, version, version, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("publishing %s v%d: %w", srdID, version, err)
	}
	return nil
}

// Get retrieves an SRD record by id.
func (s *srdStore) Get(ctx context.Context, srdID string) (*domain.SRD, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, current_version, latest_allocated, updated_at FROM srds WHERE id = ?
	`, srdID)

	srd, err := scanSRD(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning srd: %w", err)
	}
	return srd, nil
}

// List returns all SRD records ordered by id.
func (s *srdStore) List(ctx context.Context) ([]domain.SRD, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, current_version, latest_allocated, updated_at FROM srds ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying srds: %w", err)
	}
	defer rows.Close()

	var srds []domain.SRD
	for rows.Next() {
		srd, err := scanSRD(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning srd: %w", err)
		}
		srds = append(srds, *srd)
	}
	return srds, rows.Err()
}

// ==================== Job Store ====================

// jobStore implements driven.JobStore.
type jobStore struct {
	store *Store
}

var _ driven.JobStore = (*jobStore)(nil)

// SaveJob inserts or updates a job.
func (s *jobStore) SaveJob(ctx context.Context, job *domain.IngestionJob) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO ingestion_jobs (id, srd_id, version, state, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			srd_id = excluded.srd_id,
			version = excluded.version,
			state = excluded.state,
			error = excluded.error,
			updated_at = excluded.updated_at
	`, job.ID, job.SRDID, job.Version, string(job.State), job.Error,
		job.CreatedAt.UnixNano(), job.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("saving job %s: %w", job.ID, err)
	}
	return nil
}

// GetJob retrieves a job by id.
func (s *jobStore) GetJob(ctx context.Context, id string) (*domain.IngestionJob, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, srd_id, version, state, error, created_at, updated_at
		FROM ingestion_jobs WHERE id = ?
	`, id)

	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning job: %w", err)
	}
	return job, nil
}

// ListJobs returns jobs for an SRD, newest first.
func (s *jobStore) ListJobs(ctx context.Context, srdID string) ([]domain.IngestionJob, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, srd_id, version, state, error, created_at, updated_at
		FROM ingestion_jobs WHERE srd_id = ?
		ORDER BY created_at DESC, id
	`, srdID)
	if err != nil {
		return nil, fmt.Errorf("querying jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.IngestionJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning job: %w", err)
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// ==================== Cache Store ====================

// cacheStore implements driven.CacheStore.
type cacheStore struct {
	store *Store
}

var _ driven.CacheStore = (*cacheStore)(nil)

// GetEntry retrieves a cache entry, expired or not.
func (s *cacheStore) GetEntry(ctx context.Context, key string) (*domain.CacheEntry, error) {
	var entry domain.CacheEntry
	var sourcesJSON, mode string
	var createdAt, ttl int64

	err := s.store.db.QueryRowContext(ctx, `
		SELECT key, srd_id, version, answer, source_chunk_ids, mode, created_at, ttl
		FROM query_cache WHERE key = ?
	`, key).Scan(&entry.Key, &entry.SRDID, &entry.Version, &entry.Answer, &sourcesJSON, &mode, &createdAt, &ttl)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning cache entry: %w", err)
	}

	if err := json.Unmarshal([]byte(sourcesJSON), &entry.SourceChunkIDs); err != nil {
		return nil, fmt.Errorf("unmarshalling source chunk ids: %w", err)
	}
	entry.Mode = domain.AnswerMode(mode)
	entry.CreatedAt = time.Unix(0, createdAt)
	entry.TTL = time.Duration(ttl)

	return &entry, nil
}

// PutEntry inserts or replaces a cache entry.
func (s *cacheStore) PutEntry(ctx context.Context, entry *domain.CacheEntry) error {
	sources := entry.SourceChunkIDs
	if sources == nil {
		sources = []int{}
	}
	sourcesJSON, err := json.Marshal(sources)
	if err != nil {
		return fmt.Errorf("marshalling source chunk ids: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO query_cache (key, srd_id, version, answer, source_chunk_ids, mode, created_at, ttl)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			srd_id = excluded.srd_id,
			version = excluded.version,
			answer = excluded.answer,
			source_chunk_ids = excluded.source_chunk_ids,
			mode = excluded.mode,
			created_at = excluded.created_at,
			ttl = excluded.ttl
	`, entry.Key, entry.SRDID, entry.Version, entry.Answer, string(sourcesJSON), string(entry.Mode),
		entry.CreatedAt.UnixNano(), int64(entry.TTL))
	if err != nil {
		return fmt.Errorf("saving cache entry: %w", err)
	}
	return nil
}

// Purge deletes entries whose TTL elapsed before now.
func (s *cacheStore) Purge(ctx context.Context, now time.Time) (int, error) {
	res, err := s.store.db.ExecContext(ctx, `
		DELETE FROM query_cache WHERE created_at + ttl <= ?
	`, now.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("purging cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purging cache: %w", err)
	}
	return int(n), nil
}

// ==================== Helper Functions ====================

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSRD(row scanner) (*domain.SRD, error) {
	var srd domain.SRD
	var updatedAt int64
	if err := row.Scan(&srd.ID, &srd.CurrentVersion, &srd.LatestAllocated, &updatedAt); err != nil {
		return nil, err
	}
	srd.UpdatedAt = time.Unix(0, updatedAt)
	return &srd, nil
}

func scanJob(row scanner) (*domain.IngestionJob, error) {
	var job domain.IngestionJob
	var state string
	var createdAt, updatedAt int64
	if err := row.Scan(&job.ID, &job.SRDID, &job.Version, &state, &job.Error, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	job.State = domain.IngestionState(state)
	job.CreatedAt = time.Unix(0, createdAt)
	job.UpdatedAt = time.Unix(0, updatedAt)
	return &job, nil
}
