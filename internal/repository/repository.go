package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"media-catalog/internal/catalog"
	"media-catalog/internal/logging"
	"media-catalog/internal/metrics"
)

// Default timeout for repository operations
const defaultTimeout = 5 * time.Second

// Store is the persisted item repository consumed by the catalog core.
// Get returns (nil, nil) when no entity exists for the id.
type Store interface {
	Get(ctx context.Context, id string) (catalog.Entity, error)
	Put(ctx context.Context, e catalog.Entity) error
	Delete(ctx context.Context, id string) error
	ListKind(ctx context.Context, kind catalog.Kind) ([]catalog.Entity, error)
	Close() error
}

// SQLite is the sqlite-backed Store used in production.
type SQLite struct {
	db     *sql.DB
	dbPath string
}

// New opens (or creates) the catalog database at dbPath. The parent
// directory must already exist and be writable.
func New(ctx context.Context, dbPath string) (*SQLite, error) {
	logging.Info("Catalog database path: %s", dbPath)

	// WAL mode and busy_timeout prevent "database is locked" errors under
	// concurrent validation passes.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	s := &SQLite{db: db, dbPath: dbPath}

	if err := s.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	logging.Info("Catalog database initialized at %s", dbPath)
	return s, nil
}

func (s *SQLite) initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS items (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		name TEXT NOT NULL,
		path TEXT NOT NULL,
		created INTEGER NOT NULL,
		modified INTEGER NOT NULL,
		payload TEXT NOT NULL,
		updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	CREATE INDEX IF NOT EXISTS idx_items_kind ON items(kind);
	CREATE INDEX IF NOT EXISTS idx_items_path ON items(path);
	CREATE INDEX IF NOT EXISTS idx_items_name ON items(name COLLATE NOCASE);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Get retrieves an entity by id, or (nil, nil) if absent.
func (s *SQLite) Get(ctx context.Context, id string) (catalog.Entity, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var (
		kind, name, path, payload string
		created, modified         int64
	)
	err = s.db.QueryRowContext(ctx,
		"SELECT kind, name, path, created, modified, payload FROM items WHERE id = ?", id,
	).Scan(&kind, &name, &path, &created, &modified, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return decode(catalog.Kind(kind), id, name, path, created, modified, payload)
}

// Put inserts or updates an entity record.
func (s *SQLite) Put(ctx context.Context, e catalog.Entity) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("put", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode entity %s: %w", e.Info().ID, err)
	}

	info := e.Info()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO items (id, kind, name, path, created, modified, payload, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, strftime('%s', 'now'))
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			name = excluded.name,
			path = excluded.path,
			modified = excluded.modified,
			payload = excluded.payload,
			updated_at = strftime('%s', 'now')
	`, info.ID, string(e.Kind()), info.Name, info.Path,
		info.Created.Unix(), info.Modified.Unix(), string(payload))
	return err
}

// Delete removes an entity record by id.
func (s *SQLite) Delete(ctx context.Context, id string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = s.db.ExecContext(ctx, "DELETE FROM items WHERE id = ?", id)
	return err
}

// ListKind returns all entities of a given kind.
func (s *SQLite) ListKind(ctx context.Context, kind catalog.Kind) ([]catalog.Entity, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_kind", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, path, created, modified, payload FROM items WHERE kind = ?", string(kind))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.Entity
	for rows.Next() {
		var (
			id, name, path, payload string
			created, modified       int64
		)
		if err = rows.Scan(&id, &name, &path, &created, &modified, &payload); err != nil {
			return nil, err
		}
		e, decErr := decode(kind, id, name, path, created, modified, payload)
		if decErr != nil {
			logging.Warn("Skipping undecodable entity %s: %v", id, decErr)
			continue
		}
		out = append(out, e)
	}
	err = rows.Err()
	if err != nil {
		return nil, err
	}
	return out, nil
}

// decode reconstructs a concrete entity from a stored row. The payload is
// the JSON encoding written by Put; the scalar columns win on conflict.
func decode(kind catalog.Kind, id, name, path string, created, modified int64, payload string) (catalog.Entity, error) {
	e := catalog.New(kind, name, path, time.Unix(created, 0))
	if err := json.Unmarshal([]byte(payload), e); err != nil {
		return nil, fmt.Errorf("failed to decode entity %s: %w", id, err)
	}

	info := e.Info()
	info.ID = id
	info.Name = name
	info.Path = path
	info.Created = time.Unix(created, 0)
	info.Modified = time.Unix(modified, 0)
	return e, nil
}

// recordQuery records repository query metrics.
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.RepositoryQueriesTotal.WithLabelValues(operation, status).Inc()
	metrics.RepositoryQueryDuration.WithLabelValues(operation).Observe(duration)
}
