// Package cache keeps the last known campaign list in a local SQLite file so the
// dashboard can still show data when the record store is unreachable.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jonathan/buyside/internal/logging"
	"github.com/jonathan/buyside/internal/schemas"
	"github.com/jonathan/buyside/internal/types"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// CampaignsKey is the single slot the campaign list is stored under.
const CampaignsKey = "buyside_campaigns"

const createTable = `CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

// Store is a SQLite-backed key/value cache.
type Store struct {
	sqlDB  *sql.DB
	logger *zap.Logger
}

// Open opens (creating if needed) the cache file at path.
// Use ":memory:" for a throwaway cache.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("cache path is required")
	}

	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite cache: %w", err)
	}
	// One connection keeps ":memory:" databases shared across calls.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite cache: %w", err)
	}
	if _, err := sqlDB.Exec(createTable); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create cache table: %w", err)
	}

	return &Store{sqlDB: sqlDB, logger: logging.OrNop(logger)}, nil
}

// Close releases the underlying SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Load returns the cached campaign list. A missing slot, unreadable JSON, or a
// payload that fails schema validation all yield an empty list; only I/O
// failures are returned as errors.
func (s *Store) Load(ctx context.Context) ([]types.Campaign, error) {
	if s == nil || s.sqlDB == nil {
		return []types.Campaign{}, nil
	}

	var payload string
	err := s.sqlDB.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, CampaignsKey).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return []types.Campaign{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache: %w", err)
	}

	if err := schemas.Validate(schemas.CampaignList, payload); err != nil {
		s.logger.Warn("discarding corrupt campaign cache", zap.Error(err))
		return []types.Campaign{}, nil
	}

	var campaigns []types.Campaign
	if err := json.Unmarshal([]byte(payload), &campaigns); err != nil {
		s.logger.Warn("discarding corrupt campaign cache", zap.Error(err))
		return []types.Campaign{}, nil
	}
	if campaigns == nil {
		campaigns = []types.Campaign{}
	}
	return campaigns, nil
}

// Save replaces the cached campaign list.
func (s *Store) Save(ctx context.Context, campaigns []types.Campaign) error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	if campaigns == nil {
		campaigns = []types.Campaign{}
	}

	payload, err := json.Marshal(campaigns)
	if err != nil {
		return fmt.Errorf("marshal campaigns: %w", err)
	}

	if err := s.put(ctx, string(payload)); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	return nil
}

// put upserts payload under the campaigns key.
func (s *Store) put(ctx context.Context, payload string) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		CampaignsKey, payload)
	return err
}
