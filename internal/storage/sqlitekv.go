package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/valter-silva-au/taskdesk/internal/clock"
)

// sqliteKV stores keys in a single table. expires_at holds unix
// milliseconds, NULL for keys without expiry.
type sqliteKV struct {
	db    *sql.DB
	clock clock.Clock
}

// NewSQLiteKV opens (creating if needed) the SQLite database at dbPath and
// returns a KeyValueStore over it. A leading "~" is expanded to the home
// directory.
func NewSQLiteKV(dbPath string, clk clock.Clock) (KeyValueStore, error) {
	if clk == nil {
		clk = clock.Real()
	}
	if strings.HasPrefix(dbPath, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", dbPath, err)
	}
	// A single connection keeps ":memory:" databases shared and serialises
	// writers.
	db.SetMaxOpenConns(1)

	store := &sqliteKV{db: db, clock: clk}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating %s: %w", dbPath, err)
	}
	return store, nil
}

func (s *sqliteKV) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			expires_at INTEGER
		);

		CREATE INDEX IF NOT EXISTS idx_kv_expires ON kv(expires_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *sqliteKV) nowMillis() int64 {
	return s.clock.Now().UnixMilli()
}

// liveClause filters out expired rows; its single parameter is the current
// time in unix milliseconds.
const liveClause = `(expires_at IS NULL OR expires_at > ?)`

func (s *sqliteKV) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE key = ? AND `+liveClause, key, s.nowMillis(),
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading %s: %w", key, err)
	}
	return value, true, nil
}

func (s *sqliteKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	var expires any
	if ttl > 0 {
		expires = s.clock.Now().Add(ttl).UnixMilli()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at
	`, key, value, expires)
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func (s *sqliteKV) Incr(ctx context.Context, key string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("incrementing %s: %w", key, err)
	}
	defer tx.Rollback()

	now := s.nowMillis()
	var (
		raw     string
		expires sql.NullInt64
		n       int64
	)
	err = tx.QueryRowContext(ctx,
		`SELECT value, expires_at FROM kv WHERE key = ? AND `+liveClause, key, now,
	).Scan(&raw, &expires)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		expires = sql.NullInt64{}
	case err != nil:
		return 0, fmt.Errorf("incrementing %s: %w", key, err)
	default:
		n, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("incrementing %s: %w", key, ErrNotInteger)
		}
	}
	n++

	var expiresArg any
	if expires.Valid {
		expiresArg = expires.Int64
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO kv (key, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at
	`, key, strconv.FormatInt(n, 10), expiresArg)
	if err != nil {
		return 0, fmt.Errorf("incrementing %s: %w", key, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("incrementing %s: %w", key, err)
	}
	return n, nil
}

func (s *sqliteKV) Expire(ctx context.Context, key string, ttl time.Duration) error {
	now := s.nowMillis()
	var err error
	if ttl <= 0 {
		_, err = s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	} else {
		_, err = s.db.ExecContext(ctx,
			`UPDATE kv SET expires_at = ? WHERE key = ? AND `+liveClause,
			s.clock.Now().Add(ttl).UnixMilli(), key, now)
	}
	if err != nil {
		return fmt.Errorf("setting expiry on %s: %w", key, err)
	}
	return nil
}

func (s *sqliteKV) TTL(ctx context.Context, key string) (time.Duration, error) {
	now := s.nowMillis()
	var expires sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT expires_at FROM kv WHERE key = ? AND `+liveClause, key, now,
	).Scan(&expires)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !expires.Valid) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading expiry of %s: %w", key, err)
	}
	return time.Duration(expires.Int64-now) * time.Millisecond, nil
}

func (s *sqliteKV) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	args := make([]any, len(keys))
	for i, key := range keys {
		args[i] = key
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key IN (`+placeholders+`)`, args...); err != nil {
		return fmt.Errorf("deleting keys: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *sqliteKV) Close() error {
	return s.db.Close()
}

// PurgeExpired deletes every expired row and returns how many were removed.
func PurgeExpired(ctx context.Context, kv KeyValueStore) (int64, error) {
	s, ok := kv.(*sqliteKV)
	if !ok {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM kv WHERE expires_at IS NOT NULL AND expires_at <= ?`, s.nowMillis())
	if err != nil {
		return 0, fmt.Errorf("purging expired keys: %w", err)
	}
	return res.RowsAffected()
}
