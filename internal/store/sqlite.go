package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/xielang86/mindora-user/internal/model"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	// synchronous(full) makes every committed Put durable before it returns.
	dsn := dbPath + "?_pragma=journal_mode(wal)&_pragma=synchronous(full)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{db: db, path: dbPath}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS profiles (
		uid        TEXT PRIMARY KEY,
		data       BLOB NOT NULL,
		updated_at TEXT NOT NULL
	);`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, uid string) (*model.UserProfile, bool, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM profiles WHERE uid = ?`, uid).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get profile: %w", err)
	}

	p, err := decodeProfile(uid, data)
	if err != nil {
		return nil, false, err
	}
	return p, true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, p *model.UserProfile) error {
	if p == nil || p.UID == "" {
		return errors.New("put profile: empty uid")
	}

	data, err := encodeProfile(p)
	if err != nil {
		return fmt.Errorf("encode profile %q: %w", p.UID, err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO profiles (uid, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(uid) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		p.UID, data, now)
	if err != nil {
		return fmt.Errorf("put profile: %w", err)
	}
	return nil
}

// Count returns the number of stored profiles.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count profiles: %w", err)
	}
	return n, nil
}

// Close checkpoints the write-ahead log into the main database file and
// closes the database.
func (s *SQLiteStore) Close() error {
	_, cpErr := s.db.Exec(`PRAGMA wal_checkpoint(TRUNCATE)`)
	if cpErr != nil {
		cpErr = fmt.Errorf("checkpoint: %w", cpErr)
	}
	return errors.Join(cpErr, s.db.Close())
}
