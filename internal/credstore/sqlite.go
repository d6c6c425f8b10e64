package credstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jaynikam2005/ai-customer-support-chatbot/internal/token"
)

// SQLiteStore implements Store on a small key/value table. This is the durable
// driver: the credential survives a process restart, nothing else does.
type SQLiteStore struct {
	db   *sql.DB
	skew time.Duration
}

// NewSQLite opens (creating if needed) the credential database at dbPath.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	return NewSQLiteWithSkew(dbPath, token.DefaultSkew)
}

// NewSQLiteWithSkew opens the credential database with an explicit expiry
// safety margin.
func NewSQLiteWithSkew(dbPath string, skew time.Duration) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL keeps concurrent reads from the gateway cheap.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db, skew: skew}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS credentials (
		name       TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Save stores the credential and username in one transaction. Writes that
// collide with a concurrent transaction are retried a few times before the
// error surfaces.
func (s *SQLiteStore) Save(ctx context.Context, tok, username string) error {
	var err error
	for attempt := 0; attempt < saveRetries; attempt++ {
		if err = s.save(ctx, tok, username); err == nil || !isSQLiteConflict(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 50 * time.Millisecond):
		}
	}
	return err
}

const saveRetries = 3

// isSQLiteConflict reports whether the error is a SQLITE_BUSY or "database is
// locked" condition worth retrying.
func isSQLiteConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func (s *SQLiteStore) save(ctx context.Context, tok, username string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO credentials (name, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	now := time.Now().Unix()
	if _, err := tx.ExecContext(ctx, query, keyToken, tok, now); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, keyUsername, username, now); err != nil {
		return fmt.Errorf("save username: %w", err)
	}
	return tx.Commit()
}

// Clear removes all credential state.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM credentials`); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}

// Token returns the stored credential, clearing it first if it has expired.
func (s *SQLiteStore) Token(ctx context.Context) (string, error) {
	tok, err := s.get(ctx, keyToken)
	if err != nil {
		return "", err
	}
	if tok == "" {
		return "", nil
	}
	if token.IsExpired(tok, s.skew) {
		if err := s.Clear(ctx); err != nil {
			return "", err
		}
		return "", nil
	}
	return tok, nil
}

// RawToken returns the stored credential without the expiry check.
func (s *SQLiteStore) RawToken(ctx context.Context) (string, error) {
	return s.get(ctx, keyToken)
}

// Username returns the stored subject identity.
func (s *SQLiteStore) Username(ctx context.Context) (string, error) {
	return s.get(ctx, keyUsername)
}

// Authenticated reports whether a usable credential is stored.
func (s *SQLiteStore) Authenticated(ctx context.Context) bool {
	tok, err := s.Token(ctx)
	return err == nil && tok != ""
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) get(ctx context.Context, name string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM credentials WHERE name = ?`, name).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return value, nil
}
