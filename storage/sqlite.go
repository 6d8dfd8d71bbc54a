/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const (
	sqliteSchema = `CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`
	sqliteGet    = `SELECT value FROM kv WHERE key = ?`
	sqliteSet    = `INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	sqliteRemove = `DELETE FROM kv WHERE key = ?`
)

// SQLite stores values in a single key/value table.
type SQLite struct {
	db   *sql.DB
	logf Logf
}

// OpenSQLite opens (or creates) the database file at path.
func OpenSQLite(path string, logf Logf) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}

	return &SQLite{db: db, logf: logf}, nil
}

func (s *SQLite) IsAvailable() bool {
	return probe(s.set, s.remove)
}

func (s *SQLite) Get(key string) (string, bool) {
	var value string
	err := s.db.QueryRow(sqliteGet, key).Scan(&value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", false
	case err != nil:
		s.logf.printf("STORE: Failed to get %q from sqlite: %v", key, err)
		return "", false
	}

	return value, true
}

func (s *SQLite) Set(key, value string) bool {
	if err := s.set(key, value); err != nil {
		s.logf.printf("STORE: Failed to set %q in sqlite: %v", key, err)
		return false
	}
	return true
}

func (s *SQLite) Remove(key string) bool {
	if err := s.remove(key); err != nil {
		s.logf.printf("STORE: Failed to remove %q from sqlite: %v", key, err)
		return false
	}
	return true
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) set(key, value string) error {
	_, err := s.db.Exec(sqliteSet, key, value)
	return err
}

func (s *SQLite) remove(key string) error {
	_, err := s.db.Exec(sqliteRemove, key)
	return err
}
