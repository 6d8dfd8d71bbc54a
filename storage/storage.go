/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package storage is a best-effort key/value store for the session's roster
// and host history. Every operation reports failure through its return value;
// none of them panic or return errors, so callers can fall back to running
// in memory.
package storage

//go:generate go run go.uber.org/mock/mockgen -source=storage.go -destination=../mocks/mock_store.go -package=mocks

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

const (
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"

	probeKey = "__storage_test__"
)

// Backends lists the accepted values for Open.
var Backends = []string{BackendBadger, BackendSQLite, BackendMemory}

// Store is the persistence contract. Get reports ok=false both for a missing
// key and for a read that failed.
type Store interface {
	IsAvailable() bool
	Get(key string) (string, bool)
	Set(key, value string) bool
	Remove(key string) bool
}

// Backend is a Store that holds resources.
type Backend interface {
	Store
	io.Closer
}

// Logf receives warnings about failed operations.
type Logf func(format string, args ...any)

func (l Logf) printf(format string, args ...any) {
	if l != nil {
		l(format, args...)
	}
}

// Open returns the named backend rooted at dir.
func Open(backend, dir string, logf Logf) (Backend, error) {
	switch strings.ToLower(backend) {
	case BackendBadger:
		return OpenBadger(filepath.Join(dir, "badger"), logf)
	case BackendSQLite:
		return OpenSQLite(filepath.Join(dir, "hostroulette.db"), logf)
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q (expected one of %s)",
			backend, strings.Join(Backends, ", "))
	}
}

// probe writes and removes a throwaway key, the cheapest way to find out
// whether the medium accepts writes right now.
func probe(set func(key, value string) error, remove func(key string) error) bool {
	if err := set(probeKey, probeKey); err != nil {
		return false
	}
	return remove(probeKey) == nil
}
