/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package storage

import (
	"errors"

	"github.com/dgraph-io/badger/v4"
)

// Badger stores values in an embedded badger database. This is the default
// backend.
type Badger struct {
	db   *badger.DB
	logf Logf
}

// OpenBadger opens (or creates) a database in dir. An empty dir keeps the
// database in memory.
func OpenBadger(dir string, logf Logf) (*Badger, error) {
	opts := badger.DefaultOptions(dir).WithLoggingLevel(badger.ERROR)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Badger{db: db, logf: logf}, nil
}

func (b *Badger) IsAvailable() bool {
	if b.db.IsClosed() {
		return false
	}

	return probe(b.set, b.remove)
}

func (b *Badger) Get(key string) (string, bool) {
	if b.db.IsClosed() {
		return "", false
	}

	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return "", false
	case err != nil:
		b.logf.printf("STORE: Failed to get %q from badger: %v", key, err)
		return "", false
	}

	return string(value), true
}

func (b *Badger) Set(key, value string) bool {
	if err := b.set(key, value); err != nil {
		b.logf.printf("STORE: Failed to set %q in badger: %v", key, err)
		return false
	}
	return true
}

func (b *Badger) Remove(key string) bool {
	if err := b.remove(key); err != nil {
		b.logf.printf("STORE: Failed to remove %q from badger: %v", key, err)
		return false
	}
	return true
}

func (b *Badger) Close() error {
	if b.db.IsClosed() {
		return nil
	}
	return b.db.Close()
}

func (b *Badger) set(key, value string) error {
	if b.db.IsClosed() {
		return badger.ErrDBClosed
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
}

func (b *Badger) remove(key string) error {
	if b.db.IsClosed() {
		return badger.ErrDBClosed
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}
