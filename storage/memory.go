/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package storage

import "sync"

// Memory keeps everything in a map. Nothing survives a restart.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) IsAvailable() bool {
	return true
}

func (m *Memory) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]
	return v, ok
}

func (m *Memory) Set(key, value string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = value
	return true
}

func (m *Memory) Remove(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)
	return true
}

func (m *Memory) Close() error {
	return nil
}
