package redis

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Memory is an in-process IRedis used when REDIS_ENABLED is false and in
// tests. Values are JSON-encoded on Set exactly like Client does.
type Memory struct {
	mu    sync.Mutex
	items map[string]memoryEntry
	now   func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		items: make(map[string]memoryEntry),
		now:   time.Now,
	}
}

func (m *Memory) Set(key string, value any, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry := memoryEntry{value: string(data)}
	if expiration > 0 {
		entry.expiresAt = m.now().Add(expiration)
	}
	m.items[key] = entry
	return nil
}

func (m *Memory) Get(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.items[key]
	if !ok {
		return "", nil
	}
	if entry.expired(m.now()) {
		delete(m.items, key)
		return "", nil
	}
	return entry.value, nil
}

func (m *Memory) Del(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

func (m *Memory) Expire(key string, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.items[key]
	if !ok {
		return nil
	}
	entry.expiresAt = m.now().Add(expiration)
	m.items[key] = entry
	return nil
}

func (m *Memory) Incr(key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	if entry, ok := m.items[key]; ok && !entry.expired(m.now()) {
		parsed, err := strconv.ParseInt(entry.value, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("failed to incr key %s: value is not an integer", key)
		}
		n = parsed
	}
	n++
	m.items[key] = memoryEntry{value: strconv.FormatInt(n, 10)}
	return n, nil
}

func (m *Memory) Ping() error {
	return nil
}

func (m *Memory) Close() error {
	return nil
}
