// Package rdx caches rendered exports, in redis when configured.
package rdx

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Cache stores rendered exports keyed by document and content hash.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	// Invalidate drops every entry of a document.
	Invalidate(ctx context.Context, docID string) error
}

const prefix = "export"

// Key builds export:<kind>:<docID>:<hash>. The hash covers every part, so an
// edited document or a changed overlay never hits a stale entry.
func Key(kind, docID string, parts ...[]byte) string {
	d := xxhash.New()
	for _, p := range parts {
		_, _ = d.Write(p)
		_, _ = d.Write([]byte{0})
	}
	return fmt.Sprintf("%s:%s:%s:%s", prefix, kind, docID, strconv.FormatUint(d.Sum64(), 16))
}

func docPattern(docID string) string {
	return fmt.Sprintf("%s:*:%s:*", prefix, docID)
}

func belongsTo(key, docID string) bool {
	parts := strings.Split(key, ":")
	return len(parts) == 4 && parts[0] == prefix && parts[2] == docID
}

type entry struct {
	val     []byte
	expires time.Time
}

// Memory is the in-process Cache used without redis.
type Memory struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]entry), now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && m.now().After(e.expires) {
		delete(m.entries, key)
		return nil, false, nil
	}
	return append([]byte(nil), e.val...), true, nil
}

func (m *Memory) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := entry{val: append([]byte(nil), val...)}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.entries[key] = e
	return nil
}

func (m *Memory) Invalidate(_ context.Context, docID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.entries {
		if belongsTo(k, docID) {
			delete(m.entries, k)
		}
	}
	return nil
}

// Len is the number of live and expired entries.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
