package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
)

var (
	ErrCacheMiss = errors.New("cache: key not found")
)

// Store keeps raw upstream responses by request key. Entries never expire.
//
// Get reports a miss, never an error, for unknown keys and for entries that
// cannot be read back as JSON. Implementations are safe for sequential use;
// the report client serializes concurrent fetches of the same key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}

// Backend names accepted by configuration.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// usable reports whether b is a well-formed JSON document.
func usable(b []byte) bool {
	return len(bytes.TrimSpace(b)) > 0 && json.Valid(b)
}

// GetJSON reads key from s and decodes it into dest. A decode failure is a miss.
func GetJSON(ctx context.Context, s Store, key string, dest interface{}) bool {
	raw, ok := s.Get(ctx, key)
	if !ok {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

// Nop is a Store that never hits and drops writes.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool) { return nil, false }
func (Nop) Put(context.Context, string, []byte) error  { return nil }
func (Nop) Close() error                               { return nil }
