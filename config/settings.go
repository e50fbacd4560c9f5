package config

import (
	"sync"
	"sync/atomic"

	"github.com/sagarc03/tobi"
)

// Setting keys understood by Store.
const (
	KeyHost = "Host"
	KeyPort = "Port"
	KeyPath = "Path"
)

// Store holds the live server settings as an immutable snapshot.
// Readers never block; writers are serialised and publish a new snapshot
// atomically, so a reader sees either the old or the new value of a key,
// never a partial write.
type Store struct {
	mu      sync.Mutex
	current atomic.Pointer[tobi.Settings]
}

// NewStore creates a Store seeded with s.
func NewStore(s tobi.Settings) *Store {
	st := &Store{}
	st.current.Store(&s)
	return st
}

// NewStoreFromConfig seeds a Store from the loaded server configuration.
func NewStoreFromConfig(cfg ServerConfig) *Store {
	return NewStore(tobi.Settings{
		Host: cfg.Host,
		Port: cfg.Port,
		Path: cfg.Path,
	})
}

// Snapshot returns the current settings.
func (s *Store) Snapshot() tobi.Settings {
	return *s.current.Load()
}

// Get returns the value stored under key. The second result is false for
// unknown keys.
func (s *Store) Get(key string) (any, bool) {
	cur := s.current.Load()
	switch key {
	case KeyHost:
		return cur.Host, true
	case KeyPort:
		return cur.Port, true
	case KeyPath:
		return cur.Path, true
	default:
		return nil, false
	}
}

// Set replaces the value under key and reports whether it was accepted.
// Unknown keys, values that are neither string nor int, and values whose
// type does not match the key are rejected.
func (s *Store) Set(key string, value any) bool {
	switch value.(type) {
	case string, int:
	default:
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := *s.current.Load()
	switch key {
	case KeyHost:
		v, ok := value.(string)
		if !ok {
			return false
		}
		next.Host = v
	case KeyPort:
		v, ok := value.(int)
		if !ok {
			return false
		}
		next.Port = v
	case KeyPath:
		v, ok := value.(string)
		if !ok {
			return false
		}
		next.Path = v
	default:
		return false
	}

	s.current.Store(&next)
	return true
}
