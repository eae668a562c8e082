package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"ssal/internal/metrics"
)

// Entry is one key/value pair of an atomic write.
type Entry struct {
	Key   string `json:"key"`
	Value []byte `json:"value"`
}

// Engine is a storage backend. Write must apply all entries or none.
type Engine interface {
	Get(key string) ([]byte, bool, error)
	Write(entries []Entry) error
	Close() error
}

type Reader interface {
	Get(key string) ([]byte, bool, error)
}

// KV is the locking key-value capability the registries and the sequencer
// are built on.
type KV interface {
	Reader
	Put(entries ...Entry) error
	Lock(ctx context.Context, keys ...string) (*Lock, error)
}

type Store struct {
	engine      Engine
	locks       *keyLocks
	lockTimeout time.Duration
	closed      atomic.Bool
}

func New(engine Engine, lockTimeout time.Duration) *Store {
	return &Store{
		engine:      engine,
		locks:       newKeyLocks(),
		lockTimeout: lockTimeout,
	}
}

// NewMemory returns a store over a fresh in-memory engine.
func NewMemory(lockTimeout time.Duration) *Store {
	return New(NewMemoryEngine(), lockTimeout)
}

func (s *Store) Get(key string) ([]byte, bool, error) {
	if s.closed.Load() {
		return nil, false, ErrClosed
	}
	metrics.StorageOperationsTotal.WithLabelValues("get").Inc()

	v, ok, err := s.engine.Get(key)
	if err != nil {
		metrics.StorageErrorsTotal.WithLabelValues("get").Inc()
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return v, ok, nil
}

func (s *Store) Put(entries ...Entry) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if len(entries) == 0 {
		return nil
	}
	metrics.StorageOperationsTotal.WithLabelValues("put").Inc()

	if err := s.engine.Write(entries); err != nil {
		metrics.StorageErrorsTotal.WithLabelValues("put").Inc()
		return fmt.Errorf("put %d entries: %w", len(entries), err)
	}
	return nil
}

// Lock blocks until every key is held or the configured lock timeout
// expires, whichever comes first.
func (s *Store) Lock(ctx context.Context, keys ...string) (*Lock, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	return s.locks.acquire(ctx, s.lockTimeout, keys)
}

func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.engine.Close()
}

// Load decodes the JSON value under key into v. It reports false when the
// key is absent, leaving v untouched.
func Load[T any](r Reader, key string, v *T) (bool, error) {
	data, ok, err := r.Get(key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func JSONEntry(key string, v any) (Entry, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Entry{}, fmt.Errorf("encode %s: %w", key, err)
	}
	return Entry{Key: key, Value: data}, nil
}
