// Package contract provides interfaces and shared utilities for the tiercache internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/tiercache/schema"
)

// Result is the outcome of a remote call. A failed call is a normal outcome
// that triggers fallback, never a panic.
type Result[T any] struct {
	Success bool
	Data    T
	Err     error
}

// Ok wraps a successful remote payload.
func Ok[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

// Fail wraps a failed remote call.
func Fail[T any](err error) Result[T] {
	return Result[T]{Success: false, Err: err}
}

// RemoteStore is the authoritative, multi-device source of truth.
// A missing record is a failed Result wrapping ErrNotFound. Only a stored
// empty payload such as [] or null is an authoritative empty answer.
type RemoteStore interface {
	Fetch(ctx context.Context, collection schema.Collection, key schema.CompositeKey) Result[[]byte]
	Store(ctx context.Context, collection schema.Collection, key schema.CompositeKey, payload []byte, writer string) Result[struct{}]
	Remove(ctx context.Context, collection schema.Collection, key schema.CompositeKey, writer string) Result[struct{}]
	Ping(ctx context.Context) Result[struct{}]
	Name() string
	Close() error
}

// StructuredStore is the high-capacity, device-local record store.
// Get returns ErrNotFound when the record does not exist.
type StructuredStore interface {
	Get(ctx context.Context, collection schema.Collection, key schema.CompositeKey) ([]byte, error)
	Put(ctx context.Context, record schema.StoredRecord) error
	Delete(ctx context.Context, collection schema.Collection, key schema.CompositeKey) error

	// List returns records of a collection whose key starts with prefix.
	// An empty collection lists every collection.
	List(ctx context.Context, collection schema.Collection, prefix schema.CompositeKey) ([]schema.StoredRecord, error)

	// ListRange returns records updated within [start, end] for the given collections.
	// Zero bounds are open and an empty collection list means all collections.
	ListRange(ctx context.Context, start, end time.Time, collections []schema.Collection) ([]schema.StoredRecord, error)

	GetStatus(ctx context.Context) (schema.StructuredStatus, error)
	Close() error
}

// KVEntry is a raw entry of the fallback store.
type KVEntry struct {
	Key       string
	Value     []byte
	UpdatedAt time.Time
}

// FallbackStore is the synchronous, capacity-constrained key/value tier.
// Get returns ErrNotFound for missing keys and Set returns ErrQuotaExceeded
// when the write does not fit.
type FallbackStore interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Remove(key string) error
	Entries() []KVEntry
	Status() schema.FallbackStatus
	Close() error
}

// Codec is the serialization boundary between typed records and tier payloads.
type Codec[T any] interface {
	Encode(value T) ([]byte, error)
	Decode(data []byte) (T, error)

	// IsEmpty reports whether value is an authoritative "nothing here" answer.
	IsEmpty(value T) bool
}

// QueryCache is the short-lived in-memory cache in front of all tiers.
type QueryCache interface {
	Get(op string, params any) (any, bool)
	Set(op string, params any, value any, ttl time.Duration)
	Invalidate(op string, params any)
	Clear()
	Len() int
}
