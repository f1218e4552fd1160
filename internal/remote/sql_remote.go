// Package remote provides the adapters for the authoritative remote tier.
package remote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/tiercache/internal/contract"
	"github.com/huangsam/tiercache/internal/iocache"
	"github.com/huangsam/tiercache/schema"
)

// SQLRemote is the remote tier backed by a shared SQL database. Every call is
// bounded by the configured timeout and failures are reported as unsuccessful
// results instead of errors.
type SQLRemote struct {
	store   *iocache.RecordStore
	timeout time.Duration
	now     func() time.Time
}

var _ contract.RemoteStore = &SQLRemote{} // Compile-time check

// NewSQLRemote connects to the remote database. The connection attempt itself
// is bounded by timeout.
func NewSQLRemote(ctx context.Context, backend schema.DatabaseBackend, connStr string, timeout time.Duration) (*SQLRemote, error) {
	if backend == schema.NoneBackend {
		return nil, fmt.Errorf("remote backend none has no SQL store: %w", contract.ErrRemoteUnavailable)
	}
	if timeout <= 0 {
		timeout = contract.DefaultRemoteTimeout
	}

	openCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	store, err := iocache.NewRecordStore(openCtx, iocache.RemoteTable, backend, connStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", contract.ErrRemoteUnavailable, err)
	}
	return &SQLRemote{store: store, timeout: timeout, now: time.Now}, nil
}

// Name identifies the remote backend.
func (r *SQLRemote) Name() string {
	return string(r.store.Backend())
}

// Fetch reads a record. A missing row fails with ErrNotFound, which callers
// must not confuse with a stored empty payload.
func (r *SQLRemote) Fetch(ctx context.Context, collection schema.Collection, key schema.CompositeKey) contract.Result[[]byte] {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	payload, err := r.store.Get(ctx, collection, key)
	if err != nil {
		if errors.Is(err, contract.ErrNotFound) {
			return contract.Fail[[]byte](err)
		}
		return contract.Fail[[]byte](fmt.Errorf("%w: %w", contract.ErrRemoteUnavailable, err))
	}
	return contract.Ok(payload)
}

// Store writes a record on behalf of writer.
func (r *SQLRemote) Store(ctx context.Context, collection schema.Collection, key schema.CompositeKey, payload []byte, writer string) contract.Result[struct{}] {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	err := r.store.Put(ctx, schema.StoredRecord{
		Collection: collection,
		Key:        key,
		Payload:    payload,
		UpdatedAt:  r.now(),
		UpdatedBy:  writer,
	})
	if err != nil {
		return contract.Fail[struct{}](fmt.Errorf("%w: %w", contract.ErrRemoteUnavailable, err))
	}
	return contract.Ok(struct{}{})
}

// Remove deletes a record on behalf of writer.
func (r *SQLRemote) Remove(ctx context.Context, collection schema.Collection, key schema.CompositeKey, _ string) contract.Result[struct{}] {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.store.Delete(ctx, collection, key); err != nil {
		return contract.Fail[struct{}](fmt.Errorf("%w: %w", contract.ErrRemoteUnavailable, err))
	}
	return contract.Ok(struct{}{})
}

// Ping checks reachability.
func (r *SQLRemote) Ping(ctx context.Context) contract.Result[struct{}] {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.store.Ping(ctx); err != nil {
		return contract.Fail[struct{}](fmt.Errorf("%w: %w", contract.ErrRemoteUnavailable, err))
	}
	return contract.Ok(struct{}{})
}

// Close closes the underlying connection pool.
func (r *SQLRemote) Close() error {
	return r.store.Close()
}
