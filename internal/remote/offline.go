package remote

import (
	"context"
	"fmt"
	"time"

	"github.com/huangsam/tiercache/internal/contract"
	"github.com/huangsam/tiercache/schema"
)

// Offline is the remote tier used when no remote backend is configured or
// reachable. Every call fails so reads fall through to the local tiers.
type Offline struct {
	reason error
}

var _ contract.RemoteStore = &Offline{} // Compile-time check

// NewOffline returns an Offline remote. reason may be nil.
func NewOffline(reason error) *Offline {
	return &Offline{reason: reason}
}

func (o *Offline) err() error {
	if o.reason == nil {
		return contract.ErrRemoteUnavailable
	}
	return fmt.Errorf("%w: %w", contract.ErrRemoteUnavailable, o.reason)
}

// Name implements the RemoteStore interface.
func (o *Offline) Name() string {
	return string(schema.NoneBackend)
}

// Fetch implements the RemoteStore interface.
func (o *Offline) Fetch(context.Context, schema.Collection, schema.CompositeKey) contract.Result[[]byte] {
	return contract.Fail[[]byte](o.err())
}

// Store implements the RemoteStore interface.
func (o *Offline) Store(context.Context, schema.Collection, schema.CompositeKey, []byte, string) contract.Result[struct{}] {
	return contract.Fail[struct{}](o.err())
}

// Remove implements the RemoteStore interface.
func (o *Offline) Remove(context.Context, schema.Collection, schema.CompositeKey, string) contract.Result[struct{}] {
	return contract.Fail[struct{}](o.err())
}

// Ping implements the RemoteStore interface.
func (o *Offline) Ping(context.Context) contract.Result[struct{}] {
	return contract.Fail[struct{}](o.err())
}

// Close implements the RemoteStore interface.
func (o *Offline) Close() error {
	return nil
}

// Connect opens the configured remote. Connection failures degrade to Offline
// and are logged, so callers always get a usable RemoteStore.
func Connect(ctx context.Context, backend schema.DatabaseBackend, connStr string, timeout time.Duration) contract.RemoteStore {
	if backend == "" || backend == schema.NoneBackend {
		return NewOffline(nil)
	}
	r, err := NewSQLRemote(ctx, backend, connStr, timeout)
	if err != nil {
		contract.Logger().Warn("remote store unavailable, continuing offline", "backend", backend, "err", err)
		return NewOffline(err)
	}
	return r
}
