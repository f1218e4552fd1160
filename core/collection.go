package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/huangsam/tiercache/internal/contract"
	"github.com/huangsam/tiercache/schema"
)

// dependentQuery maps a written key to another cached query that reads it.
type dependentQuery struct {
	op    string
	scope func(key schema.CompositeKey) schema.CompositeKey
}

// Collection runs the tiered read, write and delete algorithms for one
// content kind. Every accessor on StorageManager is a Collection.
type Collection[T any] struct {
	m          *StorageManager
	name       schema.Collection
	op         string
	arity      int
	codec      contract.Codec[T]
	dependents []dependentQuery
}

func newCollection[T any](m *StorageManager, name schema.Collection, op string, arity int, codec contract.Codec[T]) *Collection[T] {
	return &Collection[T]{m: m, name: name, op: op, arity: arity, codec: codec}
}

// Name returns the collection this accessor serves.
func (c *Collection[T]) Name() schema.Collection {
	return c.name
}

// Arity returns the number of key parts the collection expects.
func (c *Collection[T]) Arity() int {
	return c.arity
}

// Get returns the freshest value for key. The query cache is consulted first,
// then the remote, the structured tier and the fallback tier. The boolean is
// false only when no tier has anything for key.
func (c *Collection[T]) Get(ctx context.Context, key schema.CompositeKey) (T, bool) {
	var zero T
	payload, ok := c.GetPayload(ctx, key)
	if !ok {
		return zero, false
	}
	value, err := c.codec.Decode(payload)
	if err != nil {
		c.m.log.Warn("discarding undecodable payload", "collection", c.name, "key", key.String(), "err", err)
		c.m.query.Invalidate(c.op, c.params(key))
		return zero, false
	}
	return value, true
}

// GetPayload is Get without decoding. The payload is the encoded form that
// was found in the winning tier.
func (c *Collection[T]) GetPayload(ctx context.Context, key schema.CompositeKey) ([]byte, bool) {
	if err := key.Validate(c.arity); err != nil {
		c.m.log.Warn("rejecting read", "collection", c.name, "err", err)
		return nil, false
	}
	params := c.params(key)

	if cached, ok := c.m.query.Get(c.op, params); ok {
		if payload, isBytes := cached.([]byte); isBytes {
			return clone(payload), true
		}
		c.m.query.Invalidate(c.op, params)
	}

	if payload, ok := c.readRemote(ctx, key); ok {
		return payload, true
	}

	st := c.m.structuredTier(ctx)
	if st != nil {
		payload, err := st.Get(ctx, c.name, key)
		switch {
		case err == nil && c.decodable(payload):
			c.m.query.Set(c.op, params, clone(payload), c.m.queryTTL)
			return payload, true
		case err != nil && !errors.Is(err, contract.ErrNotFound):
			c.m.log.Warn("structured read failed", "collection", c.name, "key", key.String(), "err", err)
		}
	}

	payload, err := c.m.fallback.Get(schema.StorageKey(c.name, key))
	if err != nil {
		if !errors.Is(err, contract.ErrNotFound) {
			c.m.log.Warn("fallback read failed", "collection", c.name, "key", key.String(), "err", err)
		}
		return nil, false
	}
	if !c.decodable(payload) {
		return nil, false
	}
	c.m.query.Set(c.op, params, clone(payload), c.m.queryTTL)
	if st != nil {
		record := schema.StoredRecord{Collection: c.name, Key: key, Payload: payload, UpdatedAt: c.m.now()}
		if err := st.Put(ctx, record); err != nil {
			c.m.log.Warn("warming structured tier failed", "collection", c.name, "key", key.String(), "err", err)
		}
	}
	return payload, true
}

// readRemote applies an authoritative remote answer. It reports false when
// the remote could not answer and the local tiers must be consulted.
func (c *Collection[T]) readRemote(ctx context.Context, key schema.CompositeKey) ([]byte, bool) {
	res := guardRemote(c.m, "fetch", func() contract.Result[[]byte] {
		return c.m.remote.Fetch(ctx, c.name, key)
	})
	switch {
	case !res.Success && errors.Is(res.Err, contract.ErrNotFound):
		c.m.log.Debug("remote has no record, using local tiers", "collection", c.name, "key", key.String())
		return nil, false
	case !res.Success:
		c.m.log.Debug("remote read failed, using local tiers", "collection", c.name, "key", key.String(), "err", res.Err)
		return nil, false
	case len(res.Data) == 0:
		// No payload at all is absence, not a stored empty value.
		return nil, false
	}

	value, err := c.codec.Decode(res.Data)
	if err != nil {
		c.m.log.Warn("remote returned an undecodable payload", "collection", c.name, "key", key.String(), "err", err)
		return nil, false
	}
	params := c.params(key)

	if c.codec.IsEmpty(value) {
		empty, err := c.codec.Encode(value)
		if err != nil {
			c.m.log.Warn("failed to encode empty value", "collection", c.name, "err", err)
			return nil, false
		}
		c.m.query.Set(c.op, params, clone(empty), c.m.queryTTL)
		c.clearLocal(ctx, key)
		return empty, true
	}

	c.m.query.Set(c.op, params, clone(res.Data), c.m.queryTTL)
	c.writeLocal(ctx, key, res.Data, "")
	return res.Data, true
}

// Save writes value to every tier that accepts it. The remote is only written
// when the context carries a writer identity. Save fails only when neither
// local tier accepted the write.
func (c *Collection[T]) Save(ctx context.Context, key schema.CompositeKey, value T) bool {
	payload, err := c.codec.Encode(value)
	if err != nil {
		c.m.log.Warn("rejecting write", "collection", c.name, "key", key.String(), "err", err)
		return false
	}
	return c.SavePayload(ctx, key, payload)
}

// SavePayload is Save for an already encoded payload.
func (c *Collection[T]) SavePayload(ctx context.Context, key schema.CompositeKey, payload []byte) bool {
	if err := key.Validate(c.arity); err != nil {
		c.m.log.Warn("rejecting write", "collection", c.name, "err", err)
		return false
	}
	if !c.decodable(payload) {
		return false
	}

	writer := writerFrom(ctx)
	if writer != "" {
		res := guardRemote(c.m, "store", func() contract.Result[struct{}] {
			return c.m.remote.Store(ctx, c.name, key, payload, writer)
		})
		if !res.Success {
			c.m.log.Warn("remote write failed, keeping local copy", "collection", c.name, "key", key.String(), "err", res.Err)
		}
	}

	structuredOK, fallbackOK := c.writeLocal(ctx, key, payload, writer)
	c.invalidate(key)
	if !structuredOK && !fallbackOK {
		c.m.log.Error("write failed on every local tier", "collection", c.name, "key", key.String())
		return false
	}
	c.m.query.Set(c.op, c.params(key), clone(payload), c.m.queryTTL)
	return true
}

// Delete removes key from the remote (when a writer is set) and both local
// tiers. It reports whether at least one local tier dropped the record.
func (c *Collection[T]) Delete(ctx context.Context, key schema.CompositeKey) bool {
	if err := key.Validate(c.arity); err != nil {
		c.m.log.Warn("rejecting delete", "collection", c.name, "err", err)
		return false
	}

	if writer := writerFrom(ctx); writer != "" {
		res := guardRemote(c.m, "remove", func() contract.Result[struct{}] {
			return c.m.remote.Remove(ctx, c.name, key, writer)
		})
		if !res.Success {
			c.m.log.Warn("remote delete failed", "collection", c.name, "key", key.String(), "err", res.Err)
		}
	}

	ok := c.clearLocal(ctx, key)
	c.invalidate(key)
	return ok
}

// writeLocal puts payload into both local tiers. Failures are logged here and
// never escape; a quota error on the fallback tier is expected on large records.
func (c *Collection[T]) writeLocal(ctx context.Context, key schema.CompositeKey, payload []byte, writer string) (structuredOK, fallbackOK bool) {
	if st := c.m.structuredTier(ctx); st != nil {
		record := schema.StoredRecord{Collection: c.name, Key: key, Payload: payload, UpdatedAt: c.m.now(), UpdatedBy: writer}
		if err := st.Put(ctx, record); err != nil {
			c.m.log.Warn("structured write failed", "collection", c.name, "key", key.String(), "err", err)
		} else {
			structuredOK = true
		}
	}

	if err := c.m.fallback.Set(schema.StorageKey(c.name, key), payload); err != nil {
		if errors.Is(err, contract.ErrQuotaExceeded) {
			c.m.log.Info("fallback quota exceeded, record kept in structured tier only", "collection", c.name, "key", key.String())
		} else {
			c.m.log.Warn("fallback write failed", "collection", c.name, "key", key.String(), "err", err)
		}
	} else {
		fallbackOK = true
	}
	return structuredOK, fallbackOK
}

// clearLocal removes key from both local tiers.
func (c *Collection[T]) clearLocal(ctx context.Context, key schema.CompositeKey) bool {
	cleared := false
	if st := c.m.structuredTier(ctx); st != nil {
		if err := st.Delete(ctx, c.name, key); err != nil {
			c.m.log.Warn("structured delete failed", "collection", c.name, "key", key.String(), "err", err)
		} else {
			cleared = true
		}
	}
	if err := c.m.fallback.Remove(schema.StorageKey(c.name, key)); err != nil {
		c.m.log.Warn("fallback delete failed", "collection", c.name, "key", key.String(), "err", err)
	} else {
		cleared = true
	}
	return cleared
}

// invalidate drops the cached result for key and every dependent query.
func (c *Collection[T]) invalidate(key schema.CompositeKey) {
	c.m.query.Invalidate(c.op, c.params(key))
	for _, dep := range c.dependents {
		c.m.query.Invalidate(dep.op, []string(dep.scope(key)))
	}
}

// decodable reports whether payload is a valid encoding for this collection.
func (c *Collection[T]) decodable(payload []byte) bool {
	if _, err := c.codec.Decode(payload); err != nil {
		c.m.log.Warn("ignoring undecodable payload", "collection", c.name, "err", err)
		return false
	}
	return true
}

func (c *Collection[T]) params(key schema.CompositeKey) []string {
	return []string(key)
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}

// guardRemote runs a remote call and turns a panicking adapter into a failed
// result, so a broken remote degrades like an unreachable one.
func guardRemote[R any](m *StorageManager, op string, call func() contract.Result[R]) (res contract.Result[R]) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("remote call panicked", "op", op, "panic", r)
			res = contract.Fail[R](fmt.Errorf("%w: remote %s panicked: %v", contract.ErrRemoteUnavailable, op, r))
		}
	}()
	return call()
}
