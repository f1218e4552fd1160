package remote

import (
	"context"

	"github.com/huangsam/tiercache/internal/contract"
	"github.com/huangsam/tiercache/schema"
	"github.com/stretchr/testify/mock"
)

// MockRemoteStore is a mock implementation of RemoteStore for testing.
type MockRemoteStore struct {
	mock.Mock
}

var _ contract.RemoteStore = &MockRemoteStore{} // Compile-time check

// Fetch implements the RemoteStore interface.
func (m *MockRemoteStore) Fetch(ctx context.Context, collection schema.Collection, key schema.CompositeKey) contract.Result[[]byte] {
	args := m.Called(ctx, collection, key)
	return args.Get(0).(contract.Result[[]byte])
}

// Store implements the RemoteStore interface.
func (m *MockRemoteStore) Store(ctx context.Context, collection schema.Collection, key schema.CompositeKey, payload []byte, writer string) contract.Result[struct{}] {
	args := m.Called(ctx, collection, key, payload, writer)
	return args.Get(0).(contract.Result[struct{}])
}

// Remove implements the RemoteStore interface.
func (m *MockRemoteStore) Remove(ctx context.Context, collection schema.Collection, key schema.CompositeKey, writer string) contract.Result[struct{}] {
	args := m.Called(ctx, collection, key, writer)
	return args.Get(0).(contract.Result[struct{}])
}

// Ping implements the RemoteStore interface.
func (m *MockRemoteStore) Ping(ctx context.Context) contract.Result[struct{}] {
	args := m.Called(ctx)
	return args.Get(0).(contract.Result[struct{}])
}

// Name implements the RemoteStore interface.
func (m *MockRemoteStore) Name() string {
	args := m.Called()
	return args.String(0)
}

// Close implements the RemoteStore interface.
func (m *MockRemoteStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
