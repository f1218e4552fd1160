package iocache

import (
	"context"
	"time"

	"github.com/huangsam/tiercache/internal/contract"
	"github.com/huangsam/tiercache/schema"
	"github.com/stretchr/testify/mock"
)

// MockStructuredStore is a mock implementation of StructuredStore for testing.
type MockStructuredStore struct {
	mock.Mock
}

var _ contract.StructuredStore = &MockStructuredStore{} // Compile-time check

// Get implements the StructuredStore interface.
func (m *MockStructuredStore) Get(ctx context.Context, collection schema.Collection, key schema.CompositeKey) ([]byte, error) {
	args := m.Called(ctx, collection, key)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

// Put implements the StructuredStore interface.
func (m *MockStructuredStore) Put(ctx context.Context, record schema.StoredRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// Delete implements the StructuredStore interface.
func (m *MockStructuredStore) Delete(ctx context.Context, collection schema.Collection, key schema.CompositeKey) error {
	args := m.Called(ctx, collection, key)
	return args.Error(0)
}

// List implements the StructuredStore interface.
func (m *MockStructuredStore) List(ctx context.Context, collection schema.Collection, prefix schema.CompositeKey) ([]schema.StoredRecord, error) {
	args := m.Called(ctx, collection, prefix)
	records, _ := args.Get(0).([]schema.StoredRecord)
	return records, args.Error(1)
}

// ListRange implements the StructuredStore interface.
func (m *MockStructuredStore) ListRange(ctx context.Context, start, end time.Time, collections []schema.Collection) ([]schema.StoredRecord, error) {
	args := m.Called(ctx, start, end, collections)
	records, _ := args.Get(0).([]schema.StoredRecord)
	return records, args.Error(1)
}

// GetStatus implements the StructuredStore interface.
func (m *MockStructuredStore) GetStatus(ctx context.Context) (schema.StructuredStatus, error) {
	args := m.Called(ctx)
	return args.Get(0).(schema.StructuredStatus), args.Error(1)
}

// Close implements the StructuredStore interface.
func (m *MockStructuredStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
