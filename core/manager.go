// Package core has the storage manager that mediates every read and write
// across the remote, structured and fallback tiers.
package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/huangsam/tiercache/internal/contract"
	"github.com/huangsam/tiercache/internal/iocache"
	"github.com/huangsam/tiercache/internal/querycache"
	"github.com/huangsam/tiercache/internal/remote"
	"github.com/huangsam/tiercache/schema"
)

// StructuredOpener opens the structured local tier.
type StructuredOpener func(ctx context.Context) (contract.StructuredStore, error)

// Options configures a StorageManager.
type Options struct {
	// Remote is the authoritative tier. Nil means offline.
	Remote contract.RemoteStore

	// OpenStructured opens the structured tier during initialization.
	// Nil disables the tier.
	OpenStructured StructuredOpener

	// Fallback is the synchronous key/value tier. Nil uses a memory-only store.
	Fallback contract.FallbackStore

	// Query overrides the query cache. Nil builds one from QueryTTL and QueryMaxEntries.
	Query contract.QueryCache

	QueryTTL        time.Duration
	QueryMaxEntries int
	Logger          *log.Logger
	Now             func() time.Time
}

// StorageManager is the facade over all storage tiers. It is safe for
// concurrent use. The zero value is not usable; call NewStorageManager.
type StorageManager struct {
	remote   contract.RemoteStore
	fallback contract.FallbackStore
	query    contract.QueryCache
	queryTTL time.Duration
	log      *log.Logger
	now      func() time.Time

	openStructured StructuredOpener
	initOnce       sync.Once
	ready          chan struct{}
	structured     contract.StructuredStore
	availability   schema.TierAvailability

	closeOnce sync.Once
	closeErr  error

	books       *Collection[[]schema.Book]
	series      *Collection[[]schema.Series]
	chapters    *Collection[[]schema.Chapter]
	lessons     *Collection[[]schema.Lesson]
	quizzes     *Collection[*schema.Quiz]
	exams       *Collection[[]schema.ExamSummary]
	exam        *Collection[*schema.Exam]
	levelConfig *Collection[*schema.LevelConfig]
}

// NewStorageManager builds a manager. The structured tier is opened lazily by
// the first operation, or explicitly by EnsureInitialized.
func NewStorageManager(opts Options) *StorageManager {
	m := &StorageManager{
		remote:         opts.Remote,
		fallback:       opts.Fallback,
		query:          opts.Query,
		queryTTL:       opts.QueryTTL,
		log:            opts.Logger,
		now:            opts.Now,
		openStructured: opts.OpenStructured,
		ready:          make(chan struct{}),
	}
	if m.remote == nil {
		m.remote = remote.NewOffline(nil)
	}
	if m.queryTTL <= 0 {
		m.queryTTL = contract.DefaultQueryTTL
	}
	if m.query == nil {
		m.query = querycache.New(opts.QueryMaxEntries, querycache.WithDefaultTTL(m.queryTTL))
	}
	if m.log == nil {
		m.log = contract.Logger()
	}
	if m.now == nil {
		m.now = time.Now
	}
	m.availability.Fallback = m.fallback != nil
	if m.fallback == nil {
		m.fallback, _ = iocache.NewKVStore("", 0)
	}
	m.registerCollections()
	return m
}

// NewStorageManagerFromConfig wires the tiers described by cfg. The remote tier
// degrades to offline when it cannot be reached and the fallback tier degrades
// to memory-only when its file cannot be opened.
func NewStorageManagerFromConfig(ctx context.Context, cfg *contract.Config) *StorageManager {
	logger := contract.Logger()

	fallback, err := iocache.NewKVStore(cfg.FallbackPath, cfg.FallbackLimit)
	if err != nil {
		logger.Warn("fallback store unavailable, keeping it in memory", "path", cfg.FallbackPath, "err", err)
		fallback = nil
	}

	var opener StructuredOpener
	if cfg.StructuredBackend != schema.NoneBackend {
		backend, connStr := cfg.StructuredBackend, cfg.StructuredDBConnect
		opener = func(ctx context.Context) (contract.StructuredStore, error) {
			return iocache.NewRecordStore(ctx, iocache.ContentTable, backend, connStr)
		}
	}

	opts := Options{
		Remote:          remote.Connect(ctx, cfg.RemoteBackend, cfg.RemoteDBConnect, cfg.RemoteTimeout),
		OpenStructured:  opener,
		QueryTTL:        cfg.QueryTTL,
		QueryMaxEntries: cfg.QueryMaxEntries,
		Logger:          logger,
	}
	if fallback != nil {
		opts.Fallback = fallback
	}
	return NewStorageManager(opts)
}

// EnsureInitialized opens the structured tier exactly once. Concurrent callers
// share the same in-flight open. A failed open leaves the manager in degraded
// mode with Structured false. If ctx ends first, the caller gets the degraded
// availability while the open keeps running for later callers.
func (m *StorageManager) EnsureInitialized(ctx context.Context) schema.TierAvailability {
	m.initOnce.Do(func() {
		go m.initialize(context.WithoutCancel(ctx))
	})
	select {
	case <-m.ready:
		return m.availability
	case <-ctx.Done():
		return schema.TierAvailability{Fallback: m.availability.Fallback}
	}
}

// initialize runs the single structured open and publishes the result.
func (m *StorageManager) initialize(ctx context.Context) {
	defer close(m.ready)
	if m.openStructured == nil {
		return
	}
	store, err := m.openStructured(ctx)
	if err != nil {
		m.log.Warn("structured store unavailable, continuing in degraded mode",
			"err", errors.Join(contract.ErrInitialization, err))
		return
	}
	m.structured = store
	m.availability.Structured = true
}

// structuredTier returns the structured tier once ready, or nil.
func (m *StorageManager) structuredTier(ctx context.Context) contract.StructuredStore {
	if !m.EnsureInitialized(ctx).Structured {
		return nil
	}
	return m.structured
}

// Availability reports the tiers that came up, without waiting for initialization.
func (m *StorageManager) Availability() (schema.TierAvailability, bool) {
	select {
	case <-m.ready:
		return m.availability, true
	default:
		return schema.TierAvailability{Fallback: m.availability.Fallback}, false
	}
}

// ClearQueryCache drops every cached query result.
func (m *StorageManager) ClearQueryCache() {
	m.query.Clear()
}

// Close releases every tier. It waits for an in-flight initialization.
func (m *StorageManager) Close() error {
	m.closeOnce.Do(func() {
		m.initOnce.Do(func() { close(m.ready) })
		<-m.ready

		var errs []error
		if m.structured != nil {
			errs = append(errs, m.structured.Close())
		}
		errs = append(errs, m.fallback.Close(), m.remote.Close())
		m.closeErr = errors.Join(errs...)
	})
	return m.closeErr
}
