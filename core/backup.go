package core

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/huangsam/tiercache/schema"
)

// exportFilter selects the records included in a backup.
type exportFilter struct {
	collection  schema.Collection
	prefix      schema.CompositeKey
	start, end  time.Time
	collections []schema.Collection
}

func (f exportFilter) match(collection schema.Collection, key schema.CompositeKey, updatedAt time.Time) bool {
	if f.collection != "" && collection != f.collection {
		return false
	}
	if len(f.collections) > 0 && !slices.Contains(f.collections, collection) {
		return false
	}
	if !key.HasPrefix(f.prefix) {
		return false
	}
	if !f.start.IsZero() && updatedAt.Before(f.start) {
		return false
	}
	if !f.end.IsZero() && updatedAt.After(f.end) {
		return false
	}
	return true
}

// ExportAll returns every record held by the local tiers. The remote is not read.
func (m *StorageManager) ExportAll(ctx context.Context) *schema.Backup {
	return m.export(ctx, exportFilter{})
}

// ExportByScope returns the records of collection whose key starts with scope.
func (m *StorageManager) ExportByScope(ctx context.Context, collection schema.Collection, scope schema.CompositeKey) *schema.Backup {
	return m.export(ctx, exportFilter{collection: collection, prefix: scope})
}

// ExportByDateRange returns the records updated within [start, end] for the
// given collections. Zero bounds are open and no collections means all.
func (m *StorageManager) ExportByDateRange(ctx context.Context, start, end time.Time, collections []schema.Collection) *schema.Backup {
	return m.export(ctx, exportFilter{start: start, end: end, collections: collections})
}

// export merges both local tiers. A record held by the structured tier wins
// over the fallback copy of the same key, even when only the fallback copy
// matches the filter.
func (m *StorageManager) export(ctx context.Context, filter exportFilter) *schema.Backup {
	seen := make(map[string]struct{})
	var records []schema.BackupRecord

	st := m.structuredTier(ctx)
	if st != nil {
		var (
			stored []schema.StoredRecord
			err    error
		)
		if filter.collection != "" {
			stored, err = st.List(ctx, filter.collection, filter.prefix)
		} else {
			stored, err = st.ListRange(ctx, filter.start, filter.end, filter.collections)
		}
		if err != nil {
			m.log.Warn("structured export failed, exporting fallback tier only", "err", err)
		}
		for _, record := range stored {
			if !filter.match(record.Collection, record.Key, record.UpdatedAt) || !json.Valid(record.Payload) {
				continue
			}
			seen[schema.StorageKey(record.Collection, record.Key)] = struct{}{}
			records = append(records, schema.BackupRecord{
				Collection: record.Collection,
				Key:        record.Key.String(),
				Payload:    json.RawMessage(record.Payload),
				UpdatedAt:  record.UpdatedAt.UTC(),
				Tier:       schema.StructuredTier,
			})
		}
	}

	for _, entry := range m.fallback.Entries() {
		if _, dup := seen[entry.Key]; dup {
			continue
		}
		collection, key, ok := schema.SplitStorageKey(entry.Key)
		if !ok || !filter.match(collection, key, entry.UpdatedAt) {
			continue
		}
		if st != nil {
			// Shadowed by a structured record that the filter left out.
			if _, err := st.Get(ctx, collection, key); err == nil {
				continue
			}
		}
		records = append(records, schema.BackupRecord{
			Collection: collection,
			Key:        key.String(),
			Payload:    json.RawMessage(entry.Value),
			UpdatedAt:  entry.UpdatedAt.UTC(),
			Tier:       schema.FallbackTier,
		})
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Collection != records[j].Collection {
			return records[i].Collection < records[j].Collection
		}
		return records[i].Key < records[j].Key
	})
	if records == nil {
		records = []schema.BackupRecord{}
	}

	return &schema.Backup{
		Version:    schema.BackupVersion,
		ExportedAt: m.now().UTC(),
		Records:    records,
	}
}

// ImportAll writes every record of backup into both local tiers and clears
// the query cache. The remote is not written. Records that fit neither tier
// are counted as failed.
func (m *StorageManager) ImportAll(ctx context.Context, backup *schema.Backup) (schema.ImportSummary, error) {
	var summary schema.ImportSummary
	if backup == nil {
		return summary, fmt.Errorf("backup is empty")
	}
	if backup.Version > schema.BackupVersion {
		return summary, fmt.Errorf("backup version %d is newer than supported version %d", backup.Version, schema.BackupVersion)
	}
	defer m.query.Clear()

	st := m.structuredTier(ctx)
	for _, record := range backup.Records {
		key := schema.ParseKey(record.Key)
		if _, valid := schema.ValidCollections[record.Collection]; !valid || len(key) == 0 || !json.Valid(record.Payload) {
			m.log.Warn("skipping invalid backup record", "collection", record.Collection, "key", record.Key)
			summary.Skipped++
			continue
		}

		updatedAt := record.UpdatedAt
		if updatedAt.IsZero() {
			updatedAt = m.now()
		}

		written := false
		if st != nil {
			stored := schema.StoredRecord{Collection: record.Collection, Key: key, Payload: record.Payload, UpdatedAt: updatedAt}
			if err := st.Put(ctx, stored); err != nil {
				m.log.Warn("structured import failed", "collection", record.Collection, "key", record.Key, "err", err)
			} else {
				summary.StructuredWrites++
				written = true
			}
		}
		if err := m.fallback.Set(schema.StorageKey(record.Collection, key), record.Payload); err != nil {
			m.log.Debug("fallback import skipped", "collection", record.Collection, "key", record.Key, "err", err)
		} else {
			summary.FallbackWrites++
			written = true
		}

		if written {
			summary.Imported++
		} else {
			summary.Failed++
		}
	}
	return summary, nil
}
