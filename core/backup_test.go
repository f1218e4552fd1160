package core

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/huangsam/tiercache/internal/contract"
	"github.com/huangsam/tiercache/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordKeys(backup *schema.Backup) []string {
	keys := make([]string, 0, len(backup.Records))
	for _, record := range backup.Records {
		keys = append(keys, schema.StorageKey(record.Collection, schema.ParseKey(record.Key)))
	}
	return keys
}

func seedContent(t *testing.T, m *StorageManager) {
	t.Helper()
	ctx := context.Background()
	require.True(t, m.Books().Save(ctx, schema.Key("n1"), []schema.Book{{ID: "b1", Title: "Genki I"}}))
	require.True(t, m.Chapters().Save(ctx, schema.Key("b1"), []schema.Chapter{{ID: "c1", Title: "Hello"}}))
	require.True(t, m.Exams().Save(ctx, schema.Key("n1"), examSummaries("2024-12")))
	require.True(t, m.Exam().Save(ctx, schema.Key("n1", "2024-12"), &schema.Exam{ID: "2024-12"}))
	require.True(t, m.Exam().Save(ctx, schema.Key("n2", "2024-12"), &schema.Exam{ID: "2024-12"}))
}

func TestExportAll(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil, contract.DefaultFallbackLimit)
	seedContent(t, env.m)

	// Only the fallback tier holds this one.
	require.NoError(t, env.fallback.Set(schema.StorageKey(schema.SeriesCollection, schema.Key("n1")), []byte(`[{"id":"s1","title":"Tobira"}]`)))

	backup := env.m.ExportAll(ctx)
	assert.Equal(t, schema.BackupVersion, backup.Version)
	assert.Equal(t, []string{
		"books:n1",
		"chapters:b1",
		"exams:n1",
		"exams:n1:2024-12",
		"exams:n2:2024-12",
		"series:n1",
	}, recordKeys(backup))

	tiers := map[string]schema.Tier{}
	for _, record := range backup.Records {
		tiers[schema.StorageKey(record.Collection, schema.ParseKey(record.Key))] = record.Tier
	}
	assert.Equal(t, schema.StructuredTier, tiers["books:n1"])
	assert.Equal(t, schema.FallbackTier, tiers["series:n1"])
}

func TestExportByScope(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil, contract.DefaultFallbackLimit)
	seedContent(t, env.m)

	tests := []struct {
		name       string
		collection schema.Collection
		scope      schema.CompositeKey
		expected   []string
	}{
		{name: "level prefix", collection: schema.ExamsCollection, scope: schema.Key("n1"), expected: []string{"exams:n1", "exams:n1:2024-12"}},
		{name: "exact exam", collection: schema.ExamsCollection, scope: schema.Key("n2", "2024-12"), expected: []string{"exams:n2:2024-12"}},
		{name: "whole collection", collection: schema.BooksCollection, scope: nil, expected: []string{"books:n1"}},
		{name: "nothing", collection: schema.QuizzesCollection, scope: schema.Key("b1"), expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, recordKeys(env.m.ExportByScope(ctx, tt.collection, tt.scope)))
		})
	}
}

func TestExportByDateRange(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil, contract.DefaultFallbackLimit)

	clock := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	env.m.now = func() time.Time { return clock }
	require.True(t, env.m.Books().Save(ctx, schema.Key("n1"), []schema.Book{{ID: "b1"}}))

	clock = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	require.True(t, env.m.Series().Save(ctx, schema.Key("n1"), []schema.Series{{ID: "s1"}}))
	require.True(t, env.m.Books().Save(ctx, schema.Key("n2"), []schema.Book{{ID: "b2"}}))

	january := env.m.ExportByDateRange(ctx,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), nil)
	assert.Equal(t, []string{"books:n1"}, recordKeys(january))

	marchBooks := env.m.ExportByDateRange(ctx,
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Time{}, []schema.Collection{schema.BooksCollection})
	assert.Equal(t, []string{"books:n2"}, recordKeys(marchBooks))
	assert.True(t, marchBooks.Records[0].UpdatedAt.Equal(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)))
}

func TestImportAll(t *testing.T) {
	ctx := context.Background()
	source := newTestEnv(t, nil, contract.DefaultFallbackLimit)
	seedContent(t, source.m)

	data, err := json.Marshal(source.m.ExportAll(ctx))
	require.NoError(t, err)
	var backup schema.Backup
	require.NoError(t, json.Unmarshal(data, &backup))

	backup.Records = append(backup.Records,
		schema.BackupRecord{Collection: "videos", Key: "n1", Payload: json.RawMessage(`[]`)},
		schema.BackupRecord{Collection: schema.BooksCollection, Key: "", Payload: json.RawMessage(`[]`)},
	)

	target := newTestEnv(t, nil, contract.DefaultFallbackLimit)
	// A cached pre-import answer must not survive the import.
	require.True(t, target.m.Books().Save(ctx, schema.Key("n1"), []schema.Book{{ID: "stale"}}))

	summary, err := target.m.ImportAll(ctx, &backup)
	require.NoError(t, err)
	assert.Equal(t, 5, summary.Imported)
	assert.Equal(t, 5, summary.StructuredWrites)
	assert.Equal(t, 5, summary.FallbackWrites)
	assert.Equal(t, 2, summary.Skipped)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 0, target.m.query.Len())

	books, ok := target.m.Books().Get(ctx, schema.Key("n1"))
	require.True(t, ok)
	assert.Equal(t, []schema.Book{{ID: "b1", Title: "Genki I"}}, books)

	exam, ok := target.m.Exam().Get(ctx, schema.Key("n2", "2024-12"))
	require.True(t, ok)
	assert.Equal(t, "2024-12", exam.ID)
}

func TestImportAllRejectsBadBackups(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil, contract.DefaultFallbackLimit)

	_, err := env.m.ImportAll(ctx, nil)
	assert.Error(t, err)

	_, err = env.m.ImportAll(ctx, &schema.Backup{Version: schema.BackupVersion + 1})
	assert.Error(t, err)
}
