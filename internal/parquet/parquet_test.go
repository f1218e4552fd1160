package parquet

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/tiercache/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords() []schema.BackupRecord {
	now := time.Date(2024, 12, 1, 9, 30, 0, 0, time.UTC)
	return []schema.BackupRecord{
		{
			Collection: schema.ExamsCollection,
			Key:        "n1",
			Payload:    json.RawMessage(`[{"id":"2024-12","title":"JLPT 2024/12"}]`),
			UpdatedAt:  now,
			Tier:       schema.StructuredTier,
		},
		{
			Collection: schema.BooksCollection,
			Key:        "n5",
			Payload:    json.RawMessage(`[]`),
			UpdatedAt:  now.Add(-time.Hour),
			Tier:       schema.FallbackTier,
		},
	}
}

func TestBackupRowStructTags(t *testing.T) {
	// Verify struct tags are properly defined for parquet schema inference
	schema := parquet.SchemaOf(new(BackupRow))
	require.NotNil(t, schema)

	expectedColumns := []string{
		"collection",
		"record_key",
		"payload",
		"payload_bytes",
		"updated_at",
		"tier",
	}

	for _, colName := range expectedColumns {
		col, ok := schema.Lookup(colName)
		require.True(t, ok, "Column %s should exist in schema", colName)
		require.NotNil(t, col, "Column %s should not be nil", colName)
	}
}

func TestWriteAndReadBackupParquet(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "backup.parquet")
	records := sampleRecords()

	rows := ConvertBackupRecords(records)
	require.NoError(t, WriteBackupParquet(rows, outputPath))

	info, err := os.Stat(outputPath)
	require.NoError(t, err, "Output file should exist")
	assert.Greater(t, info.Size(), int64(0), "Output file should not be empty")

	readRows, err := ReadBackupParquet(outputPath)
	require.NoError(t, err)
	require.Len(t, readRows, len(rows))

	for i := range rows {
		assert.Equal(t, rows[i].Collection, readRows[i].Collection, "Collection should match")
		assert.Equal(t, rows[i].RecordKey, readRows[i].RecordKey, "RecordKey should match")
		assert.Equal(t, rows[i].Payload, readRows[i].Payload, "Payload should match")
		assert.Equal(t, rows[i].PayloadBytes, readRows[i].PayloadBytes, "PayloadBytes should match")
		assert.Equal(t, rows[i].Tier, readRows[i].Tier, "Tier should match")
		assert.WithinDuration(t, rows[i].UpdatedAt, readRows[i].UpdatedAt, time.Millisecond, "UpdatedAt should match")
	}

	backup := ConvertBackupRows(readRows)
	assert.Equal(t, schema.BackupVersion, backup.Version)
	require.Len(t, backup.Records, 2)
	assert.Equal(t, schema.ExamsCollection, backup.Records[0].Collection)
	assert.JSONEq(t, string(records[0].Payload), string(backup.Records[0].Payload))
}

func TestWriteBackupParquet_EmptyData(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "empty.parquet")

	require.NoError(t, WriteBackupParquet([]BackupRow{}, outputPath), "Writing empty data should not produce error")

	rows, err := ReadBackupParquet(outputPath)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestWriteBackupParquet_InvalidPath(t *testing.T) {
	err := WriteBackupParquet(ConvertBackupRecords(sampleRecords()), "/nonexistent/directory/backup.parquet")
	assert.Error(t, err, "Writing to invalid path should produce error")
}

func TestReadBackupParquet_MissingFile(t *testing.T) {
	_, err := ReadBackupParquet(filepath.Join(t.TempDir(), "missing.parquet"))
	assert.Error(t, err)
}
