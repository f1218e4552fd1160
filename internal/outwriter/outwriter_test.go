package outwriter

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/tiercache/internal/contract"
	"github.com/huangsam/tiercache/internal/parquet"
	"github.com/huangsam/tiercache/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleStatus() schema.ManagerStatus {
	return schema.ManagerStatus{
		Availability: schema.TierAvailability{Structured: true, Fallback: true},
		Remote:       schema.RemoteStatus{Backend: "none", Error: "remote store unavailable"},
		Structured: schema.StructuredStatus{
			Backend:         "sqlite",
			Connected:       true,
			TotalRecords:    12,
			TableSizeBytes:  8192,
			LastUpdateTime:  time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
			OldestEntryTime: time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC),
		},
		Fallback:     schema.FallbackStatus{Path: "/tmp/fallback.json", Entries: 3, UsedBytes: 512, LimitBytes: 1024},
		QueryEntries: 4,
	}
}

func sampleBackup() *schema.Backup {
	return &schema.Backup{
		Version:    schema.BackupVersion,
		ExportedAt: time.Date(2024, 12, 2, 0, 0, 0, 0, time.UTC),
		Records: []schema.BackupRecord{
			{Collection: schema.ExamsCollection, Key: "n1", Payload: json.RawMessage(`[{"id":"2024-12"}]`), Tier: schema.StructuredTier},
			{Collection: schema.BooksCollection, Key: "n5", Payload: json.RawMessage(`[]`), Tier: schema.FallbackTier},
		},
	}
}

func TestStatusRows(t *testing.T) {
	cfg := &contract.Config{StructuredBackend: schema.SQLiteBackend}
	rows := statusRows(sampleStatus(), cfg)
	require.Len(t, rows, 4)

	assert.Equal(t, []string{"remote", contract.DisabledValue, "none", "remote store unavailable"}, rows[0])
	assert.Equal(t, []string{"structured", contract.OnlineValue, "sqlite", "12 records, 8.0 KiB"}, rows[1])
	assert.Equal(t, []string{"fallback", contract.OnlineValue, "file", "3 entries, 512 B of 1.0 KiB (50.0%)"}, rows[2])
	assert.Equal(t, []string{"query", contract.OnlineValue, "memory", "4 entries"}, rows[3])
}

func TestStatusRowsDegraded(t *testing.T) {
	status := sampleStatus()
	status.Availability = schema.TierAvailability{}
	status.Remote = schema.RemoteStatus{Backend: "mysql", Error: "dial tcp: refused"}
	status.Fallback.Path = ""

	rows := statusRows(status, &contract.Config{StructuredBackend: schema.SQLiteBackend})
	assert.Equal(t, contract.OfflineValue, rows[0][1])
	assert.Equal(t, contract.OfflineValue, rows[1][1])
	assert.Equal(t, contract.DegradedValue, rows[2][1])
	assert.Equal(t, "memory", rows[2][2])

	rows = statusRows(status, &contract.Config{StructuredBackend: schema.NoneBackend})
	assert.Equal(t, contract.DisabledValue, rows[1][1])
}

func TestWriteStatusTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeStatusTable(&buf, sampleStatus(), &contract.Config{StructuredBackend: schema.SQLiteBackend}))

	out := buf.String()
	assert.Contains(t, out, "structured")
	assert.Contains(t, out, "12 records")
	assert.Contains(t, out, "Structured records span 2024-11-01T00:00:00Z to 2024-12-01T00:00:00Z")
}

func TestPrintStatusJSON(t *testing.T) {
	outputFile := filepath.Join(t.TempDir(), "status.json")
	cfg := &contract.Config{Output: schema.JSONOut, OutputFile: outputFile}
	require.NoError(t, NewOutWriter().WriteStatus(sampleStatus(), cfg))

	data, err := os.ReadFile(outputFile)
	require.NoError(t, err)
	var decoded schema.ManagerStatus
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 12, decoded.Structured.TotalRecords)
	assert.Equal(t, 4, decoded.QueryEntries)
}

func TestPrintStatusParquetUnsupported(t *testing.T) {
	assert.Error(t, PrintStatus(sampleStatus(), &contract.Config{Output: schema.ParquetOut}))
}

func TestWriteRecordText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeRecordText(&buf, []byte(`[{"id":"2024-12","title":"JLPT 2024/12"}]`)))
	assert.Equal(t, "[\n  {\n    \"id\": \"2024-12\",\n    \"title\": \"JLPT 2024/12\"\n  }\n]\n", buf.String())

	assert.Error(t, writeRecordText(&buf, []byte(`{broken`)))
}

func TestPrintRecordJSON(t *testing.T) {
	outputFile := filepath.Join(t.TempDir(), "record.json")
	cfg := &contract.Config{Output: schema.JSONOut, OutputFile: outputFile}
	require.NoError(t, NewOutWriter().WriteRecord(schema.ExamsCollection, schema.Key("n1", "2024-12"), []byte(`{"id":"2024-12"}`), cfg))

	data, err := os.ReadFile(outputFile)
	require.NoError(t, err)
	assert.JSONEq(t, `{"collection":"exams","key":"n1:2024-12","payload":{"id":"2024-12"}}`, string(data))
}

func TestWriteBackupTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeBackupTable(&buf, sampleBackup()))

	out := buf.String()
	assert.Contains(t, out, "exams")
	assert.Contains(t, out, "fallback")
	assert.True(t, strings.Contains(out, "Showing 2 records"), "summary line should be present")
}

func TestPrintBackupFormats(t *testing.T) {
	dir := t.TempDir()

	jsonFile := filepath.Join(dir, "backup.json")
	require.NoError(t, NewOutWriter().WriteBackup(sampleBackup(), &contract.Config{Output: schema.JSONOut, OutputFile: jsonFile}))
	data, err := os.ReadFile(jsonFile)
	require.NoError(t, err)
	var decoded schema.Backup
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Len(t, decoded.Records, 2)

	parquetFile := filepath.Join(dir, "backup.parquet")
	require.NoError(t, PrintBackup(sampleBackup(), &contract.Config{Output: schema.ParquetOut, OutputFile: parquetFile}))
	rows, err := parquet.ReadBackupParquet(parquetFile)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	assert.Error(t, PrintBackup(sampleBackup(), &contract.Config{Output: schema.ParquetOut}))
}

func TestPrintImportSummaryJSON(t *testing.T) {
	outputFile := filepath.Join(t.TempDir(), "summary.json")
	summary := schema.ImportSummary{Imported: 3, StructuredWrites: 3, FallbackWrites: 2, Skipped: 1}
	require.NoError(t, NewOutWriter().WriteImportSummary(summary, &contract.Config{Output: schema.JSONOut, OutputFile: outputFile}))

	data, err := os.ReadFile(outputFile)
	require.NoError(t, err)
	assert.JSONEq(t, `{"imported":3,"structured_writes":3,"fallback_writes":2,"failed":0,"skipped":1}`, string(data))
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		input    int64
		expected string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
		{1536, "1.5 KiB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, formatBytes(tt.input))
	}
}
