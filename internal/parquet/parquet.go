// Package parquet provides data structures and functions for exporting tiercache
// backups to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/huangsam/tiercache/schema"
	"github.com/parquet-go/parquet-go"
)

// BackupRow represents a single backup record.
// One row is written per (collection, record_key) pair.
type BackupRow struct {
	// Collection is the content kind, e.g. books or exams
	Collection string `parquet:"collection,snappy,dict"`

	// RecordKey is the colon-separated composite key
	RecordKey string `parquet:"record_key,snappy"`

	// Payload is the JSON document as stored by the local tier
	Payload string `parquet:"payload,snappy"`

	// PayloadBytes is the size of the payload
	PayloadBytes int32 `parquet:"payload_bytes,snappy"`

	// UpdatedAt is when the record was last written (stored as TIMESTAMP with nanosecond precision)
	UpdatedAt time.Time `parquet:"updated_at,snappy"`

	// Tier is the local tier the record was exported from
	Tier string `parquet:"tier,snappy,dict"`
}

// WriteBackupParquet writes rows to a Parquet file at outputPath.
func WriteBackupParquet(rows []BackupRow, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()
	return WriteBackupRows(file, rows)
}

// WriteBackupRows writes rows as a Parquet stream to w.
func WriteBackupRows(w io.Writer, rows []BackupRow) error {
	// The schema is derived from the BackupRow struct tags
	writer := parquet.NewGenericWriter[BackupRow](w)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// ReadBackupParquet reads every row of the Parquet file at path.
func ReadBackupParquet(path string) ([]BackupRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer func() { _ = file.Close() }()

	reader := parquet.NewGenericReader[BackupRow](file)
	defer func() { _ = reader.Close() }()

	rows := make([]BackupRow, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read parquet rows: %w", err)
	}
	return rows[:n], nil
}

// ConvertBackupRecords converts backup records to Parquet rows.
func ConvertBackupRecords(records []schema.BackupRecord) []BackupRow {
	result := make([]BackupRow, len(records))
	for i, record := range records {
		result[i] = BackupRow{
			Collection:   string(record.Collection),
			RecordKey:    record.Key,
			Payload:      string(record.Payload),
			PayloadBytes: int32(len(record.Payload)),
			UpdatedAt:    record.UpdatedAt,
			Tier:         string(record.Tier),
		}
	}
	return result
}

// ConvertBackupRows converts Parquet rows back into a backup document.
func ConvertBackupRows(rows []BackupRow) *schema.Backup {
	records := make([]schema.BackupRecord, len(rows))
	for i, row := range rows {
		records[i] = schema.BackupRecord{
			Collection: schema.Collection(row.Collection),
			Key:        row.RecordKey,
			Payload:    json.RawMessage(row.Payload),
			UpdatedAt:  row.UpdatedAt,
			Tier:       schema.Tier(row.Tier),
		}
	}
	return &schema.Backup{Version: schema.BackupVersion, Records: records}
}
