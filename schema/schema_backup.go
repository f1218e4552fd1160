package schema

import (
	"encoding/json"
	"time"
)

// BackupVersion is the current version of the backup document format.
const BackupVersion = 1

// StoredRecord is a raw record as held by a local tier.
type StoredRecord struct {
	Collection Collection
	Key        CompositeKey
	Payload    []byte
	UpdatedAt  time.Time
	UpdatedBy  string
}

// BackupRecord is a single record in an offline backup.
type BackupRecord struct {
	Collection Collection      `json:"collection"`
	Key        string          `json:"key"`
	Payload    json.RawMessage `json:"payload"`
	UpdatedAt  time.Time       `json:"updated_at"`
	Tier       Tier            `json:"tier"`
}

// Backup is the document produced by the export operations and consumed by import.
type Backup struct {
	Version    int            `json:"version"`
	ExportedAt time.Time      `json:"exported_at"`
	Records    []BackupRecord `json:"records"`
}

// ImportSummary reports the outcome of an import.
type ImportSummary struct {
	Imported         int `json:"imported"`
	StructuredWrites int `json:"structured_writes"`
	FallbackWrites   int `json:"fallback_writes"`
	Failed           int `json:"failed"`
	Skipped          int `json:"skipped"`
}
