// Package outwriter has output and writer logic.
package outwriter

import (
	"github.com/huangsam/tiercache/internal/contract"
	"github.com/huangsam/tiercache/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteStatus prints the tier status using the configured output format.
func (ow *OutWriter) WriteStatus(status schema.ManagerStatus, cfg *contract.Config) error {
	return PrintStatus(status, cfg)
}

// WriteRecord prints one record payload using the configured output format.
func (ow *OutWriter) WriteRecord(collection schema.Collection, key schema.CompositeKey, payload []byte, cfg *contract.Config) error {
	return PrintRecord(collection, key, payload, cfg)
}

// WriteBackup prints or stores a backup using the configured output format.
func (ow *OutWriter) WriteBackup(backup *schema.Backup, cfg *contract.Config) error {
	return PrintBackup(backup, cfg)
}

// WriteImportSummary prints the outcome of an import.
func (ow *OutWriter) WriteImportSummary(summary schema.ImportSummary, cfg *contract.Config) error {
	return PrintImportSummary(summary, cfg)
}
