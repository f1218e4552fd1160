package outwriter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/tiercache/internal/contract"
	"github.com/huangsam/tiercache/internal/parquet"
	"github.com/huangsam/tiercache/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// recordEnvelope is the JSON shape of a single record.
type recordEnvelope struct {
	Collection schema.Collection `json:"collection"`
	Key        string            `json:"key"`
	Payload    json.RawMessage   `json:"payload"`
}

// PrintRecord outputs one record payload.
func PrintRecord(collection schema.Collection, key schema.CompositeKey, payload []byte, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, recordEnvelope{Collection: collection, Key: key.String(), Payload: payload})
		}, "Wrote JSON")
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is only supported by export")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRecordText(w, payload)
		}, "Wrote record")
	}
}

// writeRecordText writes the payload as indented JSON.
func writeRecordText(w io.Writer, payload []byte) error {
	var out bytes.Buffer
	if err := json.Indent(&out, payload, "", "  "); err != nil {
		return fmt.Errorf("failed to format payload: %w", err)
	}
	out.WriteByte('\n')
	_, err := w.Write(out.Bytes())
	return err
}

// PrintBackup outputs a backup. Parquet output requires an output file.
func PrintBackup(backup *schema.Backup, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, backup)
		}, "Wrote JSON")
	case schema.ParquetOut:
		if cfg.OutputFile == "" {
			return fmt.Errorf("parquet export requires --output-file")
		}
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return parquet.WriteBackupRows(w, parquet.ConvertBackupRecords(backup.Records))
		}, "Wrote Parquet")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeBackupTable(w, backup)
		}, "Wrote table")
	}
}

// writeBackupTable lists the records of a backup without their payloads.
func writeBackupTable(w io.Writer, backup *schema.Backup) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Collection", "Key", "Tier", "Updated", "Size"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})

	keyWidth := getMaxTableKeyWidth()
	var data [][]string
	var total int64
	for _, record := range backup.Records {
		total += int64(len(record.Payload))
		data = append(data, []string{
			string(record.Collection),
			contract.TruncateKey(record.Key, keyWidth),
			string(record.Tier),
			record.UpdatedAt.Format(contract.DateTimeFormat),
			formatBytes(int64(len(record.Payload))),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Showing %d records (%s) exported at %s\n",
		len(backup.Records), formatBytes(total), backup.ExportedAt.Format(contract.DateTimeFormat))
	return err
}

// PrintImportSummary outputs the outcome of an import.
func PrintImportSummary(summary schema.ImportSummary, cfg *contract.Config) error {
	if cfg.Output == schema.JSONOut {
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, summary)
		}, "Wrote JSON")
	}
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		table := tablewriter.NewWriter(w)
		table.Header([]string{"Imported", "Structured", "Fallback", "Failed", "Skipped"})
		if err := table.Bulk([][]string{{
			strconv.Itoa(summary.Imported),
			strconv.Itoa(summary.StructuredWrites),
			strconv.Itoa(summary.FallbackWrites),
			strconv.Itoa(summary.Failed),
			strconv.Itoa(summary.Skipped),
		}}); err != nil {
			return err
		}
		return table.Render()
	}, "Wrote table")
}
