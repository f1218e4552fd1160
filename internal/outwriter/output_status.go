package outwriter

import (
	"fmt"
	"io"

	"github.com/huangsam/tiercache/internal/contract"
	"github.com/huangsam/tiercache/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// PrintStatus outputs the tier status, dispatching based on the output format configured.
func PrintStatus(status schema.ManagerStatus, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, status)
		}, "Wrote JSON")
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is only supported by export")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeStatusTable(w, status, cfg)
		}, "Wrote table")
	}
}

// writeStatusTable generates and writes the human-readable status table.
func writeStatusTable(w io.Writer, status schema.ManagerStatus, cfg *contract.Config) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Tier", "State", "Backend", "Details"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})

	rows := statusRows(status, cfg)
	for _, row := range rows {
		row[1] = formatLabel(row[1], cfg.UseColors)
	}
	if err := table.Bulk(rows); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if status.Structured.TotalRecords > 0 {
		if _, err := fmt.Fprintf(w, "Structured records span %s to %s\n",
			status.Structured.OldestEntryTime.Format(contract.DateTimeFormat),
			status.Structured.LastUpdateTime.Format(contract.DateTimeFormat)); err != nil {
			return err
		}
	}
	return nil
}

// statusRows builds the table rows with plain labels.
func statusRows(status schema.ManagerStatus, cfg *contract.Config) [][]string {
	remoteEnabled := status.Remote.Backend != string(schema.NoneBackend)
	remoteDetails := "authoritative"
	if !status.Remote.Reachable && status.Remote.Error != "" {
		remoteDetails = status.Remote.Error
	}

	structuredEnabled := cfg.StructuredBackend != schema.NoneBackend
	structuredBackend := status.Structured.Backend
	if structuredBackend == "" {
		structuredBackend = string(cfg.StructuredBackend)
	}
	structuredDetails := fmt.Sprintf("%d records, %s", status.Structured.TotalRecords, formatBytes(status.Structured.TableSizeBytes))

	fallbackLabel := contract.OnlineValue
	if !status.Availability.Fallback {
		fallbackLabel = contract.DegradedValue
	}
	fallbackBackend := "file"
	if status.Fallback.Path == "" {
		fallbackBackend = "memory"
	}
	fallbackDetails := fmt.Sprintf("%d entries, %s of %s", status.Fallback.Entries,
		formatBytes(status.Fallback.UsedBytes), formatBytes(status.Fallback.LimitBytes))
	if status.Fallback.LimitBytes > 0 {
		fallbackDetails += fmt.Sprintf(" (%.1f%%)", 100*float64(status.Fallback.UsedBytes)/float64(status.Fallback.LimitBytes))
	}

	return [][]string{
		{string(schema.RemoteTier), contract.GetPlainLabel(remoteEnabled, status.Remote.Reachable), status.Remote.Backend, remoteDetails},
		{string(schema.StructuredTier), contract.GetPlainLabel(structuredEnabled, status.Availability.Structured), structuredBackend, structuredDetails},
		{string(schema.FallbackTier), fallbackLabel, fallbackBackend, fallbackDetails},
		{string(schema.QueryTier), contract.OnlineValue, "memory", fmt.Sprintf("%d entries", status.QueryEntries)},
	}
}
