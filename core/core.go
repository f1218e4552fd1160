package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/huangsam/tiercache/internal/contract"
	"github.com/huangsam/tiercache/internal/outwriter"
	"github.com/huangsam/tiercache/internal/parquet"
	"github.com/huangsam/tiercache/schema"
)

// ExecutorFunc defines the function signature for executing the storage commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr *StorageManager, args []string) error

// outputWriter is shared by the executors.
var outputWriter = outwriter.NewOutWriter()

// stdin is swapped in tests.
var stdin io.Reader = os.Stdin

// resolveRecord maps (collection, key) arguments onto a raw collection.
func resolveRecord(mgr *StorageManager, collectionArg, keyArg string) (RawCollection, schema.CompositeKey, error) {
	key := schema.ParseKey(keyArg)
	if len(key) == 0 {
		return nil, nil, errors.New("a record key is required")
	}
	raw, err := mgr.Raw(schema.Collection(strings.ToLower(collectionArg)), len(key))
	if err != nil {
		return nil, nil, err
	}
	if err := key.Validate(raw.Arity()); err != nil {
		return nil, nil, err
	}
	return raw, key, nil
}

// readInput reads a JSON document from path, or from stdin when path is "" or "-".
func readInput(path string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	if !json.Valid(data) {
		return nil, errors.New("input is not a valid JSON document")
	}
	return data, nil
}

// withConfiguredWriter attaches cfg.Writer to ctx when set.
func withConfiguredWriter(ctx context.Context, cfg *contract.Config) context.Context {
	if cfg.Writer == "" {
		return ctx
	}
	return WithWriter(ctx, cfg.Writer)
}

func optionalArg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

// ExecuteGet reads one record through every tier and prints it.
// Args: collection, key.
func ExecuteGet(ctx context.Context, cfg *contract.Config, mgr *StorageManager, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: get <collection> <key>")
	}
	raw, key, err := resolveRecord(mgr, args[0], args[1])
	if err != nil {
		return err
	}
	payload, ok := raw.GetPayload(ctx, key)
	if !ok {
		return fmt.Errorf("%s %s: %w", raw.Name(), key, contract.ErrNotFound)
	}
	return outputWriter.WriteRecord(raw.Name(), key, payload, cfg)
}

// ExecuteSave writes one record. The payload is read from the optional third
// argument, or from stdin.
func ExecuteSave(ctx context.Context, cfg *contract.Config, mgr *StorageManager, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: save <collection> <key> [file]")
	}
	raw, key, err := resolveRecord(mgr, args[0], args[1])
	if err != nil {
		return err
	}
	payload, err := readInput(optionalArg(args, 2))
	if err != nil {
		return err
	}
	if !raw.SavePayload(withConfiguredWriter(ctx, cfg), key, payload) {
		return fmt.Errorf("no local tier accepted %s %s", raw.Name(), key)
	}
	contract.Logger().Info("record saved", "collection", raw.Name(), "key", key.String())
	return nil
}

// ExecuteDelete removes one record from every tier.
func ExecuteDelete(ctx context.Context, cfg *contract.Config, mgr *StorageManager, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: delete <collection> <key>")
	}
	raw, key, err := resolveRecord(mgr, args[0], args[1])
	if err != nil {
		return err
	}
	if !raw.Delete(withConfiguredWriter(ctx, cfg), key) {
		contract.Logger().Warn("no local copy was removed", "collection", raw.Name(), "key", key.String())
		return nil
	}
	contract.Logger().Info("record deleted", "collection", raw.Name(), "key", key.String())
	return nil
}

// ExecuteFinalize normalizes the question numbering of an exam, saves it and
// prints the result. Args: level, examId, [file].
func ExecuteFinalize(ctx context.Context, cfg *contract.Config, mgr *StorageManager, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: finalize <level> <examId> [file]")
	}
	key := schema.Key(args[0], args[1])
	if err := key.Validate(mgr.Exam().Arity()); err != nil {
		return err
	}
	data, err := readInput(optionalArg(args, 2))
	if err != nil {
		return err
	}
	var e schema.Exam
	if err := json.Unmarshal(data, &e); err != nil {
		return fmt.Errorf("invalid exam document: %w", err)
	}

	normalized, ok := mgr.FinalizeExam(withConfiguredWriter(ctx, cfg), args[0], args[1], &e)
	if !ok {
		return fmt.Errorf("no local tier accepted exam %s", key)
	}
	payload, err := json.Marshal(normalized)
	if err != nil {
		return fmt.Errorf("failed to encode exam: %w", err)
	}
	return outputWriter.WriteRecord(schema.ExamsCollection, key, payload, cfg)
}

// ExecuteExport dumps the local tiers. With a collection argument (and an
// optional key scope) it exports that scope; otherwise cfg's date range and
// collection filters apply.
func ExecuteExport(ctx context.Context, cfg *contract.Config, mgr *StorageManager, args []string) error {
	var backup *schema.Backup
	switch {
	case len(args) > 0:
		collection := schema.Collection(strings.ToLower(args[0]))
		if _, ok := schema.ValidCollections[collection]; !ok {
			return fmt.Errorf("unknown collection %q", args[0])
		}
		backup = mgr.ExportByScope(ctx, collection, schema.ParseKey(optionalArg(args, 1)))
	case !cfg.StartTime.IsZero() || !cfg.EndTime.IsZero() || len(cfg.Collections) > 0:
		backup = mgr.ExportByDateRange(ctx, cfg.StartTime, cfg.EndTime, cfg.Collections)
	default:
		backup = mgr.ExportAll(ctx)
	}
	return outputWriter.WriteBackup(backup, cfg)
}

// loadBackup reads a JSON or Parquet backup, chosen by file extension.
func loadBackup(path string) (*schema.Backup, error) {
	if strings.EqualFold(filepath.Ext(path), ".parquet") {
		rows, err := parquet.ReadBackupParquet(path)
		if err != nil {
			return nil, err
		}
		return parquet.ConvertBackupRows(rows), nil
	}

	data, err := readInput(path)
	if err != nil {
		return nil, err
	}
	var backup schema.Backup
	if err := json.Unmarshal(data, &backup); err != nil {
		return nil, fmt.Errorf("invalid backup document: %w", err)
	}
	return &backup, nil
}

// ExecuteImport loads a backup into the local tiers. Args: [file].
func ExecuteImport(ctx context.Context, cfg *contract.Config, mgr *StorageManager, args []string) error {
	backup, err := loadBackup(optionalArg(args, 0))
	if err != nil {
		return err
	}
	summary, err := mgr.ImportAll(ctx, backup)
	if err != nil {
		return err
	}
	return outputWriter.WriteImportSummary(summary, cfg)
}

// ExecuteStatus prints the state of every tier.
func ExecuteStatus(ctx context.Context, cfg *contract.Config, mgr *StorageManager, _ []string) error {
	return outputWriter.WriteStatus(mgr.Status(ctx), cfg)
}
