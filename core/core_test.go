package core

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/huangsam/tiercache/internal/contract"
	"github.com/huangsam/tiercache/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// jsonConfig returns a config that writes JSON output to a temp file.
func jsonConfig(t *testing.T) *contract.Config {
	t.Helper()
	return &contract.Config{
		Output:     schema.JSONOut,
		OutputFile: filepath.Join(t.TempDir(), "out.json"),
	}
}

func readOutput(t *testing.T, cfg *contract.Config, v any) {
	t.Helper()
	data, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

type envelope struct {
	Collection schema.Collection `json:"collection"`
	Key        string            `json:"key"`
	Payload    json.RawMessage   `json:"payload"`
}

func TestExecuteSaveThenGet(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil, contract.DefaultFallbackLimit)
	cfg := jsonConfig(t)

	input := writeInput(t, `[{"id":"l1","title":"Greetings"}]`)
	require.NoError(t, ExecuteSave(ctx, cfg, env.m, []string{"lessons", "b1:c1", input}))
	require.NoError(t, ExecuteGet(ctx, cfg, env.m, []string{"LESSONS", "b1:c1"}))

	var got envelope
	readOutput(t, cfg, &got)
	assert.Equal(t, schema.LessonsCollection, got.Collection)
	assert.Equal(t, "b1:c1", got.Key)
	assert.JSONEq(t, `[{"id":"l1","title":"Greetings"}]`, string(got.Payload))
}

func TestExecuteSaveFromStdin(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil, contract.DefaultFallbackLimit)

	original := stdin
	stdin = strings.NewReader(`[{"id":"b1","title":"Genki I"}]`)
	t.Cleanup(func() { stdin = original })

	require.NoError(t, ExecuteSave(ctx, jsonConfig(t), env.m, []string{"books", "n5", "-"}))

	books, ok := env.m.Books().Get(ctx, schema.Key("n5"))
	require.True(t, ok)
	assert.Equal(t, []schema.Book{{ID: "b1", Title: "Genki I"}}, books)
}

func TestExecuteGetMissing(t *testing.T) {
	env := newTestEnv(t, nil, contract.DefaultFallbackLimit)

	err := ExecuteGet(context.Background(), jsonConfig(t), env.m, []string{"books", "n9"})
	require.Error(t, err)
	assert.ErrorIs(t, err, contract.ErrNotFound)
}

func TestExecuteArgumentErrors(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil, contract.DefaultFallbackLimit)
	badJSON := writeInput(t, `{not json`)

	tests := []struct {
		name     string
		exec     ExecutorFunc
		args     []string
		expected string
	}{
		{name: "get without key", exec: ExecuteGet, args: []string{"books"}, expected: "usage"},
		{name: "get unknown collection", exec: ExecuteGet, args: []string{"videos", "n1"}, expected: "unknown collection"},
		{name: "get wrong arity", exec: ExecuteGet, args: []string{"quizzes", "b1:c1"}, expected: "keyed by 2 parts"},
		{name: "get empty key part", exec: ExecuteGet, args: []string{"lessons", "b1:"}, expected: "empty part"},
		{name: "save invalid json", exec: ExecuteSave, args: []string{"books", "n1", badJSON}, expected: "valid JSON"},
		{name: "save missing file", exec: ExecuteSave, args: []string{"books", "n1", filepath.Join(t.TempDir(), "nope.json")}, expected: "failed to read input"},
		{name: "delete without key", exec: ExecuteDelete, args: []string{"books"}, expected: "usage"},
		{name: "finalize without exam id", exec: ExecuteFinalize, args: []string{"n1"}, expected: "usage"},
		{name: "export unknown collection", exec: ExecuteExport, args: []string{"videos"}, expected: "unknown collection"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.exec(ctx, jsonConfig(t), env.m, tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expected)
		})
	}
}

func TestExecuteDelete(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil, contract.DefaultFallbackLimit)
	require.True(t, env.m.Books().Save(ctx, schema.Key("n1"), []schema.Book{{ID: "b1"}}))

	require.NoError(t, ExecuteDelete(ctx, jsonConfig(t), env.m, []string{"books", "n1"}))

	_, ok := env.m.Books().Get(ctx, schema.Key("n1"))
	assert.False(t, ok)

	// Deleting again is not an error.
	assert.NoError(t, ExecuteDelete(ctx, jsonConfig(t), env.m, []string{"books", "n1"}))
}

func TestExecuteFinalize(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil, contract.DefaultFallbackLimit)
	cfg := jsonConfig(t)

	input := writeInput(t, `{"id":"2024-12","sections":{
		"listening":[{"questions":[{"id":"1"}]}],
		"knowledge":[{"questions":[{"id":3},{"id":1},{"id":2}]}]}}`)
	require.NoError(t, ExecuteFinalize(ctx, cfg, env.m, []string{"n1", "2024-12", input}))

	var got envelope
	readOutput(t, cfg, &got)
	assert.Equal(t, "n1:2024-12", got.Key)

	stored, ok := env.m.Exam().Get(ctx, schema.Key("n1", "2024-12"))
	require.True(t, ok)
	assert.Equal(t, schema.FlexID("4"), stored.Sections[schema.ListeningTest][0].Questions[0].ID)
	assert.Equal(t, "04", stored.Sections[schema.ListeningTest][0].Questions[0].DisplayNumber)
}

func TestExecuteExportImport(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		output schema.OutputMode
		file   string
	}{
		{name: "json", output: schema.JSONOut, file: "backup.json"},
		{name: "parquet", output: schema.ParquetOut, file: "backup.parquet"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := newTestEnv(t, nil, contract.DefaultFallbackLimit)
			seedContent(t, source.m)

			exportCfg := &contract.Config{Output: tt.output, OutputFile: filepath.Join(t.TempDir(), tt.file)}
			require.NoError(t, ExecuteExport(ctx, exportCfg, source.m, nil))

			target := newTestEnv(t, nil, contract.DefaultFallbackLimit)
			importCfg := jsonConfig(t)
			require.NoError(t, ExecuteImport(ctx, importCfg, target.m, []string{exportCfg.OutputFile}))

			var summary schema.ImportSummary
			readOutput(t, importCfg, &summary)
			assert.Equal(t, 5, summary.Imported)
			assert.Equal(t, 0, summary.Skipped)

			books, ok := target.m.Books().Get(ctx, schema.Key("n1"))
			require.True(t, ok)
			assert.Equal(t, []schema.Book{{ID: "b1", Title: "Genki I"}}, books)
		})
	}
}

func TestExecuteExportScope(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil, contract.DefaultFallbackLimit)
	seedContent(t, env.m)
	cfg := jsonConfig(t)

	require.NoError(t, ExecuteExport(ctx, cfg, env.m, []string{"exams", "n2"}))

	var backup schema.Backup
	readOutput(t, cfg, &backup)
	assert.Equal(t, []string{"exams:n2:2024-12"}, recordKeys(&backup))
}

func TestExecuteExportCollectionsFilter(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil, contract.DefaultFallbackLimit)
	seedContent(t, env.m)
	cfg := jsonConfig(t)
	cfg.Collections = []schema.Collection{schema.ChaptersCollection}

	require.NoError(t, ExecuteExport(ctx, cfg, env.m, nil))

	var backup schema.Backup
	readOutput(t, cfg, &backup)
	assert.Equal(t, []string{"chapters:b1"}, recordKeys(&backup))
}

func TestExecuteStatus(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil, contract.DefaultFallbackLimit)
	seedContent(t, env.m)
	cfg := jsonConfig(t)

	require.NoError(t, ExecuteStatus(ctx, cfg, env.m, nil))

	var status schema.ManagerStatus
	readOutput(t, cfg, &status)
	assert.True(t, status.Availability.Structured)
	assert.True(t, status.Availability.Fallback)
	assert.Equal(t, 5, status.Structured.TotalRecords)
	assert.Equal(t, 5, status.Fallback.Entries)
}
