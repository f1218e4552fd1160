//go:build basic

package integration

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordLifecycle(t *testing.T) {
	r := localRunner(t)

	_, err := r.run(`[{"id":"b1","title":"Genki I"}]`, "save", "books", "n5")
	require.NoError(t, err)

	out, err := r.run("", "get", "books", "n5", "--output", "json")
	require.NoError(t, err)
	var rec recordOutput
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Equal(t, "books", rec.Collection)
	assert.JSONEq(t, `[{"id":"b1","title":"Genki I"}]`, string(rec.Payload))

	_, err = r.run("", "delete", "books", "n5")
	require.NoError(t, err)

	_, err = r.run("", "get", "books", "n5")
	assert.Error(t, err, "a deleted record should not be found")
}

func TestFinalizeExam(t *testing.T) {
	r := localRunner(t)

	exam := `{"id":"2024-12","sections":{"listening":[{"questions":[{"id":"1"}]}],"knowledge":[{"questions":[{"id":"2"},{"id":"1"}]}]}}`
	_, err := r.run(exam, "finalize", "n1", "2024-12")
	require.NoError(t, err)

	out, err := r.run("", "get", "exams", "n1:2024-12", "--output", "json")
	require.NoError(t, err)
	var rec recordOutput
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Contains(t, string(rec.Payload), `"displayNumber":"03"`)
}

func TestExportClearImport(t *testing.T) {
	r := localRunner(t)
	backupPath := filepath.Join(t.TempDir(), "backup.parquet")

	_, err := r.run(`[{"id":"c1","title":"Hello"}]`, "save", "chapters", "b1")
	require.NoError(t, err)
	_, err = r.run("", "export", "--output", "parquet", "--output-file", backupPath)
	require.NoError(t, err)
	_, err = os.Stat(backupPath)
	require.NoError(t, err)

	_, err = r.run("", "clear")
	require.NoError(t, err)
	_, err = r.run("", "get", "chapters", "b1")
	require.Error(t, err)

	out, err := r.run("", "import", backupPath, "--output", "json")
	require.NoError(t, err)
	var summary struct {
		Imported int `json:"imported"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 1, summary.Imported)

	_, err = r.run("", "get", "chapters", "b1")
	assert.NoError(t, err)
}

func TestFallbackOnlyMode(t *testing.T) {
	r := localRunner(t, "TIERCACHE_STRUCTURED_BACKEND=none")

	_, err := r.run(`[{"id":"s1","title":"Tobira"}]`, "save", "series", "n2")
	require.NoError(t, err)
	_, err = r.run("", "get", "series", "n2")
	require.NoError(t, err)

	out, err := r.run("", "status", "--output", "json")
	require.NoError(t, err)
	var status struct {
		Availability struct {
			Structured bool `json:"structured"`
			Fallback   bool `json:"fallback"`
		} `json:"availability"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.False(t, status.Availability.Structured)
	assert.True(t, status.Availability.Fallback)
}

func TestMigrate(t *testing.T) {
	r := localRunner(t)

	_, err := r.run("", "migrate")
	assert.NoError(t, err)
}
