package contract

import (
	"testing"
	"time"

	"github.com/huangsam/tiercache/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() *ConfigRawInput {
	return &ConfigRawInput{
		StructuredBackend: "sqlite",
		FallbackPath:      "/tmp/fallback.json",
		RemoteBackend:     "none",
		Output:            "text",
		Color:             "yes",
	}
}

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError bool
	}{
		{name: "valid minimal config", mutate: func(*ConfigRawInput) {}},
		{
			name:        "invalid output",
			mutate:      func(in *ConfigRawInput) { in.Output = "xml" },
			expectError: true,
		},
		{
			name:        "invalid structured backend",
			mutate:      func(in *ConfigRawInput) { in.StructuredBackend = "oracle" },
			expectError: true,
		},
		{
			name: "mysql remote with valid dsn",
			mutate: func(in *ConfigRawInput) {
				in.RemoteBackend = "mysql"
				in.RemoteDBConnect = "user:pass@tcp(localhost:3306)/content"
			},
		},
		{
			name:        "mysql remote without dsn",
			mutate:      func(in *ConfigRawInput) { in.RemoteBackend = "mysql" },
			expectError: true,
		},
		{
			name: "postgres structured missing dbname",
			mutate: func(in *ConfigRawInput) {
				in.StructuredBackend = "postgresql"
				in.StructuredDBConnect = "host=localhost user=postgres"
			},
			expectError: true,
		},
		{
			name:        "sqlite remote without path",
			mutate:      func(in *ConfigRawInput) { in.RemoteBackend = "sqlite" },
			expectError: true,
		},
		{
			name: "remote and structured share a database",
			mutate: func(in *ConfigRawInput) {
				in.RemoteBackend = "sqlite"
				in.RemoteDBConnect = "/tmp/shared.db"
				in.StructuredDBConnect = "/tmp/shared.db"
			},
			expectError: true,
		},
		{
			name:        "negative fallback limit",
			mutate:      func(in *ConfigRawInput) { in.FallbackLimit = -1 },
			expectError: true,
		},
		{
			name:        "bad ttl",
			mutate:      func(in *ConfigRawInput) { in.QueryTTL = "soon" },
			expectError: true,
		},
		{
			name:        "negative query max entries",
			mutate:      func(in *ConfigRawInput) { in.QueryMaxEntries = -5 },
			expectError: true,
		},
		{
			name:        "bad log level",
			mutate:      func(in *ConfigRawInput) { in.LogLevel = "chatty" },
			expectError: true,
		},
		{
			name:        "bad color",
			mutate:      func(in *ConfigRawInput) { in.Color = "maybe" },
			expectError: true,
		},
		{
			name:        "unknown collection",
			mutate:      func(in *ConfigRawInput) { in.Collections = "books,videos" },
			expectError: true,
		},
		{
			name: "start after end",
			mutate: func(in *ConfigRawInput) {
				in.Start = "2025-02-01"
				in.End = "2025-01-01"
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.mutate(input)
			cfg := &Config{}
			err := ProcessAndValidate(cfg, input)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProcessAndValidateDefaults(t *testing.T) {
	cfg := &Config{}
	input := validInput()
	input.StructuredBackend = ""
	input.RemoteBackend = ""
	require.NoError(t, ProcessAndValidate(cfg, input))

	assert.Equal(t, schema.SQLiteBackend, cfg.StructuredBackend)
	assert.Equal(t, schema.NoneBackend, cfg.RemoteBackend)
	assert.Equal(t, DefaultQueryTTL, cfg.QueryTTL)
	assert.Equal(t, DefaultRemoteTimeout, cfg.RemoteTimeout)
	assert.Equal(t, int64(DefaultFallbackLimit), cfg.FallbackLimit)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.True(t, cfg.UseColors)
	assert.Empty(t, cfg.Collections)
	assert.True(t, cfg.StartTime.IsZero())
}

func TestProcessAndValidateParsesValues(t *testing.T) {
	cfg := &Config{}
	input := validInput()
	input.QueryTTL = "2 minutes"
	input.RemoteTimeout = "3s"
	input.FallbackLimit = 1024
	input.Collections = "Exams, books,exams"
	input.Start = "2025-01-01"
	input.End = "2025-01-31T00:00:00Z"
	input.Writer = "  editor-42 "
	input.Output = "JSON"
	require.NoError(t, ProcessAndValidate(cfg, input))

	assert.Equal(t, 2*time.Minute, cfg.QueryTTL)
	assert.Equal(t, 3*time.Second, cfg.RemoteTimeout)
	assert.Equal(t, int64(1024), cfg.FallbackLimit)
	assert.Equal(t, []schema.Collection{schema.ExamsCollection, schema.BooksCollection}, cfg.Collections)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), cfg.StartTime)
	assert.Equal(t, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), cfg.EndTime)
	assert.Equal(t, "editor-42", cfg.Writer)
	assert.Equal(t, schema.JSONOut, cfg.Output)
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		backend schema.DatabaseBackend
		conn    string
		wantErr bool
	}{
		{schema.SQLiteBackend, "", false},
		{schema.NoneBackend, "", false},
		{schema.MySQLBackend, "root:pw@tcp(db:3306)/content", false},
		{schema.MySQLBackend, "root:pw@db/content", true},
		{schema.MySQLBackend, "root:pw@tcp(db:3306)", true},
		{schema.PostgreSQLBackend, "host=db dbname=content", false},
		{schema.PostgreSQLBackend, "dbname=content", true},
	}
	for _, tt := range tests {
		t.Run(string(tt.backend)+"/"+tt.conn, func(t *testing.T) {
			err := ValidateDatabaseConnectionString(tt.backend, tt.conn)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigClone(t *testing.T) {
	cfg := &Config{Collections: []schema.Collection{schema.BooksCollection}}
	clone := cfg.Clone()
	clone.Collections[0] = schema.ExamsCollection
	assert.Equal(t, schema.BooksCollection, cfg.Collections[0])
}

func TestProcessProfilingConfig(t *testing.T) {
	profile := &ProfileConfig{}
	assert.NoError(t, ProcessProfilingConfig(profile, ""))
	assert.False(t, profile.Enabled)

	assert.NoError(t, ProcessProfilingConfig(profile, "run"))
	assert.True(t, profile.Enabled)
	assert.Equal(t, "run", profile.Prefix)
}
