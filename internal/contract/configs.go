package contract

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/huangsam/tiercache/schema"
)

// Default values for configuration.
const (
	DefaultQueryTTL      = 5 * time.Minute
	DefaultFallbackLimit = 5 * 1024 * 1024
	DefaultRemoteTimeout = 10 * time.Second
	DefaultLogLevel      = "info"
)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// Config holds the runtime configuration for the storage manager.
// This struct is the "final, validated" config.
type Config struct {
	StructuredBackend   schema.DatabaseBackend
	StructuredDBConnect string // Please use env var as this is plaintext

	FallbackPath  string
	FallbackLimit int64

	RemoteBackend   schema.DatabaseBackend
	RemoteDBConnect string // Please use env var as this is plaintext
	RemoteTimeout   time.Duration

	QueryTTL        time.Duration
	QueryMaxEntries int // 0 means bounded by TTL only
	Writer          string

	Output     schema.OutputMode
	OutputFile string
	LogLevel   string
	UseColors  bool

	// Export filters
	Collections []schema.Collection
	StartTime   time.Time
	EndTime     time.Time
}

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	StructuredBackend   string `mapstructure:"structured-backend"`
	StructuredDBConnect string `mapstructure:"structured-db-connect"`
	FallbackPath        string `mapstructure:"fallback-path"`
	FallbackLimit       int64  `mapstructure:"fallback-limit"`
	RemoteBackend       string `mapstructure:"remote-backend"`
	RemoteDBConnect     string `mapstructure:"remote-db-connect"`
	RemoteTimeout       string `mapstructure:"remote-timeout"`
	QueryTTL            string `mapstructure:"query-ttl"`
	QueryMaxEntries     int    `mapstructure:"query-max-entries"`
	Writer              string `mapstructure:"writer"`
	Output              string `mapstructure:"output"`
	OutputFile          string `mapstructure:"output-file"`
	LogLevel            string `mapstructure:"log-level"`
	Color               string `mapstructure:"color"`

	// --- Fields from exportCmd.Flags() ---
	Collections string `mapstructure:"collections"`
	Start       string `mapstructure:"start"`
	End         string `mapstructure:"end"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Collections != nil {
		clone.Collections = slices.Clone(c.Collections)
	}
	return &clone
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	if err := processDurations(cfg, input); err != nil {
		return err
	}
	if err := processExportFilters(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateSimpleInputs transfers and validates the non-backend fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Writer = strings.TrimSpace(input.Writer)

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, json, parquet", input.Output)
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(input.LogLevel))
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if _, err := ParseLogLevel(cfg.LogLevel); err != nil {
		return err
	}

	if input.FallbackLimit < 0 {
		return fmt.Errorf("fallback-limit cannot be negative (received %d)", input.FallbackLimit)
	}
	cfg.FallbackLimit = input.FallbackLimit
	if cfg.FallbackLimit == 0 {
		cfg.FallbackLimit = DefaultFallbackLimit
	}

	cfg.FallbackPath = input.FallbackPath
	if cfg.FallbackPath == "" {
		cfg.FallbackPath = GetFallbackFilePath()
	}
	return nil
}

// validateBackendConfigs validates structured and remote backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Structured Backend Validation ---
	cfg.StructuredBackend = schema.DatabaseBackend(strings.ToLower(input.StructuredBackend))
	if cfg.StructuredBackend == "" {
		cfg.StructuredBackend = schema.SQLiteBackend
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.StructuredBackend]; !ok {
		return fmt.Errorf("invalid structured backend '%s'. must be sqlite, mysql, postgresql, none", input.StructuredBackend)
	}
	cfg.StructuredDBConnect = input.StructuredDBConnect
	if err := ValidateDatabaseConnectionString(cfg.StructuredBackend, cfg.StructuredDBConnect); err != nil {
		return err
	}

	// --- Remote Backend Validation ---
	cfg.RemoteBackend = schema.DatabaseBackend(strings.ToLower(input.RemoteBackend))
	if cfg.RemoteBackend == "" {
		cfg.RemoteBackend = schema.NoneBackend
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.RemoteBackend]; !ok {
		return fmt.Errorf("invalid remote backend '%s'. must be sqlite, mysql, postgresql, none", input.RemoteBackend)
	}
	cfg.RemoteDBConnect = input.RemoteDBConnect
	if cfg.RemoteBackend == schema.SQLiteBackend && cfg.RemoteDBConnect == "" {
		return fmt.Errorf("remote-db-connect is required when using the sqlite remote backend")
	}
	if err := ValidateDatabaseConnectionString(cfg.RemoteBackend, cfg.RemoteDBConnect); err != nil {
		return err
	}

	// The remote tier must never share storage with the local structured tier
	if cfg.RemoteBackend == cfg.StructuredBackend && cfg.RemoteBackend != schema.NoneBackend {
		structuredConn := cfg.StructuredDBConnect
		if cfg.StructuredBackend == schema.SQLiteBackend && structuredConn == "" {
			structuredConn = GetStructuredDBFilePath()
		}
		if structuredConn == cfg.RemoteDBConnect {
			return fmt.Errorf("remote and structured tiers must use different databases. Both resolve to %q", structuredConn)
		}
	}
	return nil
}

// processDurations parses the TTL and timeout settings.
func processDurations(cfg *Config, input *ConfigRawInput) error {
	cfg.QueryTTL = DefaultQueryTTL
	if input.QueryTTL != "" {
		ttl, err := ParseDuration(input.QueryTTL)
		if err != nil {
			return fmt.Errorf("invalid query-ttl: %w", err)
		}
		cfg.QueryTTL = ttl
	}

	if input.QueryMaxEntries < 0 {
		return fmt.Errorf("query-max-entries must be zero or positive, got %d", input.QueryMaxEntries)
	}
	cfg.QueryMaxEntries = input.QueryMaxEntries

	cfg.RemoteTimeout = DefaultRemoteTimeout
	if input.RemoteTimeout != "" {
		timeout, err := ParseDuration(input.RemoteTimeout)
		if err != nil {
			return fmt.Errorf("invalid remote-timeout: %w", err)
		}
		cfg.RemoteTimeout = timeout
	}
	return nil
}

// processExportFilters handles the collection list and date range used by exports.
func processExportFilters(cfg *Config, input *ConfigRawInput) error {
	collections, err := ParseCollections(input.Collections)
	if err != nil {
		return err
	}
	cfg.Collections = collections

	now := time.Now()
	cfg.StartTime = time.Time{}
	cfg.EndTime = time.Time{}

	if input.Start != "" {
		t, err := ParseTimeBound(input.Start, now)
		if err != nil {
			return fmt.Errorf("invalid start date format for '%s'. Expected ISO8601, YYYY-MM-DD or 'N [units] ago': %w", input.Start, err)
		}
		cfg.StartTime = t
	}
	if input.End != "" {
		t, err := ParseTimeBound(input.End, now)
		if err != nil {
			return fmt.Errorf("invalid end date format for '%s'. Expected ISO8601, YYYY-MM-DD or 'N [units] ago': %w", input.End, err)
		}
		cfg.EndTime = t
	}

	if !cfg.StartTime.IsZero() && !cfg.EndTime.IsZero() && cfg.StartTime.After(cfg.EndTime) {
		return fmt.Errorf("start time (%s) cannot be after end time (%s)", cfg.StartTime.Format(DateTimeFormat), cfg.EndTime.Format(DateTimeFormat))
	}
	return nil
}

// ParseCollections parses a comma-separated collection list. Empty input means all collections.
func ParseCollections(s string) ([]schema.Collection, error) {
	var result []schema.Collection
	for part := range strings.SplitSeq(s, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		collection := schema.Collection(name)
		if _, ok := schema.ValidCollections[collection]; !ok {
			return nil, fmt.Errorf("invalid collection '%s'", part)
		}
		if !slices.Contains(result, collection) {
			result = append(result, collection)
		}
	}
	return result, nil
}

// ProcessProfilingConfig enables profiling when a file prefix is given.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}
