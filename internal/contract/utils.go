package contract

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/fatih/color"
)

// Tier availability label constants.
const (
	OnlineValue   = "Online"   // Tier is reachable and serving
	DegradedValue = "Degraded" // Tier is serving with reduced capacity
	OfflineValue  = "Offline"  // Tier is unavailable
	DisabledValue = "Disabled" // Tier is turned off by configuration
)

// Color variables for console output.
var (
	OnlineColor   = color.New(color.FgGreen, color.Bold)
	DegradedColor = color.New(color.FgYellow)
	OfflineColor  = color.New(color.FgRed, color.Bold)
	DisabledColor = color.New(color.FgCyan)
)

// logger is the process-wide structured logger. Tiers receive it through
// NewLogger or Logger so tests can swap the writer.
var logger = NewLogger(os.Stderr, DefaultLogLevel)

// NewLogger builds a structured logger writing to w at the given level.
// Unknown levels fall back to info.
func NewLogger(w io.Writer, level string) *log.Logger {
	lvl, err := ParseLogLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          "tiercache",
		Level:           lvl,
	})
}

// Logger returns the process-wide logger.
func Logger() *log.Logger {
	return logger
}

// SetLogLevel changes the level of the process-wide logger.
func SetLogLevel(level string) error {
	lvl, err := ParseLogLevel(level)
	if err != nil {
		return err
	}
	logger.SetLevel(lvl)
	return nil
}

// ParseLogLevel validates a log level name (debug, info, warn, error, fatal).
func ParseLogLevel(level string) (log.Level, error) {
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return log.InfoLevel, fmt.Errorf("invalid log level '%s'. must be debug, info, warn, error, fatal", level)
	}
	return lvl, nil
}

// GetPlainLabel returns a plain text label for the tier state.
func GetPlainLabel(enabled, available bool) string {
	switch {
	case !enabled:
		return DisabledValue
	case available:
		return OnlineValue
	default:
		return OfflineValue
	}
}

// GetColorLabel returns a colored text label for console output (table).
func GetColorLabel(label string) string {
	switch label {
	case OnlineValue:
		return OnlineColor.Sprint(label)
	case DegradedValue:
		return DegradedColor.Sprint(label)
	case OfflineValue:
		return OfflineColor.Sprint(label)
	default:
		return DisabledColor.Sprint(label)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. Empty paths mean os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	logger.Error(msg, "err", err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	logger.Warn(msg, "err", err)
}

// GetStructuredDBFilePath returns the path to the SQLite DB file for the structured local tier.
func GetStructuredDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".tiercache_structured.db"
	}
	return filepath.Join(homeDir, ".tiercache_structured.db")
}

// GetFallbackFilePath returns the path to the JSON file backing the fallback tier.
func GetFallbackFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".tiercache_fallback.json"
	}
	return filepath.Join(homeDir, ".tiercache_fallback.json")
}

// TruncateKey truncates a storage key to a maximum width with ellipsis prefix.
// Requires maxWidth > 3 to leave room for the "..." prefix and one character.
func TruncateKey(key string, maxWidth int) string {
	runes := []rune(key)
	if len(runes) > maxWidth && maxWidth > 3 {
		return "..." + string(runes[len(runes)-maxWidth+3:])
	}
	return key
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Empty input is treated as true.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
