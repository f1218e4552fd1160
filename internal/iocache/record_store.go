// Package iocache holds the device-local storage tiers: the SQL-backed structured
// record store and the quota-limited fallback key/value store.
package iocache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql" // MySQL driver
	"github.com/huangsam/tiercache/internal/contract"
	"github.com/huangsam/tiercache/schema"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver
)

// Table names for record storage.
const (
	ContentTable = "content_records"
	RemoteTable  = "remote_records"
)

// tableNameRe restricts table names to plain SQL identifiers.
var tableNameRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// RecordStore handles durable record storage using various database backends.
type RecordStore struct {
	db        *sql.DB
	tableName string
	backend   schema.DatabaseBackend
	connStr   string
}

var _ contract.StructuredStore = &RecordStore{} // Compile-time check

// NewRecordStore opens the database for the backend and ensures the record table exists.
func NewRecordStore(ctx context.Context, tableName string, backend schema.DatabaseBackend, connStr string) (*RecordStore, error) {
	// Validate table name to prevent SQL injection
	if err := validateTableName(tableName); err != nil {
		return nil, err
	}

	if backend == schema.NoneBackend {
		// Return a no-op store for a disabled tier
		return &RecordStore{tableName: tableName, backend: backend, connStr: connStr}, nil
	}

	db, err := openDatabase(backend, connStr)
	if err != nil {
		return nil, err
	}

	// Ping to verify connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s database. Check that the server is running and connection parameters are valid: %w", backend, err)
	}

	// Create the table schema
	if _, err := db.ExecContext(ctx, getCreateTableQuery(tableName, backend)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create table %s: %w", tableName, err)
	}

	return &RecordStore{
		db:        db,
		tableName: tableName,
		backend:   backend,
		connStr:   connStr,
	}, nil
}

// openDatabase opens a connection pool for the backend without verifying it.
func openDatabase(backend schema.DatabaseBackend, connStr string) (*sql.DB, error) {
	switch backend {
	case schema.SQLiteBackend:
		dbPath := connStr
		if dbPath == "" {
			dbPath = contract.GetStructuredDBFilePath()
		}
		db, err := sql.Open("sqlite", dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite database at %q: %w. Ensure the directory is writable", dbPath, err)
		}
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)
		return db, nil

	case schema.MySQLBackend:
		// connStr should be:
		// user:password@tcp(host:port)/dbname
		db, err := sql.Open("mysql", connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to open MySQL database: %w. Check connection format: user:password@tcp(host:port)/dbname", err)
		}
		return db, nil

	case schema.PostgreSQLBackend:
		// connStr should be:
		// host=localhost port=5432 user=postgres password=mysecretpassword dbname=postgres
		db, err := sql.Open("pgx", connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to open PostgreSQL database: %w. Check connection format: host=localhost port=5432 user=postgres dbname=mydb", err)
		}
		return db, nil

	default:
		return nil, fmt.Errorf("unsupported backend: %s. Must be sqlite, mysql, postgresql, or none", backend)
	}
}

// validateTableName checks that the table name is a safe SQL identifier.
func validateTableName(tableName string) error {
	if !tableNameRe.MatchString(tableName) {
		return fmt.Errorf("invalid table name %q: must start with a letter or underscore and contain only letters, digits and underscores", tableName)
	}
	return nil
}

// quoteTableName quotes the table name for the backend.
func quoteTableName(tableName string, backend schema.DatabaseBackend) string {
	if backend == schema.MySQLBackend {
		return "`" + tableName + "`"
	}
	return `"` + tableName + `"`
}

// getCreateTableQuery returns the CREATE TABLE query for the given backend.
func getCreateTableQuery(tableName string, backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(tableName, backend)
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				collection VARCHAR(64) NOT NULL,
				record_key VARCHAR(255) NOT NULL,
				payload LONGBLOB NOT NULL,
				updated_at BIGINT NOT NULL,
				updated_by VARCHAR(255) NOT NULL DEFAULT '',
				PRIMARY KEY (collection, record_key)
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				collection TEXT NOT NULL,
				record_key TEXT NOT NULL,
				payload BYTEA NOT NULL,
				updated_at BIGINT NOT NULL,
				updated_by TEXT NOT NULL DEFAULT '',
				PRIMARY KEY (collection, record_key)
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				collection TEXT NOT NULL,
				record_key TEXT NOT NULL,
				payload BLOB NOT NULL,
				updated_at INTEGER NOT NULL,
				updated_by TEXT NOT NULL DEFAULT '',
				PRIMARY KEY (collection, record_key)
			);
		`, quotedTableName)
	}
}

// disabled reports whether the store is a no-op.
func (rs *RecordStore) disabled() bool {
	return rs.backend == schema.NoneBackend || rs.db == nil
}

// Backend returns the configured backend.
func (rs *RecordStore) Backend() schema.DatabaseBackend {
	return rs.backend
}

// Get retrieves the payload stored for collection and key.
func (rs *RecordStore) Get(ctx context.Context, collection schema.Collection, key schema.CompositeKey) ([]byte, error) {
	if rs.disabled() {
		return nil, contract.ErrNotFound
	}

	query := fmt.Sprintf(`SELECT payload FROM %s WHERE collection = %s AND record_key = %s`,
		quoteTableName(rs.tableName, rs.backend), rs.placeholder(1), rs.placeholder(2))

	var payload []byte
	if err := rs.db.QueryRowContext(ctx, query, string(collection), key.String()).Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, contract.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", schema.StorageKey(collection, key), err)
	}
	return payload, nil
}

// Put inserts or replaces a record.
func (rs *RecordStore) Put(ctx context.Context, record schema.StoredRecord) error {
	if rs.disabled() {
		return nil
	}

	updatedAt := record.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	payload := record.Payload
	if payload == nil {
		payload = []byte{}
	}

	_, err := rs.db.ExecContext(ctx, rs.getUpsertQuery(),
		string(record.Collection), record.Key.String(), payload, updatedAt.UnixMilli(), record.UpdatedBy)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", schema.StorageKey(record.Collection, record.Key), err)
	}
	return nil
}

// Delete removes the record for collection and key. Missing records are not an error.
func (rs *RecordStore) Delete(ctx context.Context, collection schema.Collection, key schema.CompositeKey) error {
	if rs.disabled() {
		return nil
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE collection = %s AND record_key = %s`,
		quoteTableName(rs.tableName, rs.backend), rs.placeholder(1), rs.placeholder(2))
	if _, err := rs.db.ExecContext(ctx, query, string(collection), key.String()); err != nil {
		return fmt.Errorf("failed to delete %s: %w", schema.StorageKey(collection, key), err)
	}
	return nil
}

// List returns the records of a collection whose key starts with prefix.
func (rs *RecordStore) List(ctx context.Context, collection schema.Collection, prefix schema.CompositeKey) ([]schema.StoredRecord, error) {
	if rs.disabled() {
		return nil, nil
	}

	var (
		conds []string
		args  []any
	)
	if collection != "" {
		args = append(args, string(collection))
		conds = append(conds, "collection = "+rs.placeholder(len(args)))
	}
	if len(prefix) > 0 {
		args = append(args, prefix.String(), escapeLike(prefix.String())+":%")
		conds = append(conds, fmt.Sprintf("(record_key = %s OR record_key LIKE %s ESCAPE '!')",
			rs.placeholder(len(args)-1), rs.placeholder(len(args))))
	}

	records, err := rs.queryRecords(ctx, conds, args)
	if err != nil {
		return nil, err
	}

	// LIKE is case-insensitive on some backends
	filtered := records[:0]
	for _, r := range records {
		if r.Key.HasPrefix(prefix) {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

// ListRange returns records updated within [start, end] for the given collections.
func (rs *RecordStore) ListRange(ctx context.Context, start, end time.Time, collections []schema.Collection) ([]schema.StoredRecord, error) {
	if rs.disabled() {
		return nil, nil
	}

	var (
		conds []string
		args  []any
	)
	if !start.IsZero() {
		args = append(args, start.UnixMilli())
		conds = append(conds, "updated_at >= "+rs.placeholder(len(args)))
	}
	if !end.IsZero() {
		args = append(args, end.UnixMilli())
		conds = append(conds, "updated_at <= "+rs.placeholder(len(args)))
	}
	if len(collections) > 0 {
		marks := make([]string, 0, len(collections))
		for _, c := range collections {
			args = append(args, string(c))
			marks = append(marks, rs.placeholder(len(args)))
		}
		conds = append(conds, fmt.Sprintf("collection IN (%s)", strings.Join(marks, ", ")))
	}
	return rs.queryRecords(ctx, conds, args)
}

// queryRecords runs a SELECT over the record table with the given conditions.
func (rs *RecordStore) queryRecords(ctx context.Context, conds []string, args []any) ([]schema.StoredRecord, error) {
	query := fmt.Sprintf("SELECT collection, record_key, payload, updated_at, updated_by FROM %s",
		quoteTableName(rs.tableName, rs.backend))
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY collection, record_key"

	rows, err := rs.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.StoredRecord
	for rows.Next() {
		var (
			collection, key string
			updatedAt       int64
			record          schema.StoredRecord
		)
		if err := rows.Scan(&collection, &key, &record.Payload, &updatedAt, &record.UpdatedBy); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		record.Collection = schema.Collection(collection)
		record.Key = schema.ParseKey(key)
		record.UpdatedAt = time.UnixMilli(updatedAt).UTC()
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}
	return results, nil
}

// placeholder returns the n-th (1-based) parameter placeholder for the backend.
func (rs *RecordStore) placeholder(n int) string {
	switch rs.backend {
	case schema.PostgreSQLBackend:
		return fmt.Sprintf("$%d", n)
	default: // SQLite and MySQL
		return "?"
	}
}

// getUpsertQuery returns the UPSERT query for the backend.
func (rs *RecordStore) getUpsertQuery() string {
	quotedTableName := quoteTableName(rs.tableName, rs.backend)
	switch rs.backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (collection, record_key, payload, updated_at, updated_by) VALUES (?, ?, ?, ?, ?) AS new
			ON DUPLICATE KEY UPDATE payload = new.payload, updated_at = new.updated_at, updated_by = new.updated_by`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (collection, record_key, payload, updated_at, updated_by) VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (collection, record_key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at, updated_by = EXCLUDED.updated_by`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`INSERT OR REPLACE INTO %s (collection, record_key, payload, updated_at, updated_by) VALUES (?, ?, ?, ?, ?)`, quotedTableName)
	}
}

// escapeLike escapes LIKE wildcards using '!' as the escape character.
func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}

// Ping verifies the database is reachable.
func (rs *RecordStore) Ping(ctx context.Context) error {
	if rs.disabled() {
		return fmt.Errorf("record store %s is disabled", rs.tableName)
	}
	return rs.db.PingContext(ctx)
}

// Close closes the underlying DB connection.
func (rs *RecordStore) Close() error {
	if rs.db != nil {
		return rs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the record store.
func (rs *RecordStore) GetStatus(ctx context.Context) (schema.StructuredStatus, error) {
	status := schema.StructuredStatus{
		Backend:   string(rs.backend),
		Connected: rs.db != nil,
	}

	if rs.disabled() {
		return status, nil
	}

	quotedTableName := quoteTableName(rs.tableName, rs.backend)

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", quotedTableName)
	if err := rs.db.QueryRowContext(ctx, countQuery).Scan(&status.TotalRecords); err != nil {
		return status, fmt.Errorf("failed to get total records: %w", err)
	}

	if status.TotalRecords > 0 {
		var lastTs, oldestTs int64
		rangeQuery := fmt.Sprintf("SELECT MAX(updated_at), MIN(updated_at) FROM %s", quotedTableName)
		if err := rs.db.QueryRowContext(ctx, rangeQuery).Scan(&lastTs, &oldestTs); err != nil {
			return status, fmt.Errorf("failed to get record time range: %w", err)
		}
		status.LastUpdateTime = time.UnixMilli(lastTs)
		status.OldestEntryTime = time.UnixMilli(oldestTs)
	}

	status.TableSizeBytes = rs.estimateSize(ctx, status.TotalRecords)
	return status, nil
}

// estimateSize asks the backend for the table size, falling back to a rough per-row estimate.
func (rs *RecordStore) estimateSize(ctx context.Context, totalRecords int) int64 {
	rough := int64(totalRecords) * 1000
	var size int64

	switch rs.backend {
	case schema.SQLiteBackend:
		sizeQuery := "SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()"
		if err := rs.db.QueryRowContext(ctx, sizeQuery).Scan(&size); err != nil {
			return 0
		}
		return size

	case schema.MySQLBackend:
		cfg, err := mysql.ParseDSN(rs.connStr)
		if err != nil || cfg.DBName == "" {
			return rough
		}
		sizeQuery := "SELECT data_length + index_length FROM information_schema.tables WHERE table_schema = ? AND table_name = ?"
		if err := rs.db.QueryRowContext(ctx, sizeQuery, cfg.DBName, rs.tableName).Scan(&size); err != nil {
			return rough
		}
		return size

	case schema.PostgreSQLBackend:
		if err := rs.db.QueryRowContext(ctx, "SELECT pg_total_relation_size($1)", rs.tableName).Scan(&size); err != nil {
			return rough
		}
		return size
	}
	return rough
}
