package schema

// Custom string types for type safety.
type (
	// Collection represents a kind of learning content handled by the storage manager.
	Collection string

	// TestType represents one of the exam question groups.
	TestType string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for a SQL-backed tier.
	DatabaseBackend string

	// Tier identifies one of the storage layers.
	Tier string
)

// All content collections supported.
const (
	BooksCollection       Collection = "books"
	SeriesCollection      Collection = "series"
	ChaptersCollection    Collection = "chapters"
	LessonsCollection     Collection = "lessons"
	QuizzesCollection     Collection = "quizzes"
	ExamsCollection       Collection = "exams"
	LevelConfigCollection Collection = "level_config"
)

// All exam test types, in normalization priority order.
const (
	KnowledgeTest TestType = "knowledge"
	ReadingTest   TestType = "reading"
	ListeningTest TestType = "listening"
)

// All output modes supported.
const (
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// All storage tiers, from most to least authoritative.
const (
	RemoteTier     Tier = "remote"
	StructuredTier Tier = "structured"
	FallbackTier   Tier = "fallback"
	QueryTier      Tier = "query"
)

// AllCollections returns every collection in a stable order.
var AllCollections = []Collection{
	BooksCollection,
	SeriesCollection,
	ChaptersCollection,
	LessonsCollection,
	QuizzesCollection,
	ExamsCollection,
	LevelConfigCollection,
}

// TestTypeOrder is the fixed priority order used when assigning global question ids.
var TestTypeOrder = []TestType{KnowledgeTest, ReadingTest, ListeningTest}

// ValidCollections lists all valid collections.
var ValidCollections = map[Collection]struct{}{
	BooksCollection:       {},
	SeriesCollection:      {},
	ChaptersCollection:    {},
	LessonsCollection:     {},
	QuizzesCollection:     {},
	ExamsCollection:       {},
	LevelConfigCollection: {},
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}
