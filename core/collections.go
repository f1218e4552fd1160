package core

import (
	"context"
	"fmt"

	"github.com/huangsam/tiercache/core/exam"
	"github.com/huangsam/tiercache/schema"
)

// Operation names used as query cache keys.
const (
	opGetBooks       = "getBooks"
	opGetSeries      = "getSeries"
	opGetChapters    = "getChapters"
	opGetLessons     = "getLessons"
	opGetQuiz        = "getQuiz"
	opGetExams       = "getExams"
	opGetExam        = "getExam"
	opGetLevelConfig = "getLevelConfig"
)

// RawCollection is the untyped view of a Collection used by the CLI and MCP
// server, which move payloads as JSON.
type RawCollection interface {
	Name() schema.Collection
	Arity() int
	GetPayload(ctx context.Context, key schema.CompositeKey) ([]byte, bool)
	SavePayload(ctx context.Context, key schema.CompositeKey, payload []byte) bool
	Delete(ctx context.Context, key schema.CompositeKey) bool
}

var (
	_ RawCollection = &Collection[[]schema.Book]{} // Compile-time check
	_ RawCollection = &Collection[*schema.Exam]{}  // Compile-time check
)

func (m *StorageManager) registerCollections() {
	m.books = newCollection[[]schema.Book](m, schema.BooksCollection, opGetBooks, 1, ListCodec[schema.Book]{})
	m.series = newCollection[[]schema.Series](m, schema.SeriesCollection, opGetSeries, 1, ListCodec[schema.Series]{})
	m.chapters = newCollection[[]schema.Chapter](m, schema.ChaptersCollection, opGetChapters, 1, ListCodec[schema.Chapter]{})
	m.lessons = newCollection[[]schema.Lesson](m, schema.LessonsCollection, opGetLessons, 2, ListCodec[schema.Lesson]{})
	m.quizzes = newCollection[*schema.Quiz](m, schema.QuizzesCollection, opGetQuiz, 3, ObjectCodec[schema.Quiz]{})
	m.exams = newCollection[[]schema.ExamSummary](m, schema.ExamsCollection, opGetExams, 1, ListCodec[schema.ExamSummary]{})
	m.exam = newCollection[*schema.Exam](m, schema.ExamsCollection, opGetExam, 2, ObjectCodec[schema.Exam]{})
	m.levelConfig = newCollection[*schema.LevelConfig](m, schema.LevelConfigCollection, opGetLevelConfig, 2, ObjectCodec[schema.LevelConfig]{})

	// A single exam is listed under its level.
	m.exam.dependents = []dependentQuery{{op: opGetExams, scope: schema.CompositeKey.Parent}}
}

// Books is keyed by (level).
func (m *StorageManager) Books() *Collection[[]schema.Book] { return m.books }

// Series is keyed by (level).
func (m *StorageManager) Series() *Collection[[]schema.Series] { return m.series }

// Chapters is keyed by (bookId).
func (m *StorageManager) Chapters() *Collection[[]schema.Chapter] { return m.chapters }

// Lessons is keyed by (bookId, chapterId).
func (m *StorageManager) Lessons() *Collection[[]schema.Lesson] { return m.lessons }

// Quizzes is keyed by (bookId, chapterId, lessonId).
func (m *StorageManager) Quizzes() *Collection[*schema.Quiz] { return m.quizzes }

// Exams lists the exams of a level, keyed by (level).
func (m *StorageManager) Exams() *Collection[[]schema.ExamSummary] { return m.exams }

// Exam is keyed by (level, examId).
func (m *StorageManager) Exam() *Collection[*schema.Exam] { return m.exam }

// LevelConfig is keyed by (level, examId).
func (m *StorageManager) LevelConfig() *Collection[*schema.LevelConfig] { return m.levelConfig }

// Raw returns the untyped accessor for a collection and key arity. The exams
// collection holds both the per-level list (arity 1) and single exams (arity 2).
func (m *StorageManager) Raw(collection schema.Collection, arity int) (RawCollection, error) {
	var candidates []RawCollection
	switch collection {
	case schema.BooksCollection:
		candidates = []RawCollection{m.books}
	case schema.SeriesCollection:
		candidates = []RawCollection{m.series}
	case schema.ChaptersCollection:
		candidates = []RawCollection{m.chapters}
	case schema.LessonsCollection:
		candidates = []RawCollection{m.lessons}
	case schema.QuizzesCollection:
		candidates = []RawCollection{m.quizzes}
	case schema.ExamsCollection:
		candidates = []RawCollection{m.exams, m.exam}
	case schema.LevelConfigCollection:
		candidates = []RawCollection{m.levelConfig}
	default:
		return nil, fmt.Errorf("unknown collection %q", collection)
	}
	for _, c := range candidates {
		if c.Arity() == arity {
			return c, nil
		}
	}
	return nil, fmt.Errorf("collection %q has no records keyed by %d parts", collection, arity)
}

// FinalizeExam assigns global question ids to e and saves the result under
// (level, examId). It returns the normalized exam and whether the save landed.
func (m *StorageManager) FinalizeExam(ctx context.Context, level, examID string, e *schema.Exam) (*schema.Exam, bool) {
	normalized := exam.Normalize(e)
	return normalized, m.exam.Save(ctx, schema.Key(level, examID), normalized)
}
