package schema

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Book is a textbook available for a level.
type Book struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Level       string `json:"level,omitempty"`
	Description string `json:"description,omitempty"`
	CoverURL    string `json:"coverUrl,omitempty"`
	Order       int    `json:"order,omitempty"`
}

// Series groups books published together for a level.
type Series struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Level   string   `json:"level,omitempty"`
	BookIDs []string `json:"bookIds,omitempty"`
}

// Chapter is an ordered part of a book.
type Chapter struct {
	ID     string `json:"id"`
	BookID string `json:"bookId,omitempty"`
	Title  string `json:"title"`
	Order  int    `json:"order,omitempty"`
}

// Lesson is an ordered part of a chapter.
type Lesson struct {
	ID        string `json:"id"`
	ChapterID string `json:"chapterId,omitempty"`
	Title     string `json:"title"`
	Content   string `json:"content,omitempty"`
	Order     int    `json:"order,omitempty"`
}

// Quiz is the practice set attached to a lesson.
type Quiz struct {
	ID        string     `json:"id"`
	LessonID  string     `json:"lessonId,omitempty"`
	Title     string     `json:"title,omitempty"`
	Questions []Question `json:"questions"`
}

// ExamSummary is the list entry shown for an exam of a level.
type ExamSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Level string `json:"level,omitempty"`
}

// Exam is a full exam with its sections grouped by test type.
type Exam struct {
	ID              string                 `json:"id"`
	Level           string                 `json:"level,omitempty"`
	Title           string                 `json:"title,omitempty"`
	DurationMinutes int                    `json:"durationMinutes,omitempty"`
	Sections        map[TestType][]Section `json:"sections"`
}

// Section is an ordered list of questions within a test type.
type Section struct {
	ID           string     `json:"id,omitempty"`
	Title        string     `json:"title,omitempty"`
	Instructions string     `json:"instructions,omitempty"`
	Questions    []Question `json:"questions"`
}

// Question is a single exam or quiz item.
type Question struct {
	ID            FlexID   `json:"id,omitempty"`
	Number        FlexID   `json:"number,omitempty"`
	SubNumber     FlexID   `json:"subNumber,omitempty"`
	DisplayNumber string   `json:"displayNumber,omitempty"`
	Text          string   `json:"text,omitempty"`
	Options       []string `json:"options,omitempty"`
	Answer        string   `json:"answer,omitempty"`
	AudioURL      string   `json:"audioUrl,omitempty"`
	Explanation   string   `json:"explanation,omitempty"`
}

// LevelConfig holds scoring and timing settings of an exam for a level.
type LevelConfig struct {
	Level        string           `json:"level"`
	ExamID       string           `json:"examId,omitempty"`
	PassingScore int              `json:"passingScore,omitempty"`
	MaxScore     int              `json:"maxScore,omitempty"`
	TimeLimits   map[TestType]int `json:"timeLimits,omitempty"`
}

// FlexID is an identifier that may arrive as either a JSON string or a JSON number.
type FlexID string

// UnmarshalJSON accepts strings, numbers and null.
func (f *FlexID) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*f = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexID(s)
		return nil
	}
	*f = FlexID(raw)
	return nil
}

// Int parses the identifier as an integer on a best-effort basis.
func (f FlexID) Int() (int, bool) {
	s := strings.TrimSpace(string(f))
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		return int(v), true
	}
	return 0, false
}
