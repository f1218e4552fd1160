// Package exam assigns the global question numbering used when an exam is finalized.
package exam

import (
	"fmt"
	"slices"
	"sort"
	"strconv"

	"github.com/huangsam/tiercache/schema"
)

// Normalize returns a copy of e where every question carries one dense,
// increasing id across all test-type groups. Groups are visited in
// schema.TestTypeOrder, then any other group by name. Within a section,
// questions are ordered by their existing id, number or sub-number.
// Listening questions also get a two-digit display number. The input is not
// modified and normalizing twice yields the same exam.
func Normalize(e *schema.Exam) *schema.Exam {
	if e == nil {
		return nil
	}
	out := *e
	out.Sections = make(map[schema.TestType][]schema.Section, len(e.Sections))

	next := 1
	for _, testType := range groupOrder(e.Sections) {
		sections := e.Sections[testType]
		if sections == nil {
			out.Sections[testType] = nil
			continue
		}
		copied := make([]schema.Section, len(sections))
		for i, section := range sections {
			copied[i] = section
			copied[i].Questions = numberQuestions(section.Questions, testType, &next)
		}
		out.Sections[testType] = copied
	}
	return &out
}

// numberQuestions sorts a copy of questions and assigns ids from *next.
func numberQuestions(questions []schema.Question, testType schema.TestType, next *int) []schema.Question {
	if questions == nil {
		return nil
	}
	sorted := make([]schema.Question, len(questions))
	for i, q := range questions {
		sorted[i] = q
		sorted[i].Options = slices.Clone(q.Options)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sortKey(sorted[i]) < sortKey(sorted[j])
	})

	for i := range sorted {
		id := schema.FlexID(strconv.Itoa(*next))
		sorted[i].ID = id
		sorted[i].Number = id
		if testType == schema.ListeningTest {
			sorted[i].DisplayNumber = fmt.Sprintf("%02d", *next)
			sorted[i].SubNumber = id
		}
		*next++
	}
	return sorted
}

// sortKey is the first parseable of id, number and sub-number, or 0.
func sortKey(q schema.Question) int {
	for _, candidate := range []schema.FlexID{q.ID, q.Number, q.SubNumber} {
		if n, ok := candidate.Int(); ok {
			return n
		}
	}
	return 0
}

func groupOrder(sections map[schema.TestType][]schema.Section) []schema.TestType {
	order := make([]schema.TestType, 0, len(sections))
	known := make(map[schema.TestType]struct{}, len(schema.TestTypeOrder))
	for _, testType := range schema.TestTypeOrder {
		known[testType] = struct{}{}
		if _, ok := sections[testType]; ok {
			order = append(order, testType)
		}
	}

	var extra []schema.TestType
	for testType := range sections {
		if _, ok := known[testType]; !ok {
			extra = append(extra, testType)
		}
	}
	slices.Sort(extra)
	return append(order, extra...)
}

// CountQuestions returns the number of questions across every group.
func CountQuestions(e *schema.Exam) int {
	if e == nil {
		return 0
	}
	total := 0
	for _, sections := range e.Sections {
		for _, section := range sections {
			total += len(section.Questions)
		}
	}
	return total
}
