package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mrlokans/kindledeck/internal/entities"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestEndOfDay(t *testing.T) {
	end := EndOfDay(day(2024, time.January, 15))
	assert.Equal(t, time.Date(2024, time.January, 15, 23, 59, 59, 999000000, time.UTC), end)
}

func TestApply_DateRangeInclusive(t *testing.T) {
	c := Criteria{
		Start: day(2024, time.January, 10),
		End:   EndOfDay(day(2024, time.January, 20)),
	}

	records := []entities.VocabRecord{
		{Word: "before", Timestamp: day(2024, time.January, 9)},
		{Word: "on-start", Timestamp: day(2024, time.January, 10)},
		{Word: "inside", Timestamp: day(2024, time.January, 15)},
		{Word: "on-end", Timestamp: time.Date(2024, time.January, 20, 23, 59, 59, 999000000, time.UTC)},
		{Word: "after", Timestamp: day(2024, time.January, 21)},
	}

	result := c.Apply(records)

	words := make([]string, 0, len(result))
	for _, r := range result {
		words = append(words, r.Word)
	}
	assert.Equal(t, []string{"on-start", "inside", "on-end"}, words)
}

func TestApply_NoTimestampExcludedWhenDateFilterActive(t *testing.T) {
	records := []entities.VocabRecord{
		{Word: "undated"},
		{Word: "dated", Timestamp: day(2024, time.January, 15)},
	}

	onlyStart := Criteria{Start: day(2024, time.January, 1)}
	result := onlyStart.Apply(records)
	assert.Len(t, result, 1)
	assert.Equal(t, "dated", result[0].Word)

	onlyEnd := Criteria{End: EndOfDay(day(2024, time.December, 31))}
	result = onlyEnd.Apply(records)
	assert.Len(t, result, 1)
	assert.Equal(t, "dated", result[0].Word)
}

func TestApply_NoTimestampPassesWithoutDateFilter(t *testing.T) {
	c := Criteria{Books: []string{"Book A"}}

	records := []entities.VocabRecord{
		{Word: "undated", Book: "Book A"},
	}

	result := c.Apply(records)
	assert.Len(t, result, 1)
}

func TestApply_BookSetExactMatch(t *testing.T) {
	c := Criteria{Books: []string{"Book A", "Book C"}}

	records := []entities.VocabRecord{
		{Word: "a", Book: "Book A"},
		{Word: "b", Book: "Book B"},
		{Word: "c", Book: "Book C"},
		{Word: "partial", Book: "Book A Second Edition"},
	}

	result := c.Apply(records)
	assert.Len(t, result, 2)
	assert.Equal(t, "a", result[0].Word)
	assert.Equal(t, "c", result[1].Word)
}

func TestApply_LanguageSet(t *testing.T) {
	c := Criteria{Languages: []string{"fr"}}

	records := []entities.VocabRecord{
		{Word: "hello", Language: "en"},
		{Word: "bonjour", Language: "fr"},
	}

	result := c.Apply(records)
	assert.Len(t, result, 1)
	assert.Equal(t, "bonjour", result[0].Word)
}

func TestApply_EmptyCriteriaKeepsEverything(t *testing.T) {
	records := []entities.VocabRecord{
		{Word: "a"},
		{Word: "b", Timestamp: day(2024, time.June, 1)},
	}

	result := Criteria{}.Apply(records)
	assert.Len(t, result, 2)
}

func TestApply_PreservesOrder(t *testing.T) {
	c := Criteria{Languages: []string{"en"}}

	records := []entities.VocabRecord{
		{Word: "z", Language: "en"},
		{Word: "a", Language: "en"},
		{Word: "skip", Language: "fr"},
		{Word: "m", Language: "en"},
	}

	result := c.Apply(records)
	words := make([]string, 0, len(result))
	for _, r := range result {
		words = append(words, r.Word)
	}
	assert.Equal(t, []string{"z", "a", "m"}, words)
}

func TestCriteriaValidate(t *testing.T) {
	valid := Criteria{
		Start: day(2024, time.January, 1),
		End:   EndOfDay(day(2024, time.January, 31)),
	}
	assert.NoError(t, valid.Validate())

	inverted := Criteria{
		Start: day(2024, time.February, 1),
		End:   day(2024, time.January, 1),
	}
	assert.Error(t, inverted.Validate())

	blankBook := Criteria{Books: []string{""}}
	assert.Error(t, blankBook.Validate())

	assert.NoError(t, Criteria{}.Validate())
}
