package pipeline

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/mrlokans/kindledeck/internal/entities"
)

// Criteria narrows the record set before enrichment. Zero-value bounds and
// empty sets mean "no restriction". Book titles and language codes match
// exactly (multi-select semantics).
type Criteria struct {
	Start     time.Time
	End       time.Time
	Books     []string
	Languages []string
}

// EndOfDay returns the last representable millisecond of the given day,
// for use as an inclusive end bound.
func EndOfDay(day time.Time) time.Time {
	return day.Add(24*time.Hour - time.Millisecond)
}

// Validate checks the criteria are internally consistent.
func (c Criteria) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.End, validation.By(func(any) error {
			if !c.Start.IsZero() && !c.End.IsZero() && c.End.Before(c.Start) {
				return validation.NewError("validation_date_range", "end date must not precede start date")
			}
			return nil
		})),
		validation.Field(&c.Books, validation.Each(validation.Required)),
		validation.Field(&c.Languages, validation.Each(validation.Required)),
	)
}

func (c Criteria) hasDateFilter() bool {
	return !c.Start.IsZero() || !c.End.IsZero()
}

// Apply returns the subsequence of records matching the criteria,
// order-preserving. A record without a timestamp passes only when no date
// bound is active at all.
func (c Criteria) Apply(records []entities.VocabRecord) []entities.VocabRecord {
	books := toSet(c.Books)
	languages := toSet(c.Languages)

	result := make([]entities.VocabRecord, 0, len(records))
	for _, record := range records {
		if c.hasDateFilter() {
			if !record.HasTimestamp() {
				continue
			}
			if !c.Start.IsZero() && record.Timestamp.Before(c.Start) {
				continue
			}
			if !c.End.IsZero() && record.Timestamp.After(c.End) {
				continue
			}
		}

		if len(books) > 0 {
			if _, ok := books[record.Book]; !ok {
				continue
			}
		}

		if len(languages) > 0 {
			if _, ok := languages[record.Language]; !ok {
				continue
			}
		}

		result = append(result, record)
	}

	return result
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
