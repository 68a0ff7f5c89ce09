package pipeline

import "github.com/mrlokans/kindledeck/internal/entities"

// Deduplicate collapses records sharing a word, keeping the first occurrence
// in the combined parse order. Order-preserving.
func Deduplicate(records []entities.VocabRecord) []entities.VocabRecord {
	seen := make(map[string]struct{}, len(records))
	result := make([]entities.VocabRecord, 0, len(records))

	for _, record := range records {
		if _, ok := seen[record.Word]; ok {
			continue
		}
		seen[record.Word] = struct{}{}
		result = append(result, record)
	}

	return result
}
