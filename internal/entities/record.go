package entities

import "time"

// VocabRecord is the common record shape produced by both source parsers.
// The word is the identity key used for deduplication; Language and
// Definition stay empty until the detection and enrichment stages run.
type VocabRecord struct {
	// Word is the looked-up stem or clipping body, trimmed, with commas removed.
	Word string

	// Context is a usage excerpt (vocab.db) or the book title (clippings).
	// May be empty.
	Context string

	// Timestamp is when the word was captured. The zero value means the
	// timestamp was unavailable or unparseable.
	Timestamp time.Time

	// Book is the source book title, may be empty.
	Book string

	// Language is the dictionary-service language code assigned by detection.
	Language string

	// Definition is filled by enrichment; empty on lookup failure.
	Definition string
}

// HasTimestamp reports whether a capture time is known for the record.
func (r VocabRecord) HasTimestamp() bool {
	return !r.Timestamp.IsZero()
}
