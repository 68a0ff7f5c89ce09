package dictionary

import "context"

// LookupResult contains the result of a dictionary lookup.
type LookupResult struct {
	Word     string
	Language string
	Meanings []Meaning
}

// Meaning groups definitions under a part of speech.
type Meaning struct {
	PartOfSpeech string
	Definitions  []Definition
}

// Definition is a single sense of a word.
type Definition struct {
	Definition string
	Example    string
}

// FirstDefinition returns the first definition of the first meaning, or the
// empty string when the response shape lacks that path.
func (r *LookupResult) FirstDefinition() string {
	if r == nil || len(r.Meanings) == 0 {
		return ""
	}
	defs := r.Meanings[0].Definitions
	if len(defs) == 0 {
		return ""
	}
	return defs[0].Definition
}

// Client defines the interface for dictionary API providers.
type Client interface {
	Lookup(ctx context.Context, language, word string) (*LookupResult, error)
	Name() string
}
