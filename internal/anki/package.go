// Package anki assembles enriched vocabulary records into an Anki package
// and serializes it to the .apkg archive format.
package anki

// Field is a note-type field definition.
type Field struct {
	Name string
}

// Template is a card rendering rule within a note type.
type Template struct {
	Name           string
	QuestionFormat string
	AnswerFormat   string
}

// NoteType is the front/back card model shared by every note in a package.
// Created once per export run.
type NoteType struct {
	ID        int64
	Name      string
	Fields    []Field
	Templates []Template
}

// Note is a single flashcard's content plus its identity metadata. USN is
// the update sequence marker; -1 marks the note as new for the importer.
type Note struct {
	ID       int64
	GUID     string
	Modified int64 // epoch seconds, strictly increasing with batch position
	USN      int
	Tags     []string
	Fields   []string
}

// Deck holds the notes under a name and identifier. The identifier always
// differs from the note type's within the same package.
type Deck struct {
	ID    int64
	Name  string
	Notes []Note
}

// Package is the unit handed to the exporter: one note type, one deck.
type Package struct {
	NoteType NoteType
	Deck     Deck
}

// Artifact is the serialized deck: raw .apkg bytes plus the filename
// derived from the deck name.
type Artifact struct {
	Filename string
	Data     []byte
}
