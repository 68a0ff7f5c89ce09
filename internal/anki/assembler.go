package anki

import (
	"crypto/sha1"
	"fmt"
	"strings"

	"github.com/mrlokans/kindledeck/internal/entities"
)

const (
	noteTypeName = "Basic"

	questionFormat = "{{Front}}"
	answerFormat   = "{{FrontSide}}\n\n<hr id=answer>\n\n{{Back}}"

	// Shown on the back when no definition could be resolved, so the card
	// still renders.
	emptyBackPlaceholder = "&nbsp;"
)

// BuildPackage turns enriched records into a package: one Basic note type,
// one deck named deckName, one note per record. Identifiers are unique
// within the package and note modification timestamps increase strictly
// with position.
func BuildPackage(deckName string, records []entities.VocabRecord) (*Package, error) {
	if deckName == "" {
		return nil, fmt.Errorf("deck name is required")
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no records to assemble")
	}

	alloc := newIDAllocator()

	noteType := NoteType{
		ID:   alloc.Next(),
		Name: noteTypeName,
		Fields: []Field{
			{Name: "Front"},
			{Name: "Back"},
		},
		Templates: []Template{
			{
				Name:           "Card 1",
				QuestionFormat: questionFormat,
				AnswerFormat:   answerFormat,
			},
		},
	}

	deck := Deck{
		ID:    alloc.Next(),
		Name:  deckName,
		Notes: make([]Note, 0, len(records)),
	}

	for i, record := range records {
		front := record.Word + "<br><br>" + record.Context
		back := record.Definition
		if back == "" {
			back = emptyBackPlaceholder
		}

		deck.Notes = append(deck.Notes, Note{
			ID:       alloc.Next(),
			GUID:     noteGUID(front, back),
			Modified: baseModified + int64(i),
			USN:      -1,
			Tags:     nil,
			Fields:   []string{front, back},
		})
	}

	return &Package{NoteType: noteType, Deck: deck}, nil
}

// noteGUID derives a stable note GUID from the field contents, keeping
// re-exports of the same input idempotent on the Anki side.
func noteGUID(fields ...string) string {
	sum := sha1.Sum([]byte(strings.Join(fields, "\x1f")))
	return fmt.Sprintf("%x", sum[:8])
}
