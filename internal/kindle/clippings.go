package kindle

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/mrlokans/kindledeck/internal/entities"
)

// My Clippings.txt follows a cyclical five-line pattern per record:
// title, "- ... Added on <date>" metadata, blank, body, blank separator.
const (
	clippingWindow = 5
	titleLine      = 0
	metadataLine   = 1
	bodyLine       = 3

	// Bodies at or above this length are almost always full highlights that
	// drifted into a vocabulary export, not looked-up words.
	maxWordLength = 30
)

var addedOnPattern = regexp.MustCompile(`Added on (.*)`)

// Date layouts observed on real devices; dateparse covers the rest of the
// locale variations.
var clippingDateLayouts = []string{
	"Monday, January 2, 2006 3:04:05 PM",
	"Monday, January 2, 2006 15:04:05",
	"Monday, 2 January 2006 3:04:05 PM",
	"Monday, 2 January 2006 15:04:05",
	"Monday, 2 January 2006",
	"Monday, January 2, 2006",
}

// ParseClippings extracts vocabulary records from a My Clippings.txt stream.
// The cursor advances five lines per record; windows with an empty body are
// skipped, commas are stripped from the body to form the word, and the title
// line doubles as both context and book. Malformed windows are skipped
// rather than failing the parse; a trailing partial window is ignored.
func ParseClippings(r io.Reader) ([]entities.VocabRecord, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read clippings: %w", err)
	}

	var records []entities.VocabRecord
	for i := 0; i+bodyLine < len(lines); i += clippingWindow {
		body := strings.TrimSpace(lines[i+bodyLine])
		if body == "" {
			continue
		}

		word := strings.ReplaceAll(body, ",", "")
		if len(word) >= maxWordLength {
			continue
		}

		title := lines[i+titleLine]
		records = append(records, entities.VocabRecord{
			Word:      word,
			Context:   title,
			Book:      title,
			Timestamp: parseAddedOn(lines[i+metadataLine]),
		})
	}

	return records, nil
}

// parseAddedOn extracts the capture time from a clipping metadata line.
// Returns the zero time when the line has no parseable date.
func parseAddedOn(line string) time.Time {
	matches := addedOnPattern.FindStringSubmatch(line)
	if len(matches) < 2 {
		return time.Time{}
	}

	dateText := strings.TrimSpace(matches[1])
	if dateText == "" {
		return time.Time{}
	}

	for _, layout := range clippingDateLayouts {
		if t, err := time.Parse(layout, dateText); err == nil {
			return t
		}
	}

	// Locale-dependent formats fall through to lenient parsing.
	if t, err := dateparse.ParseAny(dateText); err == nil {
		return t
	}
	return time.Time{}
}
