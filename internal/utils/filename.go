package utils

import (
	"regexp"
	"strings"
)

const apkgExtension = ".apkg"

var (
	// Whitespace runs in deck names become single underscores.
	whitespaceRuns = regexp.MustCompile(`\s+`)
	// Characters invalid in filenames on most filesystems
	invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)
)

// DeckFilename derives the artifact filename from a deck name: invalid
// characters removed, whitespace replaced by underscores, .apkg appended.
func DeckFilename(deckName string) string {
	name := invalidFilenameChars.ReplaceAllString(deckName, "")
	name = strings.TrimSpace(name)
	name = whitespaceRuns.ReplaceAllString(name, "_")

	if name == "" {
		name = "deck"
	}

	return name + apkgExtension
}
