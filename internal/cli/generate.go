// Package cli implements the command-line entry points.
package cli

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mrlokans/kindledeck/internal/cachestore"
	"github.com/mrlokans/kindledeck/internal/config"
	"github.com/mrlokans/kindledeck/internal/dictionary"
	"github.com/mrlokans/kindledeck/internal/language"
	"github.com/mrlokans/kindledeck/internal/pipeline"
)

// stringList collects a repeatable string flag.
type stringList []string

func (l *stringList) String() string {
	return fmt.Sprint([]string(*l))
}

func (l *stringList) Set(value string) error {
	*l = append(*l, value)
	return nil
}

// GenerateCommand converts Kindle sources into an Anki deck on disk.
type GenerateCommand struct {
	VocabDBPath   string
	ClippingsPath string
	DeckName      string
	StartDate     string
	EndDate       string
	Books         stringList
	Languages     stringList
	OutputDir     string
	CachePath     string
	NoCache       bool
}

func NewGenerateCommand() *GenerateCommand {
	return &GenerateCommand{}
}

func (cmd *GenerateCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)

	fs.StringVar(&cmd.VocabDBPath, "vocab-db", "", "Path to the Kindle vocab.db file")
	fs.StringVar(&cmd.ClippingsPath, "clippings", "", "Path to the Kindle 'My Clippings.txt' file")
	fs.StringVar(&cmd.DeckName, "name", pipeline.DefaultDeckName, "Name of the generated deck")
	fs.StringVar(&cmd.StartDate, "from", "", "Keep only words looked up on or after this date (YYYY-MM-DD)")
	fs.StringVar(&cmd.EndDate, "to", "", "Keep only words looked up on or before this date (YYYY-MM-DD)")
	fs.Var(&cmd.Books, "book", "Keep only words from this book title (repeatable)")
	fs.Var(&cmd.Languages, "lang", "Keep only words in this language code (repeatable)")
	fs.StringVar(&cmd.OutputDir, "output", ".", "Directory to write the .apkg file into")
	fs.StringVar(&cmd.CachePath, "cache-db", config.DefaultCacheDBPath, "Path to the definition cache database")
	fs.BoolVar(&cmd.NoCache, "no-cache", false, "Disable the persistent definition cache")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s generate [-vocab-db <path>] [-clippings <path>] [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Convert Kindle vocabulary sources into an Anki deck package.\n\n")
		fmt.Fprintf(os.Stderr, "The vocab.db file is typically found at:\n")
		fmt.Fprintf(os.Stderr, "  /Volumes/Kindle/system/vocabulary/vocab.db\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Convert a vocabulary database:\n")
		fmt.Fprintf(os.Stderr, "  %s generate -vocab-db vocab.db -name \"French Words\"\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  # Combine both sources, keep one book's words from March:\n")
		fmt.Fprintf(os.Stderr, "  %s generate -vocab-db vocab.db -clippings \"My Clippings.txt\" \\\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "      -book \"Le Petit Prince\" -from 2026-03-01 -to 2026-03-31\n")
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.VocabDBPath == "" && cmd.ClippingsPath == "" {
		return fmt.Errorf("at least one of -vocab-db and -clippings must be provided")
	}

	return nil
}

func (cmd *GenerateCommand) Run() error {
	cfg := config.NewConfig()

	input, err := cmd.buildInput()
	if err != nil {
		return err
	}

	var store dictionary.Store
	if !cmd.NoCache {
		cacheStore, err := cachestore.Open(cmd.CachePath)
		if err != nil {
			return fmt.Errorf("open definition cache: %w", err)
		}
		defer cacheStore.Close()
		store = cacheStore
	}

	client := dictionary.NewFreeDictionaryClient(cfg.Dictionary.BaseURL, cfg.Dictionary.RateLimitInterval)
	resolver := dictionary.NewResolver(client, cfg.Enrichment.FallbackLanguage, store)
	p := pipeline.New(language.NewDetector(), resolver, cfg.Enrichment.Workers)

	artifact, err := p.Run(context.Background(), *input)
	if err != nil {
		return err
	}

	outputPath := filepath.Join(cmd.OutputDir, artifact.Filename)
	if err := os.WriteFile(outputPath, artifact.Data, 0o644); err != nil {
		return fmt.Errorf("write deck package: %w", err)
	}

	fmt.Printf("Deck written to %s\n", outputPath)
	return nil
}

// buildInput loads the source files and parses the filter flags.
func (cmd *GenerateCommand) buildInput() (*pipeline.Input, error) {
	criteria := pipeline.Criteria{
		Books:     cmd.Books,
		Languages: cmd.Languages,
	}

	if cmd.StartDate != "" {
		start, err := time.Parse("2006-01-02", cmd.StartDate)
		if err != nil {
			return nil, fmt.Errorf("parse -from date: %w", err)
		}
		criteria.Start = start
	}
	if cmd.EndDate != "" {
		end, err := time.Parse("2006-01-02", cmd.EndDate)
		if err != nil {
			return nil, fmt.Errorf("parse -to date: %w", err)
		}
		criteria.End = pipeline.EndOfDay(end)
	}

	input := pipeline.Input{
		DeckName: cmd.DeckName,
		Criteria: criteria,
	}

	if cmd.VocabDBPath != "" {
		data, err := os.ReadFile(cmd.VocabDBPath)
		if err != nil {
			return nil, fmt.Errorf("read vocabulary database: %w", err)
		}
		input.VocabDB = data
	}

	if cmd.ClippingsPath != "" {
		data, err := os.ReadFile(cmd.ClippingsPath)
		if err != nil {
			return nil, fmt.Errorf("read clippings file: %w", err)
		}
		input.Clippings = bytes.NewReader(data)
	}

	return &input, nil
}
