// Package pipeline wires the Kindle sources through deduplication,
// language detection, filtering and definition enrichment into an Anki
// package.
package pipeline

import (
	"context"
	"io"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/mrlokans/kindledeck/internal/anki"
	"github.com/mrlokans/kindledeck/internal/dictionary"
	"github.com/mrlokans/kindledeck/internal/entities"
	"github.com/mrlokans/kindledeck/internal/kindle"
	"github.com/mrlokans/kindledeck/internal/language"
)

// DefaultDeckName is used when the caller supplies none.
const DefaultDeckName = "Kindle Vocabulary"

// DefaultWorkers bounds the definition-lookup fan-out.
const DefaultWorkers = 8

// Input carries one pipeline run's sources and settings. At least one of
// VocabDB and Clippings must be set.
type Input struct {
	VocabDB   []byte
	Clippings io.Reader
	DeckName  string
	Criteria  Criteria
}

// Pipeline holds the collaborators shared across runs. The definition
// resolver carries the only cross-run state (its cache); records and deck
// entities are created fresh per run.
type Pipeline struct {
	detector language.Detector
	resolver *dictionary.Resolver
	workers  int
}

func New(detector language.Detector, resolver *dictionary.Resolver, workers int) *Pipeline {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Pipeline{
		detector: detector,
		resolver: resolver,
		workers:  workers,
	}
}

// Run executes the full pipeline and returns the serialized deck artifact.
// Parse, validation and export failures abort the run with typed errors;
// enrichment failures degrade individual records and never abort.
func (p *Pipeline) Run(ctx context.Context, in Input) (*anki.Artifact, error) {
	if err := in.Criteria.Validate(); err != nil {
		return nil, &ValidationError{Reason: err.Error()}
	}

	records, err := p.Collect(in)
	if err != nil {
		return nil, err
	}

	p.DetectLanguages(records)

	records = in.Criteria.Apply(records)
	if len(records) == 0 {
		return nil, &ValidationError{Reason: "no records remain after applying filters"}
	}

	if err := p.enrich(ctx, records); err != nil {
		return nil, err
	}

	deckName := in.DeckName
	if deckName == "" {
		deckName = DefaultDeckName
	}

	pkg, err := anki.BuildPackage(deckName, records)
	if err != nil {
		return nil, &ExportError{Err: err}
	}

	artifact, err := anki.WritePackage(pkg)
	if err != nil {
		return nil, &ExportError{Err: err}
	}

	log.Printf("[PIPELINE] Exported %d notes to %s", len(records), artifact.Filename)
	return artifact, nil
}

// Collect parses the supplied sources and returns the merged, deduplicated
// record set: structured records first, log records second, first occurrence
// of each word retained.
func (p *Pipeline) Collect(in Input) ([]entities.VocabRecord, error) {
	if len(in.VocabDB) == 0 && in.Clippings == nil {
		return nil, &ValidationError{Reason: "no input source supplied"}
	}

	var merged []entities.VocabRecord

	if len(in.VocabDB) > 0 {
		records, err := kindle.ParseVocabDB(in.VocabDB)
		if err != nil {
			return nil, &ParseError{Source: "vocab.db", Err: err}
		}
		merged = append(merged, records...)
	}

	if in.Clippings != nil {
		records, err := kindle.ParseClippings(in.Clippings)
		if err != nil {
			return nil, &ParseError{Source: "clippings", Err: err}
		}
		merged = append(merged, records...)
	}

	return Deduplicate(merged), nil
}

// DetectLanguages annotates each record in place with the detected
// language code for its word and context.
func (p *Pipeline) DetectLanguages(records []entities.VocabRecord) {
	for i := range records {
		records[i].Language = p.detector.Detect(records[i].Word, records[i].Context)
	}
}

// enrich resolves a definition per record with a bounded concurrent
// fan-out. Same-key lookups collapse inside the resolver; a failed lookup
// leaves the record's definition empty.
func (p *Pipeline) enrich(ctx context.Context, records []entities.VocabRecord) error {
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(p.workers)

	for i := range records {
		record := &records[i]
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			record.Definition = p.resolver.Resolve(ctx, record.Language, record.Word)
			return nil
		})
	}

	return group.Wait()
}
