package pipeline

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/kindledeck/internal/dictionary"
	"github.com/mrlokans/kindledeck/internal/language"
)

// newTestPipeline builds a pipeline against a stub dictionary server that
// answers every lookup with one definition.
func newTestPipeline(t *testing.T) (*Pipeline, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"word": "any", "meanings": [{"partOfSpeech": "noun", "definitions": [{"definition": "a stub definition"}]}]}]`))
	}))
	t.Cleanup(server.Close)

	client := dictionary.NewFreeDictionaryClient(server.URL, 0)
	resolver := dictionary.NewResolver(client, language.FallbackCode, nil)
	return New(language.NewDetector(), resolver, 4), server
}

const clippingsFixture = "Book A\nAdded on Monday, 1 January 2024\n\nhello world,\n\n" +
	"Book B\nAdded on Tuesday, 2 January 2024\n\nephemeral\n\n"

func TestRun_ClippingsToArtifact(t *testing.T) {
	p, _ := newTestPipeline(t)

	artifact, err := p.Run(context.Background(), Input{
		Clippings: strings.NewReader(clippingsFixture),
		DeckName:  "My Deck",
	})
	require.NoError(t, err)

	assert.Equal(t, "My_Deck.apkg", artifact.Filename)

	reader, err := zip.NewReader(bytes.NewReader(artifact.Data), int64(len(artifact.Data)))
	require.NoError(t, err)
	assert.Len(t, reader.File, 2)
}

func TestRun_DefaultDeckName(t *testing.T) {
	p, _ := newTestPipeline(t)

	artifact, err := p.Run(context.Background(), Input{
		Clippings: strings.NewReader(clippingsFixture),
	})
	require.NoError(t, err)
	assert.Equal(t, "Kindle_Vocabulary.apkg", artifact.Filename)
}

func TestRun_NoSourceIsValidationError(t *testing.T) {
	p, _ := newTestPipeline(t)

	_, err := p.Run(context.Background(), Input{DeckName: "My Deck"})
	require.Error(t, err)

	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestRun_NothingSurvivesFilterIsValidationError(t *testing.T) {
	p, _ := newTestPipeline(t)

	_, err := p.Run(context.Background(), Input{
		Clippings: strings.NewReader(clippingsFixture),
		Criteria: Criteria{
			Start: time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC),
		},
	})
	require.Error(t, err)

	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestRun_BadVocabDBIsParseError(t *testing.T) {
	p, _ := newTestPipeline(t)

	_, err := p.Run(context.Background(), Input{
		VocabDB: []byte("not a sqlite database"),
	})
	require.Error(t, err)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "vocab.db", parseErr.Source)
}

func TestRun_InvalidCriteriaRejectedUpFront(t *testing.T) {
	p, _ := newTestPipeline(t)

	_, err := p.Run(context.Background(), Input{
		Clippings: strings.NewReader(clippingsFixture),
		Criteria: Criteria{
			Start: time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		},
	})
	require.Error(t, err)

	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestRun_EnrichmentFailureDoesNotAbort(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	client := dictionary.NewFreeDictionaryClient(server.URL, 0)
	resolver := dictionary.NewResolver(client, language.FallbackCode, nil)
	p := New(language.NewDetector(), resolver, 4)

	artifact, err := p.Run(context.Background(), Input{
		Clippings: strings.NewReader(clippingsFixture),
		DeckName:  "My Deck",
	})
	require.NoError(t, err, "failed lookups degrade to empty definitions")
	assert.NotEmpty(t, artifact.Data)
}

func TestCollect_MergesAndDeduplicates(t *testing.T) {
	p, _ := newTestPipeline(t)

	input := "Book A\nAdded on Monday, 1 January 2024\n\napple\n\n" +
		"Book A\nAdded on Monday, 1 January 2024\n\napple\n\n" +
		"Book A\nAdded on Monday, 1 January 2024\n\npear\n\n"

	records, err := p.Collect(Input{Clippings: strings.NewReader(input)})
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "apple", records[0].Word)
	assert.Equal(t, "pear", records[1].Word)
}
