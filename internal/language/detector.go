// Package language infers a dictionary-service language code for each
// vocabulary record from its word and usage context.
package language

import (
	"strings"

	"github.com/abadojack/whatlanggo"
)

// FallbackCode is used when detection is inconclusive or the sample is too
// short to classify.
const FallbackCode = "en"

const (
	// Samples shorter than this skip detection entirely.
	minSampleLength = 4
	// Minimum length passed to the statistical identifier.
	minConfidenceLength = 3
)

// ISO 639-3 codes mapped to the dictionary service's code space. Detected
// languages outside this table fall back to FallbackCode.
var iso3ToDictCode = map[string]string{
	"eng": "en", "spa": "es", "fra": "fr", "deu": "de", "ita": "it",
	"rus": "ru", "por": "pt-BR", "jpn": "ja", "kor": "ko", "tur": "tr",
	"ara": "ar", "hin": "hi", "ind": "id", "swe": "sv", "fin": "fi",
	"pol": "pl", "nld": "nl", "nor": "no", "dan": "da", "ces": "cs",
	"ron": "ro", "ell": "el", "zho": "zh", "heb": "he", "hun": "hu",
}

// Detector assigns a language code to a (word, context) pair.
type Detector interface {
	Detect(word, context string) string
}

// NewDetector returns the statistical trigram detector.
func NewDetector() Detector {
	return &trigramDetector{}
}

// NewFallbackDetector returns a detector that always reports FallbackCode.
// It stands in when the identification capability is unavailable.
func NewFallbackDetector() Detector {
	return fallbackDetector{}
}

// trigramDetector classifies samples with whatlanggo's trigram profiles.
type trigramDetector struct{}

func (d *trigramDetector) Detect(word, context string) string {
	sample := buildSample(word, context)
	if len(sample) < minSampleLength {
		return FallbackCode
	}

	return mapISO3(identify(sample, minConfidenceLength))
}

type fallbackDetector struct{}

func (fallbackDetector) Detect(word, context string) string {
	return FallbackCode
}

// buildSample joins the non-empty inputs with a single space.
func buildSample(word, context string) string {
	parts := make([]string, 0, 2)
	for _, s := range []string{word, context} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// identify runs statistical identification, returning an ISO 639-3 code or
// "und" when the sample cannot be classified.
func identify(sample string, minLength int) string {
	if len(sample) < minLength {
		return "und"
	}

	lang := whatlanggo.DetectLang(sample)
	code := whatlanggo.LangToString(lang)
	if code == "" {
		return "und"
	}
	return code
}

// mapISO3 translates a three-letter code into the dictionary-service code,
// defaulting to FallbackCode for unmapped or undetermined results.
func mapISO3(iso3 string) string {
	if iso3 == "" || iso3 == "und" {
		return FallbackCode
	}
	if code, ok := iso3ToDictCode[iso3]; ok {
		return code
	}
	return FallbackCode
}
