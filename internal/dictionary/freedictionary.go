package dictionary

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// FreeDictionaryClient implements Client using the Free Dictionary API.
// API docs: https://dictionaryapi.dev/
type FreeDictionaryClient struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *rateLimiter
}

type rateLimiter struct {
	mu       sync.Mutex
	lastCall time.Time
	interval time.Duration
}

func newRateLimiter(interval time.Duration) *rateLimiter {
	return &rateLimiter{interval: interval}
}

func (r *rateLimiter) wait() {
	r.mu.Lock()
	defer r.mu.Unlock()

	since := time.Since(r.lastCall)
	if since < r.interval {
		time.Sleep(r.interval - since)
	}
	r.lastCall = time.Now()
}

const defaultBaseURL = "https://api.dictionaryapi.dev/api/v2/entries"

// NewFreeDictionaryClient creates a new Free Dictionary API client.
// An empty baseURL selects the public endpoint; a zero interval disables
// rate limiting.
func NewFreeDictionaryClient(baseURL string, interval time.Duration) *FreeDictionaryClient {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &FreeDictionaryClient{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		rateLimiter: newRateLimiter(interval),
	}
}

func (c *FreeDictionaryClient) Name() string {
	return "freedictionary"
}

// Lookup fetches word entries for the given language code.
func (c *FreeDictionaryClient) Lookup(ctx context.Context, language, word string) (*LookupResult, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return nil, fmt.Errorf("empty word")
	}
	if language == "" {
		return nil, fmt.Errorf("empty language code")
	}

	c.rateLimiter.wait()

	reqURL := fmt.Sprintf("%s/%s/%s", c.baseURL, language, url.PathEscape(word))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "KindleDeck/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch definition: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("word not found: %s", word)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var apiResponse []freeDictionaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if len(apiResponse) == 0 {
		return nil, fmt.Errorf("empty response for word: %s", word)
	}

	return convertToLookupResult(word, language, apiResponse[0]), nil
}

func convertToLookupResult(word, language string, resp freeDictionaryResponse) *LookupResult {
	result := &LookupResult{
		Word:     word,
		Language: language,
	}

	for _, meaning := range resp.Meanings {
		m := Meaning{PartOfSpeech: meaning.PartOfSpeech}
		for _, def := range meaning.Definitions {
			m.Definitions = append(m.Definitions, Definition{
				Definition: def.Definition,
				Example:    def.Example,
			})
		}
		result.Meanings = append(result.Meanings, m)
	}

	return result
}

// Free Dictionary API response types

type freeDictionaryResponse struct {
	Word     string            `json:"word"`
	Meanings []freeDictMeaning `json:"meanings"`
}

type freeDictMeaning struct {
	PartOfSpeech string               `json:"partOfSpeech"`
	Definitions  []freeDictDefinition `json:"definitions"`
}

type freeDictDefinition struct {
	Definition string `json:"definition"`
	Example    string `json:"example"`
}
