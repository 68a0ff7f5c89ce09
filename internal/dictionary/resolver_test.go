package dictionary

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient serves canned results and counts lookups per (language, word).
type fakeClient struct {
	mu      sync.Mutex
	calls   map[string]int
	results map[string]string // key -> definition; missing key means failure
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		calls:   make(map[string]int),
		results: make(map[string]string),
	}
}

func (c *fakeClient) Lookup(_ context.Context, language, word string) (*LookupResult, error) {
	key := language + "|" + word

	c.mu.Lock()
	c.calls[key]++
	definition, ok := c.results[key]
	c.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("word not found: %s", word)
	}
	return &LookupResult{
		Word:     word,
		Language: language,
		Meanings: []Meaning{{Definitions: []Definition{{Definition: definition}}}},
	}, nil
}

func (c *fakeClient) Name() string { return "fake" }

func (c *fakeClient) callCount(language, word string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[language+"|"+word]
}

func TestResolve_CachesResult(t *testing.T) {
	client := newFakeClient()
	client.results["en|hello"] = "a greeting"

	resolver := NewResolver(client, "en", nil)

	assert.Equal(t, "a greeting", resolver.Resolve(context.Background(), "en", "hello"))
	assert.Equal(t, "a greeting", resolver.Resolve(context.Background(), "en", "hello"))
	assert.Equal(t, 1, client.callCount("en", "hello"))
}

func TestResolve_FallbackOnFailure(t *testing.T) {
	client := newFakeClient()
	client.results["en|bonjour"] = "hello (borrowed from French)"

	resolver := NewResolver(client, "en", nil)

	def := resolver.Resolve(context.Background(), "fr", "bonjour")
	assert.Equal(t, "hello (borrowed from French)", def)
	assert.Equal(t, 1, client.callCount("fr", "bonjour"))
	assert.Equal(t, 1, client.callCount("en", "bonjour"))

	// The fallback result is cached under both attempted keys.
	assert.Equal(t, def, resolver.Resolve(context.Background(), "fr", "bonjour"))
	assert.Equal(t, def, resolver.Resolve(context.Background(), "en", "bonjour"))
	assert.Equal(t, 1, client.callCount("fr", "bonjour"))
	assert.Equal(t, 1, client.callCount("en", "bonjour"))
}

func TestResolve_DoubleFailureCachesEmptyUnderBothKeys(t *testing.T) {
	client := newFakeClient()
	resolver := NewResolver(client, "en", nil)

	assert.Equal(t, "", resolver.Resolve(context.Background(), "de", "xyzzy"))
	assert.Equal(t, 1, client.callCount("de", "xyzzy"))
	assert.Equal(t, 1, client.callCount("en", "xyzzy"))

	// Negative results are cached like real ones.
	assert.Equal(t, "", resolver.Resolve(context.Background(), "de", "xyzzy"))
	assert.Equal(t, "", resolver.Resolve(context.Background(), "en", "xyzzy"))
	assert.Equal(t, 1, client.callCount("de", "xyzzy"))
	assert.Equal(t, 1, client.callCount("en", "xyzzy"))
}

func TestResolve_FallbackLanguageFailsOnce(t *testing.T) {
	client := newFakeClient()
	resolver := NewResolver(client, "en", nil)

	// Failure in the fallback language itself: no retry issued.
	assert.Equal(t, "", resolver.Resolve(context.Background(), "en", "nonword"))
	assert.Equal(t, 1, client.callCount("en", "nonword"))
}

func TestResolve_ConcurrentCallsCollapse(t *testing.T) {
	client := newFakeClient()
	client.results["en|swarm"] = "a large number of insects moving together"

	resolver := NewResolver(client, "en", nil)

	var wg sync.WaitGroup
	var mismatches atomic.Int32
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if resolver.Resolve(context.Background(), "en", "swarm") != "a large number of insects moving together" {
				mismatches.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(0), mismatches.Load())
	assert.Equal(t, 1, client.callCount("en", "swarm"))
}

// memoryStore is an in-memory Store for resolver tests.
type memoryStore struct {
	mu   sync.Mutex
	data map[string]string
	puts int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string]string)}
}

func (s *memoryStore) Get(language, word string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	definition, ok := s.data[language+"|"+word]
	return definition, ok, nil
}

func (s *memoryStore) Put(language, word, definition string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[language+"|"+word] = definition
	s.puts++
	return nil
}

func TestResolve_PersistentStoreSkipsNetwork(t *testing.T) {
	client := newFakeClient()
	store := newMemoryStore()
	require.NoError(t, store.Put("en", "hello", "a stored greeting"))
	store.puts = 0

	resolver := NewResolver(client, "en", store)

	assert.Equal(t, "a stored greeting", resolver.Resolve(context.Background(), "en", "hello"))
	assert.Equal(t, 0, client.callCount("en", "hello"))
	assert.Equal(t, 0, store.puts, "store hits are not written back")
}

func TestResolve_WritesThroughToStore(t *testing.T) {
	client := newFakeClient()
	client.results["en|hello"] = "a greeting"
	store := newMemoryStore()

	resolver := NewResolver(client, "en", store)
	resolver.Resolve(context.Background(), "en", "hello")

	definition, ok, err := store.Get("en", "hello")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a greeting", definition)
}
