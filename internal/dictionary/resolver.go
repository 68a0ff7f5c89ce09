package dictionary

import (
	"context"
	"log"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Store is an optional persistent lookaside for resolved definitions.
// cachestore.Store satisfies it.
type Store interface {
	Get(language, word string) (string, bool, error)
	Put(language, word, definition string) error
}

// Resolver caches definitions per (language, word) pair. An empty string is
// a valid cached result and prevents repeat lookups for words the service
// does not know. Lookup failures never propagate: a miss that cannot be
// resolved in the requested language is retried once against the fallback
// language, and any remaining failure degrades to an empty definition.
type Resolver struct {
	client   Client
	fallback string
	store    Store

	mu    sync.Mutex
	cache map[string]string
	group singleflight.Group
}

// NewResolver creates a resolver around the given client. store may be nil.
func NewResolver(client Client, fallbackLanguage string, store Store) *Resolver {
	return &Resolver{
		client:   client,
		fallback: fallbackLanguage,
		store:    store,
		cache:    make(map[string]string),
	}
}

// Resolve returns the definition for (language, word). Concurrent calls for
// the same uncached key collapse into a single lookup.
func (r *Resolver) Resolve(ctx context.Context, language, word string) string {
	key := cacheKey(language, word)

	if definition, ok := r.cached(key); ok {
		return definition
	}

	v, _, _ := r.group.Do(key, func() (any, error) {
		// Re-check under the group: another flight may have populated the
		// cache between the first check and joining the group.
		if definition, ok := r.cached(key); ok {
			return definition, nil
		}
		return r.resolveMiss(ctx, language, word), nil
	})

	definition, _ := v.(string)
	return definition
}

func (r *Resolver) resolveMiss(ctx context.Context, language, word string) string {
	if definition, ok := r.storeGet(language, word); ok {
		r.memoize(cacheKey(language, word), language, word, definition, false)
		return definition
	}

	definition := ""
	usedFallback := false

	result, err := r.client.Lookup(ctx, language, word)
	if err != nil && language != r.fallback {
		usedFallback = true
		result, err = r.client.Lookup(ctx, r.fallback, word)
	}
	if err == nil {
		definition = result.FirstDefinition()
	}

	r.memoize(cacheKey(language, word), language, word, definition, true)
	if usedFallback {
		r.memoize(cacheKey(r.fallback, word), r.fallback, word, definition, true)
	}

	return definition
}

// memoize records the result in memory and, for fresh lookups, writes it
// through to the persistent store.
func (r *Resolver) memoize(key, language, word, definition string, persist bool) {
	r.mu.Lock()
	r.cache[key] = definition
	r.mu.Unlock()

	if persist && r.store != nil {
		if err := r.store.Put(language, word, definition); err != nil {
			log.Printf("[CACHE] Failed to persist definition for %s: %v", key, err)
		}
	}
}

func (r *Resolver) cached(key string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	definition, ok := r.cache[key]
	return definition, ok
}

func (r *Resolver) storeGet(language, word string) (string, bool) {
	if r.store == nil {
		return "", false
	}
	definition, ok, err := r.store.Get(language, word)
	if err != nil {
		log.Printf("[CACHE] Failed to read persisted definition for %s|%s: %v", language, word, err)
		return "", false
	}
	return definition, ok
}

func cacheKey(language, word string) string {
	return language + "|" + word
}
