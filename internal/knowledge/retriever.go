package knowledge

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dentalcare/aftercare/internal/cache"
	"github.com/dentalcare/aftercare/internal/metrics"
)

const minTokenRunes = 2

// Retriever finds knowledge snippets for a patient question by keyword
// overlap, memoizing results in a Cache.
type Retriever struct {
	store Store
	cache cache.Cache
	ttl   time.Duration
}

// NewRetriever creates a Retriever. c may be nil to disable caching.
func NewRetriever(store Store, c cache.Cache, ttl time.Duration) *Retriever {
	return &Retriever{store: store, cache: c, ttl: ttl}
}

// Search returns at most limit entry contents matching query, with no two
// results from entries sharing a title.
func (r *Retriever) Search(ctx context.Context, query string, limit int) ([]string, error) {
	if limit <= 0 {
		return []string{}, nil
	}
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return []string{}, nil
	}

	key := cache.Key(query, limit)
	if r.cache != nil {
		cached, ok, err := r.cache.Get(ctx, key)
		switch {
		case err != nil:
			slog.Warn("knowledge cache read failed, treating as miss", "error", err, "key", key)
			metrics.KnowledgeCacheTotal.WithLabelValues("error").Inc()
		case ok:
			metrics.KnowledgeCacheTotal.WithLabelValues("hit").Inc()
			return cached, nil
		default:
			metrics.KnowledgeCacheTotal.WithLabelValues("miss").Inc()
		}
	}

	results := make([]string, 0, limit)
	seen := make(map[string]struct{})
	for _, tok := range tokens {
		entries, err := r.store.FindActiveBySubstring(ctx, tok, limit)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if _, dup := seen[e.Title]; dup {
				continue
			}
			seen[e.Title] = struct{}{}
			results = append(results, e.Content)
			if len(results) == limit {
				break
			}
		}
		if len(results) == limit {
			break
		}
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, key, results, r.ttl); err != nil {
			slog.Warn("knowledge cache write failed", "error", err, "key", key)
		}
	}
	return results, nil
}

func tokenize(query string) []string {
	var tokens []string
	for _, f := range strings.Fields(query) {
		if utf8.RuneCountInString(f) >= minTokenRunes {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
