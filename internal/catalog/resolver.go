// Package catalog resolves free-text product phrases against the product
// catalog and manages product creation with substitute linking.
package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/freshcart/freshcart/internal/storage"
)

// Resolution errors
var (
	// ErrEntityMissing means the command carried no product phrase at all.
	ErrEntityMissing = errors.New("no product specified")
	// ErrNoMatch means a phrase was given but nothing in the catalog fits.
	ErrNoMatch = errors.New("no matching product")
)

// Store is the catalog access the resolver needs.
type Store interface {
	FindByID(ctx context.Context, id uuid.UUID) (*storage.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*storage.Product, error)
	FindByNamePattern(ctx context.Context, phrase string, words []string, brand string, limit int) ([]*storage.Product, error)
}

// ResolverConfig bounds candidate fetching and search result size.
type ResolverConfig struct {
	CandidateLimit int
	DisplayLimit   int
}

// Resolver matches product phrases to catalog entries by relevance scoring.
type Resolver struct {
	store Store
	cfg   ResolverConfig
}

// NewResolver creates a resolver over the given store.
func NewResolver(store Store, cfg ResolverConfig) *Resolver {
	if cfg.CandidateLimit <= 0 {
		cfg.CandidateLimit = 10
	}
	if cfg.DisplayLimit <= 0 {
		cfg.DisplayLimit = 10
	}
	return &Resolver{store: store, cfg: cfg}
}

// Scoring weights. Exact name match dominates, then prefix, then substring;
// word overlap and a brand hint nudge between close candidates.
const (
	scoreExact    = 100
	scorePrefix   = 50
	scoreContains = 30
	scorePerWord  = 10
	scoreBrand    = 20
)

// Resolve returns the single best catalog match for a phrase. Ties keep the
// earliest candidate from the store's ordering.
func (r *Resolver) Resolve(ctx context.Context, phrase, brandHint string) (*storage.Product, error) {
	phrase = stripFillers(phrase)
	if phrase == "" {
		return nil, ErrEntityMissing
	}

	candidates, err := r.candidates(ctx, phrase, brandHint, r.cfg.CandidateLimit)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, ErrNoMatch
	}

	best := candidates[0]
	bestScore := r.score(best, phrase, brandHint)
	for _, c := range candidates[1:] {
		if s := r.score(c, phrase, brandHint); s > bestScore {
			best, bestScore = c, s
		}
	}
	return best, nil
}

// Search returns catalog matches for a phrase in store order, capped at the
// display limit.
func (r *Resolver) Search(ctx context.Context, phrase, brandHint string) ([]*storage.Product, error) {
	phrase = stripFillers(phrase)
	if phrase == "" {
		return nil, ErrEntityMissing
	}

	matches, err := r.candidates(ctx, phrase, brandHint, r.cfg.DisplayLimit)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, ErrNoMatch
	}
	return matches, nil
}

func (r *Resolver) candidates(ctx context.Context, phrase, brandHint string, limit int) ([]*storage.Product, error) {
	return r.store.FindByNamePattern(ctx, phrase, queryWords(phrase), brandHint, limit)
}

func (r *Resolver) score(p *storage.Product, phrase, brandHint string) int {
	name := strings.ToLower(p.Name)
	needle := strings.ToLower(strings.TrimSpace(phrase))

	score := 0
	switch {
	case name == needle:
		score += scoreExact
	case strings.HasPrefix(name, needle):
		score += scorePrefix
	case strings.Contains(name, needle):
		score += scoreContains
	}

	for _, w := range queryWords(phrase) {
		if strings.Contains(name, w) {
			score += scorePerWord
		}
	}

	if brandHint != "" && strings.Contains(strings.ToLower(p.Brand), strings.ToLower(brandHint)) {
		score += scoreBrand
	}
	return score
}

// fillerWords never carry product meaning. Callers that already stripped them
// lose nothing; phrases arriving raw, like the product search query parameter,
// are cleaned here.
var fillerWords = map[string]bool{
	"to": true, "from": true, "the": true, "a": true, "an": true,
	"my": true, "in": true, "please": true, "some": true,
}

// stripFillers removes filler words from a phrase and collapses whitespace.
func stripFillers(phrase string) string {
	var kept []string
	for _, w := range strings.Fields(strings.ToLower(phrase)) {
		if fillerWords[w] {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

// queryWords splits a phrase into distinct lowercase words longer than one
// character.
func queryWords(phrase string) []string {
	seen := map[string]bool{}
	var words []string
	for _, w := range strings.Fields(strings.ToLower(phrase)) {
		if len(w) <= 1 || seen[w] {
			continue
		}
		seen[w] = true
		words = append(words, w)
	}
	return words
}
