package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/freshcart/freshcart/internal/storage"
)

// LinkerStore is the catalog access the linker needs.
type LinkerStore interface {
	FindSimilar(ctx context.Context, nameWords []string, brand string, categoryID uuid.UUID, tags []string, excludeID uuid.UUID) ([]uuid.UUID, error)
	AddSubstituteLink(ctx context.Context, a, b uuid.UUID) error
}

// Linker discovers substitute relations for a newly created product. Links
// are symmetric and written once at creation; later catalog changes never
// recompute them.
type Linker struct {
	store       LinkerStore
	minTokenLen int
}

// NewLinker creates a linker. Name tokens shorter than minTokenLen are
// ignored when matching.
func NewLinker(store LinkerStore, minTokenLen int) *Linker {
	if minTokenLen <= 0 {
		minTokenLen = 3
	}
	return &Linker{store: store, minTokenLen: minTokenLen}
}

// Link finds products similar to p by name tokens, brand, category or tags,
// and records a bidirectional substitute link to each. Returns the linked
// IDs.
func (l *Linker) Link(ctx context.Context, p *storage.Product) ([]uuid.UUID, error) {
	similar, err := l.store.FindSimilar(ctx, l.nameTokens(p.Name), p.Brand, p.CategoryID, p.Tags, p.ID)
	if err != nil {
		return nil, err
	}

	var linked []uuid.UUID
	already := map[uuid.UUID]bool{}
	for _, id := range p.Substitutes {
		already[id] = true
	}
	for _, id := range similar {
		if already[id] {
			continue
		}
		if err := l.store.AddSubstituteLink(ctx, p.ID, id); err != nil {
			return linked, err
		}
		already[id] = true
		linked = append(linked, id)
	}
	return linked, nil
}

func (l *Linker) nameTokens(name string) []string {
	var tokens []string
	for _, w := range strings.Fields(strings.ToLower(name)) {
		if len(w) >= l.minTokenLen {
			tokens = append(tokens, w)
		}
	}
	return tokens
}
