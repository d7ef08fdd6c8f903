package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshcart/freshcart/internal/storage"
)

// fakeLinkerStore records similarity queries and link writes.
type fakeLinkerStore struct {
	similar   []uuid.UUID
	lastWords []string
	lastBrand string
	lastTags  []string
	links     [][2]uuid.UUID
}

func (f *fakeLinkerStore) FindSimilar(_ context.Context, nameWords []string, brand string, _ uuid.UUID, tags []string, _ uuid.UUID) ([]uuid.UUID, error) {
	f.lastWords = nameWords
	f.lastBrand = brand
	f.lastTags = tags
	return f.similar, nil
}

func (f *fakeLinkerStore) AddSubstituteLink(_ context.Context, a, b uuid.UUID) error {
	f.links = append(f.links, [2]uuid.UUID{a, b})
	return nil
}

func TestLinker_LinksSimilarProducts(t *testing.T) {
	similar := []uuid.UUID{uuid.New(), uuid.New()}
	store := &fakeLinkerStore{similar: similar}
	linker := NewLinker(store, 3)

	p := &storage.Product{
		ID:    uuid.New(),
		Name:  "Organic Whole Milk",
		Brand: "Happy Farms",
		Tags:  []string{"dairy"},
	}

	linked, err := linker.Link(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, similar, linked)
	require.Len(t, store.links, 2)
	assert.Equal(t, p.ID, store.links[0][0])
	assert.Equal(t, similar[0], store.links[0][1])
}

func TestLinker_SkipsShortNameTokens(t *testing.T) {
	store := &fakeLinkerStore{}
	linker := NewLinker(store, 3)

	p := &storage.Product{ID: uuid.New(), Name: "2% Lowfat Milk"}
	_, err := linker.Link(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, []string{"lowfat", "milk"}, store.lastWords)
}

func TestLinker_SkipsExplicitSubstitutes(t *testing.T) {
	explicit := uuid.New()
	discovered := uuid.New()
	store := &fakeLinkerStore{similar: []uuid.UUID{explicit, discovered}}
	linker := NewLinker(store, 3)

	p := &storage.Product{
		ID:          uuid.New(),
		Name:        "Cheddar Cheese",
		Substitutes: []uuid.UUID{explicit},
	}

	linked, err := linker.Link(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{discovered}, linked)
	require.Len(t, store.links, 1)
	assert.Equal(t, discovered, store.links[0][1])
}
