package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renovatuludoteca/ludoteca-server/internal/search"
)

func TestSearchService_Disabled(t *testing.T) {
	svc := NewSearchService(nil, nil, discardLogger())
	assert.False(t, svc.Enabled())

	hits, err := svc.Suggest(context.Background(), search.SuggestParams{Query: "catan"})
	require.NoError(t, err)
	assert.Empty(t, hits)

	_, err = svc.Reindex(context.Background())
	assert.Error(t, err)
}

func TestSearchService_ReindexAndSuggest(t *testing.T) {
	_, s := setupCatalogService(t, newFakeFetcher())
	ctx := context.Background()

	for i := 1; i <= 600; i++ {
		seedCSV(t, s, i, fmt.Sprintf("Filler %d", i), nil)
	}
	seedCSV(t, s, 13, "Catan", ptr(5))

	index, err := search.NewSearchIndex(search.Options{DataPath: t.TempDir(), Logger: discardLogger()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	svc := NewSearchService(index, s, discardLogger())
	n, err := svc.Reindex(ctx)
	require.NoError(t, err)
	assert.Equal(t, 600, n, "bgg id 13 was upserted over the filler row")

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(600), count)

	hits, err := svc.Suggest(ctx, search.SuggestParams{Query: "cata"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, 13, hits[0].BGGID)
}

func TestSearchService_WritesReachIndex(t *testing.T) {
	svc, s := setupCatalogService(t, newFakeFetcher(thing(822, "Carcassonne")))
	ctx := context.Background()

	index, err := search.NewSearchIndex(search.Options{DataPath: t.TempDir(), Logger: discardLogger()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	s.SetSearchIndexer(index)

	_, err = svc.SyncFromBGG(ctx, 822)
	require.NoError(t, err)

	hits, err := NewSearchService(index, s, discardLogger()).Suggest(ctx, search.SuggestParams{Query: "carc"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Carcassonne", hits[0].Name)
}
