// Package store defines persistence contracts for the catalog.
package store

import (
	"context"

	"github.com/renovatuludoteca/ludoteca-server/internal/domain"
)

// CatalogQuery is a name search over the catalog.
type CatalogQuery struct {
	Query             string
	ExcludeExpansions bool
	PageParams
}

// CatalogStore persists catalog entries. Each method is a single-row
// atomic operation.
type CatalogStore interface {
	// FindByID returns ErrCatalogEntryNotFound when id is unknown.
	FindByID(ctx context.Context, id string) (*domain.CatalogEntry, error)
	// FindByBGGID returns nil, nil when no entry has the BoardGameGeek id.
	FindByBGGID(ctx context.Context, bggID int) (*domain.CatalogEntry, error)
	Search(ctx context.Context, q CatalogQuery) (*PageResult[*domain.CatalogEntry], error)
	// Create returns ErrCatalogEntryExists on a duplicate BoardGameGeek id.
	Create(ctx context.Context, entry *domain.CatalogEntry) (*domain.CatalogEntry, error)
	// UpsertByBGGID inserts or overwrites the metadata of an existing entry.
	// Id, source, createdAt and enrichment fields of an existing entry are kept.
	UpsertByBGGID(ctx context.Context, entry *domain.CatalogEntry) (*domain.CatalogEntry, error)
	// UpdateEnrichment writes all five enrichment fields at once.
	UpdateEnrichment(ctx context.Context, id string, enrichment domain.Enrichment) (*domain.CatalogEntry, error)
	// FindUnenriched returns entries without a description, best rank first.
	FindUnenriched(ctx context.Context, limit int) ([]*domain.CatalogEntry, error)
	// ForEach visits every entry; used to repopulate the search index.
	ForEach(ctx context.Context, fn func(*domain.CatalogEntry) error) error
	Ping(ctx context.Context) error
}

// SearchIndexer is the interface for updating the search index.
type SearchIndexer interface {
	IndexCatalogEntry(ctx context.Context, entry *domain.CatalogEntry) error
}

// NoopSearchIndexer is a no-op implementation for testing.
type NoopSearchIndexer struct{}

func (NoopSearchIndexer) IndexCatalogEntry(context.Context, *domain.CatalogEntry) error { return nil }

// NewNoopSearchIndexer creates a new no-op search indexer.
func NewNoopSearchIndexer() SearchIndexer { return NoopSearchIndexer{} }
