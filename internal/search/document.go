// Package search maintains a Bleve full-text index over the game catalog.
// It backs typeahead suggestions; SQLite remains the source of truth.
package search

import (
	"github.com/renovatuludoteca/ludoteca-server/internal/domain"
)

// CatalogDocument is the indexed projection of a catalog entry.
type CatalogDocument struct {
	ID            string `json:"id"`
	BGGID         int    `json:"bgg_id"`
	Name          string `json:"name"`
	YearPublished *int   `json:"year_published,omitempty"`
	Rank          *int   `json:"rank,omitempty"`
	IsExpansion   bool   `json:"is_expansion"`
}

// NewCatalogDocument projects an entry into its index form.
func NewCatalogDocument(entry *domain.CatalogEntry) *CatalogDocument {
	return &CatalogDocument{
		ID:            entry.ID,
		BGGID:         entry.BGGID,
		Name:          entry.Name,
		YearPublished: entry.YearPublished,
		Rank:          entry.Rank,
		IsExpansion:   entry.IsExpansion,
	}
}

// ToMap converts the document to the field names used by the mapping.
// Nil numerics are left out so range queries and sorts treat them as missing.
func (d *CatalogDocument) ToMap() map[string]any {
	m := map[string]any{
		"id":           d.ID,
		"bgg_id":       float64(d.BGGID),
		"name":         d.Name,
		"name_prefix":  d.Name,
		"is_expansion": d.IsExpansion,
	}
	if d.YearPublished != nil {
		m["year_published"] = float64(*d.YearPublished)
	}
	if d.Rank != nil {
		m["rank"] = float64(*d.Rank)
	}
	return m
}
