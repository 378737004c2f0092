// Package domain contains the core business entities for the Ludoteca board-game catalog.
package domain

import "time"

// CatalogSource records which workflow first created a catalog entry.
type CatalogSource string

const (
	// SourceCSV marks rows created by the bulk ranking import.
	SourceCSV CatalogSource = "csv"
	// SourceAPI marks rows created directly from a BoardGameGeek lookup.
	SourceAPI CatalogSource = "api"
)

// Valid reports whether s is a known source.
func (s CatalogSource) Valid() bool {
	return s == SourceCSV || s == SourceAPI
}

// CategoryRanks holds the per-category BoardGameGeek ranks. Nil means unranked.
type CategoryRanks struct {
	Abstracts *int `json:"abstractsRank,omitempty"`
	CGS       *int `json:"cgsRank,omitempty"`
	Childrens *int `json:"childrensGamesRank,omitempty"`
	Family    *int `json:"familyGamesRank,omitempty"`
	Party     *int `json:"partyGamesRank,omitempty"`
	Strategy  *int `json:"strategyGamesRank,omitempty"`
	Thematic  *int `json:"thematicRank,omitempty"`
	Wargames  *int `json:"wargamesRank,omitempty"`
}

// CatalogMetadata is the ranking data carried by the bulk import.
// A re-import overwrites exactly these fields.
type CatalogMetadata struct {
	Name          string `json:"name"`
	YearPublished *int   `json:"yearPublished,omitempty"`
	Rank          *int   `json:"rank,omitempty"`
	CategoryRanks
	// Decimal strings as published, never routed through float64.
	BayesAverage *string `json:"bayesAverage,omitempty"`
	Average      *string `json:"average,omitempty"`
	UsersRated   *int    `json:"usersRated,omitempty"`
	IsExpansion  bool    `json:"isExpansion"`
}

// Enrichment is the detail data only the BoardGameGeek API provides.
// All five fields are always written together.
type Enrichment struct {
	MinPlayers         *int    `json:"minPlayers,omitempty"`
	MaxPlayers         *int    `json:"maxPlayers,omitempty"`
	PlayingTimeMinutes *int    `json:"playingTimeMinutes,omitempty"`
	Description        *string `json:"description,omitempty"`
	ImageURL           *string `json:"imageUrl,omitempty"`
}

// CatalogEntry is the canonical record for one board-game title.
type CatalogEntry struct {
	ID        string    `json:"id"`
	BGGID     int       `json:"bggId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	CatalogMetadata
	Enrichment
	Source CatalogSource `json:"source"`
}

// IsEnriched reports whether the entry has received API detail data.
func (e *CatalogEntry) IsEnriched() bool {
	return e.Description != nil
}

// InitTimestamps sets both CreatedAt and UpdatedAt to now.
func (e *CatalogEntry) InitTimestamps() {
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
}

// Touch bumps UpdatedAt.
func (e *CatalogEntry) Touch() {
	e.UpdatedAt = time.Now().UTC()
}

// ApplyEnrichment replaces all enrichment fields at once.
func (e *CatalogEntry) ApplyEnrichment(en Enrichment) {
	e.Enrichment = en
	e.Touch()
}
