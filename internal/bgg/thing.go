package bgg

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/renovatuludoteca/ludoteca-server/internal/catalog"
	"github.com/renovatuludoteca/ludoteca-server/internal/domain"
)

const unknownName = "Unknown"

// Thing is one board game as returned by the /thing endpoint.
type Thing struct {
	BGGID              int
	Name               string
	YearPublished      *int
	MinPlayers         *int
	MaxPlayers         *int
	PlayingTimeMinutes *int
	Description        *string
	ImageURL           *string
	IsExpansion        bool

	// From the statistics block (stats=1). Nil when absent.
	Rank         *int
	UsersRated   *int
	Average      *string
	BayesAverage *string
}

// Enrichment returns the five detail fields carried by the thing.
func (t *Thing) Enrichment() domain.Enrichment {
	return domain.Enrichment{
		MinPlayers:         t.MinPlayers,
		MaxPlayers:         t.MaxPlayers,
		PlayingTimeMinutes: t.PlayingTimeMinutes,
		Description:        t.Description,
		ImageURL:           t.ImageURL,
	}
}

// NewEntry builds a catalog entry for a game first seen through the API.
func (t *Thing) NewEntry() *domain.CatalogEntry {
	return &domain.CatalogEntry{
		BGGID: t.BGGID,
		CatalogMetadata: domain.CatalogMetadata{
			Name:          t.Name,
			YearPublished: t.YearPublished,
			Rank:          t.Rank,
			BayesAverage:  t.BayesAverage,
			Average:       t.Average,
			UsersRated:    t.UsersRated,
			IsExpansion:   t.IsExpansion,
		},
		Enrichment: t.Enrichment(),
		Source:     domain.SourceAPI,
	}
}

// Raw XML response types (internal)

type rawItems struct {
	XMLName xml.Name  `xml:"items"`
	Items   []rawItem `xml:"item"`
}

type rawItem struct {
	ID            string      `xml:"id,attr"`
	Type          string      `xml:"type,attr"`
	Names         []rawName   `xml:"name"`
	YearPublished *rawValue   `xml:"yearpublished"`
	MinPlayers    *rawValue   `xml:"minplayers"`
	MaxPlayers    *rawValue   `xml:"maxplayers"`
	PlayingTime   *rawValue   `xml:"playingtime"`
	Description   *string     `xml:"description"`
	Image         *string     `xml:"image"`
	Ratings       *rawRatings `xml:"statistics>ratings"`
}

type rawName struct {
	Type  string `xml:"type,attr"`
	Value string `xml:"value,attr"`
}

type rawValue struct {
	Value string `xml:"value,attr"`
}

type rawRatings struct {
	UsersRated   *rawValue `xml:"usersrated"`
	Average      *rawValue `xml:"average"`
	BayesAverage *rawValue `xml:"bayesaverage"`
	Ranks        []rawRank `xml:"ranks>rank"`
}

type rawRank struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// parseThings decodes a /thing response. Items without a numeric id are skipped.
func parseThings(body []byte) ([]Thing, error) {
	var doc rawItems
	decoder := xml.NewDecoder(bytes.NewReader(body))
	decoder.Strict = false
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	things := make([]Thing, 0, len(doc.Items))
	for i := range doc.Items {
		if t, ok := doc.Items[i].toThing(); ok {
			things = append(things, t)
		}
	}
	return things, nil
}

func (r *rawItem) toThing() (Thing, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(r.ID))
	if err != nil || id <= 0 {
		return Thing{}, false
	}

	t := Thing{
		BGGID:              id,
		Name:               selectName(r.Names),
		YearPublished:      valueInt(r.YearPublished),
		MinPlayers:         valueInt(r.MinPlayers),
		MaxPlayers:         valueInt(r.MaxPlayers),
		PlayingTimeMinutes: valueInt(r.PlayingTime),
		IsExpansion:        r.Type == "boardgameexpansion",
	}

	if r.Description != nil {
		desc := cleanDescription(*r.Description)
		t.Description = &desc
	}
	if r.Image != nil {
		if img := strings.TrimSpace(*r.Image); img != "" {
			t.ImageURL = &img
		}
	}

	if r.Ratings != nil {
		t.UsersRated = valueInt(r.Ratings.UsersRated)
		t.Average = valueDecimal(r.Ratings.Average)
		t.BayesAverage = valueDecimal(r.Ratings.BayesAverage)
		for _, rank := range r.Ratings.Ranks {
			if rank.Name == "boardgame" {
				t.Rank = catalog.ParseInt(rank.Value)
			}
		}
	}

	return t, true
}

// selectName prefers the primary name, then the first listed name.
func selectName(names []rawName) string {
	for _, n := range names {
		if n.Type == "primary" && n.Value != "" {
			return n.Value
		}
	}
	for _, n := range names {
		if n.Value != "" {
			return n.Value
		}
	}
	return unknownName
}

func valueInt(v *rawValue) *int {
	if v == nil {
		return nil
	}
	return catalog.ParseInt(v.Value)
}

// BoardGameGeek reports "0" for games nobody rated yet, which is kept.
func valueDecimal(v *rawValue) *string {
	if v == nil {
		return nil
	}
	return catalog.ParseDecimal(v.Value)
}
