package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

const (
	defaultSuggestLimit = 10
	maxSuggestLimit     = 50
)

// SuggestParams configures a typeahead lookup.
type SuggestParams struct {
	Query             string
	Limit             int
	ExcludeExpansions bool
}

// Suggestion is a single typeahead hit.
type Suggestion struct {
	ID    string  `json:"id"`
	BGGID int     `json:"bggId"`
	Name  string  `json:"name"`
	Rank  *int    `json:"rank,omitempty"`
	Score float64 `json:"score"`
}

// Suggest returns catalog entries whose names match the query, best first.
// Ties in relevance are broken by rank, unranked entries last.
func (s *SearchIndex) Suggest(ctx context.Context, params SuggestParams) ([]Suggestion, error) {
	q := strings.TrimSpace(params.Query)
	if q == "" {
		return []Suggestion{}, nil
	}

	limit := params.Limit
	if limit <= 0 {
		limit = defaultSuggestLimit
	}
	if limit > maxSuggestLimit {
		limit = maxSuggestLimit
	}

	req := bleve.NewSearchRequestOptions(buildSuggestQuery(q, params.ExcludeExpansions), limit, 0, false)
	req.Fields = []string{"id", "bgg_id", "name", "rank"}
	req.SortBy([]string{"-_score", "rank"})

	s.mu.RLock()
	result, err := s.index.SearchInContext(ctx, req)
	s.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("suggest: %w", err)
	}

	out := make([]Suggestion, 0, len(result.Hits))
	for _, hit := range result.Hits {
		sg := Suggestion{
			ID:    hit.ID,
			Score: hit.Score,
		}
		if v, ok := hit.Fields["name"].(string); ok {
			sg.Name = v
		}
		if v, ok := hit.Fields["bgg_id"].(float64); ok {
			sg.BGGID = int(v)
		}
		if v, ok := hit.Fields["rank"].(float64); ok {
			r := int(v)
			sg.Rank = &r
		}
		out = append(out, sg)
	}
	return out, nil
}

// buildSuggestQuery matches whole words on name and treats the last typed
// token as a prefix, so "ticket to r" finds "Ticket to Ride".
func buildSuggestQuery(q string, excludeExpansions bool) query.Query {
	textQueries := []query.Query{}

	nameMatch := bleve.NewMatchQuery(q)
	nameMatch.SetField("name")
	nameMatch.SetBoost(3.0)
	textQueries = append(textQueries, nameMatch)

	fuzzy := bleve.NewMatchQuery(q)
	fuzzy.SetField("name")
	fuzzy.SetFuzziness(1)
	fuzzy.SetBoost(0.8)
	textQueries = append(textQueries, fuzzy)

	tokens := strings.Fields(strings.ToLower(q))
	if last := tokens[len(tokens)-1]; len(last) >= 2 {
		prefixParts := []query.Query{}
		for _, tok := range tokens[:len(tokens)-1] {
			tq := bleve.NewTermQuery(tok)
			tq.SetField("name_prefix")
			prefixParts = append(prefixParts, tq)
		}
		pq := bleve.NewPrefixQuery(last)
		pq.SetField("name_prefix")
		prefixParts = append(prefixParts, pq)

		prefix := bleve.NewConjunctionQuery(prefixParts...)
		prefix.SetBoost(1.5)
		textQueries = append(textQueries, prefix)
	}

	text := bleve.NewDisjunctionQuery(textQueries...)
	if !excludeExpansions {
		return text
	}

	isExpansion := bleve.NewBoolFieldQuery(true)
	isExpansion.SetField("is_expansion")

	bq := bleve.NewBooleanQuery()
	bq.AddMust(text)
	bq.AddMustNot(isExpansion)
	return bq
}
