package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/renovatuludoteca/ludoteca-server/internal/domain"
	"github.com/renovatuludoteca/ludoteca-server/internal/search"
	"github.com/renovatuludoteca/ludoteca-server/internal/store"
)

func (s *Server) registerCatalogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchCatalogGames",
		Method:      http.MethodGet,
		Path:        "/api/v1/catalog/games",
		Summary:     "Search catalog",
		Description: "Case-insensitive name search ordered by rank, unranked games last",
		Tags:        []string{"Catalog"},
	}, s.handleSearchGames)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCatalogGame",
		Method:      http.MethodGet,
		Path:        "/api/v1/catalog/games/{id}",
		Summary:     "Get catalog game",
		Description: "Returns a catalog entry by its internal ID",
		Tags:        []string{"Catalog"},
	}, s.handleGetGame)

	huma.Register(s.api, huma.Operation{
		OperationID:   "syncCatalogGameFromBGG",
		Method:        http.MethodPost,
		Path:          "/api/v1/catalog/games/sync-from-bgg",
		Summary:       "Sync game from BoardGameGeek",
		Description:   "Fetches one game from BoardGameGeek. Creates the entry when unknown, otherwise refreshes its details.",
		Tags:          []string{"Catalog"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusOK,
		Middlewares:   huma.Middlewares{s.rateLimitMiddleware(s.syncRateLimiter)},
	}, s.handleSyncFromBGG)

	huma.Register(s.api, huma.Operation{
		OperationID: "suggestCatalogGames",
		Method:      http.MethodGet,
		Path:        "/api/v1/catalog/suggest",
		Summary:     "Suggest games",
		Description: "Typeahead over game names, tolerant of prefixes and small typos",
		Tags:        []string{"Catalog"},
	}, s.handleSuggest)
}

// === DTOs ===

// SearchGamesInput contains parameters for searching the catalog.
type SearchGamesInput struct {
	Q                 string `query:"q" doc:"Name substring; blank returns no results"`
	Page              int    `query:"page" default:"1" doc:"1-based page number"`
	PageSize          int    `query:"pageSize" default:"20" doc:"Results per page, at most 100"`
	ExcludeExpansions string `query:"excludeExpansions" doc:"\"1\" or \"true\" hides expansions"`
}

// GameResponse contains a catalog entry in API responses.
type GameResponse struct {
	ID            string `json:"id" doc:"Catalog entry ID"`
	BGGID         int    `json:"bggId" doc:"BoardGameGeek ID"`
	Name          string `json:"name" doc:"Primary name"`
	YearPublished *int   `json:"yearPublished,omitempty" doc:"Publication year"`
	Rank          *int   `json:"rank,omitempty" doc:"Overall BoardGameGeek rank"`
	domain.CategoryRanks
	BayesAverage       *string   `json:"bayesAverage,omitempty" doc:"Geek rating as published"`
	Average            *string   `json:"average,omitempty" doc:"Average user rating as published"`
	UsersRated         *int      `json:"usersRated,omitempty" doc:"Number of ratings"`
	IsExpansion        bool      `json:"isExpansion" doc:"Whether the game is an expansion"`
	MinPlayers         *int      `json:"minPlayers,omitempty" doc:"Minimum players"`
	MaxPlayers         *int      `json:"maxPlayers,omitempty" doc:"Maximum players"`
	PlayingTimeMinutes *int      `json:"playingTimeMinutes,omitempty" doc:"Playing time in minutes"`
	Description        *string   `json:"description,omitempty" doc:"Description in Markdown"`
	ImageURL           *string   `json:"imageUrl,omitempty" doc:"Box art URL"`
	Source             string    `json:"source" enum:"csv,api" doc:"Workflow that created the entry"`
	CreatedAt          time.Time `json:"createdAt" doc:"Creation time"`
	UpdatedAt          time.Time `json:"updatedAt" doc:"Last update time"`
}

// SearchGamesResponse is one page of search results.
type SearchGamesResponse struct {
	Items    []GameResponse `json:"items" doc:"Matching games"`
	Total    int            `json:"total" doc:"Total matches across all pages"`
	Page     int            `json:"page" doc:"Page number"`
	PageSize int            `json:"pageSize" doc:"Page size"`
}

// SearchGamesOutput wraps the search response for Huma.
type SearchGamesOutput struct {
	Body SearchGamesResponse
}

// GetGameInput contains parameters for getting a game.
type GetGameInput struct {
	ID string `path:"id" doc:"Catalog entry ID"`
}

// GameOutput wraps a single game for Huma.
type GameOutput struct {
	Body GameResponse
}

// SyncFromBGGRequest is the request body for an on-demand sync.
type SyncFromBGGRequest struct {
	BGGID int `json:"bggId" validate:"required,gt=0" doc:"BoardGameGeek ID"`
}

// SyncFromBGGInput wraps the sync request for Huma.
type SyncFromBGGInput struct {
	Body SyncFromBGGRequest
}

// SyncFromBGGResponse reports the synced entry.
type SyncFromBGGResponse struct {
	Game    GameResponse `json:"game" doc:"The synced catalog entry"`
	Created bool         `json:"created" doc:"True when the entry did not exist before"`
}

// SyncFromBGGOutput is 201 on creation and 200 on update.
type SyncFromBGGOutput struct {
	Status int
	Body   SyncFromBGGResponse
}

// SuggestInput contains parameters for typeahead.
type SuggestInput struct {
	Q                 string `query:"q" doc:"Partial game name"`
	Limit             int    `query:"limit" default:"10" doc:"Maximum suggestions, at most 50"`
	ExcludeExpansions string `query:"excludeExpansions" doc:"\"1\" or \"true\" hides expansions"`
}

// SuggestResponse contains typeahead matches.
type SuggestResponse struct {
	Suggestions []search.Suggestion `json:"suggestions" doc:"Matches, best first"`
}

// SuggestOutput wraps the suggest response for Huma.
type SuggestOutput struct {
	Body SuggestResponse
}

// === Handlers ===

func (s *Server) handleSearchGames(ctx context.Context, input *SearchGamesInput) (*SearchGamesOutput, error) {
	page, err := s.services.Catalog.Search(ctx, store.CatalogQuery{
		Query:             input.Q,
		ExcludeExpansions: isTruthy(input.ExcludeExpansions),
		PageParams: store.PageParams{
			Page:     input.Page,
			PageSize: input.PageSize,
		},
	})
	if err != nil {
		return nil, err
	}

	items := make([]GameResponse, len(page.Items))
	for i, e := range page.Items {
		items[i] = toGameResponse(e)
	}

	return &SearchGamesOutput{
		Body: SearchGamesResponse{
			Items:    items,
			Total:    page.Total,
			Page:     page.Page,
			PageSize: page.PageSize,
		},
	}, nil
}

func (s *Server) handleGetGame(ctx context.Context, input *GetGameInput) (*GameOutput, error) {
	entry, err := s.services.Catalog.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &GameOutput{Body: toGameResponse(entry)}, nil
}

func (s *Server) handleSyncFromBGG(ctx context.Context, input *SyncFromBGGInput) (*SyncFromBGGOutput, error) {
	subject, err := s.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	result, err := s.services.Catalog.SyncFromBGG(ctx, input.Body.BGGID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("catalog sync requested",
		"subject", subject,
		"bgg_id", input.Body.BGGID,
		"created", result.Created,
	)

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}

	return &SyncFromBGGOutput{
		Status: status,
		Body: SyncFromBGGResponse{
			Game:    toGameResponse(result.Entry),
			Created: result.Created,
		},
	}, nil
}

func (s *Server) handleSuggest(ctx context.Context, input *SuggestInput) (*SuggestOutput, error) {
	suggestions, err := s.services.Search.Suggest(ctx, search.SuggestParams{
		Query:             input.Q,
		Limit:             input.Limit,
		ExcludeExpansions: isTruthy(input.ExcludeExpansions),
	})
	if err != nil {
		return nil, huma.Error500InternalServerError("suggest failed", err)
	}
	return &SuggestOutput{Body: SuggestResponse{Suggestions: suggestions}}, nil
}

// === Helpers ===

func toGameResponse(e *domain.CatalogEntry) GameResponse {
	return GameResponse{
		ID:                 e.ID,
		BGGID:              e.BGGID,
		Name:               e.Name,
		YearPublished:      e.YearPublished,
		Rank:               e.Rank,
		CategoryRanks:      e.CategoryRanks,
		BayesAverage:       e.BayesAverage,
		Average:            e.Average,
		UsersRated:         e.UsersRated,
		IsExpansion:        e.IsExpansion,
		MinPlayers:         e.MinPlayers,
		MaxPlayers:         e.MaxPlayers,
		PlayingTimeMinutes: e.PlayingTimeMinutes,
		Description:        e.Description,
		ImageURL:           e.ImageURL,
		Source:             string(e.Source),
		CreatedAt:          e.CreatedAt,
		UpdatedAt:          e.UpdatedAt,
	}
}

// isTruthy accepts the flag spellings clients send for boolean query values.
func isTruthy(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}
