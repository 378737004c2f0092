package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/renovatuludoteca/ludoteca-server/internal/bgg"
	"github.com/renovatuludoteca/ludoteca-server/internal/domain"
	domainerrors "github.com/renovatuludoteca/ludoteca-server/internal/errors"
	"github.com/renovatuludoteca/ludoteca-server/internal/store"
)

// EnrichBatchSize is the number of rows one enrichment run looks up.
// It matches the provider's per-request id limit so a run is one call.
const EnrichBatchSize = bgg.MaxIDsPerRequest

// ThingFetcher looks games up on BoardGameGeek.
type ThingFetcher interface {
	FetchThings(ctx context.Context, ids []int) ([]bgg.Thing, error)
	FetchThing(ctx context.Context, bggID int) (*bgg.Thing, error)
}

// SyncResult is the outcome of an on-demand sync.
type SyncResult struct {
	Entry   *domain.CatalogEntry
	Created bool
}

// CatalogService orchestrates catalog reads and BoardGameGeek enrichment.
type CatalogService struct {
	store  store.CatalogStore
	bgg    ThingFetcher
	logger *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(store store.CatalogStore, fetcher ThingFetcher, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		store:  store,
		bgg:    fetcher,
		logger: logger,
	}
}

// GetByID returns a catalog entry by its internal id.
func (s *CatalogService) GetByID(ctx context.Context, id string) (*domain.CatalogEntry, error) {
	entry, err := s.store.FindByID(ctx, id)
	if errors.Is(err, store.ErrCatalogEntryNotFound) {
		return nil, domainerrors.NotFoundf("catalog entry %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get catalog entry: %w", err)
	}
	return entry, nil
}

// GetByBGGID returns the entry for a BoardGameGeek id, or nil when the
// catalog does not know it.
func (s *CatalogService) GetByBGGID(ctx context.Context, bggID int) (*domain.CatalogEntry, error) {
	return s.store.FindByBGGID(ctx, bggID)
}

// Search runs a name search. A blank query returns an empty page without
// reaching the store.
func (s *CatalogService) Search(ctx context.Context, q store.CatalogQuery) (*store.PageResult[*domain.CatalogEntry], error) {
	if strings.TrimSpace(q.Query) == "" {
		q.Normalize()
		return &store.PageResult[*domain.CatalogEntry]{
			Items:    []*domain.CatalogEntry{},
			Page:     q.Page,
			PageSize: q.PageSize,
		}, nil
	}
	return s.store.Search(ctx, q)
}

// SyncFromBGG fetches one game and records it. An existing entry receives
// only the five enrichment fields; a new one is created with source api.
func (s *CatalogService) SyncFromBGG(ctx context.Context, bggID int) (*SyncResult, error) {
	if bggID <= 0 {
		return nil, domainerrors.Validationf("bggId must be a positive integer, got %d", bggID)
	}

	thing, err := s.bgg.FetchThing(ctx, bggID)
	if err != nil {
		return nil, upstreamError(ctx, err)
	}
	if thing == nil {
		return nil, domainerrors.NotFoundf("game %d not found on BoardGameGeek", bggID)
	}

	existing, err := s.store.FindByBGGID(ctx, bggID)
	if err != nil {
		return nil, fmt.Errorf("find catalog entry: %w", err)
	}

	if existing == nil {
		created, err := s.store.Create(ctx, thing.NewEntry())
		switch {
		case err == nil:
			s.logger.Info("catalog entry created from BoardGameGeek",
				"bgg_id", bggID,
				"id", created.ID,
				"name", created.Name,
			)
			return &SyncResult{Entry: created, Created: true}, nil
		case errors.Is(err, store.ErrCatalogEntryExists):
			// Lost a race with a concurrent import or sync; fall through to update.
			existing, err = s.store.FindByBGGID(ctx, bggID)
			if err != nil {
				return nil, fmt.Errorf("find catalog entry: %w", err)
			}
			if existing == nil {
				return nil, domainerrors.Internalf("catalog entry %d vanished during sync", bggID)
			}
		default:
			return nil, fmt.Errorf("create catalog entry: %w", err)
		}
	}

	updated, err := s.store.UpdateEnrichment(ctx, existing.ID, thing.Enrichment())
	if err != nil {
		return nil, fmt.Errorf("update enrichment: %w", err)
	}

	s.logger.Info("catalog entry enriched from BoardGameGeek",
		"bgg_id", bggID,
		"id", updated.ID,
	)
	return &SyncResult{Entry: updated, Created: false}, nil
}

// EnrichBatch enriches up to EnrichBatchSize unenriched rows with a single
// lookup. Rows missing from the response stay unenriched for the next run.
// A failed lookup fails the whole batch; a failed row write is logged and
// skipped. The count covers rows that now carry a description.
func (s *CatalogService) EnrichBatch(ctx context.Context) (int, error) {
	pending, err := s.store.FindUnenriched(ctx, EnrichBatchSize)
	if err != nil {
		return 0, fmt.Errorf("find unenriched: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	runID := uuid.NewString()
	ids := make([]int, len(pending))
	byBGGID := make(map[int]*domain.CatalogEntry, len(pending))
	for i, e := range pending {
		ids[i] = e.BGGID
		byBGGID[e.BGGID] = e
	}

	things, err := s.bgg.FetchThings(ctx, ids)
	if err != nil {
		s.logger.Error("enrichment batch failed",
			"run_id", runID,
			"attempted", len(ids),
			"error", err,
		)
		return 0, upstreamError(ctx, err)
	}

	enriched := 0
	for i := range things {
		thing := &things[i]
		entry, ok := byBGGID[thing.BGGID]
		if !ok {
			continue
		}
		// Duplicate items in a response must not be written twice.
		delete(byBGGID, thing.BGGID)

		enrichment := thing.Enrichment()
		if _, err := s.store.UpdateEnrichment(ctx, entry.ID, enrichment); err != nil {
			if ctx.Err() != nil {
				return enriched, ctx.Err()
			}
			s.logger.Error("enrichment write failed",
				"run_id", runID,
				"bgg_id", thing.BGGID,
				"id", entry.ID,
				"error", err,
			)
			continue
		}
		if enrichment.Description == nil {
			s.logger.Warn("BoardGameGeek item has no description",
				"run_id", runID,
				"bgg_id", thing.BGGID,
				"id", entry.ID,
			)
			continue
		}
		enriched++
	}

	s.logger.Info("enrichment batch finished",
		"run_id", runID,
		"attempted", len(ids),
		"enriched", enriched,
	)
	return enriched, nil
}

// upstreamError converts a provider failure into a domain error. When the
// caller's own context ended the error passes through unchanged; a per-request
// timeout is an upstream failure.
func upstreamError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return err
	}
	if errors.Is(err, bgg.ErrRateLimited) {
		return domainerrors.Upstream("BoardGameGeek is rate limiting requests").WithCause(err)
	}
	return domainerrors.Wrap(err, domainerrors.CodeUpstream, "BoardGameGeek request failed")
}
