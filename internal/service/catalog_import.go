package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"github.com/renovatuludoteca/ludoteca-server/internal/catalog"
	domainerrors "github.com/renovatuludoteca/ludoteca-server/internal/errors"
)

const importProgressEvery = 1000

// ImportOptions are the pre-filters of a bulk import.
type ImportOptions struct {
	// MaxRank skips rows ranked worse than this. Unranked rows are kept.
	MaxRank           *int
	ExcludeExpansions bool
}

// RowError is a single row that could not be imported.
type RowError struct {
	Line  int
	BGGID int // zero when the id itself was unreadable
	Err   error
}

func (e *RowError) Error() string {
	if e.BGGID == 0 {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d (bgg id %d): %v", e.Line, e.BGGID, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// ImportResult summarises a bulk import. Skipped counts rows removed by the
// pre-filters; rows that failed are listed in Failures only.
type ImportResult struct {
	RunID    string
	Imported int
	Skipped  int
	Failures []*RowError
}

// ImportCSV upserts every row of a BoardGameGeek ranking dump. A bad row is
// logged and recorded, never fatal; only an unreadable header, a read error
// or cancellation stops the run.
func (s *CatalogService) ImportCSV(ctx context.Context, r io.Reader, opts ImportOptions) (*ImportResult, error) {
	if opts.MaxRank != nil && *opts.MaxRank < 1 {
		return nil, domainerrors.Validationf("max rank must be at least 1, got %d", *opts.MaxRank)
	}

	reader, err := catalog.NewReader(r)
	if err != nil {
		if errors.Is(err, catalog.ErrMissingColumn) {
			return nil, domainerrors.Wrap(err, domainerrors.CodeValidation, "catalog file needs id and name columns")
		}
		return nil, fmt.Errorf("open catalog file: %w", err)
	}

	result := &ImportResult{RunID: uuid.NewString()}
	logger := s.logger.With("run_id", result.RunID)
	logger.Info("catalog import started",
		"delimiter", strconv.QuoteRune(reader.Delimiter),
		"exclude_expansions", opts.ExcludeExpansions,
		"max_rank", opts.MaxRank,
	)

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		rec, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			s.recordFailure(logger, result, &RowError{Line: rec.Line, Err: err})
			continue
		}
		if err != nil {
			return result, fmt.Errorf("read catalog file: %w", err)
		}

		row, err := catalog.ParseRow(rec)
		if err != nil {
			rowErr := &RowError{Line: rec.Line, Err: err}
			if id := catalog.ParseInt(rec.Get(catalog.ColumnID)); id != nil {
				rowErr.BGGID = *id
			}
			s.recordFailure(logger, result, rowErr)
			continue
		}

		if opts.MaxRank != nil && row.RankAbove(*opts.MaxRank) {
			result.Skipped++
			continue
		}
		if opts.ExcludeExpansions && row.IsExpansion {
			result.Skipped++
			continue
		}

		if _, err := s.store.UpsertByBGGID(ctx, row.ToEntry()); err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			s.recordFailure(logger, result, &RowError{Line: row.Line, BGGID: row.BGGID, Err: err})
			continue
		}

		result.Imported++
		if result.Imported%importProgressEvery == 0 {
			logger.Info("catalog import progress", "imported", result.Imported)
		}
	}

	logger.Info("catalog import finished",
		"imported", result.Imported,
		"skipped", result.Skipped,
		"failed", len(result.Failures),
	)
	return result, nil
}

func (s *CatalogService) recordFailure(logger *slog.Logger, result *ImportResult, rowErr *RowError) {
	logger.Warn("catalog row failed",
		"bgg_id", rowErr.BGGID,
		"line", rowErr.Line,
		"error", rowErr.Err,
	)
	result.Failures = append(result.Failures, rowErr)
}
