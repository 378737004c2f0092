package catalog

import (
	"errors"
	"strings"

	"github.com/renovatuludoteca/ludoteca-server/internal/domain"
)

// Row-level failures.
var (
	ErrInvalidID   = errors.New("catalog: missing or invalid id")
	ErrMissingName = errors.New("catalog: missing name")
)

// Column names of the BoardGameGeek ranking dump.
const (
	colYearPublished = "yearpublished"
	colRank          = "rank"
	colBayesAverage  = "bayesaverage"
	colAverage       = "average"
	colUsersRated    = "usersrated"
	colIsExpansion   = "is_expansion"
	colAbstracts     = "abstracts_rank"
	colCGS           = "cgs_rank"
	colChildrens     = "childrensgames_rank"
	colFamily        = "familygames_rank"
	colParty         = "partygames_rank"
	colStrategy      = "strategygames_rank"
	colThematic      = "thematic_rank"
	colWargames      = "wargames_rank"
)

// Row is a parsed ranking dump line.
type Row struct {
	Line  int
	BGGID int
	domain.CatalogMetadata
}

// ParseRow converts a record into a Row. Unreadable optional fields become
// nil; a missing id or name is an error.
func ParseRow(rec Record) (*Row, error) {
	id := ParseInt(rec.Get(ColumnID))
	if id == nil || *id <= 0 {
		return nil, ErrInvalidID
	}

	name := strings.TrimSpace(rec.Get(ColumnName))
	if name == "" {
		return nil, ErrMissingName
	}

	return &Row{
		Line:  rec.Line,
		BGGID: *id,
		CatalogMetadata: domain.CatalogMetadata{
			Name:          name,
			YearPublished: ParseInt(rec.Get(colYearPublished)),
			Rank:          ParseInt(rec.Get(colRank)),
			CategoryRanks: domain.CategoryRanks{
				Abstracts: ParseInt(rec.Get(colAbstracts)),
				CGS:       ParseInt(rec.Get(colCGS)),
				Childrens: ParseInt(rec.Get(colChildrens)),
				Family:    ParseInt(rec.Get(colFamily)),
				Party:     ParseInt(rec.Get(colParty)),
				Strategy:  ParseInt(rec.Get(colStrategy)),
				Thematic:  ParseInt(rec.Get(colThematic)),
				Wargames:  ParseInt(rec.Get(colWargames)),
			},
			BayesAverage: ParseDecimal(rec.Get(colBayesAverage)),
			Average:      ParseDecimal(rec.Get(colAverage)),
			UsersRated:   ParseInt(rec.Get(colUsersRated)),
			IsExpansion:  ParseFlag(rec.Get(colIsExpansion)),
		},
	}, nil
}

// RankAbove reports whether the row has a rank greater than maxRank.
// Unranked rows are never above.
func (r *Row) RankAbove(maxRank int) bool {
	return r.Rank != nil && *r.Rank > maxRank
}

// ToEntry builds the entry to upsert for this row.
func (r *Row) ToEntry() *domain.CatalogEntry {
	return &domain.CatalogEntry{
		BGGID:           r.BGGID,
		CatalogMetadata: r.CatalogMetadata,
		Source:          domain.SourceCSV,
	}
}
