package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renovatuludoteca/ludoteca-server/internal/catalog"
	"github.com/renovatuludoteca/ludoteca-server/internal/domain"
	domainerrors "github.com/renovatuludoteca/ludoteca-server/internal/errors"
)

const dumpHeader = "id,name,yearpublished,rank,bayesaverage,average,usersrated,is_expansion,abstracts_rank,familygames_rank\n"

func TestImportCSV_ExcludeExpansions(t *testing.T) {
	svc, s := setupCatalogService(t, newFakeFetcher())
	ctx := context.Background()

	input := dumpHeader +
		"1,Catan,1995,5,7.01,7.1,1000,0,,3\n" +
		"2,Catan: Seafarers,1997,800,6.5,6.9,200,1,,\n"

	res, err := svc.ImportCSV(ctx, strings.NewReader(input), ImportOptions{ExcludeExpansions: true})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)
	assert.Equal(t, 1, res.Skipped)
	assert.Empty(t, res.Failures)
	assert.NotEmpty(t, res.RunID)

	got, err := s.FindByBGGID(ctx, 2)
	require.NoError(t, err)
	assert.Nil(t, got)

	catan, err := s.FindByBGGID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, catan)
	assert.Equal(t, domain.SourceCSV, catan.Source)
	assert.Equal(t, "7.01", *catan.BayesAverage)
	assert.Equal(t, 3, *catan.Family)
	assert.Nil(t, catan.Abstracts)
	assert.False(t, catan.IsEnriched())
}

func TestImportCSV_MaxRank(t *testing.T) {
	svc, s := setupCatalogService(t, newFakeFetcher())
	ctx := context.Background()

	input := "id\tname\trank\n" +
		"1\tCatan\t5\n" +
		"2\tObscure\t5000\n" +
		"3\tUnranked\t\n"

	res, err := svc.ImportCSV(ctx, strings.NewReader(input), ImportOptions{MaxRank: ptr(100)})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported, "unranked rows pass the rank filter")
	assert.Equal(t, 1, res.Skipped)

	got, err := s.FindByBGGID(ctx, 3)
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestImportCSV_RowFailuresDoNotAbort(t *testing.T) {
	svc, s := setupCatalogService(t, newFakeFetcher())
	ctx := context.Background()

	input := dumpHeader +
		"1,Catan,1995,5,,,,0,,\n" +
		"abc,Broken Id,,,,,,0,,\n" +
		"7,,,,,,,0,,\n" +
		"822,Carcassonne,2000,not-a-number,NaN,,,0,,\n"

	res, err := svc.ImportCSV(ctx, strings.NewReader(input), ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.Zero(t, res.Skipped)
	require.Len(t, res.Failures, 2)

	assert.Equal(t, 3, res.Failures[0].Line)
	assert.Zero(t, res.Failures[0].BGGID)
	assert.ErrorIs(t, res.Failures[0], catalog.ErrInvalidID)

	assert.Equal(t, 4, res.Failures[1].Line)
	assert.Equal(t, 7, res.Failures[1].BGGID)
	assert.ErrorIs(t, res.Failures[1], catalog.ErrMissingName)

	carc, err := s.FindByBGGID(ctx, 822)
	require.NoError(t, err)
	require.NotNil(t, carc)
	assert.Nil(t, carc.Rank, "unparseable rank is stored as null")
	assert.Nil(t, carc.BayesAverage)
}

func TestImportCSV_IsIdempotentAndKeepsEnrichment(t *testing.T) {
	svc, s := setupCatalogService(t, newFakeFetcher())
	ctx := context.Background()

	input := dumpHeader + "13,Catan,1995,5,,,,0,,\n"
	_, err := svc.ImportCSV(ctx, strings.NewReader(input), ImportOptions{})
	require.NoError(t, err)

	first, err := s.FindByBGGID(ctx, 13)
	require.NoError(t, err)
	_, err = s.UpdateEnrichment(ctx, first.ID, domain.Enrichment{Description: ptr("desc")})
	require.NoError(t, err)

	updated := dumpHeader + "13,Catan,1995,4,,,,0,,\n"
	res, err := svc.ImportCSV(ctx, strings.NewReader(updated), ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)

	second, err := s.FindByBGGID(ctx, 13)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 4, *second.Rank)
	assert.Equal(t, "desc", *second.Description)
}

func TestImportCSV_MissingColumns(t *testing.T) {
	svc, _ := setupCatalogService(t, newFakeFetcher())

	_, err := svc.ImportCSV(context.Background(), strings.NewReader("id,title\n1,Catan\n"), ImportOptions{})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
	assert.ErrorIs(t, err, catalog.ErrMissingColumn)
}

func TestImportCSV_InvalidMaxRank(t *testing.T) {
	svc, _ := setupCatalogService(t, newFakeFetcher())

	_, err := svc.ImportCSV(context.Background(), strings.NewReader(dumpHeader), ImportOptions{MaxRank: ptr(0)})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestImportCSV_Cancelled(t *testing.T) {
	svc, _ := setupCatalogService(t, newFakeFetcher())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var b strings.Builder
	b.WriteString(dumpHeader)
	for i := 1; i <= 10; i++ {
		fmt.Fprintf(&b, "%d,Game %d,,,,,,0,,\n", i, i)
	}

	res, err := svc.ImportCSV(ctx, strings.NewReader(b.String()), ImportOptions{})
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.Zero(t, res.Imported)
}
