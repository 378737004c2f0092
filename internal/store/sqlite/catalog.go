package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/renovatuludoteca/ludoteca-server/internal/domain"
	"github.com/renovatuludoteca/ludoteca-server/internal/id"
	"github.com/renovatuludoteca/ludoteca-server/internal/store"
)

// catalogColumns is the ordered list of columns selected in catalog queries.
// Must match the scan order in scanCatalogEntry.
const catalogColumns = `id, bgg_id, name, year_published, bgg_rank,
	abstracts_rank, cgs_rank, childrens_games_rank, family_games_rank,
	party_games_rank, strategy_games_rank, thematic_rank, wargames_rank,
	bayes_average, average, users_rated, is_expansion,
	min_players, max_players, playing_time_minutes, description, image_url,
	source, created_at, updated_at`

const catalogOrder = `ORDER BY bgg_rank ASC NULLS LAST, name_folded ASC, name ASC, bgg_id ASC`

// scanCatalogEntry scans a sql.Row (or sql.Rows via its Scan method) into a domain.CatalogEntry.
func scanCatalogEntry(scanner interface{ Scan(dest ...any) error }) (*domain.CatalogEntry, error) {
	var e domain.CatalogEntry

	var (
		year, rank                          sql.NullInt64
		abstracts, cgs, childrens, family   sql.NullInt64
		party, strategy, thematic, wargames sql.NullInt64
		bayesAverage, average               sql.NullString
		usersRated                          sql.NullInt64
		isExpansion                         int
		minPlayers, maxPlayers, playingTime sql.NullInt64
		description, imageURL               sql.NullString
		source, createdAt, updatedAt        string
	)

	err := scanner.Scan(
		&e.ID, &e.BGGID, &e.Name, &year, &rank,
		&abstracts, &cgs, &childrens, &family,
		&party, &strategy, &thematic, &wargames,
		&bayesAverage, &average, &usersRated, &isExpansion,
		&minPlayers, &maxPlayers, &playingTime, &description, &imageURL,
		&source, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.YearPublished = intPtr(year)
	e.Rank = intPtr(rank)
	e.CategoryRanks = domain.CategoryRanks{
		Abstracts: intPtr(abstracts),
		CGS:       intPtr(cgs),
		Childrens: intPtr(childrens),
		Family:    intPtr(family),
		Party:     intPtr(party),
		Strategy:  intPtr(strategy),
		Thematic:  intPtr(thematic),
		Wargames:  intPtr(wargames),
	}
	e.BayesAverage = stringPtr(bayesAverage)
	e.Average = stringPtr(average)
	e.UsersRated = intPtr(usersRated)
	e.IsExpansion = isExpansion != 0
	e.Enrichment = domain.Enrichment{
		MinPlayers:         intPtr(minPlayers),
		MaxPlayers:         intPtr(maxPlayers),
		PlayingTimeMinutes: intPtr(playingTime),
		Description:        stringPtr(description),
		ImageURL:           stringPtr(imageURL),
	}
	e.Source = domain.CatalogSource(source)

	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if e.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	return &e, nil
}

// insertArgs returns the values for catalogColumns in order.
func insertArgs(e *domain.CatalogEntry) []any {
	return []any{
		e.ID, e.BGGID, e.Name, nullableInt(e.YearPublished), nullableInt(e.Rank),
		nullableInt(e.Abstracts), nullableInt(e.CGS), nullableInt(e.Childrens), nullableInt(e.Family),
		nullableInt(e.Party), nullableInt(e.Strategy), nullableInt(e.Thematic), nullableInt(e.Wargames),
		nullableString(e.BayesAverage), nullableString(e.Average), nullableInt(e.UsersRated), boolToInt(e.IsExpansion),
		nullableInt(e.MinPlayers), nullableInt(e.MaxPlayers), nullableInt(e.PlayingTimeMinutes),
		nullableString(e.Description), nullableString(e.ImageURL),
		string(e.Source), formatTime(e.CreatedAt), formatTime(e.UpdatedAt),
		foldName(e.Name),
	}
}

const insertCatalogSQL = `INSERT INTO game_catalog (` + catalogColumns + `, name_folded)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// foldName produces the case-folded form used for name matching.
// A Caser is stateful, so one is created per call.
func foldName(name string) string {
	return cases.Fold().String(name)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// prepareNew fills the id, source and timestamps of an entry about to be inserted.
func prepareNew(entry *domain.CatalogEntry) (*domain.CatalogEntry, error) {
	e := *entry
	if e.ID == "" {
		newID, err := id.Generate("game")
		if err != nil {
			return nil, err
		}
		e.ID = newID
	}
	if !e.Source.Valid() {
		e.Source = domain.SourceCSV
	}
	e.InitTimestamps()
	return &e, nil
}

// FindByID retrieves an entry by internal id.
// Returns store.ErrCatalogEntryNotFound if it does not exist.
func (s *Store) FindByID(ctx context.Context, id string) (*domain.CatalogEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+catalogColumns+` FROM game_catalog WHERE id = ?`, id)

	e, err := scanCatalogEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrCatalogEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find catalog entry %s: %w", id, err)
	}
	return e, nil
}

// FindByBGGID retrieves an entry by BoardGameGeek id, or nil if there is none.
func (s *Store) FindByBGGID(ctx context.Context, bggID int) (*domain.CatalogEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+catalogColumns+` FROM game_catalog WHERE bgg_id = ?`, bggID)

	e, err := scanCatalogEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find catalog entry by bgg id %d: %w", bggID, err)
	}
	return e, nil
}

// Search matches the query as a case-insensitive substring of the name.
// A blank query returns an empty page without querying the database.
func (s *Store) Search(ctx context.Context, q store.CatalogQuery) (*store.PageResult[*domain.CatalogEntry], error) {
	q.Normalize()
	result := &store.PageResult[*domain.CatalogEntry]{
		Items:    []*domain.CatalogEntry{},
		Page:     q.Page,
		PageSize: q.PageSize,
	}

	term := strings.TrimSpace(q.Query)
	if term == "" {
		return result, nil
	}

	where := `name_folded LIKE ? ESCAPE '\'`
	args := []any{"%" + likeEscaper.Replace(foldName(term)) + "%"}
	if q.ExcludeExpansions {
		where += ` AND is_expansion = 0`
	}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM game_catalog WHERE `+where, args...).Scan(&result.Total); err != nil {
		return nil, fmt.Errorf("count catalog search: %w", err)
	}
	if result.Total == 0 || q.Offset() >= result.Total {
		return result, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+catalogColumns+` FROM game_catalog WHERE `+where+` `+catalogOrder+` LIMIT ? OFFSET ?`,
		append(args, q.PageSize, q.Offset())...)
	if err != nil {
		return nil, fmt.Errorf("search catalog: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanCatalogEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan catalog entry: %w", err)
		}
		result.Items = append(result.Items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog search: %w", err)
	}

	return result, nil
}

// Create inserts a new entry and returns it with id and timestamps set.
// Returns store.ErrCatalogEntryExists on a duplicate BoardGameGeek id.
func (s *Store) Create(ctx context.Context, entry *domain.CatalogEntry) (*domain.CatalogEntry, error) {
	e, err := prepareNew(entry)
	if err != nil {
		return nil, err
	}

	if _, err := s.db.ExecContext(ctx, insertCatalogSQL, insertArgs(e)...); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, store.ErrCatalogEntryExists
		}
		return nil, fmt.Errorf("create catalog entry %d: %w", e.BGGID, err)
	}

	s.index(ctx, e)
	return e, nil
}

// UpsertByBGGID inserts the entry, or on a BoardGameGeek id conflict
// overwrites only the ranking metadata and updated_at.
func (s *Store) UpsertByBGGID(ctx context.Context, entry *domain.CatalogEntry) (*domain.CatalogEntry, error) {
	e, err := prepareNew(entry)
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, insertCatalogSQL+`
		ON CONFLICT(bgg_id) DO UPDATE SET
			name = excluded.name,
			name_folded = excluded.name_folded,
			year_published = excluded.year_published,
			bgg_rank = excluded.bgg_rank,
			abstracts_rank = excluded.abstracts_rank,
			cgs_rank = excluded.cgs_rank,
			childrens_games_rank = excluded.childrens_games_rank,
			family_games_rank = excluded.family_games_rank,
			party_games_rank = excluded.party_games_rank,
			strategy_games_rank = excluded.strategy_games_rank,
			thematic_rank = excluded.thematic_rank,
			wargames_rank = excluded.wargames_rank,
			bayes_average = excluded.bayes_average,
			average = excluded.average,
			users_rated = excluded.users_rated,
			is_expansion = excluded.is_expansion,
			updated_at = excluded.updated_at
		RETURNING `+catalogColumns,
		insertArgs(e)...)

	saved, err := scanCatalogEntry(row)
	if err != nil {
		return nil, fmt.Errorf("upsert catalog entry %d: %w", e.BGGID, err)
	}

	s.index(ctx, saved)
	return saved, nil
}

// UpdateEnrichment sets the five enrichment fields and updated_at in one statement.
// Returns store.ErrCatalogEntryNotFound if id does not exist.
func (s *Store) UpdateEnrichment(ctx context.Context, id string, en domain.Enrichment) (*domain.CatalogEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE game_catalog SET
			min_players = ?,
			max_players = ?,
			playing_time_minutes = ?,
			description = ?,
			image_url = ?,
			updated_at = ?
		WHERE id = ?
		RETURNING `+catalogColumns,
		nullableInt(en.MinPlayers),
		nullableInt(en.MaxPlayers),
		nullableInt(en.PlayingTimeMinutes),
		nullableString(en.Description),
		nullableString(en.ImageURL),
		formatTime(time.Now()),
		id,
	)

	saved, err := scanCatalogEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrCatalogEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update enrichment %s: %w", id, err)
	}

	s.index(ctx, saved)
	return saved, nil
}

// FindUnenriched returns up to limit entries with no description,
// best rank first and unranked last.
func (s *Store) FindUnenriched(ctx context.Context, limit int) ([]*domain.CatalogEntry, error) {
	if limit <= 0 {
		return []*domain.CatalogEntry{}, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+catalogColumns+` FROM game_catalog
		WHERE description IS NULL
		ORDER BY bgg_rank ASC NULLS LAST, bgg_id ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("find unenriched: %w", err)
	}
	defer rows.Close()

	entries := make([]*domain.CatalogEntry, 0, limit)
	for rows.Next() {
		e, err := scanCatalogEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan catalog entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ForEach streams every entry in bgg_id order to fn, stopping at the first
// error fn returns.
func (s *Store) ForEach(ctx context.Context, fn func(*domain.CatalogEntry) error) error {
	rows, err := s.db.QueryContext(ctx, `SELECT `+catalogColumns+` FROM game_catalog ORDER BY bgg_id`)
	if err != nil {
		return fmt.Errorf("list catalog: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanCatalogEntry(rows)
		if err != nil {
			return fmt.Errorf("scan catalog entry: %w", err)
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return rows.Err()
}

// index pushes an entry to the search index. Failures are logged only.
func (s *Store) index(ctx context.Context, e *domain.CatalogEntry) {
	if err := s.searchIndexer.IndexCatalogEntry(ctx, e); err != nil {
		s.logger.Warn("failed to index catalog entry", "bgg_id", e.BGGID, "error", err)
	}
}
