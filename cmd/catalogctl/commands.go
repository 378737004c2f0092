package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/samber/do/v2"

	"github.com/renovatuludoteca/ludoteca-server/internal/auth"
	"github.com/renovatuludoteca/ludoteca-server/internal/config"
	"github.com/renovatuludoteca/ludoteca-server/internal/jobs"
	"github.com/renovatuludoteca/ludoteca-server/internal/service"
	"github.com/renovatuludoteca/ludoteca-server/internal/validation"
)

// CLI is the catalogctl command tree.
type CLI struct {
	Import  ImportCmd  `cmd:"" help:"Import a BoardGameGeek ranking CSV into the catalog"`
	Enrich  EnrichCmd  `cmd:"" help:"Run one enrichment batch against BoardGameGeek"`
	Sync    SyncCmd    `cmd:"" help:"Fetch one game from BoardGameGeek and record it"`
	Reindex ReindexCmd `cmd:"" help:"Rebuild the typeahead search index from the catalog"`
	Token   TokenCmd   `cmd:"" help:"Issue an access token for the HTTP API"`
}

// App carries what every command needs. Services are resolved lazily from
// the container so a command only opens what it uses.
type App struct {
	ctx       context.Context
	injector  *do.RootScope
	out       io.Writer
	validator *validation.Validator
}

// NewApp creates the command runtime.
func NewApp(ctx context.Context, injector *do.RootScope, out io.Writer) *App {
	return &App{
		ctx:       ctx,
		injector:  injector,
		out:       out,
		validator: validation.New(),
	}
}

// Close shuts down whatever the command opened.
func (a *App) Close() error {
	if errs := a.injector.Shutdown(); errs != nil {
		return errs
	}
	return nil
}

func (a *App) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ImportCmd loads a ranking dump.
type ImportCmd struct {
	File              string `arg:"" optional:"" help:"CSV file; defaults to BGG_CSV_PATH"`
	MaxRank           int    `help:"Skip ranked rows worse than this rank (0 keeps all)" default:"0"`
	ExcludeExpansions bool   `help:"Skip expansions"`
}

type importSummary struct {
	RunID    string   `json:"runId"`
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Failed   int      `json:"failed"`
	Failures []string `json:"failures,omitempty"`
}

// maxReportedFailures bounds the failures echoed to the terminal; all of
// them are logged.
const maxReportedFailures = 20

// Run imports the file.
func (c *ImportCmd) Run(app *App) error {
	if err := app.validator.Var("max-rank", c.MaxRank, "gte=0"); err != nil {
		return err
	}

	path := c.File
	if path == "" {
		cfg, err := do.Invoke[*config.Config](app.injector)
		if err != nil {
			return err
		}
		path = cfg.BGG.CSVPath
	}
	if path == "" {
		return errors.New("no CSV file given and BGG_CSV_PATH is not set")
	}

	//#nosec G304 -- operator-supplied path
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	opts := service.ImportOptions{ExcludeExpansions: c.ExcludeExpansions}
	if c.MaxRank > 0 {
		maxRank := c.MaxRank
		opts.MaxRank = &maxRank
	}

	catalog, err := do.Invoke[*service.CatalogService](app.injector)
	if err != nil {
		return err
	}

	res, err := catalog.ImportCSV(app.ctx, f, opts)
	if err != nil {
		return err
	}

	summary := importSummary{
		RunID:    res.RunID,
		Imported: res.Imported,
		Skipped:  res.Skipped,
		Failed:   len(res.Failures),
	}
	for i, rowErr := range res.Failures {
		if i == maxReportedFailures {
			break
		}
		summary.Failures = append(summary.Failures, rowErr.Error())
	}
	return app.print(summary)
}

// EnrichCmd runs the batch enrichment job once.
type EnrichCmd struct{}

// Run enriches one batch.
func (c *EnrichCmd) Run(app *App) error {
	job, err := do.Invoke[*jobs.EnrichCatalogJob](app.injector)
	if err != nil {
		return err
	}

	res, err := job.Run(app.ctx)
	if err != nil {
		return err
	}
	return app.print(res)
}

// SyncCmd syncs one game on demand.
type SyncCmd struct {
	BGGID int `arg:"" name:"bgg-id" help:"BoardGameGeek game id"`
}

type syncSummary struct {
	ID      string `json:"id"`
	BGGID   int    `json:"bggId"`
	Name    string `json:"name"`
	Created bool   `json:"created"`
}

// Run fetches and records the game.
func (c *SyncCmd) Run(app *App) error {
	if err := app.validator.Var("bgg-id", c.BGGID, "gt=0"); err != nil {
		return err
	}

	catalog, err := do.Invoke[*service.CatalogService](app.injector)
	if err != nil {
		return err
	}

	res, err := catalog.SyncFromBGG(app.ctx, c.BGGID)
	if err != nil {
		return err
	}

	return app.print(syncSummary{
		ID:      res.Entry.ID,
		BGGID:   res.Entry.BGGID,
		Name:    res.Entry.Name,
		Created: res.Created,
	})
}

// ReindexCmd rebuilds the search index.
type ReindexCmd struct{}

// Run drops and repopulates the index.
func (c *ReindexCmd) Run(app *App) error {
	search, err := do.Invoke[*service.SearchService](app.injector)
	if err != nil {
		return err
	}
	if !search.Enabled() {
		return errors.New("search index is disabled (SEARCH_ENABLED=false)")
	}

	n, err := search.Reindex(app.ctx)
	if err != nil {
		return err
	}
	return app.print(map[string]int{"documents": n})
}

// TokenCmd issues an operator token.
type TokenCmd struct {
	Subject string `required:"" help:"Subject recorded in the token and in request logs"`
	Admin   bool   `help:"Allow admin operations"`
}

type tokenSummary struct {
	Token     string    `json:"token"`
	Subject   string    `json:"subject"`
	Admin     bool      `json:"admin"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Run prints a fresh token.
func (c *TokenCmd) Run(app *App) error {
	if err := app.validator.Var("subject", c.Subject, "required,printascii,max=128"); err != nil {
		return err
	}

	tokens, err := do.Invoke[*auth.TokenService](app.injector)
	if err != nil {
		return err
	}

	token, expiresAt, err := tokens.GenerateAccessToken(c.Subject, c.Admin)
	if err != nil {
		return err
	}

	return app.print(tokenSummary{
		Token:     token,
		Subject:   c.Subject,
		Admin:     c.Admin,
		ExpiresAt: expiresAt,
	})
}
