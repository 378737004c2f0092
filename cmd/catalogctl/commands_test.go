package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renovatuludoteca/ludoteca-server/internal/auth"
	"github.com/renovatuludoteca/ludoteca-server/internal/di"
	"github.com/renovatuludoteca/ludoteca-server/internal/di/providers"
)

// runCLI parses args and runs the selected command against a fresh
// container rooted in a temporary data directory.
func runCLI(t *testing.T, args ...string) (*App, []byte, error) {
	t.Helper()

	var cli CLI
	parser, err := kong.New(&cli, kong.Name("catalogctl"), kong.Exit(func(int) {}))
	require.NoError(t, err)

	kctx, err := parser.Parse(args)
	if err != nil {
		return nil, nil, err
	}

	var out bytes.Buffer
	app := NewApp(context.Background(), di.NewContainer(nil), &out)
	t.Cleanup(func() { _ = app.Close() })

	runErr := kctx.Run(app)
	return app, out.Bytes(), runErr
}

func setupEnv(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("DATA_DIR", dir)
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("ENV", "development")
	t.Setenv("AUTH_TOKEN_KEY", "")
	t.Setenv("BGG_CSV_PATH", "")
	t.Setenv("SEARCH_ENABLED", "false")
	return dir
}

func serveThings(t *testing.T) *httptest.Server {
	t.Helper()

	body, err := os.ReadFile(filepath.Join("..", "..", "internal", "bgg", "testdata", "things.xml"))
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/thing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/xml")
		_, _ = w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestImportCmd(t *testing.T) {
	dir := setupEnv(t)

	path := filepath.Join(dir, "ranks.csv")
	csv := "id,name,yearpublished,rank,bayesaverage,average,usersrated,is_expansion\n" +
		"13,Catan,1995,559,6.91,7.09,125000,0\n" +
		"325,Catan: Seafarers,1997,0,6.5,7.0,20000,1\n" +
		"oops,Broken,1990,1,,,,0\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o600))

	_, out, err := runCLI(t, "import", path, "--exclude-expansions")
	require.NoError(t, err)

	var summary importSummary
	require.NoError(t, json.Unmarshal(out, &summary))
	assert.Equal(t, 1, summary.Imported)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.Failed)
	assert.Len(t, summary.Failures, 1)
	assert.NotEmpty(t, summary.RunID)
}

func TestImportCmd_FallsBackToConfiguredPath(t *testing.T) {
	dir := setupEnv(t)

	path := filepath.Join(dir, "dump.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,name,rank\n13,Catan,559\n"), 0o600))
	t.Setenv("BGG_CSV_PATH", path)

	_, out, err := runCLI(t, "import")
	require.NoError(t, err)

	var summary importSummary
	require.NoError(t, json.Unmarshal(out, &summary))
	assert.Equal(t, 1, summary.Imported)
}

func TestImportCmd_Errors(t *testing.T) {
	setupEnv(t)

	_, _, err := runCLI(t, "import")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BGG_CSV_PATH")

	_, _, err = runCLI(t, "import", "missing.csv", "--max-rank=-1")
	require.Error(t, err)

	_, _, err = runCLI(t, "import", filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.csv")
}

func TestSyncCmd(t *testing.T) {
	setupEnv(t)
	server := serveThings(t)
	t.Setenv("BGG_BASE_URL", server.URL)

	_, out, err := runCLI(t, "sync", "13")
	require.NoError(t, err)

	var summary syncSummary
	require.NoError(t, json.Unmarshal(out, &summary))
	assert.Equal(t, 13, summary.BGGID)
	assert.Equal(t, "Catan", summary.Name)
	assert.True(t, summary.Created)
	assert.NotEmpty(t, summary.ID)

	_, _, err = runCLI(t, "sync", "0")
	assert.Error(t, err)
}

func TestTokenCmd(t *testing.T) {
	setupEnv(t)

	app, out, err := runCLI(t, "token", "--subject", "ops", "--admin")
	require.NoError(t, err)

	var summary tokenSummary
	require.NoError(t, json.Unmarshal(out, &summary))
	assert.Equal(t, "ops", summary.Subject)
	assert.True(t, summary.Admin)
	assert.False(t, summary.ExpiresAt.IsZero())

	tokens := do.MustInvoke[*auth.TokenService](app.injector)
	claims, err := tokens.VerifyAccessToken(summary.Token)
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)
	assert.True(t, claims.Admin)

	_, _, err = runCLI(t, "token", "--subject", "bad\tsubject")
	assert.Error(t, err)

	_, _, err = runCLI(t, "token")
	assert.Error(t, err, "subject is required")
}

func TestTokenCmd_KeyPersistsAcrossRuns(t *testing.T) {
	setupEnv(t)

	_, out, err := runCLI(t, "token", "--subject", "ops")
	require.NoError(t, err)

	var summary tokenSummary
	require.NoError(t, json.Unmarshal(out, &summary))

	app, _, err := runCLI(t, "reindex")
	require.Error(t, err, "search is disabled in the test environment")

	key := do.MustInvoke[providers.AuthKey](app.injector)
	assert.NotEmpty(t, key)

	tokens := do.MustInvoke[*auth.TokenService](app.injector)
	_, err = tokens.VerifyAccessToken(summary.Token)
	assert.NoError(t, err)
}
