package bgg

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renovatuludoteca/ludoteca-server/internal/ratelimit"
)

func newTestClient(t *testing.T, opts Options, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	queue := ratelimit.NewQueue(ratelimit.QueueOptions{MinDelay: time.Millisecond, Logger: logger})
	t.Cleanup(queue.Stop)

	opts.BaseURL = server.URL
	return New(queue, opts, logger)
}

func TestClient_FetchThings_Request(t *testing.T) {
	var got *http.Request
	client := newTestClient(t, Options{Token: "secret", Username: "ludoteca-test"}, func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		w.Write([]byte(`<items></items>`))
	})

	_, err := client.FetchThings(context.Background(), []int{13, 822})
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, "/thing", got.URL.Path)
	assert.Equal(t, "13,822", got.URL.Query().Get("id"))
	assert.Equal(t, "1", got.URL.Query().Get("stats"))
	assert.Equal(t, "application/xml", got.Header.Get("Accept"))
	assert.Equal(t, "Bearer secret", got.Header.Get("Authorization"))
	assert.Equal(t, "ludoteca-test", got.Header.Get("User-Agent"))
}

func TestClient_FetchThings_NoTokenNoAuthorization(t *testing.T) {
	var auth, agent string
	client := newTestClient(t, Options{}, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		agent = r.Header.Get("User-Agent")
		w.Write([]byte(`<items></items>`))
	})

	_, err := client.FetchThings(context.Background(), []int{13})
	require.NoError(t, err)
	assert.Empty(t, auth)
	assert.Equal(t, defaultUserAgent, agent)
}

func TestClient_FetchThings_TruncatesToMaxIDs(t *testing.T) {
	var ids string
	client := newTestClient(t, Options{}, func(w http.ResponseWriter, r *http.Request) {
		ids = r.URL.Query().Get("id")
		w.Write([]byte(`<items></items>`))
	})

	requested := make([]int, 25)
	for i := range requested {
		requested[i] = i + 1
	}

	_, err := client.FetchThings(context.Background(), requested)
	require.NoError(t, err)
	assert.Equal(t, 20, MaxIDsPerRequest)
	assert.Len(t, strings.Split(ids, ","), 20)
}

func TestClient_FetchThings_EmptyIDsSkipsRequest(t *testing.T) {
	called := false
	client := newTestClient(t, Options{}, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	things, err := client.FetchThings(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, things)
	assert.False(t, called)
}

func TestClient_FetchThings_Status(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantErr    error
	}{
		{name: "rate limited", statusCode: http.StatusTooManyRequests, wantErr: ErrRateLimited},
		{name: "bad request", statusCode: http.StatusBadRequest, wantErr: ErrBadRequest},
		{name: "server error", statusCode: http.StatusServiceUnavailable, wantErr: ErrUpstream},
		{name: "unauthorized", statusCode: http.StatusUnauthorized, wantErr: ErrUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, Options{}, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			})

			_, err := client.FetchThings(context.Background(), []int{13})
			require.Error(t, err)

			var bggErr *Error
			require.True(t, errors.As(err, &bggErr))
			assert.Equal(t, "things", bggErr.Op)
			assert.Equal(t, []int{13}, bggErr.IDs)
			assert.Equal(t, tt.statusCode, bggErr.Status)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClient_FetchThing(t *testing.T) {
	fixture := loadFixture(t, "things.xml")
	client := newTestClient(t, Options{}, func(w http.ResponseWriter, r *http.Request) {
		w.Write(fixture)
	})

	thing, err := client.FetchThing(context.Background(), 325)
	require.NoError(t, err)
	require.NotNil(t, thing)
	assert.Equal(t, 325, thing.BGGID)

	missing, err := client.FetchThing(context.Background(), 999999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestClient_FetchThings_Timeout(t *testing.T) {
	client := newTestClient(t, Options{Timeout: 20 * time.Millisecond}, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	})

	_, err := client.FetchThings(context.Background(), []int{13})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstream)
}
