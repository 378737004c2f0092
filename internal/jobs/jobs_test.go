package jobs

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer is a bytes.Buffer safe for concurrent log writes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testLogger() (*slog.Logger, *syncBuffer) {
	buf := &syncBuffer{}
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

type fakeEnricher struct {
	n     int
	err   error
	calls atomic.Int32
}

func (f *fakeEnricher) EnrichBatch(context.Context) (int, error) {
	f.calls.Add(1)
	return f.n, f.err
}

func TestEnrichCatalogJob_Run(t *testing.T) {
	logger, _ := testLogger()
	job := NewEnrichCatalogJob(&fakeEnricher{n: 15}, logger)

	res, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, EnrichResult{Enriched: 15}, res)
}

func TestEnrichCatalogJob_ScheduledLogsOnlyWhenEnriched(t *testing.T) {
	logger, buf := testLogger()

	require.NoError(t, NewEnrichCatalogJob(&fakeEnricher{}, logger).Scheduled(context.Background()))
	assert.NotContains(t, buf.String(), "catalog enrichment run")

	require.NoError(t, NewEnrichCatalogJob(&fakeEnricher{n: 3}, logger).Scheduled(context.Background()))
	assert.Contains(t, buf.String(), "enriched=3")
}

func TestEnrichCatalogJob_ScheduledReturnsError(t *testing.T) {
	logger, _ := testLogger()
	boom := errors.New("upstream down")

	err := NewEnrichCatalogJob(&fakeEnricher{err: boom}, logger).Scheduled(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestScheduler_InvalidSpec(t *testing.T) {
	logger, _ := testLogger()
	s := NewScheduler(logger)

	err := s.Add(EnrichCatalogJobName, "every fifteen minutes", func(context.Context) error { return nil })
	assert.Error(t, err)
	assert.Zero(t, s.Len())

	require.NoError(t, s.Add(EnrichCatalogJobName, "*/15 * * * *", func(context.Context) error { return nil }))
	assert.Equal(t, 1, s.Len())
}

func TestScheduler_RunsAndLogsFailures(t *testing.T) {
	logger, buf := testLogger()
	s := NewScheduler(logger)

	enricher := &fakeEnricher{err: errors.New("bgg unreachable")}
	job := NewEnrichCatalogJob(enricher, logger)
	require.NoError(t, s.Add(EnrichCatalogJobName, "@every 1s", job.Scheduled))

	s.Start()
	require.Eventually(t, func() bool { return enricher.calls.Load() >= 1 }, 5*time.Second, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))

	assert.Eventually(t, func() bool {
		return bytes.Contains([]byte(buf.String()), []byte("scheduled job failed"))
	}, time.Second, 10*time.Millisecond)
	assert.Contains(t, buf.String(), "bgg unreachable")
}

func TestScheduler_StopCancelsRunningJob(t *testing.T) {
	logger, _ := testLogger()
	s := NewScheduler(logger)

	started := make(chan struct{})
	var once sync.Once
	require.NoError(t, s.Add("block", "@every 1s", func(ctx context.Context) error {
		once.Do(func() { close(started) })
		<-ctx.Done()
		return ctx.Err()
	}))

	s.Start()
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("job never started")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}
