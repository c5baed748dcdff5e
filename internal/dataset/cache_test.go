package dataset

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamstate/guest-assistant/internal/cache"
	"github.com/dreamstate/guest-assistant/internal/domain"
	"github.com/dreamstate/guest-assistant/internal/observability"
)

type fakeFetcher struct {
	values [][]string
	err    error
	calls  int
}

func (f *fakeFetcher) Fetch(ctx context.Context) ([][]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.values, nil
}

func (f *fakeFetcher) Describe() string { return "fake" }

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func sampleValues() [][]string {
	return [][]string{
		{"Unit #", "Title"},
		{"101", "Clara Lane Retreat"},
	}
}

func TestCache_ServesFreshSnapshotWithoutRefetch(t *testing.T) {
	clk := &clock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	fetcher := &fakeFetcher{values: sampleValues()}
	c := NewCache(fetcher, observability.NopLogger(), WithClock(clk.Now))

	first, err := c.Load(context.Background())
	require.NoError(t, err)

	clk.now = clk.now.Add(9 * time.Minute)
	second, err := c.Load(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, fetcher.calls)
	assert.EqualValues(t, 1, c.Fetches())
}

func TestCache_RefetchesAfterTTL(t *testing.T) {
	clk := &clock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	fetcher := &fakeFetcher{values: sampleValues()}
	c := NewCache(fetcher, observability.NopLogger(), WithClock(clk.Now))

	first, err := c.Load(context.Background())
	require.NoError(t, err)

	fetcher.values = [][]string{
		{"Unit #", "Title", "Parking"},
		{"201", "Hidden Forest", "Driveway"},
		{"202", "Ocean View", ""},
	}
	clk.now = clk.now.Add(10 * time.Minute)

	second, err := c.Load(context.Background())
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, 2, fetcher.calls)
	assert.Equal(t, []string{"Unit #", "Title", "Parking"}, second.Headers)
	assert.Len(t, second.Rows, 2)
	assert.Equal(t, clk.now, second.FetchedAt)
	assert.Same(t, second, c.Peek())
}

func TestCache_CustomTTL(t *testing.T) {
	clk := &clock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	fetcher := &fakeFetcher{values: sampleValues()}
	c := NewCache(fetcher, observability.NopLogger(), WithClock(clk.Now), WithTTL(time.Minute))
	assert.Equal(t, time.Minute, c.TTL())

	_, err := c.Load(context.Background())
	require.NoError(t, err)
	clk.now = clk.now.Add(61 * time.Second)
	_, err = c.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.calls)
}

func TestCache_FetchErrorsPropagate(t *testing.T) {
	t.Run("domain errors pass through", func(t *testing.T) {
		fetcher := &fakeFetcher{err: domain.ConfigurationError("missing GOOGLE_SHEETS_ID", nil)}
		c := NewCache(fetcher, observability.NopLogger())

		snap, err := c.Load(context.Background())
		assert.Nil(t, snap)
		assert.True(t, domain.IsConfiguration(err))
	})

	t.Run("plain errors become upstream errors", func(t *testing.T) {
		fetcher := &fakeFetcher{err: errors.New("connection reset")}
		c := NewCache(fetcher, observability.NopLogger())

		_, err := c.Load(context.Background())
		assert.True(t, domain.IsUpstream(err))
		assert.Nil(t, c.Peek())
	})

	t.Run("empty source is malformed", func(t *testing.T) {
		fetcher := &fakeFetcher{values: [][]string{}}
		c := NewCache(fetcher, observability.NopLogger())

		_, err := c.Load(context.Background())
		assert.True(t, domain.IsUpstream(err))
	})
}

func TestCache_FailedRefreshKeepsNothingStale(t *testing.T) {
	clk := &clock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	fetcher := &fakeFetcher{values: sampleValues()}
	c := NewCache(fetcher, observability.NopLogger(), WithClock(clk.Now))

	_, err := c.Load(context.Background())
	require.NoError(t, err)

	fetcher.err = errors.New("quota exceeded")
	clk.now = clk.now.Add(11 * time.Minute)
	_, err = c.Load(context.Background())
	assert.Error(t, err)
}

func TestCache_Invalidate(t *testing.T) {
	fetcher := &fakeFetcher{values: sampleValues()}
	c := NewCache(fetcher, observability.NopLogger())

	_, err := c.Load(context.Background())
	require.NoError(t, err)
	c.Invalidate(context.Background())
	assert.Nil(t, c.Peek())

	_, err = c.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.calls)
}

func TestCache_InvalidateClearsSharedCopy(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryClient(10)
	defer store.Close()

	fetcher := &fakeFetcher{values: sampleValues()}
	c := NewCache(fetcher, observability.NopLogger(), WithSharedStore(store))

	_, err := c.Load(ctx)
	require.NoError(t, err)
	_, err = store.Get(ctx, c.sharedKey)
	require.NoError(t, err)

	fetcher.values = [][]string{{"Unit #", "Title"}, {"102", "Hidden Forest"}}
	c.Invalidate(ctx)
	_, err = store.Get(ctx, c.sharedKey)
	assert.ErrorIs(t, err, cache.ErrCacheMiss)

	snap, err := c.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.calls)
	assert.Equal(t, "102", snap.Rows[0][0])
}

func TestCache_SharedStore(t *testing.T) {
	ctx := context.Background()
	clk := &clock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	store := cache.NewMemoryClient(10)
	defer store.Close()

	fetcherA := &fakeFetcher{values: sampleValues()}
	a := NewCache(fetcherA, observability.NopLogger(), WithClock(clk.Now), WithSharedStore(store))
	_, err := a.Load(ctx)
	require.NoError(t, err)

	// A second process with the same source adopts the published snapshot.
	fetcherB := &fakeFetcher{values: sampleValues()}
	b := NewCache(fetcherB, observability.NopLogger(), WithClock(clk.Now), WithSharedStore(store))
	clk.now = clk.now.Add(time.Minute)

	snap, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, fetcherB.calls)
	assert.Equal(t, "Clara Lane Retreat", snap.Rows[0][1])
	assert.Equal(t, 1, snap.ColumnIndex("title"))
}

func TestCache_SharedStoreIgnoresStaleAndCorruptEntries(t *testing.T) {
	ctx := context.Background()
	clk := &clock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	store := cache.NewMemoryClient(10)
	defer store.Close()

	fetcher := &fakeFetcher{values: sampleValues()}
	c := NewCache(fetcher, observability.NopLogger(), WithClock(clk.Now), WithSharedStore(store))

	stale, err := json.Marshal(&Snapshot{
		Headers:   []string{"Unit #"},
		Rows:      [][]string{{"999"}},
		FetchedAt: clk.now.Add(-time.Hour),
	})
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, c.sharedKey, stale, time.Hour))

	snap, err := c.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.calls)
	assert.Equal(t, "101", snap.Rows[0][0])

	c.Invalidate(context.Background())
	require.NoError(t, store.Set(ctx, c.sharedKey, []byte("{not json"), time.Hour))
	_, err = c.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.calls)
}

func TestCache_LoadLogsCarryOperationAndTrace(t *testing.T) {
	var buf bytes.Buffer
	logger := observability.NewLogger(observability.LogConfig{Level: "debug", Format: "json", Output: &buf})
	c := NewCache(&fakeFetcher{err: errors.New("boom")}, logger)

	ctx := observability.ContextWithTraceID(context.Background(), "req-9")
	_, err := c.Load(ctx)
	require.Error(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "Dataset fetch failed", line["message"])
	assert.Equal(t, "load", line["operation"])
	assert.Equal(t, "dataset_cache", line["component"])
	assert.Equal(t, "req-9", line["trace_id"])
}
