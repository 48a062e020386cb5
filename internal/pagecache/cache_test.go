// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pagecache

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/wikibacon/internal/pagestore"
	"github.com/pdiddy/wikibacon/internal/wiki"
	"github.com/pdiddy/wikibacon/pkg/types"
)

func baconFixture() *wiki.Fixture {
	f := wiki.NewFixture(
		types.Page{ID: "Kevin Bacon", Summary: "American actor.", Links: []string{"Footloose"}},
		types.Page{ID: "Footloose", Links: []string{"Kevin Bacon"}},
	)
	f.Redirect("Bacon", "Kevin Bacon")
	return f
}

func TestGetFetchesOnce(t *testing.T) {
	src := baconFixture()
	c := New(src)
	ctx := context.Background()

	for _, name := range []string{"Kevin Bacon", "Kevin Bacon", "kevin_Bacon", "  Kevin   Bacon "} {
		p, err := c.Get(ctx, name)
		require.NoError(t, err, name)
		assert.Equal(t, "Kevin Bacon", p.ID)
	}
	assert.Equal(t, 1, src.Calls("Kevin Bacon"))

	st := c.Stats()
	assert.Equal(t, int64(1), st.Fetches)
	assert.Equal(t, int64(1), st.Misses)
	assert.Equal(t, int64(3), st.Hits)
}

func TestGetConcurrentSingleFetch(t *testing.T) {
	src := baconFixture()
	src.Latency = 20 * time.Millisecond
	c := New(src)

	var wg sync.WaitGroup
	pages := make([]*types.Page, 32)
	errs := make([]error, 32)
	for i := range pages {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pages[i], errs[i] = c.Get(context.Background(), "Footloose")
		}(i)
	}
	wg.Wait()

	for i := range pages {
		require.NoError(t, errs[i])
		assert.Same(t, pages[0], pages[i])
	}
	assert.Equal(t, 1, src.Calls("Footloose"))
}

func TestGetCachesNotFound(t *testing.T) {
	src := baconFixture()
	c := New(src)
	ctx := context.Background()

	_, err := c.Get(ctx, "No such page")
	assert.ErrorIs(t, err, wiki.ErrNotFound)
	_, err = c.Get(ctx, "No such page")
	assert.ErrorIs(t, err, wiki.ErrNotFound)

	assert.Equal(t, 1, src.Calls("No such page"))
	assert.Equal(t, int64(1), c.Stats().NegativeHits)
}

func TestGetEmptyTitle(t *testing.T) {
	src := baconFixture()
	c := New(src)

	_, err := c.Get(context.Background(), "   ")
	assert.ErrorIs(t, err, wiki.ErrNotFound)
	assert.Equal(t, 0, src.TotalCalls())
}

func TestNegativeTTLExpires(t *testing.T) {
	src := baconFixture()
	c := New(src, WithNegativeTTL(time.Minute))
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := c.Get(ctx, "Tremors")
	require.ErrorIs(t, err, wiki.ErrNotFound)

	src.Add(types.Page{ID: "Tremors"})
	now = now.Add(30 * time.Second)
	_, err = c.Get(ctx, "Tremors")
	require.ErrorIs(t, err, wiki.ErrNotFound, "marker still fresh")

	now = now.Add(time.Minute)
	p, err := c.Get(ctx, "Tremors")
	require.NoError(t, err)
	assert.Equal(t, "Tremors", p.ID)
	assert.Equal(t, 2, src.Calls("Tremors"))
}

func TestContextErrorsNotCached(t *testing.T) {
	src := baconFixture()
	src.Latency = time.Second
	c := New(src)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := c.Get(ctx, "Footloose")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, errors.Is(err, wiki.ErrNotFound))

	src.Latency = 0
	p, err := c.Get(context.Background(), "Footloose")
	require.NoError(t, err)
	assert.Equal(t, "Footloose", p.ID)
	assert.Equal(t, 2, src.Calls("Footloose"))
}

func TestDeadlineFromLiveContextIsNotFound(t *testing.T) {
	src := baconFixture()
	src.FailWith("Footloose", fmt.Errorf("Get: %w", context.DeadlineExceeded))
	c := New(src)
	ctx := context.Background()

	_, err := c.Get(ctx, "Footloose")
	require.ErrorIs(t, err, wiki.ErrNotFound)
	_, err = c.Get(ctx, "Footloose")
	require.ErrorIs(t, err, wiki.ErrNotFound)
	assert.Equal(t, 1, src.Calls("Footloose"))
}

func TestSlowRemotePageBecomesNotFound(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer ts.Close()

	httpCfg := types.HTTPConfig{Timeout: 50 * time.Millisecond, UserAgent: "wikibacon-test/0.1"}
	client := ts.Client()
	client.Timeout = httpCfg.Timeout
	src := wiki.NewMediaWiki(client, httpCfg, types.SourceConfig{APIURL: ts.URL, MaxRetries: 1}, nil)
	c := New(src)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	start := time.Now()
	_, err := c.Get(ctx, "Slow page")
	require.ErrorIs(t, err, wiki.ErrNotFound)
	_, err = c.Get(ctx, "Slow page")
	require.ErrorIs(t, err, wiki.ErrNotFound)

	assert.Equal(t, int32(1), calls.Load())
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, int64(1), c.Stats().NegativeHits)
}

func TestSuggestDelegatesToSource(t *testing.T) {
	c := New(baconFixture())
	got, err := c.Suggest(context.Background(), "Kevn Bacon")
	require.NoError(t, err)
	assert.Empty(t, got)

	c = New(suggestingSource{Fixture: baconFixture(), to: "Kevin Bacon"})
	got, err = c.Suggest(context.Background(), "Kevn Bacon")
	require.NoError(t, err)
	assert.Equal(t, "Kevin Bacon", got)
}

type suggestingSource struct {
	*wiki.Fixture
	to string
}

func (s suggestingSource) Suggest(context.Context, string) (string, error) {
	return s.to, nil
}

func TestTransientFailureBecomesNotFound(t *testing.T) {
	src := baconFixture()
	src.FailWith("Footloose", errors.New("connection reset"))
	c := New(src)

	_, err := c.Get(context.Background(), "Footloose")
	assert.ErrorIs(t, err, wiki.ErrNotFound)
}

func TestCanonicalIDAlias(t *testing.T) {
	src := baconFixture()
	c := New(src)
	ctx := context.Background()

	p, err := c.Get(ctx, "Bacon")
	require.NoError(t, err)
	assert.Equal(t, "Kevin Bacon", p.ID)

	q, err := c.Get(ctx, "Kevin Bacon")
	require.NoError(t, err)
	assert.Same(t, p, q)
	assert.Equal(t, 0, src.Calls("Kevin Bacon"))
	assert.Equal(t, 2, c.Len())
}

func TestWaiterHonorsOwnContext(t *testing.T) {
	src := baconFixture()
	src.Latency = time.Second
	c := New(src)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := c.Get(ctx, "Footloose")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestWaiterRetriesAfterOtherCallerCancels(t *testing.T) {
	src := baconFixture()
	src.Latency = 50 * time.Millisecond
	c := New(src)

	first, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.Get(first, "Footloose")
		done <- err
	}()
	require.Eventually(t, func() bool { return src.Calls("Footloose") == 1 }, time.Second, time.Millisecond)

	second := make(chan error, 1)
	go func() {
		_, err := c.Get(context.Background(), "Footloose")
		second <- err
	}()
	time.Sleep(5 * time.Millisecond)
	cancel()

	assert.ErrorIs(t, <-done, context.Canceled)
	assert.NoError(t, <-second)
	assert.Equal(t, 2, src.Calls("Footloose"))
}

func TestStoreWarmTier(t *testing.T) {
	store, err := pagestore.OpenSQLite(t.TempDir())
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	cold := New(baconFixture(), WithStore(store))
	_, err = cold.Get(ctx, "Bacon")
	require.NoError(t, err)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "stored under the requested and canonical titles")

	empty := wiki.NewFixture()
	warm := New(empty, WithStore(store))
	p, err := warm.Get(ctx, "Kevin Bacon")
	require.NoError(t, err)
	assert.Equal(t, "American actor.", p.Summary)
	assert.Equal(t, 0, empty.TotalCalls())
	assert.Equal(t, int64(1), warm.Stats().StoreHits)
}

type failingStore struct{ pagestore.Store }

func (failingStore) Get(context.Context, string) (*types.Page, error) {
	return nil, errors.New("disk on fire")
}

func (failingStore) Put(context.Context, string, *types.Page) error {
	return errors.New("disk on fire")
}

func TestStoreFailuresIgnored(t *testing.T) {
	src := baconFixture()
	c := New(src, WithStore(failingStore{}))

	p, err := c.Get(context.Background(), "Footloose")
	require.NoError(t, err)
	assert.Equal(t, "Footloose", p.ID)
	assert.Equal(t, 1, src.Calls("Footloose"))
}
