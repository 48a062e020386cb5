// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package wiki

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/wikibacon/pkg/types"
)

const sampleFixture = `
pages:
  - id: Kevin Bacon
    summary: American actor.
    links: [Footloose, Apollo 13]
    categories: [Category:American actors]
  - id: Tom Hanks
    summary: American actor and filmmaker.
    links: [Apollo 13]
    categories: [Category:American actors]
  - id: Footloose
    links: [Kevin Bacon]
redirects:
  Bacon: Kevin Bacon
`

func TestParseFixtureAndResolve(t *testing.T) {
	f, err := ParseFixture([]byte(sampleFixture))
	require.NoError(t, err)

	ctx := context.Background()

	p, err := f.Resolve(ctx, "kevin_Bacon")
	require.NoError(t, err)
	assert.Equal(t, "Kevin Bacon", p.ID)
	assert.Equal(t, "Kevin Bacon", p.Title)
	assert.Equal(t, []string{"Footloose", "Apollo 13"}, p.Links)

	p, err = f.Resolve(ctx, "Bacon")
	require.NoError(t, err)
	assert.Equal(t, "Kevin Bacon", p.ID)

	_, err = f.Resolve(ctx, "Apollo 13")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, []string{"Kevin Bacon", "Tom Hanks", "Footloose"}, f.Titles())
	assert.Equal(t, 1, f.Calls("Kevin Bacon"))
	assert.Equal(t, 3, f.TotalCalls())
}

func TestFixtureCategoryPage(t *testing.T) {
	f, err := ParseFixture([]byte(sampleFixture))
	require.NoError(t, err)

	cat, err := f.Resolve(context.Background(), "Category:american actors")
	require.NoError(t, err)
	assert.True(t, cat.IsCategory())
	assert.Equal(t, []string{"Kevin Bacon", "Tom Hanks"}, cat.Links)

	_, err = f.Resolve(context.Background(), "Category:Nothing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFixtureFailures(t *testing.T) {
	f := NewFixture()
	f.Add(pageNamed("A"))

	f.FailWith("A", errors.New("connection reset"))
	_, err := f.Resolve(context.Background(), "A")
	assert.ErrorIs(t, err, ErrNotFound)

	f.FailWith("A", context.DeadlineExceeded)
	_, err = f.Resolve(context.Background(), "A")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, IsNotFound(err))

	f.FailWith("A", nil)
	_, err = f.Resolve(context.Background(), "A")
	assert.NoError(t, err)
}

func TestFixtureLatencyHonorsContext(t *testing.T) {
	f := NewFixture(pageNamed("A"))
	f.Latency = time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := f.Resolve(ctx, "A")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestLoadFixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleFixture), 0o644))

	f, err := LoadFixture(path)
	require.NoError(t, err)
	assert.Len(t, f.Titles(), 3)

	_, err = LoadFixture(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = ParseFixture([]byte("pages:\n  - summary: no id\n"))
	assert.Error(t, err)
}

func pageNamed(id string, links ...string) types.Page {
	return types.Page{ID: id, Links: links}
}
