// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pagestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/wikibacon/pkg/types"
)

func samplePage() *types.Page {
	return &types.Page{
		ID:         "Kevin Bacon",
		Title:      "Kevin Bacon",
		Summary:    "American actor.",
		Links:      []string{"Footloose", "Apollo 13"},
		Categories: []string{"Category:American actors"},
		Namespace:  types.NamespaceArticle,
	}
}

// storeFactories returns one constructor per backend so every test runs
// against both.
func storeFactories() map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"sqlite": func(t *testing.T) Store {
			s, err := OpenSQLite(t.TempDir())
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		},
		"badger": func(t *testing.T) Store {
			cfg := DefaultBadgerConfig()
			cfg.InMemory = true
			s, err := OpenBadger(cfg)
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		},
	}
}

func TestStoreRoundTrip(t *testing.T) {
	for name, open := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			ctx := context.Background()

			_, err := s.Get(ctx, "Kevin Bacon")
			assert.ErrorIs(t, err, ErrMiss)

			require.NoError(t, s.Put(ctx, "Kevin Bacon", samplePage()))
			got, err := s.Get(ctx, "Kevin Bacon")
			require.NoError(t, err)
			assert.Equal(t, samplePage(), got)

			updated := samplePage()
			updated.Disambiguation = true
			updated.Links = []string{"Tremors"}
			require.NoError(t, s.Put(ctx, "Kevin Bacon", updated))
			got, err = s.Get(ctx, "Kevin Bacon")
			require.NoError(t, err)
			assert.True(t, got.Disambiguation)
			assert.Equal(t, []string{"Tremors"}, got.Links)

			n, err := s.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, n)
		})
	}
}

func TestStorePurge(t *testing.T) {
	for name, open := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			ctx := context.Background()

			require.NoError(t, s.Put(ctx, "A", &types.Page{ID: "A"}))
			require.NoError(t, s.Put(ctx, "B", &types.Page{ID: "B"}))
			n, err := s.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			require.NoError(t, s.Purge(ctx))
			n, err = s.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 0, n)
			_, err = s.Get(ctx, "A")
			assert.ErrorIs(t, err, ErrMiss)
		})
	}
}

func TestSQLitePersistsAcrossOpen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := OpenSQLite(dir)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "Kevin Bacon", samplePage()))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(dir)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(ctx, "Kevin Bacon")
	require.NoError(t, err)
	assert.Equal(t, "American actor.", got.Summary)
}

func TestOpenBackends(t *testing.T) {
	s, err := Open(types.CacheConfig{Backend: types.CacheMemory}, nil)
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = Open(types.CacheConfig{Backend: types.CacheSQLite, Path: t.TempDir()}, nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(types.CacheConfig{Backend: types.CacheBadger, Path: filepath.Join(t.TempDir(), "badger")}, nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(types.CacheConfig{Backend: "redis"}, nil)
	assert.Error(t, err)

	_, err = OpenSQLite("")
	assert.Error(t, err)
	_, err = OpenBadger(BadgerConfig{})
	assert.Error(t, err)
}
