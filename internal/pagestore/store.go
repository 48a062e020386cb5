// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pagestore persists fetched pages in a local database so a warm
// page cache survives restarts. Two backends are available: SQLite and
// BadgerDB.
package pagestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pdiddy/wikibacon/pkg/types"
)

// ErrMiss is returned by Get when no page is stored under the key.
var ErrMiss = errors.New("pagestore: miss")

// Store is a persistent key → page map. Keys are normalized titles.
// Implementations are safe for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) (*types.Page, error)
	Put(ctx context.Context, key string, page *types.Page) error
	Count(ctx context.Context) (int, error)
	Purge(ctx context.Context) error
	Close() error
}

// Open returns the store selected by cfg.Backend. The memory backend has no
// warm tier and returns a nil Store.
func Open(cfg types.CacheConfig, logger *slog.Logger) (Store, error) {
	switch cfg.Backend {
	case "", types.CacheMemory:
		return nil, nil
	case types.CacheSQLite:
		s, err := OpenSQLite(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case types.CacheBadger:
		bcfg := DefaultBadgerConfig()
		bcfg.Path = cfg.Path
		bcfg.Logger = logger
		b, err := OpenBadger(bcfg)
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q: want memory, sqlite, or badger", cfg.Backend)
	}
}
