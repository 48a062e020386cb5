// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package engine exposes the three operations the game needs: resolve a
// page by name, find a short path between two pages, and switch between
// normal and hard edge policies.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/pdiddy/wikibacon/internal/pagecache"
	"github.com/pdiddy/wikibacon/internal/pathfind"
	"github.com/pdiddy/wikibacon/internal/wiki"
	"github.com/pdiddy/wikibacon/pkg/types"
)

// Engine ties a page cache to the path finder. All searches of one engine
// share its cache. Engine is safe for concurrent use.
type Engine struct {
	cache                *pagecache.Cache
	budget               types.SearchConfig
	logger               *slog.Logger
	hard                 atomic.Bool
	suggest              bool
	followDisambiguation bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithSuggestions lets ResolvePage fall back to the source's search
// suggestion for a name that does not resolve.
func WithSuggestions(on bool) Option {
	return func(e *Engine) { e.suggest = on }
}

// WithDisambiguation lets ResolvePage replace a disambiguation page with
// its first option.
func WithDisambiguation(on bool) Option {
	return func(e *Engine) { e.followDisambiguation = on }
}

// New returns an engine resolving pages through cache. A nil logger
// discards logs.
func New(cache *pagecache.Cache, budget types.SearchConfig, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	e := &Engine{cache: cache, budget: budget, logger: logger}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetHardMode selects links-only edges (true) or links plus categories
// (false) for searches started afterwards. Searches already running keep
// the policy they started with.
func (e *Engine) SetHardMode(hard bool) {
	e.hard.Store(hard)
	e.logger.Info("edge policy changed", "policy", types.PolicyFor(hard))
}

// HardMode reports the current setting.
func (e *Engine) HardMode() bool {
	return e.hard.Load()
}

// Policy returns the edge policy new searches will use.
func (e *Engine) Policy() types.EdgePolicy {
	return types.PolicyFor(e.hard.Load())
}

// ResolvePage returns the page for a name typed by a player or drawn from
// the dictionary. It is more forgiving than the lookups a search makes: a
// name that does not resolve may be replaced by the source's suggestion,
// and a disambiguation page by its first option. Neither substitution is
// cached under the requested name, so searches still see the real graph.
// Every failure other than cancellation wraps wiki.ErrNotFound.
func (e *Engine) ResolvePage(ctx context.Context, name string) (*types.Page, error) {
	p, err := e.cache.Get(ctx, name)
	if err != nil && e.suggest && !wiki.Cancelled(ctx, err) {
		p, err = e.suggestion(ctx, name, err)
	}
	if err != nil {
		return nil, e.notFound(ctx, name, err)
	}
	if !p.Disambiguation {
		return p, nil
	}

	if !e.followDisambiguation || len(p.Links) == 0 {
		return nil, fmt.Errorf("%w: %q is a disambiguation page", wiki.ErrNotFound, p.ID)
	}
	option, err := e.cache.Get(ctx, p.Links[0])
	if err != nil {
		return nil, e.notFound(ctx, name, err)
	}
	if option.Disambiguation {
		return nil, fmt.Errorf("%w: disambiguation %q has no acceptable option", wiki.ErrNotFound, p.ID)
	}
	e.logger.Debug("followed disambiguation", "from", p.ID, "to", option.ID)
	return option, nil
}

// suggestion resolves the source's suggestion for name. cause is returned
// when there is no usable suggestion.
func (e *Engine) suggestion(ctx context.Context, name string, cause error) (*types.Page, error) {
	alt, err := e.cache.Suggest(ctx, name)
	if err != nil {
		if wiki.Cancelled(ctx, err) {
			return nil, err
		}
		e.logger.Debug("search suggestion failed", "name", name, "error", err)
		return nil, cause
	}
	if alt == "" || wiki.NormalizeTitle(alt) == wiki.NormalizeTitle(name) {
		return nil, cause
	}
	e.logger.Debug("using search suggestion", "name", name, "suggestion", alt)
	return e.cache.Get(ctx, alt)
}

func (e *Engine) notFound(ctx context.Context, name string, err error) error {
	if wiki.Cancelled(ctx, err) || errors.Is(err, wiki.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %q: %v", wiki.ErrNotFound, name, err)
}

// FindShortPath returns a shortest path of page IDs from start to target
// under the policy in effect when the call begins. It fails with
// pathfind.ErrNotConnected when the pages are not connected within the
// search budget.
func (e *Engine) FindShortPath(ctx context.Context, start, target *types.Page) ([]string, error) {
	res, err := e.Search(ctx, start, target, e.budget)
	if err != nil {
		return nil, err
	}
	return res.Path, nil
}

// Search is FindShortPath with an explicit budget and full result. The
// result is non-nil whenever both pages are.
func (e *Engine) Search(ctx context.Context, start, target *types.Page, budget types.SearchConfig, opts ...pathfind.Option) (*pathfind.Result, error) {
	if start == nil || target == nil {
		return nil, fmt.Errorf("%w: missing endpoint page", pathfind.ErrNotConnected)
	}

	policy := e.Policy()
	finderOpts := append([]pathfind.Option{
		pathfind.WithBudget(budget),
		pathfind.WithLogger(e.logger),
	}, opts...)
	finder := pathfind.New(pathfind.PageExpander{Pages: e.cache, Policy: policy}, finderOpts...)

	e.logger.Debug("finding path", "start", start.ID, "target", target.ID, "policy", policy)
	return finder.Find(ctx, start.ID, target.ID)
}

// CacheStats reports the shared page cache counters.
func (e *Engine) CacheStats() pagecache.Stats {
	return e.cache.Stats()
}
