// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pathfind finds shortest paths between pages by breadth-first
// search over a graph that is discovered one title at a time.
//
// Each round expands the whole frontier concurrently, waits for it, then
// folds the results in frontier order. Folding in order makes the result
// deterministic: among shortest paths, the one discovered first in
// (frontier order, edge order) wins. A Budget bounds the effort spent on
// a search; running out of budget is reported as not connected.
package pathfind

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/wikibacon/internal/metrics"
	"github.com/pdiddy/wikibacon/internal/wiki"
	"github.com/pdiddy/wikibacon/pkg/types"
)

// Sentinel errors for path searches.
var (
	// ErrNotConnected is returned when no path was found, either because
	// the start's component is exhausted or the budget ran out.
	ErrNotConnected = errors.New("pathfind: pages are not connected")

	// ErrBudgetExceeded accompanies ErrNotConnected when the search
	// stopped on its budget rather than exhausting the graph.
	ErrBudgetExceeded = errors.New("pathfind: search budget exceeded")
)

// Result describes a finished search. On failure Path is nil and the
// remaining fields report the effort spent.
type Result struct {
	Path     []string      `json:"path"`
	Depth    int           `json:"depth"`
	Expanded int           `json:"expanded"`
	Elapsed  time.Duration `json:"elapsed"`
}

// Option configures a Finder.
type Option func(*Finder)

// WithBudget bounds every search. Zero or negative limits are unlimited,
// and Concurrency below one means one expansion at a time.
func WithBudget(b types.SearchConfig) Option {
	return func(f *Finder) { f.budget = b }
}

// WithLogger sets the logger for per-round tracing.
func WithLogger(l *slog.Logger) Option {
	return func(f *Finder) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithRoundHook registers fn to run before each round with the depth
// being expanded, the frontier size, and expansions so far.
func WithRoundHook(fn func(depth, frontier, expanded int)) Option {
	return func(f *Finder) { f.onRound = fn }
}

// Finder runs searches over one Expander. A Finder holds no per-search
// state and may run searches concurrently.
type Finder struct {
	expander Expander
	budget   types.SearchConfig
	logger   *slog.Logger
	onRound  func(depth, frontier, expanded int)
}

// New returns a Finder over exp with the default budget.
func New(exp Expander, opts ...Option) *Finder {
	f := &Finder{
		expander: exp,
		budget:   types.DefaultSearchConfig(),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// search is the state of one Find call.
type search struct {
	*Finder
	startKey, targetKey string
	start, target       string
	visited             map[string]bool
	parent              map[string]string
	title               map[string]string
	expanded            int
}

// Find returns a shortest path from start to target as a list of titles
// beginning with start and ending with target. Titles are compared after
// wiki.NormalizeTitle. A start equal to target yields a one-element path
// without expanding anything.
func (f *Finder) Find(ctx context.Context, start, target string) (*Result, error) {
	began := time.Now()
	s := &search{
		Finder:    f,
		startKey:  wiki.NormalizeTitle(start),
		targetKey: wiki.NormalizeTitle(target),
		start:     start,
		target:    target,
		visited:   make(map[string]bool),
		parent:    make(map[string]string),
		title:     make(map[string]string),
	}

	res, err := s.run(ctx)
	if res == nil {
		res = &Result{}
	}
	res.Expanded = s.expanded
	res.Elapsed = time.Since(began)

	outcome := "found"
	switch {
	case errors.Is(err, ErrBudgetExceeded):
		outcome = "budget"
	case err != nil:
		outcome = "not_connected"
	}
	metrics.Searches.WithLabelValues(outcome).Inc()
	metrics.SearchExpansions.Observe(float64(res.Expanded))
	metrics.SearchDuration.Observe(res.Elapsed.Seconds())
	f.logger.Debug("search finished",
		"start", start, "target", target, "outcome", outcome,
		"depth", res.Depth, "expanded", res.Expanded, "elapsed", res.Elapsed)

	return res, err
}

func (s *search) run(ctx context.Context) (*Result, error) {
	if s.startKey == "" || s.targetKey == "" {
		return nil, fmt.Errorf("%w: empty title", ErrNotConnected)
	}
	if s.startKey == s.targetKey {
		return &Result{Path: []string{s.start}}, nil
	}

	if s.budget.MaxDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, s.budget.MaxDuration, ErrBudgetExceeded)
		defer cancel()
	}

	s.visited[s.startKey] = true
	s.title[s.startKey] = s.start
	frontier := []string{s.startKey}

	for depth := 0; len(frontier) > 0; depth++ {
		if err := s.checkBudget(ctx, depth); err != nil {
			return &Result{Depth: depth}, err
		}
		if limit := s.budget.MaxExpansions; limit > 0 && len(frontier) > limit-s.expanded {
			frontier = frontier[:limit-s.expanded]
		}
		if s.onRound != nil {
			s.onRound(depth, len(frontier), s.expanded)
		}
		s.logger.Debug("search round", "depth", depth, "frontier", len(frontier), "expanded", s.expanded)

		nodes, ok := s.expandRound(ctx, frontier)
		if err := ctx.Err(); err != nil {
			return &Result{Depth: depth}, s.stopped(ctx, err)
		}

		if path := s.fold(frontier, nodes, ok, &frontier); path != nil {
			return &Result{Path: path, Depth: len(path) - 1}, nil
		}
	}
	return &Result{}, fmt.Errorf("%w: %q is unreachable from %q", ErrNotConnected, s.target, s.start)
}

// checkBudget runs at every round boundary.
func (s *search) checkBudget(ctx context.Context, depth int) error {
	if err := ctx.Err(); err != nil {
		return s.stopped(ctx, err)
	}
	if s.budget.MaxExpansions > 0 && s.expanded >= s.budget.MaxExpansions {
		return fmt.Errorf("%w: %w: expanded %d titles", ErrNotConnected, ErrBudgetExceeded, s.expanded)
	}
	if s.budget.MaxDepth > 0 && depth >= s.budget.MaxDepth {
		return fmt.Errorf("%w: %w: reached depth %d", ErrNotConnected, ErrBudgetExceeded, depth)
	}
	return nil
}

// stopped classifies a context error: the search's own deadline is the
// budget; anything else came from the caller.
func (s *search) stopped(ctx context.Context, err error) error {
	if errors.Is(context.Cause(ctx), ErrBudgetExceeded) {
		return fmt.Errorf("%w: %w: time limit reached", ErrNotConnected, ErrBudgetExceeded)
	}
	return fmt.Errorf("%w: %w", ErrNotConnected, err)
}

// expandRound expands every frontier title concurrently. ok[i] reports
// whether nodes[i] holds a result. Once the title at index j is known to
// reach the target, titles after j are cancelled: they cannot win the
// tie-break.
func (s *search) expandRound(ctx context.Context, frontier []string) ([]Node, []bool) {
	nodes := make([]Node, len(frontier))
	ok := make([]bool, len(frontier))

	cancels := make([]context.CancelFunc, len(frontier))
	itemCtx := make([]context.Context, len(frontier))
	for i := range frontier {
		itemCtx[i], cancels[i] = context.WithCancel(ctx)
	}
	defer func() {
		for _, cancel := range cancels {
			cancel()
		}
	}()

	var (
		mu       sync.Mutex
		best     = len(frontier)
		expanded atomic.Int64
	)
	reached := func(i int) {
		mu.Lock()
		defer mu.Unlock()
		if i >= best {
			return
		}
		for j := i + 1; j < best; j++ {
			cancels[j]()
		}
		best = i
	}

	conc := s.budget.Concurrency
	if conc < 1 {
		conc = 1
	}
	var g errgroup.Group
	g.SetLimit(conc)

	for i, title := range frontier {
		g.Go(func() error {
			if itemCtx[i].Err() != nil {
				return nil
			}
			expanded.Add(1)
			node, err := s.expander.Expand(itemCtx[i], title)
			if err != nil {
				if !wiki.Cancelled(itemCtx[i], err) {
					s.logger.Debug("dead end", "title", title, "error", err)
				}
				return nil
			}
			nodes[i], ok[i] = node, true
			if s.hitsTarget(node) {
				reached(i)
			}
			return nil
		})
	}
	_ = g.Wait()

	s.expanded += int(expanded.Load())
	return nodes, ok
}

func (s *search) hitsTarget(n Node) bool {
	if wiki.NormalizeTitle(n.ID) == s.targetKey {
		return true
	}
	for _, e := range n.Edges {
		if wiki.NormalizeTitle(e) == s.targetKey {
			return true
		}
	}
	return false
}

// fold merges a finished round in frontier order and replaces *next with
// the following frontier. It returns the path once the target is reached,
// either as an edge or as a frontier title that resolved to it.
func (s *search) fold(frontier []string, nodes []Node, ok []bool, next *[]string) []string {
	var out []string
	for i, key := range frontier {
		if !ok[i] {
			continue
		}
		id := wiki.NormalizeTitle(nodes[i].ID)
		if id == s.targetKey {
			path := s.pathTo(key)
			path[len(path)-1] = s.target
			return path
		}
		// Other aliases of this page add nothing new.
		s.visited[id] = true

		for _, edge := range nodes[i].Edges {
			ek := wiki.NormalizeTitle(edge)
			if ek == "" {
				continue
			}
			if ek == s.targetKey {
				s.parent[ek] = key
				s.title[ek] = s.target
				return s.pathTo(ek)
			}
			if s.visited[ek] {
				continue
			}
			s.visited[ek] = true
			s.parent[ek] = key
			s.title[ek] = edge
			out = append(out, ek)
		}
	}
	*next = out
	return nil
}

// pathTo walks predecessors back to the start.
func (s *search) pathTo(key string) []string {
	var path []string
	for cur := key; ; {
		path = append(path, s.title[cur])
		prev, ok := s.parent[cur]
		if !ok {
			break
		}
		cur = prev
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
