// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pathfind

import (
	"context"
	"fmt"

	"github.com/pdiddy/wikibacon/internal/wiki"
	"github.com/pdiddy/wikibacon/pkg/types"
)

// Node is one expanded title: its canonical ID and outgoing edges.
type Node struct {
	ID    string
	Edges []string
}

// Expander discovers a title's edges on demand. Implementations must be
// safe for concurrent use; Finder expands a whole frontier at once.
type Expander interface {
	Expand(ctx context.Context, title string) (Node, error)
}

// ExpanderFunc adapts a function to Expander.
type ExpanderFunc func(ctx context.Context, title string) (Node, error)

// Expand calls f.
func (f ExpanderFunc) Expand(ctx context.Context, title string) (Node, error) {
	return f(ctx, title)
}

// PageGetter returns the page for a title. pagecache.Cache satisfies it.
type PageGetter interface {
	Get(ctx context.Context, name string) (*types.Page, error)
}

// PageExpander expands titles through a page getter under a fixed policy.
// The policy is a value, so every search built on one PageExpander sees
// the same edge set.
type PageExpander struct {
	Pages  PageGetter
	Policy types.EdgePolicy
}

// Expand implements Expander.
func (e PageExpander) Expand(ctx context.Context, title string) (Node, error) {
	p, err := e.Pages.Get(ctx, title)
	if err != nil {
		return Node{}, err
	}
	return Node{ID: p.ID, Edges: types.EdgeSet(p, e.Policy)}, nil
}

// Graph is an in-memory adjacency list. Titles absent from the map are
// not found.
type Graph map[string][]string

// Expand implements Expander.
func (g Graph) Expand(ctx context.Context, title string) (Node, error) {
	if err := ctx.Err(); err != nil {
		return Node{}, err
	}
	if edges, ok := g[title]; ok {
		return Node{ID: title, Edges: edges}, nil
	}
	key := wiki.NormalizeTitle(title)
	if edges, ok := g[key]; ok {
		return Node{ID: key, Edges: edges}, nil
	}
	return Node{}, fmt.Errorf("%w: %q", wiki.ErrNotFound, title)
}
