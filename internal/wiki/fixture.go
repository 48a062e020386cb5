// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package wiki

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/wikibacon/pkg/types"
)

// FixtureDocument is the YAML layout of a fixture graph:
//
//	pages:
//	  - id: Kevin Bacon
//	    summary: American actor.
//	    links: [Footloose, Apollo 13]
//	    categories: [Category:American actors]
//	redirects:
//	  Bacon: Kevin Bacon
type FixtureDocument struct {
	Pages     []types.Page      `yaml:"pages"`
	Redirects map[string]string `yaml:"redirects"`
}

// Fixture is an in-memory Source over a fixed set of pages. Category
// titles that are not listed as pages resolve to a synthesized category
// page whose links are the pages carrying that category, in fixture order.
//
// Fixture records how often each title was requested and can inject
// failures and latency, which makes it the test double for the remote
// source. It is safe for concurrent use.
type Fixture struct {
	// Latency delays every Resolve call; the delay honors context cancellation.
	Latency time.Duration

	mu        sync.Mutex
	pages     map[string]*types.Page
	order     []string
	redirects map[string]string
	failures  map[string]error
	calls     map[string]int
	total     int
}

// NewFixture returns a fixture holding pages.
func NewFixture(pages ...types.Page) *Fixture {
	f := &Fixture{
		pages:     make(map[string]*types.Page),
		redirects: make(map[string]string),
		failures:  make(map[string]error),
		calls:     make(map[string]int),
	}
	for _, p := range pages {
		f.Add(p)
	}
	return f
}

// ParseFixture builds a fixture from YAML.
func ParseFixture(data []byte) (*Fixture, error) {
	var doc FixtureDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing fixture: %w", err)
	}
	f := NewFixture()
	for i, p := range doc.Pages {
		if NormalizeTitle(p.ID) == "" {
			return nil, fmt.Errorf("fixture page %d has no id", i)
		}
		f.Add(p)
	}
	for from, to := range doc.Redirects {
		f.Redirect(from, to)
	}
	return f, nil
}

// LoadFixture reads a YAML fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixture %s: %w", path, err)
	}
	return ParseFixture(data)
}

// Add stores a copy of p under its normalized ID. An empty Title defaults to the ID.
func (f *Fixture) Add(p types.Page) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = NormalizeTitle(p.ID)
	if p.Title == "" {
		p.Title = p.ID
	}
	if _, ok := f.pages[p.ID]; !ok {
		f.order = append(f.order, p.ID)
	}
	f.pages[p.ID] = &p
}

// Redirect makes from resolve to the page stored under to.
func (f *Fixture) Redirect(from, to string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.redirects[NormalizeTitle(from)] = NormalizeTitle(to)
}

// FailWith makes every Resolve of name fail with err (wrapped in
// ErrNotFound unless err is a context error). A nil err clears the failure.
func (f *Fixture) FailWith(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := NormalizeTitle(name)
	if err == nil {
		delete(f.failures, key)
		return
	}
	f.failures[key] = err
}

// Calls returns how many times name was resolved.
func (f *Fixture) Calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[NormalizeTitle(name)]
}

// TotalCalls returns the number of Resolve calls across all names.
func (f *Fixture) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.total
}

// Titles returns the page IDs in insertion order.
func (f *Fixture) Titles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.order...)
}

// Resolve implements Source.
func (f *Fixture) Resolve(ctx context.Context, name string) (*types.Page, error) {
	key := NormalizeTitle(name)

	f.mu.Lock()
	f.calls[key]++
	f.total++
	latency := f.Latency
	f.mu.Unlock()

	if latency > 0 {
		timer := time.NewTimer(latency)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err, ok := f.failures[key]; ok {
		if IsContextError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %q: %v", ErrNotFound, name, err)
	}
	if key == "" {
		return nil, fmt.Errorf("%w: empty title", ErrNotFound)
	}
	if to, ok := f.redirects[key]; ok {
		key = to
	}
	if p, ok := f.pages[key]; ok {
		return p, nil
	}
	if cat, ok := f.categoryPage(key); ok {
		return cat, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
}

// categoryPage synthesizes a category page listing its members. Callers hold f.mu.
func (f *Fixture) categoryPage(key string) (*types.Page, bool) {
	if !(&types.Page{ID: key}).IsCategory() {
		return nil, false
	}
	var members []string
	for _, id := range f.order {
		for _, c := range f.pages[id].Categories {
			if NormalizeTitle(c) == key {
				members = append(members, id)
				break
			}
		}
	}
	if len(members) == 0 {
		return nil, false
	}
	return &types.Page{
		ID:        key,
		Title:     key,
		Links:     members,
		Namespace: types.NamespaceCategory,
	}, true
}
