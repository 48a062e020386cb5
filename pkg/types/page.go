// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for wikibacon: pages, edge
// policies, and configuration.
package types

import "strings"

// Namespace numbers used by MediaWiki.
const (
	NamespaceArticle  = 0
	NamespaceCategory = 14
)

// CategoryPrefix is the title prefix of category pages.
const CategoryPrefix = "Category:"

// Page is a node in the traversal graph. Pages are immutable once fetched
// and are shared between searches through the page cache.
type Page struct {
	// ID is the canonical title, unique within a session (e.g. "Kevin Bacon").
	ID string `json:"id" yaml:"id"`

	// Title is the display title as returned by the source.
	Title string `json:"title" yaml:"title"`

	// Summary is the plain-text introduction of the page.
	Summary string `json:"summary" yaml:"summary"`

	// Links lists outgoing link titles in source order.
	Links []string `json:"links" yaml:"links"`

	// Categories lists category labels including the "Category:" prefix.
	Categories []string `json:"categories" yaml:"categories"`

	// Namespace is the MediaWiki namespace number (0 for articles, 14 for categories).
	Namespace int `json:"namespace" yaml:"namespace"`

	// Disambiguation reports whether the page is a disambiguation page.
	Disambiguation bool `json:"disambiguation,omitempty" yaml:"disambiguation,omitempty"`
}

// DisplayTitle returns Title, falling back to ID.
func (p *Page) DisplayTitle() string {
	if p.Title != "" {
		return p.Title
	}
	return p.ID
}

// Excerpt returns at most n runes of the summary. A non-positive n returns
// the whole summary.
func (p *Page) Excerpt(n int) string {
	if n <= 0 {
		return p.Summary
	}
	runes := []rune(p.Summary)
	if len(runes) <= n {
		return p.Summary
	}
	return string(runes[:n])
}

// IsCategory reports whether the page is a category page.
func (p *Page) IsCategory() bool {
	return p.Namespace == NamespaceCategory || strings.HasPrefix(p.ID, CategoryPrefix)
}
