// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package wiki resolves page names to pages. The MediaWiki source talks to
// a remote action API; the Fixture source serves a fixed graph from YAML.
package wiki

import (
	"context"
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pdiddy/wikibacon/pkg/types"
)

// ErrNotFound is returned, wrapped, for every resolution failure that is not
// a context cancellation: missing pages, invalid titles, unresolvable
// disambiguations, and transient remote errors.
var ErrNotFound = errors.New("page not found")

// Source resolves a free-form name to a Page.
type Source interface {
	Resolve(ctx context.Context, name string) (*types.Page, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, name string) (*types.Page, error)

// Resolve calls f.
func (f SourceFunc) Resolve(ctx context.Context, name string) (*types.Page, error) {
	return f(ctx, name)
}

// IsNotFound reports whether err is a resolution failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Suggester proposes a title for a name that does not resolve. It returns
// "" when there is no suggestion.
type Suggester interface {
	Suggest(ctx context.Context, name string) (string, error)
}

// IsContextError reports whether err came from context cancellation or a deadline.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Cancelled reports whether err is a context error caused by ctx ending.
// An HTTP client timeout also matches context.DeadlineExceeded, but while
// ctx is live it is an ordinary fetch failure.
func Cancelled(ctx context.Context, err error) bool {
	return ctx.Err() != nil && IsContextError(err)
}

// NormalizeTitle returns the key form of a title: surrounding space
// trimmed, underscores turned into spaces, whitespace runs collapsed, and
// the first letter upper-cased (MediaWiki treats the first letter as
// case-insensitive). The namespace part of "Category:foo" keeps its case
// and the first letter after the colon is upper-cased too.
func NormalizeTitle(name string) string {
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return ""
	}
	name = upperFirst(name)
	if rest, ok := strings.CutPrefix(name, types.CategoryPrefix); ok {
		return types.CategoryPrefix + upperFirst(strings.TrimSpace(rest))
	}
	return name
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
