// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strings"
)

// EdgePolicy controls which of a page's references count as outgoing edges.
type EdgePolicy int

const (
	// PolicyNormal follows links and categories.
	PolicyNormal EdgePolicy = iota
	// PolicyHard follows links only.
	PolicyHard
)

func (p EdgePolicy) String() string {
	switch p {
	case PolicyHard:
		return "hard"
	default:
		return "normal"
	}
}

// ParsePolicy converts "normal" or "hard" (case-insensitive) to an EdgePolicy.
func ParsePolicy(s string) (EdgePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "normal":
		return PolicyNormal, nil
	case "hard":
		return PolicyHard, nil
	default:
		return PolicyNormal, fmt.Errorf("unknown edge policy %q: want normal or hard", s)
	}
}

// PolicyFor returns PolicyHard when hard is true.
func PolicyFor(hard bool) EdgePolicy {
	if hard {
		return PolicyHard
	}
	return PolicyNormal
}

// EdgeSet returns the titles reachable from p in one hop under policy.
// Links come first in source order, then categories (normal policy only);
// empty titles and duplicates are dropped.
func EdgeSet(p *Page, policy EdgePolicy) []string {
	if p == nil {
		return nil
	}
	n := len(p.Links)
	if policy == PolicyNormal {
		n += len(p.Categories)
	}
	edges := make([]string, 0, n)
	seen := make(map[string]struct{}, n)
	add := func(titles []string) {
		for _, t := range titles {
			if t == "" {
				continue
			}
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			edges = append(edges, t)
		}
	}
	add(p.Links)
	if policy == PolicyNormal {
		add(p.Categories)
	}
	return edges
}
