// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "wikibacon/0.1 (https://example.org; bacon@example.org)").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// SourceConfig holds settings for the remote page source.
type SourceConfig struct {
	// APIURL is the MediaWiki action API endpoint.
	APIURL string `json:"api_url" yaml:"api_url" mapstructure:"api_url"`

	// RateLimit is the sustained request rate in requests per second (0 disables throttling).
	RateLimit float64 `json:"rate_limit" yaml:"rate_limit" mapstructure:"rate_limit"`

	// Burst is the token bucket size for the rate limiter.
	Burst int `json:"burst" yaml:"burst" mapstructure:"burst"`

	// MaxRetries is the number of retries on HTTP 429/503 (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// MaxContinuations caps how many continuation pages are followed when
	// collecting links, categories, and category members for one page.
	MaxContinuations int `json:"max_continuations" yaml:"max_continuations" mapstructure:"max_continuations"`

	// Suggest enables a search-suggestion lookup when a name typed by the
	// player does not resolve. Titles met during a search never use it.
	Suggest bool `json:"suggest" yaml:"suggest" mapstructure:"suggest"`

	// FollowDisambiguation resolves a disambiguation page named by the
	// player to its first article option.
	FollowDisambiguation bool `json:"follow_disambiguation" yaml:"follow_disambiguation" mapstructure:"follow_disambiguation"`

	// APIToken is an optional Wikimedia personal API token sent as a bearer token.
	APIToken string `json:"api_token,omitempty" yaml:"api_token,omitempty" mapstructure:"api_token"`
}

// CacheBackend selects the warm page store behind the in-memory cache.
type CacheBackend string

const (
	CacheMemory CacheBackend = "memory"
	CacheSQLite CacheBackend = "sqlite"
	CacheBadger CacheBackend = "badger"
)

// CacheConfig holds settings for the page cache.
type CacheConfig struct {
	// Backend selects the warm tier: memory (none), sqlite, or badger.
	Backend CacheBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// Path is the directory holding the warm store files.
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	// NegativeTTL bounds how long a not-found marker is trusted. Zero keeps
	// markers for the cache lifetime.
	NegativeTTL time.Duration `json:"negative_ttl" yaml:"negative_ttl" mapstructure:"negative_ttl"`
}

// SearchConfig is the effort budget of one path search.
type SearchConfig struct {
	// MaxExpansions caps the number of titles expanded (0 = unlimited).
	MaxExpansions int `json:"max_expansions" yaml:"max_expansions" mapstructure:"max_expansions"`

	// MaxDuration caps the wall-clock time of a search (0 = unlimited).
	MaxDuration time.Duration `json:"max_duration" yaml:"max_duration" mapstructure:"max_duration"`

	// MaxDepth caps the path length in hops (0 = unlimited).
	MaxDepth int `json:"max_depth" yaml:"max_depth" mapstructure:"max_depth"`

	// Concurrency bounds the number of concurrent expansions within a round.
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`
}

// GameConfig holds settings for the console game.
type GameConfig struct {
	// Dictionary is a word-list file; empty uses the embedded list.
	Dictionary string `json:"dictionary" yaml:"dictionary" mapstructure:"dictionary"`

	// SummaryChars is how much of each page summary is shown (default 500).
	SummaryChars int `json:"summary_chars" yaml:"summary_chars" mapstructure:"summary_chars"`

	// UnconnectedScore is the score given when no path is found (default 100).
	UnconnectedScore int `json:"unconnected_score" yaml:"unconnected_score" mapstructure:"unconnected_score"`

	// MaxPickAttempts bounds the retries when picking a random page (default 25).
	MaxPickAttempts int `json:"max_pick_attempts" yaml:"max_pick_attempts" mapstructure:"max_pick_attempts"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is text or json.
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Addr is the listen address for /metrics (empty disables the endpoint).
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`
}

// AppConfig groups all configuration sections.
type AppConfig struct {
	HTTP    HTTPConfig    `json:"http" yaml:"http" mapstructure:"http"`
	Source  SourceConfig  `json:"source" yaml:"source" mapstructure:"source"`
	Cache   CacheConfig   `json:"cache" yaml:"cache" mapstructure:"cache"`
	Search  SearchConfig  `json:"search" yaml:"search" mapstructure:"search"`
	Game    GameConfig    `json:"game" yaml:"game" mapstructure:"game"`
	Log     LogConfig     `json:"log" yaml:"log" mapstructure:"log"`
	Metrics MetricsConfig `json:"metrics" yaml:"metrics" mapstructure:"metrics"`
}

// DefaultAppConfig returns the built-in defaults.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		HTTP: HTTPConfig{
			Timeout:   15 * time.Second,
			UserAgent: "wikibacon/0.1 (https://github.com/pdiddy/wikibacon)",
		},
		Source: SourceConfig{
			APIURL:               "https://en.wikipedia.org/w/api.php",
			RateLimit:            20,
			Burst:                10,
			MaxRetries:           3,
			MaxContinuations:     5,
			Suggest:              true,
			FollowDisambiguation: true,
		},
		Cache: CacheConfig{
			Backend: CacheMemory,
			Path:    ".wikibacon/cache",
		},
		Search: DefaultSearchConfig(),
		Game: GameConfig{
			SummaryChars:     500,
			UnconnectedScore: 100,
			MaxPickAttempts:  25,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// DefaultSearchConfig returns the default effort budget.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		MaxExpansions: 2000,
		MaxDuration:   60 * time.Second,
		MaxDepth:      6,
		Concurrency:   8,
	}
}
