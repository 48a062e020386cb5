// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package wiki

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/pdiddy/wikibacon/internal/httputil"
	"github.com/pdiddy/wikibacon/internal/metrics"
	"github.com/pdiddy/wikibacon/pkg/types"
)

// errMissing marks a title the API reports as missing or invalid.
var errMissing = errors.New("missing title")

// MediaWiki resolves pages through the MediaWiki action API. One query
// collects the intro extract, article links, visible categories, and the
// disambiguation flag; category pages also list their members as links.
//
// MediaWiki is safe for concurrent use.
type MediaWiki struct {
	client  *http.Client
	httpCfg types.HTTPConfig
	cfg     types.SourceConfig
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewMediaWiki returns a source for cfg.APIURL. A nil client uses one with
// httpCfg.Timeout; a nil logger discards logs.
func NewMediaWiki(client *http.Client, httpCfg types.HTTPConfig, cfg types.SourceConfig, logger *slog.Logger) *MediaWiki {
	if client == nil {
		client = &http.Client{Timeout: httpCfg.Timeout}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &MediaWiki{
		client:  client,
		httpCfg: httpCfg,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}
}

// Resolve fetches the page for name. Redirects are followed; nothing else
// is substituted, so a missing title is NotFound and a disambiguation page
// comes back as itself with Disambiguation set.
func (m *MediaWiki) Resolve(ctx context.Context, name string) (*types.Page, error) {
	title := NormalizeTitle(name)
	if title == "" {
		return nil, fmt.Errorf("%w: empty title", ErrNotFound)
	}

	page, err := m.fetch(ctx, title)
	if err != nil {
		metrics.SourceFetches.WithLabelValues(fetchOutcome(ctx, err)).Inc()
		return nil, err
	}
	metrics.SourceFetches.WithLabelValues("ok").Inc()
	return page, nil
}

// Suggest returns the API's top search suggestion for name, or "".
func (m *MediaWiki) Suggest(ctx context.Context, name string) (string, error) {
	title := NormalizeTitle(name)
	if title == "" {
		return "", nil
	}
	suggestion, err := m.suggest(ctx, title)
	if err != nil {
		if Cancelled(ctx, err) {
			return "", err
		}
		return "", fmt.Errorf("search suggestion for %q: %v", title, err)
	}
	return suggestion, nil
}

// fetch runs the query for one title, following continuation tokens up to
// MaxContinuations extra requests.
func (m *MediaWiki) fetch(ctx context.Context, title string) (*types.Page, error) {
	params := url.Values{
		"action":        {"query"},
		"format":        {"json"},
		"formatversion": {"2"},
		"redirects":     {"1"},
		"titles":        {title},
		"prop":          {"extracts|links|categories|pageprops"},
		"exintro":       {"1"},
		"explaintext":   {"1"},
		"plnamespace":   {"0"},
		"pllimit":       {"max"},
		"cllimit":       {"max"},
		"clshow":        {"!hidden"},
		"ppprop":        {"disambiguation"},
	}
	if strings.HasPrefix(title, types.CategoryPrefix) {
		params.Set("list", "categorymembers")
		params.Set("cmtitle", title)
		params.Set("cmnamespace", "0|14")
		params.Set("cmlimit", "max")
	}

	var page *types.Page
	for i := 0; i <= m.cfg.MaxContinuations; i++ {
		var qr queryResponse
		if err := m.get(ctx, params, &qr); err != nil {
			if Cancelled(ctx, err) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %q: %v", ErrNotFound, title, err)
		}
		if qr.Error != nil {
			return nil, fmt.Errorf("%w: %q: API error %s: %s", ErrNotFound, title, qr.Error.Code, qr.Error.Info)
		}
		if len(qr.Query.Pages) == 0 {
			return nil, fmt.Errorf("%w: %q: empty response", ErrNotFound, title)
		}

		wp := qr.Query.Pages[0]
		if wp.Missing || wp.Invalid {
			return nil, fmt.Errorf("%w: %q: %w", ErrNotFound, title, errMissing)
		}
		if page == nil {
			page = &types.Page{
				ID:             wp.Title,
				Title:          wp.Title,
				Summary:        strings.TrimSpace(wp.Extract),
				Namespace:      wp.NS,
				Disambiguation: wp.PageProps.Disambiguation != nil,
			}
		}
		for _, l := range wp.Links {
			page.Links = append(page.Links, l.Title)
		}
		for _, c := range wp.Categories {
			page.Categories = append(page.Categories, c.Title)
		}
		for _, cm := range qr.Query.CategoryMembers {
			page.Links = append(page.Links, cm.Title)
		}

		if len(qr.Continue) == 0 {
			break
		}
		for k, v := range qr.Continue {
			params.Set(k, v)
		}
	}
	return page, nil
}

// suggest returns the top opensearch result for title, or "".
func (m *MediaWiki) suggest(ctx context.Context, title string) (string, error) {
	params := url.Values{
		"action":    {"opensearch"},
		"format":    {"json"},
		"search":    {title},
		"limit":     {"1"},
		"namespace": {"0"},
	}
	// Response shape: [query, [titles], [descriptions], [urls]].
	var raw []json.RawMessage
	if err := m.get(ctx, params, &raw); err != nil {
		return "", err
	}
	if len(raw) < 2 {
		return "", nil
	}
	var titles []string
	if err := json.Unmarshal(raw[1], &titles); err != nil {
		return "", fmt.Errorf("parsing opensearch titles: %w", err)
	}
	if len(titles) == 0 {
		return "", nil
	}
	return titles[0], nil
}

// get performs one throttled, retried GET against the API and decodes JSON into v.
func (m *MediaWiki) get(ctx context.Context, params url.Values, v any) error {
	if err := m.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.cfg.APIURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", m.httpCfg.UserAgent)
	req.Header.Set("Accept", "application/json")
	if m.cfg.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+m.cfg.APIToken)
	}

	resp, err := httputil.DoWithRetry(ctx, m.client, req, m.cfg.MaxRetries, m.logger)
	if err != nil {
		return fmt.Errorf("MediaWiki API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("MediaWiki API returned HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("parsing MediaWiki response: %w", err)
	}
	return nil
}

func fetchOutcome(ctx context.Context, err error) string {
	switch {
	case Cancelled(ctx, err):
		return "cancelled"
	case errors.Is(err, errMissing):
		return "missing"
	default:
		return "error"
	}
}

// MediaWiki API JSON structures (formatversion=2).
type queryResponse struct {
	Continue map[string]string `json:"continue"`
	Query    queryBody         `json:"query"`
	Error    *apiError         `json:"error"`
}

type apiError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

type queryBody struct {
	Pages           []wikiPage  `json:"pages"`
	CategoryMembers []titleOnly `json:"categorymembers"`
}

type wikiPage struct {
	PageID     int         `json:"pageid"`
	NS         int         `json:"ns"`
	Title      string      `json:"title"`
	Missing    bool        `json:"missing"`
	Invalid    bool        `json:"invalid"`
	Extract    string      `json:"extract"`
	Links      []titleOnly `json:"links"`
	Categories []titleOnly `json:"categories"`
	PageProps  pageProps   `json:"pageprops"`
}

type titleOnly struct {
	NS    int    `json:"ns"`
	Title string `json:"title"`
}

type pageProps struct {
	Disambiguation *string `json:"disambiguation"`
}
