// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/wikibacon/internal/engine"
	"github.com/pdiddy/wikibacon/internal/metrics"
	"github.com/pdiddy/wikibacon/internal/pagecache"
	"github.com/pdiddy/wikibacon/internal/pagestore"
	"github.com/pdiddy/wikibacon/internal/secrets"
	"github.com/pdiddy/wikibacon/internal/wiki"
	"github.com/pdiddy/wikibacon/pkg/types"
)

// setDefaults registers every config key so environment variables
// (WIKIBACON_SEARCH_MAX_DURATION and so on) are seen by Unmarshal.
func setDefaults(d types.AppConfig) {
	viper.SetDefault("http.timeout", d.HTTP.Timeout)
	viper.SetDefault("http.user_agent", d.HTTP.UserAgent)

	viper.SetDefault("source.api_url", d.Source.APIURL)
	viper.SetDefault("source.rate_limit", d.Source.RateLimit)
	viper.SetDefault("source.burst", d.Source.Burst)
	viper.SetDefault("source.max_retries", d.Source.MaxRetries)
	viper.SetDefault("source.max_continuations", d.Source.MaxContinuations)
	viper.SetDefault("source.suggest", d.Source.Suggest)
	viper.SetDefault("source.follow_disambiguation", d.Source.FollowDisambiguation)
	viper.SetDefault("source.api_token", "")

	viper.SetDefault("cache.backend", string(d.Cache.Backend))
	viper.SetDefault("cache.path", d.Cache.Path)
	viper.SetDefault("cache.negative_ttl", d.Cache.NegativeTTL)

	viper.SetDefault("search.max_expansions", d.Search.MaxExpansions)
	viper.SetDefault("search.max_duration", d.Search.MaxDuration)
	viper.SetDefault("search.max_depth", d.Search.MaxDepth)
	viper.SetDefault("search.concurrency", d.Search.Concurrency)

	viper.SetDefault("game.dictionary", d.Game.Dictionary)
	viper.SetDefault("game.summary_chars", d.Game.SummaryChars)
	viper.SetDefault("game.unconnected_score", d.Game.UnconnectedScore)
	viper.SetDefault("game.max_pick_attempts", d.Game.MaxPickAttempts)

	viper.SetDefault("log.level", d.Log.Level)
	viper.SetDefault("log.format", d.Log.Format)
	viper.SetDefault("metrics.addr", d.Metrics.Addr)
}

func loadConfig() (types.AppConfig, error) {
	var cfg types.AppConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("reading configuration: %w", err)
	}
	return cfg, nil
}

// newLogger builds the stderr logger. Unknown levels fall back to warn.
func newLogger(cfg types.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelWarn
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// userAgent appends the wikimedia-contact secret to the configured agent,
// inside its trailing parenthesis when it has one.
func userAgent(base, contact string) string {
	if contact == "" || strings.Contains(base, contact) {
		return base
	}
	if strings.HasSuffix(base, ")") {
		return strings.TrimSuffix(base, ")") + "; " + contact + ")"
	}
	return base + " (" + contact + ")"
}

// runtime is the wiring shared by play, path, and page.
type runtime struct {
	cfg    types.AppConfig
	store  pagestore.Store
	cache  *pagecache.Cache
	engine *engine.Engine
	stop   context.CancelFunc
}

// openRuntime builds the page source, cache, and engine from configuration
// and flags. A --fixture run never touches the persistent cache.
func openRuntime(ctx context.Context, cmd *cobra.Command) (*runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	var source wiki.Source
	var store pagestore.Store
	fixturePath, _ := cmd.Flags().GetString("fixture")
	if fixturePath != "" {
		fx, err := wiki.LoadFixture(fixturePath)
		if err != nil {
			return nil, err
		}
		logger.Info("using fixture graph", "path", fixturePath, "pages", len(fx.Titles()))
		source = fx
	} else {
		httpCfg := cfg.HTTP
		httpCfg.UserAgent = userAgent(httpCfg.UserAgent, loadedSecrets.Get(secrets.WikimediaContact, ""))
		srcCfg := cfg.Source
		srcCfg.APIToken = loadedSecrets.Get(secrets.WikimediaAPIToken, srcCfg.APIToken)
		client := &http.Client{Timeout: httpCfg.Timeout}
		source = wiki.NewMediaWiki(client, httpCfg, srcCfg, logger)

		store, err = pagestore.Open(cfg.Cache, logger)
		if err != nil {
			return nil, err
		}
	}

	opts := []pagecache.Option{
		pagecache.WithNegativeTTL(cfg.Cache.NegativeTTL),
		pagecache.WithLogger(logger),
	}
	if store != nil {
		opts = append(opts, pagecache.WithStore(store))
	}
	cache := pagecache.New(source, opts...)

	ctx, stop := context.WithCancel(ctx)
	if cfg.Metrics.Addr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr, logger); err != nil {
				logger.Error("metrics server failed", "error", err)
			}
		}()
	}

	return &runtime{
		cfg:    cfg,
		store:  store,
		cache:  cache,
		engine: engine.New(cache, cfg.Search, logger,
			engine.WithSuggestions(cfg.Source.Suggest),
			engine.WithDisambiguation(cfg.Source.FollowDisambiguation)),
		stop:   stop,
	}, nil
}

// Close stops the metrics server and closes the persistent cache.
func (r *runtime) Close() error {
	r.stop()
	if r.store != nil {
		return r.store.Close()
	}
	return nil
}
