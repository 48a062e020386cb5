// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/wikibacon/internal/pagestore"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the persistent page cache",
	Long: `Cache operates on the page store selected by cache.backend and cache.path.
The memory backend keeps nothing between runs, so there is nothing to inspect.`,
}

// --- stats subcommand ---

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show how many pages the persistent cache holds",
	RunE:  runCacheStats,
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	store, backend, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.Count(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("%s cache: %d pages\n", backend, n)
	return nil
}

// --- purge subcommand ---

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete every page from the persistent cache",
	RunE:  runCachePurge,
}

func runCachePurge(cmd *cobra.Command, args []string) error {
	store, backend, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Purge(context.Background()); err != nil {
		return err
	}
	fmt.Printf("%s cache purged\n", backend)
	return nil
}

// --- shared helpers ---

func openStore() (pagestore.Store, string, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, "", err
	}
	store, err := pagestore.Open(cfg.Cache, logger)
	if err != nil {
		return nil, "", err
	}
	if store == nil {
		return nil, "", errors.New("cache.backend is memory: set it to sqlite or badger to keep pages between runs")
	}
	return store, string(cfg.Cache.Backend), nil
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}
