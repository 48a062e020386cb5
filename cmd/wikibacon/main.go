// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the wikibacon CLI: the console game
// plus one-off path, page, and cache commands.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/wikibacon/internal/secrets"
	"github.com/pdiddy/wikibacon/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets secrets.Set

// logger is configured from log.level and log.format before any command runs.
var logger = slog.New(slog.DiscardHandler)

// rootCmd is the base command for the wikibacon CLI.
var rootCmd = &cobra.Command{
	Use:   "wikibacon",
	Short: "Six degrees of Wikipedia, as a game",
	Long: `wikibacon finds short paths between Wikipedia pages by following links
and, in normal mode, shared categories.

Run "wikibacon play" for the console game, or use path and page to query the
graph directly. Pages are fetched on demand from the MediaWiki API and can be
kept in a local cache between runs (cache.backend: sqlite or badger).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger = newLogger(cfg.Log)
		slog.SetDefault(logger)

		s, err := secrets.Load(".secrets/", logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := s.Keys()
			sort.Strings(keys)
			logger.Info("loaded secrets", "keys", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./wikibacon.yaml or ~/.config/wikibacon/wikibacon.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (default warn)")
	rootCmd.PersistentFlags().String("fixture", "", "YAML fixture graph to use instead of the MediaWiki API")
	rootCmd.PersistentFlags().String("metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")

	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("metrics.addr", rootCmd.PersistentFlags().Lookup("metrics-addr"))
	setDefaults(types.DefaultAppConfig())
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("wikibacon")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "wikibacon"))
		}
	}

	viper.SetEnvPrefix("WIKIBACON")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
