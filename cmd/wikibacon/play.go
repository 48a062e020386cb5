// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/pdiddy/wikibacon/internal/game"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play WikiBacon in the console",
	Long: `Play starts from a random Wikipedia page. The computer picks a random page
and you name one; whoever's page is farther from the start wins. Normal mode
follows links and shared categories, hard mode follows links only.

An unconnected page (or one the search gives up on) scores game.unconnected_score.`,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().String("dictionary", "", "word list for random pages (default: built-in list)")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	rt, err := openRuntime(ctx, cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	gameCfg := rt.cfg.Game
	if dict, _ := cmd.Flags().GetString("dictionary"); dict != "" {
		gameCfg.Dictionary = dict
	}

	g, err := game.New(rt.engine, gameCfg, os.Stdin, os.Stdout, game.WithLogger(logger))
	if err != nil {
		return err
	}
	return g.Run(ctx)
}
