// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/pdiddy/wikibacon/pkg/types"
)

var pageCmd = &cobra.Command{
	Use:   "page NAME",
	Short: "Resolve a page and show its summary and edges",
	Long: `Page resolves NAME the way the game does (redirects, search suggestions,
disambiguation) and prints the canonical title, the start of its summary, and
how many links and categories it has.`,
	Args: cobra.ExactArgs(1),
	RunE: runPage,
}

func init() {
	pageCmd.Flags().Bool("json", false, "output the page as JSON")
	pageCmd.Flags().Bool("edges", false, "list every link and category")
	rootCmd.AddCommand(pageCmd)
}

func runPage(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	rt, err := openRuntime(ctx, cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	p, err := rt.engine.ResolvePage(ctx, args[0])
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	edges, _ := cmd.Flags().GetBool("edges")
	return formatPageOutput(os.Stdout, p, rt.cfg.Game.SummaryChars, jsonOutput, edges)
}

func formatPageOutput(w io.Writer, p *types.Page, summaryChars int, jsonOutput, edges bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	}

	fmt.Fprintf(w, "Title:      %s\n", p.DisplayTitle())
	fmt.Fprintf(w, "ID:         %s\n", p.ID)
	fmt.Fprintf(w, "Links:      %d\n", len(p.Links))
	fmt.Fprintf(w, "Categories: %d\n", len(p.Categories))
	if p.Summary != "" {
		fmt.Fprintf(w, "\n%s...\n", p.Excerpt(summaryChars))
	}
	if edges {
		fmt.Fprintln(w)
		for _, l := range p.Links {
			fmt.Fprintf(w, "  link      %s\n", l)
		}
		for _, c := range p.Categories {
			fmt.Fprintf(w, "  category  %s\n", c)
		}
	}
	return nil
}
