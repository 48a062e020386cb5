// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/wikibacon/internal/pathfind"
	"github.com/pdiddy/wikibacon/pkg/types"
)

var pathCmd = &cobra.Command{
	Use:   "path FROM TO",
	Short: "Find a shortest path between two pages",
	Long: `Path resolves both pages and searches for a shortest chain of links (and,
unless --hard is given, shared categories) from FROM to TO. The search stops
when its budget runs out; the budget defaults come from the search.* config keys.`,
	Args: cobra.ExactArgs(2),
	RunE: runPath,
}

func init() {
	pathCmd.Flags().Bool("hard", false, "follow links only, not categories")
	pathCmd.Flags().Bool("json", false, "output the result as JSON")
	pathCmd.Flags().Bool("progress", false, "report each search round on stderr")
	pathCmd.Flags().Int("max-expansions", 0, "cap on titles expanded (default search.max_expansions)")
	pathCmd.Flags().Duration("max-duration", 0, "cap on search time (default search.max_duration)")
	pathCmd.Flags().Int("max-depth", 0, "cap on path length in hops (default search.max_depth)")

	rootCmd.AddCommand(pathCmd)
}

// pathReport is the printed result of one path search.
type pathReport struct {
	From      string   `json:"from"`
	To        string   `json:"to"`
	Policy    string   `json:"policy"`
	Connected bool     `json:"connected"`
	Path      []string `json:"path,omitempty"`
	Length    int      `json:"length,omitempty"`
	Expanded  int      `json:"expanded"`
	Elapsed   string   `json:"elapsed"`
	Reason    string   `json:"reason,omitempty"`
}

func runPath(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	rt, err := openRuntime(ctx, cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	budget := searchBudget(cmd, rt.cfg.Search)
	hard, _ := cmd.Flags().GetBool("hard")
	rt.engine.SetHardMode(hard)

	from, err := rt.engine.ResolvePage(ctx, args[0])
	if err != nil {
		return fmt.Errorf("resolving %q: %w", args[0], err)
	}
	to, err := rt.engine.ResolvePage(ctx, args[1])
	if err != nil {
		return fmt.Errorf("resolving %q: %w", args[1], err)
	}

	var opts []pathfind.Option
	if progress, _ := cmd.Flags().GetBool("progress"); progress {
		opts = append(opts, pathfind.WithRoundHook(func(depth, frontier, expanded int) {
			fmt.Fprintf(os.Stderr, "depth %d: expanding %d titles (%d so far)\n", depth, frontier, expanded)
		}))
	}

	res, err := rt.engine.Search(ctx, from, to, budget, opts...)
	if err != nil && !errors.Is(err, pathfind.ErrNotConnected) {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	report := pathReport{
		From:      from.ID,
		To:        to.ID,
		Policy:    types.PolicyFor(hard).String(),
		Connected: err == nil,
		Expanded:  res.Expanded,
		Elapsed:   res.Elapsed.Round(time.Millisecond).String(),
	}
	if err == nil {
		report.Path = res.Path
		report.Length = len(res.Path)
	} else if errors.Is(err, pathfind.ErrBudgetExceeded) {
		report.Reason = "search budget exceeded"
	} else {
		report.Reason = "pages are not connected"
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatPathOutput(os.Stdout, report, jsonOutput)
}

// searchBudget applies the --max-* flags the user set over cfg.
func searchBudget(cmd *cobra.Command, cfg types.SearchConfig) types.SearchConfig {
	if cmd.Flags().Changed("max-expansions") {
		cfg.MaxExpansions, _ = cmd.Flags().GetInt("max-expansions")
	}
	if cmd.Flags().Changed("max-duration") {
		cfg.MaxDuration, _ = cmd.Flags().GetDuration("max-duration")
	}
	if cmd.Flags().Changed("max-depth") {
		cfg.MaxDepth, _ = cmd.Flags().GetInt("max-depth")
	}
	return cfg
}

func formatPathOutput(w io.Writer, r pathReport, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	if !r.Connected {
		fmt.Fprintf(w, "No path from %s to %s: %s.\n", r.From, r.To, r.Reason)
	} else {
		fmt.Fprintln(w, strings.Join(r.Path, "\n -> "))
		fmt.Fprintf(w, "Length: %d\n", r.Length)
	}
	fmt.Fprintf(w, "\n%s mode, %d titles expanded in %s\n", r.Policy, r.Expanded, r.Elapsed)
	return nil
}
