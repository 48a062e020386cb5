// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package game runs the WikiBacon console game. Each round starts from a
// random page; the computer and the player each name a page, and whoever
// named the page farther from the start wins.
package game

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/pdiddy/wikibacon/internal/wiki"
	"github.com/pdiddy/wikibacon/pkg/types"
)

const defaultPickAttempts = 25

// errInputClosed ends the game when the player's input runs out.
var errInputClosed = errors.New("input closed")

// Engine is what the game needs from engine.Engine.
type Engine interface {
	ResolvePage(ctx context.Context, name string) (*types.Page, error)
	FindShortPath(ctx context.Context, start, target *types.Page) ([]string, error)
	SetHardMode(hard bool)
}

// Option configures a Game.
type Option func(*Game)

// WithRand sets the random source used to pick pages.
func WithRand(r *rand.Rand) Option {
	return func(g *Game) { g.rng = r }
}

// WithWords replaces the dictionary.
func WithWords(words []string) Option {
	return func(g *Game) { g.words = words }
}

// WithLogger sets the logger for diagnostics. Player-facing text always
// goes to the output writer.
func WithLogger(l *slog.Logger) Option {
	return func(g *Game) {
		if l != nil {
			g.logger = l
		}
	}
}

// Game is one interactive session.
type Game struct {
	engine Engine
	cfg    types.GameConfig
	words  []string
	rng    *rand.Rand
	in     *bufio.Scanner
	out    io.Writer
	logger *slog.Logger
}

// New returns a game reading answers from in and writing to out. The
// dictionary comes from cfg.Dictionary unless WithWords is given.
func New(engine Engine, cfg types.GameConfig, in io.Reader, out io.Writer, opts ...Option) (*Game, error) {
	g := &Game{
		engine: engine,
		cfg:    cfg,
		in:     bufio.NewScanner(in),
		out:    out,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if g.words == nil {
		words, err := LoadDictionary(cfg.Dictionary)
		if err != nil {
			return nil, err
		}
		g.words = words
	}
	if len(g.words) == 0 {
		return nil, errors.New("game dictionary is empty")
	}
	return g, nil
}

// Run plays until the player quits or input ends. It returns an error only
// when the game cannot continue, such as a cancelled context or a
// dictionary with no resolvable pages.
func (g *Game) Run(ctx context.Context) error {
	err := g.run(ctx)
	if errors.Is(err, errInputClosed) {
		fmt.Fprintln(g.out)
		return nil
	}
	return err
}

func (g *Game) run(ctx context.Context) error {
	fmt.Fprint(g.out, "\n\n🥓 Welcome to WikiBacon! 🥓\n\n")
	fmt.Fprint(g.out, "In this game, we start from a random Wikipedia page, and then we compete to see who can name a page that is *farthest away* from the original page.\n\n")
	fmt.Fprintln(g.out, "\nDifficulty modes:")
	fmt.Fprintln(g.out, "  [1] Normal - Uses both links and categories")
	fmt.Fprintln(g.out, "  [2] Hard - Links only (no categories)")

	mode, err := g.prompt("Choose mode (1 or 2, default=1): ")
	if err != nil {
		return err
	}
	if strings.TrimSpace(mode) == "2" {
		g.engine.SetHardMode(true)
		fmt.Fprint(g.out, "🔥 Hard mode activated! Categories disabled.\n\n")
	} else {
		g.engine.SetHardMode(false)
		fmt.Fprint(g.out, "✨ Normal mode selected.\n\n")
	}

	fmt.Fprintln(g.out, "Ready to play? Hit Enter to start, or type 'q' to quit")
	cmd, err := g.readLine()
	if err != nil {
		return err
	}
	if isQuit(cmd) {
		return nil
	}

	for {
		if err := g.round(ctx); err != nil {
			return err
		}

		fmt.Fprintln(g.out, "\n\nPlay again? Hit Enter for another round, or type 'q' to quit")
		cmd, err := g.readLine()
		if err != nil {
			return err
		}
		if isQuit(cmd) {
			fmt.Fprint(g.out, "\n🥓 Thanks for playing! 🥓\n\n")
			fmt.Fprint(g.out, "WikiBacon is not affiliated with Wikipedia or the Wikimedia Foundation. To donate to Wikipedia and support their vision of an open internet that makes games like this possible, please visit https://donate.wikimedia.org/\n\n")
			return nil
		}
	}
}

// Outcome of a round, from the computer's point of view.
const (
	ComputerWins = "I win!"
	PlayerWins   = "You win!"
	Tie          = "It's a tie!"
)

// Verdict compares two scores. The higher score wins.
func Verdict(computer, player int) string {
	switch {
	case computer > player:
		return ComputerWins
	case computer < player:
		return PlayerWins
	default:
		return Tie
	}
}

func (g *Game) round(ctx context.Context) error {
	start, err := g.pickPage(ctx)
	if err != nil {
		return err
	}
	g.showPage("The starting page is", start)

	computer, err := g.pickPage(ctx)
	if err != nil {
		return err
	}
	g.showPage("The computer's page is", computer)

	player, err := g.askPage(ctx)
	if err != nil {
		return err
	}
	g.showPage("Your page is", player)

	fmt.Fprint(g.out, "Calculating Bacon paths...\n\n")

	computerScore, err := g.scorePath(ctx, "Computer's path:", start, computer)
	if err != nil {
		return err
	}
	playerScore, err := g.scorePath(ctx, "Your path:", start, player)
	if err != nil {
		return err
	}

	g.logger.Info("round finished",
		"start", start.ID, "computer", computer.ID, "player", player.ID,
		"computer_score", computerScore, "player_score", playerScore)
	fmt.Fprintln(g.out, Verdict(computerScore, playerScore))
	return nil
}

// pickPage resolves random dictionary words until one names a page.
func (g *Game) pickPage(ctx context.Context) (*types.Page, error) {
	attempts := g.cfg.MaxPickAttempts
	if attempts <= 0 {
		attempts = defaultPickAttempts
	}
	for range attempts {
		word := g.words[g.rng.IntN(len(g.words))]
		p, err := g.engine.ResolvePage(ctx, word)
		if err == nil {
			return p, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		g.logger.Debug("random word has no page", "word", word, "error", err)
	}
	return nil, fmt.Errorf("no page found for %d random dictionary words", attempts)
}

// askPage asks the player for a page until one resolves.
func (g *Game) askPage(ctx context.Context) (*types.Page, error) {
	for {
		fmt.Fprintln(g.out, "What would you like your page to be?")
		name, err := g.readLine()
		if err != nil {
			return nil, err
		}
		p, err := g.engine.ResolvePage(ctx, name)
		if err == nil {
			return p, nil
		}
		if wiki.Cancelled(ctx, err) {
			return nil, err
		}
		fmt.Fprintf(g.out, "Could not find page '%s'. Please try another page.\n\n", name)
	}
}

func (g *Game) showPage(label string, p *types.Page) {
	fmt.Fprintf(g.out, "%s: %s\n\n", label, p.DisplayTitle())
	fmt.Fprintf(g.out, "Summary: %s...\n\n", p.Excerpt(g.cfg.SummaryChars))
}

// scorePath prints the path from start to target and returns its score:
// the number of titles on it, or UnconnectedScore when there is none.
func (g *Game) scorePath(ctx context.Context, label string, start, target *types.Page) (int, error) {
	path, err := g.engine.FindShortPath(ctx, start, target)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return 0, ctxErr
	}

	fmt.Fprintln(g.out, label)
	if err != nil {
		g.logger.Debug("no path", "start", start.ID, "target", target.ID, "error", err)
		fmt.Fprintln(g.out, "No path found (or search timed out).")
		fmt.Fprint(g.out, "Length: ∞ (Infinite)\n\n")
		return g.cfg.UnconnectedScore, nil
	}
	fmt.Fprintln(g.out, strings.Join(path, "\n -> "))
	fmt.Fprintf(g.out, "Length: %d\n\n", len(path))
	return len(path), nil
}

func (g *Game) prompt(text string) (string, error) {
	fmt.Fprint(g.out, text)
	return g.readLine()
}

func (g *Game) readLine() (string, error) {
	if !g.in.Scan() {
		if err := g.in.Err(); err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}
		return "", errInputClosed
	}
	return strings.TrimRight(g.in.Text(), "\r"), nil
}

func isQuit(cmd string) bool {
	return strings.TrimSpace(cmd) == "q"
}
