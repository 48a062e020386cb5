// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package game

import (
	"bytes"
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/wikibacon/internal/engine"
	"github.com/pdiddy/wikibacon/internal/pagecache"
	"github.com/pdiddy/wikibacon/internal/pathfind"
	"github.com/pdiddy/wikibacon/internal/wiki"
	"github.com/pdiddy/wikibacon/pkg/types"
)

// fakeEngine serves fixed pages and paths keyed by "start>target".
type fakeEngine struct {
	pages    map[string]*types.Page
	paths    map[string][]string
	hard     bool
	resolved []string
}

func newFakeEngine(names ...string) *fakeEngine {
	f := &fakeEngine{pages: make(map[string]*types.Page), paths: make(map[string][]string)}
	for _, n := range names {
		f.pages[n] = &types.Page{ID: n, Title: n, Summary: "About " + n + "."}
	}
	return f
}

func (f *fakeEngine) ResolvePage(_ context.Context, name string) (*types.Page, error) {
	f.resolved = append(f.resolved, name)
	if p, ok := f.pages[name]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: %q", wiki.ErrNotFound, name)
}

func (f *fakeEngine) FindShortPath(_ context.Context, start, target *types.Page) ([]string, error) {
	if start.ID == target.ID {
		return []string{start.ID}, nil
	}
	if p, ok := f.paths[start.ID+">"+target.ID]; ok {
		return p, nil
	}
	return nil, pathfind.ErrNotConnected
}

func (f *fakeEngine) SetHardMode(hard bool) { f.hard = hard }

func testConfig() types.GameConfig {
	return types.DefaultAppConfig().Game
}

func play(t *testing.T, eng Engine, words []string, input string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	g, err := New(eng, testConfig(), strings.NewReader(input), &out,
		WithWords(words), WithRand(rand.New(rand.NewPCG(1, 2))))
	require.NoError(t, err)
	err = g.Run(context.Background())
	return out.String(), err
}

func TestQuitBeforeFirstRound(t *testing.T) {
	eng := newFakeEngine("Start")
	out, err := play(t, eng, []string{"Start"}, "\nq\n")
	require.NoError(t, err)
	assert.Contains(t, out, "Welcome to WikiBacon!")
	assert.Contains(t, out, "Normal mode selected.")
	assert.NotContains(t, out, "The starting page is")
	assert.False(t, eng.hard)
	assert.Empty(t, eng.resolved)
}

func TestHardModeSelection(t *testing.T) {
	eng := newFakeEngine("Start")
	out, err := play(t, eng, []string{"Start"}, "2\nq\n")
	require.NoError(t, err)
	assert.Contains(t, out, "Hard mode activated! Categories disabled.")
	assert.True(t, eng.hard)
}

func TestRoundPlayerWins(t *testing.T) {
	eng := newFakeEngine("Start", "Far away")
	eng.paths["Start>Far away"] = []string{"Start", "Middle", "Far away"}

	out, err := play(t, eng, []string{"Start"}, "1\n\nNowhere\nFar away\nq\n")
	require.NoError(t, err)

	assert.Contains(t, out, "The starting page is: Start\n\nSummary: About Start....")
	assert.Contains(t, out, "Could not find page 'Nowhere'. Please try another page.")
	assert.Contains(t, out, "Your page is: Far away")
	assert.Contains(t, out, "Calculating Bacon paths...")
	assert.Contains(t, out, "Computer's path:\nStart\nLength: 1")
	assert.Contains(t, out, "Your path:\nStart\n -> Middle\n -> Far away\nLength: 3")
	assert.Contains(t, out, "You win!")
	assert.Contains(t, out, "Thanks for playing!")
	assert.Contains(t, out, "https://donate.wikimedia.org/")
}

func TestRoundUnconnectedScore(t *testing.T) {
	eng := newFakeEngine("Start", "Island")
	out, err := play(t, eng, []string{"Start"}, "\n\nIsland\nq\n")
	require.NoError(t, err)
	assert.Contains(t, out, "No path found (or search timed out).\nLength: ∞ (Infinite)")
	assert.Contains(t, out, "You win!")
}

func TestTwoRounds(t *testing.T) {
	eng := newFakeEngine("Start")
	out, err := play(t, eng, []string{"Start"}, "\n\nStart\n\nStart\nq\n")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "It's a tie!"))
	assert.Equal(t, 2, strings.Count(out, "Play again?"))
}

func TestInputEndsMidRound(t *testing.T) {
	eng := newFakeEngine("Start")
	out, err := play(t, eng, []string{"Start"}, "1\n\n")
	require.NoError(t, err)
	assert.Contains(t, out, "What would you like your page to be?")
	assert.NotContains(t, out, "Calculating")
}

func TestPickPageSkipsMissingWords(t *testing.T) {
	eng := newFakeEngine("Start")
	_, err := play(t, eng, []string{"Missing", "Start"}, "\n\nStart\nq\n")
	require.NoError(t, err)
	assert.Contains(t, eng.resolved, "Start")
}

func TestPickPageGivesUp(t *testing.T) {
	eng := newFakeEngine()
	cfg := testConfig()
	cfg.MaxPickAttempts = 3
	var out bytes.Buffer
	g, err := New(eng, cfg, strings.NewReader("\n\n"), &out, WithWords([]string{"Missing"}))
	require.NoError(t, err)

	err = g.Run(context.Background())
	require.Error(t, err)
	assert.Len(t, eng.resolved, 3)
}

func TestVerdict(t *testing.T) {
	assert.Equal(t, ComputerWins, Verdict(5, 2))
	assert.Equal(t, PlayerWins, Verdict(2, 100))
	assert.Equal(t, Tie, Verdict(3, 3))
}

func TestGameWithEngine(t *testing.T) {
	src := wiki.NewFixture(
		types.Page{ID: "Kevin Bacon", Summary: "Kevin Norwood Bacon is an American actor.", Links: []string{"Footloose"}},
		types.Page{ID: "Footloose", Summary: "A 1984 film."},
	)
	eng := engine.New(pagecache.New(src), types.DefaultSearchConfig(), nil)

	out, err := play(t, eng, []string{"kevin_Bacon"}, "2\n\nFootloose\nq\n")
	require.NoError(t, err)
	assert.True(t, eng.HardMode())
	assert.Contains(t, out, "The starting page is: Kevin Bacon")
	assert.Contains(t, out, "Your path:\nKevin Bacon\n -> Footloose\nLength: 2")
	assert.Contains(t, out, "You win!")
}

func TestLoadDictionary(t *testing.T) {
	words, err := LoadDictionary("")
	require.NoError(t, err)
	assert.NotEmpty(t, words)
	for _, w := range words {
		assert.NotEqual(t, "", w)
		assert.False(t, strings.HasPrefix(w, "#"), w)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "words.txt")
	require.NoError(t, os.WriteFile(path, []byte("# films\nFootloose\n\n  Apollo 13  \n"), 0o644))
	words, err = LoadDictionary(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Footloose", "Apollo 13"}, words)

	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("# nothing\n"), 0o644))
	_, err = LoadDictionary(empty)
	assert.Error(t, err)

	_, err = LoadDictionary(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}

func TestNewRejectsEmptyDictionary(t *testing.T) {
	_, err := New(newFakeEngine(), testConfig(), strings.NewReader(""), &bytes.Buffer{}, WithWords([]string{}))
	assert.Error(t, err)
}
