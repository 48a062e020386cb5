// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
		want  Set
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, WikimediaAPIToken, "  tok_abc123  \n")
				writeFile(t, dir, WikimediaContact, "bacon@example.org\n")
				return dir
			},
			want: Set{
				WikimediaAPIToken: "tok_abc123",
				WikimediaContact:  "bacon@example.org",
			},
		},
		{
			name: "returns empty set for nonexistent directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: Set{},
		},
		{
			name: "skips empty files, dotfiles, and directories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, WikimediaAPIToken, "valid")
				writeFile(t, dir, "empty", "")
				writeFile(t, dir, "blank", "  \n\t ")
				writeFile(t, dir, ".gitkeep", "x")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))
				return dir
			},
			want: Set{WikimediaAPIToken: "valid"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.setup(t), nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadNotADirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file")
	writeFile(t, dir, "file", "x")

	_, err := Load(path, nil)
	assert.Error(t, err)
}

func TestSetGet(t *testing.T) {
	s := Set{WikimediaAPIToken: "from-file"}

	assert.Equal(t, "from-file", s.Get(WikimediaAPIToken, ""))
	assert.Equal(t, "from-flag", s.Get(WikimediaAPIToken, "from-flag"))
	assert.Equal(t, "", s.Get(WikimediaContact, ""))

	keys := Set{"b": "1", "a": "2"}.Keys()
	sort.Strings(keys)
	assert.Equal(t, []string{"a", "b"}, keys)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}
