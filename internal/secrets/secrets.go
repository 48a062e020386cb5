// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files.
// Each file is one secret: the filename is the key and the trimmed file
// contents are the value.
//
// Known keys: wikimedia-api-token, wikimedia-contact.
package secrets

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Keys read by wikibacon.
const (
	// WikimediaAPIToken is a Wikimedia personal API token, sent as a bearer token.
	WikimediaAPIToken = "wikimedia-api-token"
	// WikimediaContact is a contact address appended to the User-Agent.
	WikimediaContact = "wikimedia-contact"
)

// Set holds loaded secrets by key.
type Set map[string]string

// Get returns the secret for key, or fallback when the key is absent.
// A non-empty fallback (an explicit flag or config value) wins.
func (s Set) Get(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	return s[key]
}

// Keys returns the loaded key names in no particular order.
func (s Set) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	return keys
}

// Load reads all regular, non-hidden files in dir. A missing directory is
// not an error; Load returns an empty Set. Unreadable files are logged and
// skipped. A nil logger disables the warning.
func Load(dir string, logger *slog.Logger) (Set, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Set{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(Set)
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		name := entry.Name()

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			if logger != nil {
				logger.Warn("could not read secret", "key", name, "error", err)
			}
			continue
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}
