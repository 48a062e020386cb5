// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package game

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
)

//go:embed words.txt
var defaultWords string

// ParseWords returns the non-blank, non-comment lines of data, trimmed.
func ParseWords(data string) []string {
	var words []string
	for _, line := range strings.Split(data, "\n") {
		word := strings.TrimSpace(line)
		if word != "" && !strings.HasPrefix(word, "#") {
			words = append(words, word)
		}
	}
	return words
}

// DefaultWords returns the built-in word list.
func DefaultWords() []string {
	return ParseWords(defaultWords)
}

// LoadDictionary reads a word list from path, or returns the built-in list
// when path is empty.
func LoadDictionary(path string) ([]string, error) {
	if path == "" {
		return DefaultWords(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dictionary %s: %w", path, err)
	}
	words := ParseWords(string(data))
	if len(words) == 0 {
		return nil, fmt.Errorf("dictionary %s has no words", path)
	}
	return words, nil
}
