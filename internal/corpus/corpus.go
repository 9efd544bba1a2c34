// Package corpus provides the word-corpus demo workloads scheduled by
// the CLI: load a text file, pick a seeded random word, count a word's
// occurrences. The helpers are pure; the Runnable constructors bind
// them to tasks.
package corpus

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strings"

	"github.com/akarag/waveplan/internal/scheduler"
)

// Load reads a corpus file and splits it on whitespace.
func Load(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading corpus %s: %w", path, err)
	}
	words := strings.Fields(string(data))
	if len(words) == 0 {
		return nil, fmt.Errorf("corpus %s contains no words", path)
	}
	return words, nil
}

// Pick selects one word. The same seed always selects the same word,
// which keeps demo runs reproducible.
func Pick(words []string, seed int64) (string, error) {
	if len(words) == 0 {
		return "", fmt.Errorf("empty corpus")
	}
	rng := rand.New(rand.NewSource(seed))
	return words[rng.Intn(len(words))], nil
}

// Count returns how many times word appears in the corpus.
func Count(word string, words []string) int {
	n := 0
	for _, w := range words {
		if w == word {
			n++
		}
	}
	return n
}

// PickWork returns a Runnable whose result is the selected word.
func PickWork(words []string, seed int64) scheduler.Runnable {
	return scheduler.RunnableFunc(func(ctx context.Context) (string, error) {
		return Pick(words, seed)
	})
}

// CountWork returns a Runnable whose result reports the occurrence
// count of word.
func CountWork(word string, words []string) scheduler.Runnable {
	return scheduler.RunnableFunc(func(ctx context.Context) (string, error) {
		return fmt.Sprintf("%q appears %d times", word, Count(word, words)), nil
	})
}
