package corpus

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeCorpus writes a corpus fixture and returns its path.
func writeCorpus(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "words.txt")
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		t.Fatalf("failed to write corpus fixture: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeCorpus(t, "the quick brown fox\njumps over the lazy dog\n")

	words, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(words) != 9 {
		t.Errorf("Load() returned %d words, want 9", len(words))
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("Load() of missing file: expected error")
	}

	empty := writeCorpus(t, "   \n\t\n")
	if _, err := Load(empty); err == nil {
		t.Error("Load() of whitespace-only file: expected error")
	}
}

func TestPickIsDeterministicPerSeed(t *testing.T) {
	words := []string{"alpha", "beta", "gamma", "delta", "epsilon"}

	first, err := Pick(words, 12345)
	if err != nil {
		t.Fatalf("Pick() error = %v", err)
	}
	second, err := Pick(words, 12345)
	if err != nil {
		t.Fatalf("Pick() error = %v", err)
	}
	if first != second {
		t.Errorf("same seed picked %q then %q", first, second)
	}

	found := false
	for _, w := range words {
		if w == first {
			found = true
		}
	}
	if !found {
		t.Errorf("Pick() returned %q, not in corpus", first)
	}

	if _, err := Pick(nil, 1); err == nil {
		t.Error("Pick() on empty corpus: expected error")
	}
}

func TestCount(t *testing.T) {
	words := strings.Fields("the cat and the dog and the bird")

	if got := Count("the", words); got != 3 {
		t.Errorf("Count(the) = %d, want 3", got)
	}
	if got := Count("fish", words); got != 0 {
		t.Errorf("Count(fish) = %d, want 0", got)
	}
}

func TestWorkConstructors(t *testing.T) {
	words := []string{"one", "two", "two"}
	ctx := context.Background()

	word, err := PickWork(words, 7).Run(ctx)
	if err != nil {
		t.Fatalf("PickWork run error = %v", err)
	}
	if word == "" {
		t.Error("PickWork returned empty result")
	}

	out, err := CountWork("two", words).Run(ctx)
	if err != nil {
		t.Fatalf("CountWork run error = %v", err)
	}
	if !strings.Contains(out, "2 times") {
		t.Errorf("CountWork result = %q, want occurrence count 2", out)
	}
}
