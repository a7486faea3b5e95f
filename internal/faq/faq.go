// Package faq provides keyword lookup over a small set of frequently asked
// questions. Questions match by normalized substring containment first, then
// by fuzzy similarity, so common typos still find an answer.
package faq

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	_ "embed"

	"github.com/treinafit/luka/internal/fuzzy"
)

// Cutoff is the minimum similarity for a fuzzy question match. FAQ questions
// are longer than menu vocabularies, so the bar sits slightly above the
// closed-vocabulary default.
const Cutoff = 0.65

//go:embed faqs.json
var embeddedFAQs []byte

// Entry is one question/answer pair.
type Entry struct {
	Q string `json:"q"`
	A string `json:"a"`
}

// Opts holds configuration options for the FAQ index.
type Opts struct {
	Path string
}

// Option defines a configuration option for the FAQ index.
type Option func(*Opts)

// WithPath loads entries from an external JSON file instead of the embedded set.
func WithPath(path string) Option {
	return func(o *Opts) { o.Path = path }
}

// Index answers free-text questions from its entry list.
type Index struct {
	entries []Entry
	// normalized question keys, aligned with entries
	keys []string
}

// NewIndex builds an FAQ index from the embedded entries, or from an external
// file when WithPath is given.
func NewIndex(opts ...Option) (*Index, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}

	data := embeddedFAQs
	if cfg.Path != "" {
		external, err := os.ReadFile(cfg.Path)
		if err != nil {
			slog.Error("FAQ index failed to read file", "error", err, "path", cfg.Path)
			return nil, fmt.Errorf("failed to read faq file %s: %w", cfg.Path, err)
		}
		data = external
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		slog.Error("FAQ index failed to parse entries", "error", err)
		return nil, fmt.Errorf("failed to parse faq entries: %w", err)
	}

	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = fuzzy.Normalize(e.Q)
	}
	slog.Debug("FAQ index loaded", "entries", len(entries))
	return &Index{entries: entries, keys: keys}, nil
}

// Lookup returns the answer for the closest question, or ("", false) when
// nothing matches. Containment wins over fuzzy similarity: a question key
// appearing inside the text is a direct hit.
func (ix *Index) Lookup(text string) (string, bool) {
	t := fuzzy.Normalize(text)
	if t == "" {
		return "", false
	}
	for i, key := range ix.keys {
		if key != "" && strings.Contains(t, key) {
			return ix.entries[i].A, true
		}
	}
	best := -1
	bestScore := 0.0
	for i, key := range ix.keys {
		score := fuzzy.Ratio(t, key)
		if score >= Cutoff && score > bestScore {
			best = i
			bestScore = score
		}
	}
	if best < 0 {
		return "", false
	}
	return ix.entries[best].A, true
}
