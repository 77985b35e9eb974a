// Package search filters history snapshots for display.
package search

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/sahilm/fuzzy"

	"go.klb.dev/clipvault/internal/history"
)

// Mode selects the matching algorithm.
type Mode string

const (
	ModeSubstring Mode = "substring"
	ModeFuzzy     Mode = "fuzzy"
)

const (
	// DefaultLimit caps the number of results when Options.Limit is zero.
	DefaultLimit = 30

	// PreviewWidth is the display width of Result.Preview, in terminal cells.
	PreviewWidth = 48
)

// Options tunes Query.
type Options struct {
	Mode  Mode
	Limit int              // <= 0 means DefaultLimit
	Now   func() time.Time // for Result.Age; nil means time.Now
}

// Result is one matching entry.
type Result struct {
	Entry   history.Entry `json:"entry"`
	Index   int           `json:"index"` // position in the queried snapshot
	Preview string        `json:"preview"`
	Age     string        `json:"age"`
}

// Page holds the results of a query. Total counts every match, including
// those cut off by the limit.
type Page struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
}

// ParseMode converts a string to a Mode, defaulting to ModeSubstring.
func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), string(ModeFuzzy)) {
		return ModeFuzzy
	}
	return ModeSubstring
}

// Query returns the entries of items matching query. The query is trimmed and
// matched case-insensitively. An empty query matches everything in snapshot
// order. Substring matches keep snapshot order; fuzzy matches are ranked by
// score with ties in snapshot order.
func Query(items []history.Entry, query string, opts Options) Page {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	query = strings.ToLower(strings.TrimSpace(query))
	var idx []int
	switch {
	case query == "":
		idx = make([]int, len(items))
		for i := range items {
			idx[i] = i
		}
	case opts.Mode == ModeFuzzy:
		idx = fuzzyMatch(items, query)
	default:
		for i, e := range items {
			if strings.Contains(strings.ToLower(e.Text), query) {
				idx = append(idx, i)
			}
		}
	}

	page := Page{Total: len(idx)}
	t := now()
	for _, i := range idx[:min(limit, len(idx))] {
		page.Results = append(page.Results, Result{
			Entry:   items[i],
			Index:   i,
			Preview: Preview(items[i].Text, PreviewWidth),
			Age:     Age(t.Sub(items[i].Timestamp)),
		})
	}
	return page
}

func fuzzyMatch(items []history.Entry, query string) []int {
	targets := make([]string, len(items))
	for i, e := range items {
		targets[i] = strings.ToLower(e.Text)
	}
	matches := fuzzy.Find(query, targets)
	slices.SortStableFunc(matches, func(a, b fuzzy.Match) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Index, b.Index)
	})
	idx := make([]int, len(matches))
	for i, m := range matches {
		idx[i] = m.Index
	}
	return idx
}

// Preview collapses whitespace runs to single spaces and truncates s to
// width display cells.
func Preview(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	return runewidth.Truncate(s, width, "…")
}

// Age renders d as a short relative time.
func Age(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d/time.Hour))
	default:
		return fmt.Sprintf("%dd ago", int(d/(24*time.Hour)))
	}
}
