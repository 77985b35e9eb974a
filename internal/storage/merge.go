package storage

import (
	"strings"

	"go.klb.dev/clipvault/internal/history"
)

// Merge combines the pinned/favorite collection with the recents collection
// for seeding a store. On duplicate trimmed text the pinned record wins and
// the recents record is dropped. Blank records are dropped.
func Merge(pinned, recents []history.Entry) []history.Entry {
	seen := make(map[string]struct{}, len(pinned)+len(recents))
	out := make([]history.Entry, 0, len(pinned)+len(recents))
	for _, set := range [][]history.Entry{pinned, recents} {
		for _, e := range set {
			key := strings.TrimSpace(e.Text)
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, e)
		}
	}
	return out
}

// LoadMerged loads the file pair and merges it. The history file is only
// read when includeHistory is set.
func LoadMerged(p Paths, includeHistory bool) []history.Entry {
	pinned := Load(p.Pinned)
	var recents []history.Entry
	if includeHistory {
		recents = Load(p.History)
	}
	return Merge(pinned, recents)
}
