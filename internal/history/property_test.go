package history

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var vocabulary = []string{"a", "b", "c", "d", "e", "f", " a", "b ", "", "  "}

func TestStoreProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		maxItems := rapid.IntRange(1, 6).Draw(t, "maxItems")
		s := New(maxItems, nil, WithClock(newTickClock().Now))
		identity := map[string]Entry{}

		t.Repeat(map[string]func(*rapid.T){
			"add": func(t *rapid.T) {
				txt := rapid.SampledFrom(vocabulary).Draw(t, "text")
				before := s.Len()
				_, existed := s.Lookup(txt)
				changed := s.AddText(txt)
				if strings.TrimSpace(txt) == "" {
					require.False(t, changed)
					return
				}
				require.True(t, changed)
				if existed {
					require.LessOrEqual(t, s.Len(), before, "re-adding must not grow the store")
				}
			},
			"pin": func(t *rapid.T) {
				txt := rapid.SampledFrom(vocabulary).Draw(t, "text")
				v := rapid.Bool().Draw(t, "pinned")
				before, ok := s.Lookup(txt)
				s.SetPinned(txt, v)
				if ok {
					after, _ := s.Lookup(txt)
					require.Equal(t, before.ID, after.ID)
					require.Equal(t, before.Timestamp, after.Timestamp)
				}
			},
			"favorite": func(t *rapid.T) {
				txt := rapid.SampledFrom(vocabulary).Draw(t, "text")
				v := rapid.Bool().Draw(t, "favorite")
				before, ok := s.Lookup(txt)
				s.SetFavorite(txt, v)
				if ok {
					after, _ := s.Lookup(txt)
					require.Equal(t, before.ID, after.ID)
					require.Equal(t, before.Timestamp, after.Timestamp)
				}
			},
			"resize": func(t *rapid.T) {
				maxItems = rapid.IntRange(0, 6).Draw(t, "n")
				s.SetMaxItems(maxItems)
				maxItems = max(1, maxItems)
			},
			"": func(t *rapid.T) {
				checkInvariants(t, s.Items(), maxItems)
				for _, e := range s.Items() {
					if prev, ok := identity[e.Text]; ok {
						// ids never change for a text that stayed in the store
						// unless it was evicted and captured again.
						if prev.ID != e.ID {
							require.Greater(t, e.ID, prev.ID)
						}
					}
					identity[e.Text] = e
				}
			},
		})
	})
}

func checkInvariants(t *rapid.T, items []Entry, maxItems int) {
	seen := map[string]bool{}
	ids := map[int64]bool{}
	var pinned, favorite, recents int
	lastSection := 0
	var prevRecent *Entry

	for i := range items {
		e := items[i]
		require.NotEmpty(t, e.Text)
		require.Equal(t, strings.TrimSpace(e.Text), e.Text)
		require.False(t, seen[e.Text], "duplicate text %q", e.Text)
		seen[e.Text] = true
		require.False(t, ids[e.ID], "duplicate id %d", e.ID)
		ids[e.ID] = true

		section := 0
		switch e.Section() {
		case SectionPinned:
			pinned++
		case SectionFavorite:
			section = 1
			favorite++
		default:
			section = 2
			recents++
			if prevRecent != nil {
				require.False(t, e.Timestamp.After(prevRecent.Timestamp), "recents must be newest first")
			}
			prevRecent = &items[i]
		}
		require.GreaterOrEqual(t, section, lastSection, "sections out of order")
		lastSection = section
	}

	if pinned+favorite > maxItems {
		require.Zero(t, recents)
	} else {
		require.LessOrEqual(t, pinned+favorite+recents, maxItems)
	}
}
