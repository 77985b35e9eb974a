package history

import "time"

// Entry is one clipboard capture. Text is the dedupe key and is always
// whitespace-trimmed and non-empty.
type Entry struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Pinned    bool      `json:"pinned,omitempty"`
	Favorite  bool      `json:"favorite,omitempty"`
}

// Recent reports whether the entry is neither pinned nor a favorite and is
// therefore subject to capacity pruning.
func (e Entry) Recent() bool { return !e.Pinned && !e.Favorite }

// Section names the display partition an entry belongs to.
type Section string

const (
	SectionPinned   Section = "pinned"
	SectionFavorite Section = "favorite"
	SectionRecent   Section = "recent"
)

// Section returns the display partition of e. Pinned wins over favorite.
func (e Entry) Section() Section {
	switch {
	case e.Pinned:
		return SectionPinned
	case e.Favorite:
		return SectionFavorite
	default:
		return SectionRecent
	}
}
