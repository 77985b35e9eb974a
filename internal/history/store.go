// Package history implements the clipboard history store: an ordered,
// text-deduplicated, capacity-bounded collection of entries with pinned and
// favorite sections.
//
// Display order is always pinned entries, then favorites that are not
// pinned, then recents newest first. Pinned and favorite entries keep the
// relative order in which they joined their section and are never evicted;
// only recents are pruned to fit MaxItems.
package history

import (
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
)

// DefaultMaxItems is the capacity used when none is configured.
const DefaultMaxItems = 50

// Store owns the entry collection. All reads return copies.
//
// Mutations are serialised. The change listener runs synchronously after
// each mutation that changed observable state, outside the state lock and in
// mutation order, so it may read the store but must not mutate it.
//
// Lock order is notifyMu then mu. Readers take only mu.
type Store struct {
	mu       sync.Mutex
	maxItems int
	items    []*Entry // display order
	byText   map[string]*Entry
	nextID   int64
	now      func() time.Time
	onChange func()

	// notifyMu is held by a mutator from before it takes mu until its
	// listener call returns, so notifications arrive in mutation order.
	notifyMu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for capture timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns a Store capped at maxItems (minimum 1) and seeded with
// initial. Seed entries with blank or repeated text are dropped, missing ids
// are assigned, zero timestamps become now. Seeding does not notify.
func New(maxItems int, initial []Entry, opts ...Option) *Store {
	s := &Store{
		maxItems: max(1, maxItems),
		byText:   make(map[string]*Entry),
		nextID:   1,
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}

	for _, e := range initial {
		if e.ID >= s.nextID {
			s.nextID = e.ID + 1
		}
	}
	used := make(map[int64]bool, len(initial))
	for _, e := range initial {
		text := strings.TrimSpace(e.Text)
		if text == "" {
			continue
		}
		if _, dup := s.byText[text]; dup {
			continue
		}
		entry := e
		entry.Text = text
		if entry.ID <= 0 || used[entry.ID] {
			entry.ID = s.nextID
			s.nextID++
		}
		used[entry.ID] = true
		if entry.Timestamp.IsZero() {
			entry.Timestamp = s.now()
		}
		s.items = append(s.items, &entry)
		s.byText[text] = &entry
	}
	s.reorderLocked()
	return s
}

// SetOnChange registers the single change listener, replacing any previous
// one. A nil fn removes it.
func (s *Store) SetOnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// AddText records a capture. Blank text is rejected. Text already present
// gets a fresh timestamp and, if it is a recent, moves to the front of the
// recents; otherwise a new entry is created at the front. Reports whether
// the store changed, which is true for every accepted capture.
func (s *Store) AddText(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	s.lock()
	if existing, ok := s.byText[text]; ok {
		existing.Timestamp = s.now()
		if existing.Recent() {
			s.items = moveToFront(s.items, existing)
		}
		s.reorderLocked()
		s.notifyAndUnlock()
		return true
	}

	entry := &Entry{
		ID:        s.nextID,
		Text:      text,
		Timestamp: s.now(),
	}
	s.nextID++
	s.items = slices.Insert(s.items, 0, entry)
	s.byText[text] = entry
	s.reorderLocked()
	s.notifyAndUnlock()
	return true
}

// SetPinned sets the pinned flag of the entry whose text matches. Reports
// false when there is no such entry or the flag already has that value.
func (s *Store) SetPinned(text string, pinned bool) bool {
	return s.setFlag(text, func(e *Entry) *bool { return &e.Pinned }, pinned)
}

// SetFavorite sets the favorite flag of the entry whose text matches.
// Reports false when there is no such entry or the flag already has that
// value.
func (s *Store) SetFavorite(text string, favorite bool) bool {
	return s.setFlag(text, func(e *Entry) *bool { return &e.Favorite }, favorite)
}

func (s *Store) setFlag(text string, field func(*Entry) *bool, v bool) bool {
	text = strings.TrimSpace(text)

	s.lock()
	e, ok := s.byText[text]
	if !ok || *field(e) == v {
		s.unlock()
		return false
	}
	*field(e) = v
	s.reorderLocked()
	s.notifyAndUnlock()
	return true
}

// SetMaxItems changes the capacity (minimum 1), prunes recents to fit and
// always notifies.
func (s *Store) SetMaxItems(n int) {
	s.lock()
	s.maxItems = max(1, n)
	s.reorderLocked()
	s.notifyAndUnlock()
}

// MaxItems returns the current capacity.
func (s *Store) MaxItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxItems
}

// Items returns a copy of all entries in display order.
func (s *Store) Items() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.items))
	for i, e := range s.items {
		out[i] = *e
	}
	return out
}

// PinnedAndFavorites returns copies of the entries that are pinned or
// favorite, in display order. This is the durable subset that outlives the
// capacity bound.
func (s *Store) PinnedAndFavorites() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Entry
	for _, e := range s.items {
		if !e.Recent() {
			out = append(out, *e)
		}
	}
	return out
}

// Lookup returns a copy of the entry with the given text.
func (s *Store) Lookup(text string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byText[strings.TrimSpace(text)]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Clear removes every entry, pinned and favorite included, and notifies.
func (s *Store) Clear() {
	s.lock()
	s.items = nil
	clear(s.byText)
	s.notifyAndUnlock()
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// reorderLocked restores the display order and prunes recents beyond the
// capacity left over by pinned and favorite entries.
func (s *Store) reorderLocked() {
	pinned, favorite, recents := partition(s.items)
	slices.SortStableFunc(recents, func(a, b *Entry) int {
		return b.Timestamp.Compare(a.Timestamp)
	})

	budget := max(0, s.maxItems-len(pinned)-len(favorite))
	if len(recents) > budget {
		for _, e := range recents[budget:] {
			delete(s.byText, e.Text)
			slog.Debug("history entry evicted", "id", e.ID)
		}
		recents = recents[:budget]
	}

	items := make([]*Entry, 0, len(pinned)+len(favorite)+len(recents))
	items = append(items, pinned...)
	items = append(items, favorite...)
	s.items = append(items, recents...)
}

// lock takes the mutation locks.
func (s *Store) lock() {
	s.notifyMu.Lock()
	s.mu.Lock()
}

func (s *Store) unlock() {
	s.mu.Unlock()
	s.notifyMu.Unlock()
}

// notifyAndUnlock releases mu, runs the listener, if any, then releases
// notifyMu. It must be called with both held.
func (s *Store) notifyAndUnlock() {
	fn := s.onChange
	s.mu.Unlock()
	defer s.notifyMu.Unlock()
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("history change listener panicked", "panic", r)
		}
	}()
	fn()
}

func partition(items []*Entry) (pinned, favorite, recents []*Entry) {
	for _, e := range items {
		switch e.Section() {
		case SectionPinned:
			pinned = append(pinned, e)
		case SectionFavorite:
			favorite = append(favorite, e)
		default:
			recents = append(recents, e)
		}
	}
	return pinned, favorite, recents
}

// moveToFront returns items with e moved to the front of the recents.
func moveToFront(items []*Entry, e *Entry) []*Entry {
	pinned, favorite, recents := partition(items)
	rest := slices.DeleteFunc(recents, func(x *Entry) bool { return x == e })
	out := make([]*Entry, 0, len(items))
	out = append(out, pinned...)
	out = append(out, favorite...)
	out = append(out, e)
	return append(out, rest...)
}
