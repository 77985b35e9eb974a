// Package vault wires the history store to its collaborators: the clipboard
// poller feeds it, the privacy filter screens captures, a debounced persister
// writes it to disk, and activation writes entries back to the clipboard.
package vault

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.klb.dev/clipvault/internal/clip"
	"go.klb.dev/clipvault/internal/debounce"
	"go.klb.dev/clipvault/internal/history"
	"go.klb.dev/clipvault/internal/hub"
	"go.klb.dev/clipvault/internal/logging"
	"go.klb.dev/clipvault/internal/poller"
	"go.klb.dev/clipvault/internal/privacy"
	"go.klb.dev/clipvault/internal/search"
	"go.klb.dev/clipvault/internal/storage"
)

// DefaultSaveDelay is how long the persister waits for changes to settle.
const DefaultSaveDelay = time.Second

var (
	// ErrNotFound is returned when no entry has the requested text or index.
	ErrNotFound = errors.New("no such entry")

	// ErrEmptyText is returned when blank text is activated.
	ErrEmptyText = errors.New("text is empty")
)

// Config is the explicit configuration passed to New. Apply updates the
// mutable subset at runtime.
type Config struct {
	MaxItems           int
	PersistHistory     bool
	IgnorePasswordLike bool
	IgnorePatterns     []string
	PollInterval       time.Duration
	SaveDelay          time.Duration
	DataDir            string
	RetainLastSeen     bool

	// Clock overrides time.Now for capture timestamps.
	Clock func() time.Time
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		MaxItems:           history.DefaultMaxItems,
		PersistHistory:     true,
		IgnorePasswordLike: true,
		PollInterval:       poller.DefaultInterval,
		SaveDelay:          DefaultSaveDelay,
		RetainLastSeen:     true,
	}
}

// Vault is the running clipboard history.
type Vault struct {
	store   *history.Store
	paths   storage.Paths
	dataDir string
	saver   *debounce.Debouncer
	poll    *poller.Poller
	backend clip.Backend
	hub     *hub.Hub

	mu      sync.RWMutex
	persist bool
	filter  *privacy.Filter

	captured atomic.Int64
	ignored  atomic.Int64
}

// New loads persisted state from cfg.DataDir, seeds the store and prepares
// the poller. Nothing runs until Start.
func New(cfg Config, backend clip.Backend) *Vault {
	if cfg.DataDir == "" {
		cfg.DataDir = storage.DefaultDataDir()
	}
	if cfg.SaveDelay <= 0 {
		cfg.SaveDelay = DefaultSaveDelay
	}

	v := &Vault{
		paths:   storage.PathsIn(cfg.DataDir),
		dataDir: cfg.DataDir,
		backend: backend,
		hub:     hub.New(),
		persist: cfg.PersistHistory,
		filter:  privacy.NewFilter(cfg.IgnorePasswordLike, cfg.IgnorePatterns),
	}

	var opts []history.Option
	if cfg.Clock != nil {
		opts = append(opts, history.WithClock(cfg.Clock))
	}
	initial := storage.LoadMerged(v.paths, cfg.PersistHistory)
	v.store = history.New(cfg.MaxItems, initial, opts...)

	v.saver = debounce.New(v.save, cfg.SaveDelay)
	v.hub.Publish(v.store.Items())
	v.store.SetOnChange(v.changed)

	v.poll = poller.New(backend, func(text string) { v.HandleClipboardText(text) }, poller.Options{
		Interval:       cfg.PollInterval,
		RetainLastSeen: cfg.RetainLastSeen,
	})

	slog.Info("history loaded",
		"entries", v.store.Len(),
		"max_items", v.store.MaxItems(),
		"persist_history", cfg.PersistHistory,
		"dir", cfg.DataDir,
	)
	return v
}

// Start begins watching the clipboard.
func (v *Vault) Start() { v.poll.Start() }

// Close stops the poller and writes any pending state to disk.
func (v *Vault) Close() {
	v.poll.Stop()
	v.saver.Flush()
}

// Watch registers w to receive a snapshot after every change, starting with
// the current one.
func (v *Vault) Watch(w hub.Watcher) { v.hub.Register(w) }

// Unwatch removes a watcher added with Watch.
func (v *Vault) Unwatch(w hub.Watcher) { v.hub.Unregister(w) }

func (v *Vault) changed() {
	v.saver.Run()
	v.hub.Publish(v.store.Items())
}

// HandleClipboardText records a clipboard change unless the filter rejects
// it. It reports whether the text was recorded.
func (v *Vault) HandleClipboardText(text string) bool {
	v.mu.RLock()
	f := v.filter
	v.mu.RUnlock()

	if f.ShouldIgnore(text) {
		v.ignored.Add(1)
		slog.Debug("capture ignored by filter")
		return false
	}
	_, existed := v.store.Lookup(text)
	if !v.store.AddText(text) {
		return false
	}
	v.captured.Add(1)
	if existed {
		slog.Debug("recaptured, moved to top", "preview", logging.Preview(text))
	} else {
		slog.Debug("captured", "preview", logging.Preview(text))
	}
	return true
}

// Activate writes text to the clipboard and records it as the latest
// capture. The poller is told about the text first so it does not report
// the write as a new copy.
func (v *Vault) Activate(text string) (err error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyText
	}

	v.poll.SetLastSeen(text)
	defer func() {
		if r := recover(); r != nil {
			slog.Error("clipboard write panicked", "panic", r)
			err = fmt.Errorf("clipboard write panicked: %v", r)
		}
	}()
	if err := v.backend.WriteText(text); err != nil {
		slog.Warn("clipboard set failed", "err", err)
		return fmt.Errorf("activate: %w", err)
	}

	if _, ok := v.store.Lookup(text); ok {
		v.store.AddText(text)
	} else {
		v.HandleClipboardText(text)
	}
	slog.Debug("entry activated", "preview", logging.Preview(text))
	return nil
}

// ActivateIndex activates the entry at position i of the current snapshot
// and returns its text.
func (v *Vault) ActivateIndex(i int) (string, error) {
	items := v.store.Items()
	if i < 0 || i >= len(items) {
		return "", fmt.Errorf("index %d: %w", i, ErrNotFound)
	}
	text := items[i].Text
	return text, v.Activate(text)
}

// SetPinned sets the pinned flag of the entry with the given text. It
// reports whether the flag changed.
func (v *Vault) SetPinned(text string, pinned bool) (bool, error) {
	if _, ok := v.store.Lookup(text); !ok {
		return false, ErrNotFound
	}
	return v.store.SetPinned(text, pinned), nil
}

// SetFavorite sets the favorite flag of the entry with the given text. It
// reports whether the flag changed.
func (v *Vault) SetFavorite(text string, favorite bool) (bool, error) {
	if _, ok := v.store.Lookup(text); !ok {
		return false, ErrNotFound
	}
	return v.store.SetFavorite(text, favorite), nil
}

// Add records text as if it had been copied, subject to the filter.
func (v *Vault) Add(text string) bool { return v.HandleClipboardText(text) }

// Items returns the current snapshot in display order.
func (v *Vault) Items() []history.Entry { return v.store.Items() }

// Search queries the current snapshot.
func (v *Vault) Search(query string, opts search.Options) search.Page {
	return search.Query(v.store.Items(), query, opts)
}

// Clear removes every entry and deletes both persisted files.
func (v *Vault) Clear() {
	v.store.Clear()
	// Drop the save scheduled by Clear so it cannot recreate the files.
	v.saver.Cancel()
	_ = storage.Delete(v.paths.History)
	_ = storage.Delete(v.paths.Pinned)
	slog.Info("history cleared")
}

// SetMaxItems changes the store capacity.
func (v *Vault) SetMaxItems(n int) {
	v.store.SetMaxItems(n)
	slog.Info("max items changed", "max_items", v.store.MaxItems())
}

// SetPersistHistory turns saving of the full history on or off. Turning it
// off deletes the history file; pinned and favorite entries are still saved.
func (v *Vault) SetPersistHistory(on bool) {
	v.mu.Lock()
	if v.persist == on {
		v.mu.Unlock()
		return
	}
	v.persist = on
	v.mu.Unlock()

	if !on {
		v.saver.Cancel()
		_ = storage.Delete(v.paths.History)
	}
	v.saver.Run()
	slog.Info("persist history changed", "persist_history", on)
}

// SetFilter replaces the capture filter.
func (v *Vault) SetFilter(passwordLike bool, patterns []string) {
	f := privacy.NewFilter(passwordLike, patterns)
	v.mu.Lock()
	v.filter = f
	v.mu.Unlock()
}

// Apply updates the runtime-adjustable settings from cfg.
func (v *Vault) Apply(cfg Config) {
	if max(1, cfg.MaxItems) != v.store.MaxItems() {
		v.SetMaxItems(cfg.MaxItems)
	}
	v.SetPersistHistory(cfg.PersistHistory)

	v.mu.RLock()
	cur := v.filter
	v.mu.RUnlock()
	next := privacy.NewFilter(cfg.IgnorePasswordLike, cfg.IgnorePatterns)
	if cur.PasswordLike != next.PasswordLike || !slices.Equal(cur.Patterns, next.Patterns) {
		v.SetFilter(cfg.IgnorePasswordLike, cfg.IgnorePatterns)
		slog.Info("capture filter changed",
			"ignore_password_like", next.PasswordLike,
			"patterns", len(next.Patterns),
		)
	}
}

// Status is a point-in-time summary of the vault.
type Status struct {
	Entries        int    `json:"entries"`
	Pinned         int    `json:"pinned"`
	Favorites      int    `json:"favorites"`
	MaxItems       int    `json:"max_items"`
	PersistHistory bool   `json:"persist_history"`
	Polling        bool   `json:"polling"`
	Backend        string `json:"backend"`
	DataDir        string `json:"data_dir"`
	Captured       int64  `json:"captured"`
	Ignored        int64  `json:"ignored"`
	Watchers       int    `json:"watchers"`
}

// Status returns the current summary.
func (v *Vault) Status() Status {
	st := Status{
		MaxItems: v.store.MaxItems(),
		Polling:  v.poll.Running(),
		Backend:  v.backend.Name(),
		DataDir:  v.dataDir,
		Captured: v.captured.Load(),
		Ignored:  v.ignored.Load(),
		Watchers: v.hub.Watchers(),
	}
	for _, e := range v.store.Items() {
		st.Entries++
		switch e.Section() {
		case history.SectionPinned:
			st.Pinned++
		case history.SectionFavorite:
			st.Favorites++
		}
	}
	v.mu.RLock()
	st.PersistHistory = v.persist
	v.mu.RUnlock()
	return st
}

// save writes the durable subset always and the full snapshot when history
// persistence is on. Failures are logged by the codec.
func (v *Vault) save() {
	_ = storage.Save(v.paths.Pinned, v.store.PinnedAndFavorites(), storage.WithIDs)

	v.mu.RLock()
	persist := v.persist
	v.mu.RUnlock()
	if persist {
		_ = storage.Save(v.paths.History, v.store.Items(), storage.WithoutIDs)
	}
}
