// Package hub fans history changes out to watchers. It is
// transport-agnostic: watchers register, receive events through Send, and
// the vault publishes a snapshot after every change.
package hub

import (
	"log/slog"
	"sync"
	"time"

	"go.klb.dev/clipvault/internal/history"
)

// Event is a history change delivered to a watcher.
type Event struct {
	Seq   uint64          `json:"seq"`
	Time  time.Time       `json:"time"`
	Items []history.Entry `json:"items"`
}

// Watcher is anything that can receive history events from the hub.
type Watcher interface {
	ID() string
	// Send delivers an event to the watcher. Must be non-blocking.
	Send(Event)
}

// Hub routes history changes to all registered watchers.
type Hub struct {
	mu       sync.RWMutex
	watchers map[string]Watcher
	latest   *Event
	seq      uint64
	now      func() time.Time
}

// New returns an empty Hub.
func New() *Hub {
	return &Hub{
		watchers: make(map[string]Watcher),
		now:      time.Now,
	}
}

// Register adds a watcher and immediately delivers the latest snapshot, if
// one was published.
func (h *Hub) Register(w Watcher) {
	h.mu.Lock()
	h.watchers[w.ID()] = w
	latest := h.latest
	total := len(h.watchers)
	h.mu.Unlock()

	slog.Info("watcher registered", "watcher", w.ID(), "total", total)

	if latest != nil {
		w.Send(*latest)
	}
}

// Unregister removes a watcher.
func (h *Hub) Unregister(w Watcher) {
	h.mu.Lock()
	delete(h.watchers, w.ID())
	total := len(h.watchers)
	h.mu.Unlock()

	slog.Info("watcher unregistered", "watcher", w.ID(), "total", total)
}

// Publish records items as the latest snapshot and delivers it to every
// watcher. Callers pass a snapshot they no longer mutate.
func (h *Hub) Publish(items []history.Entry) {
	h.mu.Lock()
	h.seq++
	ev := Event{Seq: h.seq, Time: h.now(), Items: items}
	h.latest = &ev
	targets := make([]Watcher, 0, len(h.watchers))
	for _, w := range h.watchers {
		targets = append(targets, w)
	}
	h.mu.Unlock()

	for _, w := range targets {
		w.Send(ev)
	}
}

// Watchers returns the number of registered watchers.
func (h *Hub) Watchers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.watchers)
}

// ChanWatcher is a Watcher backed by a buffered channel. When the buffer is
// full the oldest pending event is dropped, since every event carries a full
// snapshot.
type ChanWatcher struct {
	id string
	ch chan Event
}

// NewChanWatcher returns a watcher with room for buf pending events.
func NewChanWatcher(id string, buf int) *ChanWatcher {
	return &ChanWatcher{id: id, ch: make(chan Event, max(1, buf))}
}

func (w *ChanWatcher) ID() string { return w.id }

// C returns the event channel.
func (w *ChanWatcher) C() <-chan Event { return w.ch }

func (w *ChanWatcher) Send(ev Event) {
	for {
		select {
		case w.ch <- ev:
			return
		default:
		}
		select {
		case <-w.ch:
			slog.Debug("watcher channel full, dropping oldest", "watcher", w.id)
		default:
		}
	}
}
