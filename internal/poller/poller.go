// Package poller watches a clipboard source on a fixed interval and reports
// genuine changes of its text.
//
// At most one read is outstanding at a time; ticks that arrive while a read
// is in flight are skipped. Stop discards the result of any read still in
// flight and waits for a running callback to return, so no callback runs
// after Stop returns.
package poller

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.klb.dev/clipvault/internal/clip"
	"go.klb.dev/clipvault/internal/logging"
)

// DefaultInterval is the probe interval used when none is configured.
const DefaultInterval = 600 * time.Millisecond

// Options tunes a Poller.
type Options struct {
	// Interval between probes. Zero means DefaultInterval.
	Interval time.Duration

	// RetainLastSeen keeps the last reported text across Stop/Start so a
	// restart does not report the current clipboard as a new capture.
	RetainLastSeen bool
}

// Poller is a cancelable, single-flight repeating probe of a clip.Source.
type Poller struct {
	src      clip.Source
	onChange func(text string)
	opts     Options

	mu       sync.Mutex
	running  bool
	gen      uint64 // bumped by Start and Stop; stale reads compare against it
	pending  bool
	lastSeen string
	cancel   context.CancelFunc
	done     chan struct{}

	// deliverMu is held while a change is being delivered. Stop takes it to
	// wait out an in-progress callback.
	deliverMu sync.Mutex
}

// New returns an idle poller. onChange receives the trimmed, non-empty text
// each time the clipboard content differs from the last one seen. It must not
// call Stop.
func New(src clip.Source, onChange func(text string), opts Options) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	return &Poller{src: src, onChange: onChange, opts: opts}
}

// Start begins polling. Calling Start on a running poller is a no-op.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		slog.Debug("poller already running")
		return
	}
	p.running = true
	p.pending = false
	p.gen++

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.loop(ctx, p.done)

	slog.Info("clipboard poller started", "interval", p.opts.Interval)
}

// Stop halts polling. A read still in flight is abandoned and its result
// ignored. Stop on an idle poller is a no-op.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.pending = false
	p.gen++
	if !p.opts.RetainLastSeen {
		p.lastSeen = ""
	}
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	cancel()
	<-done

	// Wait for a delivery already in progress.
	p.deliverMu.Lock()
	p.deliverMu.Unlock()

	slog.Info("clipboard poller stopped")
}

// Running reports whether the poller is started.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// SetLastSeen records text as already observed. Activating an entry writes it
// to the clipboard; marking it seen first keeps the next probe from reporting
// it again.
func (p *Poller) SetLastSeen(text string) {
	p.mu.Lock()
	p.lastSeen = strings.TrimSpace(text)
	p.mu.Unlock()
}

// LastSeen returns the last observed trimmed text.
func (p *Poller) LastSeen() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastSeen
}

func (p *Poller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	t := time.NewTicker(p.opts.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.tick(ctx)
		}
	}
}

// tick issues a read unless one is already outstanding. It reports whether a
// read was issued.
func (p *Poller) tick(ctx context.Context) bool {
	p.mu.Lock()
	if !p.running || p.pending {
		p.mu.Unlock()
		return false
	}
	p.pending = true
	gen := p.gen
	p.mu.Unlock()

	go func() {
		text, err := p.src.ReadText(ctx)
		p.complete(gen, text, err)
	}()
	return true
}

func (p *Poller) complete(gen uint64, text string, err error) {
	p.deliverMu.Lock()
	defer p.deliverMu.Unlock()

	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		return
	}
	p.pending = false
	if err != nil {
		p.mu.Unlock()
		slog.Warn("clipboard read failed", "err", err)
		return
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == p.lastSeen {
		p.mu.Unlock()
		return
	}
	p.lastSeen = trimmed
	p.mu.Unlock()

	if trimmed == "" {
		return
	}
	slog.Debug("clipboard changed", "preview", logging.Preview(trimmed))
	p.deliver(trimmed)
}

func (p *Poller) deliver(text string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("clipboard change callback panicked", "panic", r)
		}
	}()
	if p.onChange != nil {
		p.onChange(text)
	}
}
