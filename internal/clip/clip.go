// Package clip provides text access to the system clipboard. New picks the
// first backend that works on this machine:
//
//	native.go    golang.design/x/clipboard (X11, macOS, Windows; needs cgo)
//	command.go   github.com/atotto/clipboard (xclip, xsel, wl-clipboard, pbcopy)
//	headless.go  no display at all; reads fail with ErrUnavailable
package clip

import (
	"context"
	"errors"
	"log/slog"
)

// ErrUnavailable is returned by backends that cannot reach a clipboard.
var ErrUnavailable = errors.New("clipboard unavailable")

// Source reads the current clipboard text. An empty string with a nil error
// means the clipboard holds no text.
type Source interface {
	ReadText(ctx context.Context) (string, error)
}

// Sink replaces the clipboard text.
type Sink interface {
	WriteText(text string) error
}

// Backend is the interface that all clipboard implementations satisfy.
type Backend interface {
	Source
	Sink

	// Name returns a human-readable name for the backend.
	Name() string

	// Close releases any resources held by the backend.
	Close()
}

// New returns the best available backend. Initialisation is deferred to here
// rather than init() so CLI subcommands that never touch the clipboard don't
// log spurious warnings on headless systems.
func New() Backend {
	b, err := newNative()
	if err == nil {
		return b
	}
	slog.Debug("native clipboard unavailable", "err", err)

	c, err := newCommand()
	if err != nil {
		slog.Warn("clipboard unavailable, running headless", "err", err)
		return headlessBackend{}
	}
	return c
}
