package clip

import (
	"context"
	"fmt"

	"github.com/atotto/clipboard"
)

// commandBackend shells out to the platform clipboard tools. It covers
// Wayland sessions and cgo-less builds where the native backend cannot start.
type commandBackend struct{}

func newCommand() (Backend, error) {
	if clipboard.Unsupported {
		return nil, fmt.Errorf("no clipboard utility found (install xclip, xsel or wl-clipboard): %w", ErrUnavailable)
	}
	return commandBackend{}, nil
}

func (commandBackend) Name() string { return "command (atotto/clipboard)" }

func (commandBackend) ReadText(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("read clipboard: %w", err)
	}
	return text, nil
}

func (commandBackend) WriteText(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	return nil
}

func (commandBackend) Close() {}
