//go:build linux || darwin || windows

package clip

import (
	"context"
	"fmt"

	"golang.design/x/clipboard"
)

type nativeBackend struct{}

func newNative() (Backend, error) {
	if err := clipboard.Init(); err != nil {
		return nil, fmt.Errorf("clipboard init: %w", err)
	}
	return nativeBackend{}, nil
}

func (nativeBackend) Name() string { return "native (golang.design/x/clipboard)" }

func (nativeBackend) ReadText(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return string(clipboard.Read(clipboard.FmtText)), nil
}

func (nativeBackend) WriteText(text string) error {
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}

func (nativeBackend) Close() {}
