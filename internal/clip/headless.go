package clip

import "context"

// headlessBackend is used when no display server or clipboard utility is
// available (servers, containers, CI). Reads and writes fail.
type headlessBackend struct{}

func (headlessBackend) Name() string { return "headless (no-op)" }

func (headlessBackend) ReadText(context.Context) (string, error) { return "", ErrUnavailable }

func (headlessBackend) WriteText(string) error { return ErrUnavailable }

func (headlessBackend) Close() {}
