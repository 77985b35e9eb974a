package storage

import (
	"os"
	"path/filepath"
	"runtime"
)

const (
	appDir          = "clipvault"
	HistoryFilename = "history.json"
	PinnedFilename  = "pinned.json"
)

// DefaultDataDir returns the per-user data directory for clipvault:
// $XDG_DATA_HOME/clipvault, falling back to ~/.local/share/clipvault, or
// %LOCALAPPDATA%\clipvault on Windows.
func DefaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, appDir)
	}
	if runtime.GOOS == "windows" {
		if dir := os.Getenv("LOCALAPPDATA"); dir != "" {
			return filepath.Join(dir, appDir)
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), appDir)
	}
	return filepath.Join(home, ".local", "share", appDir)
}

// Paths locates the two persisted collections.
type Paths struct {
	// History holds the capacity-bounded snapshot.
	History string
	// Pinned holds the uncapped pinned and favorite entries.
	Pinned string
}

// PathsIn returns the file pair inside dir.
func PathsIn(dir string) Paths {
	return Paths{
		History: filepath.Join(dir, HistoryFilename),
		Pinned:  filepath.Join(dir, PinnedFilename),
	}
}
