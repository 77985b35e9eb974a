// Package storage persists history entries as JSON arrays on disk.
//
// Files are UTF-8 JSON arrays of records
//
//	{"id": 3, "text": "...", "timestamp": 1718000000000, "pinned": true, "favorite": false}
//
// where id is optional and timestamp is Unix milliseconds. Writes go to a
// temporary sibling file that is renamed over the target, so a reader never
// observes a partially written file. Reads never fail: unreadable or
// malformed input degrades to an empty or partial result.
package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"go.klb.dev/clipvault/internal/history"
)

// Projection selects which fields Save writes.
type Projection int

const (
	// WithoutIDs omits entry ids; they are reassigned on load.
	WithoutIDs Projection = iota
	// WithIDs keeps entry ids so they survive a restart.
	WithIDs
)

const (
	dirPerm  = 0o700
	filePerm = 0o600
)

type record struct {
	ID        int64  `json:"id,omitempty"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
	Pinned    bool   `json:"pinned"`
	Favorite  bool   `json:"favorite"`
}

// Load reads the entries stored at path. A missing file, an unreadable file,
// invalid JSON, or a top-level value other than an array all yield an empty
// result. Records without a string "text" field are dropped; other fields
// default (timestamp to now, flags to false, id to unset).
func Load(path string) []history.Entry {
	return load(path, time.Now)
}

func load(path string, now func() time.Time) []history.Entry {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("history load failed", "path", path, "err", err)
		}
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		slog.Warn("history file is not a JSON array, ignoring", "path", path, "err", err)
		return nil
	}

	out := make([]history.Entry, 0, len(raw))
	dropped := 0
	for _, r := range raw {
		e, ok := decodeRecord(r, now)
		if !ok {
			dropped++
			continue
		}
		out = append(out, e)
	}
	if dropped > 0 {
		slog.Warn("dropped malformed history records", "path", path, "dropped", dropped)
	}
	slog.Debug("history loaded", "path", path, "entries", len(out))
	return out
}

func decodeRecord(r json.RawMessage, now func() time.Time) (history.Entry, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(r, &fields); err != nil || fields == nil {
		return history.Entry{}, false
	}

	rawText, ok := fields["text"]
	if !ok || isNull(rawText) {
		return history.Entry{}, false
	}
	var e history.Entry
	if err := json.Unmarshal(rawText, &e.Text); err != nil {
		return history.Entry{}, false
	}

	var id float64
	if decodeField(fields, "id", &id) && id > 0 && id == math.Trunc(id) && id < 1<<53 {
		e.ID = int64(id)
	}
	var ms float64
	if decodeField(fields, "timestamp", &ms) {
		e.Timestamp = time.UnixMilli(int64(ms))
	} else {
		e.Timestamp = now()
	}
	e.Pinned = truthy(fields["pinned"])
	e.Favorite = truthy(fields["favorite"])
	return e, true
}

// truthy reads a flag the way the desktop extension does: false, 0, "" and
// null are false, anything else present is true.
func truthy(raw json.RawMessage) bool {
	if len(raw) == 0 || isNull(raw) {
		return false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch x := v.(type) {
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != ""
	default:
		return true
	}
}

// decodeField unmarshals fields[key] into v, reporting success. Absent,
// null, and mistyped values leave v untouched.
func decodeField(fields map[string]json.RawMessage, key string, v any) bool {
	raw, ok := fields[key]
	if !ok || isNull(raw) {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// Save atomically replaces path with entries. On failure the previous file is
// left untouched, the temporary file is removed, and the error is logged and
// returned.
func Save(path string, entries []history.Entry, proj Projection) error {
	if err := save(path, entries, proj); err != nil {
		slog.Warn("history save failed", "path", path, "err", err)
		return err
	}
	slog.Debug("history saved", "path", path, "entries", len(entries))
	return nil
}

func save(path string, entries []history.Entry, proj Projection) error {
	records := make([]record, len(entries))
	for i, e := range entries {
		records[i] = record{
			Text:      e.Text,
			Timestamp: e.Timestamp.UnixMilli(),
			Pinned:    e.Pinned,
			Favorite:  e.Favorite,
		}
		if proj == WithIDs {
			records[i].ID = e.ID
		}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	success := false
	defer func() {
		if success {
			return
		}
		if err := os.Remove(tmpPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("failed to remove temporary file", "path", tmpPath, "err", err)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, filePerm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	success = true
	return nil
}

// Delete removes path. A missing file is not an error.
func Delete(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("history delete failed", "path", path, "err", err)
		return err
	}
	return nil
}
