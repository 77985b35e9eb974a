package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/clipvault/internal/history"
)

var fixedNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), HistoryFilename)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	ts := time.Date(2026, 2, 3, 4, 5, 6, 789_654_321, time.UTC)
	entries := []history.Entry{
		{ID: 4, Text: "pinned", Timestamp: ts, Pinned: true},
		{ID: 9, Text: "fav", Timestamp: ts.Add(time.Second), Favorite: true},
		{ID: 2, Text: "both", Timestamp: ts.Add(2 * time.Second), Pinned: true, Favorite: true},
		{ID: 1, Text: "plain\nmulti line ✓", Timestamp: ts.Add(3 * time.Second)},
	}
	path := filepath.Join(t.TempDir(), "nested", PinnedFilename)

	require.NoError(t, Save(path, entries, WithIDs))
	got := Load(path)

	want := make([]history.Entry, len(entries))
	for i, e := range entries {
		e.Timestamp = e.Timestamp.Truncate(time.Millisecond)
		want[i] = e
	}
	equalTime := cmp.Comparer(func(a, b time.Time) bool { return a.Equal(b) })
	if diff := cmp.Diff(want, got, equalTime); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSave_WithoutIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), HistoryFilename)
	require.NoError(t, Save(path, []history.Entry{{ID: 5, Text: "a", Timestamp: fixedNow}}, WithoutIDs))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"id"`)

	got := Load(path)
	require.Len(t, got, 1)
	assert.Zero(t, got[0].ID)
}

func TestSave_FilePermissionsAndNoTempLeft(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, HistoryFilename)
	require.NoError(t, Save(path, []history.Entry{{Text: "a", Timestamp: fixedNow}}, WithoutIDs))
	require.NoError(t, Save(path, []history.Entry{{Text: "b", Timestamp: fixedNow}}, WithoutIDs))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, HistoryFilename, entries[0].Name())

	got := Load(path)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].Text)
}

func TestSave_FailureLeavesTargetAndCleansTemp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, HistoryFilename)
	// A non-empty directory at the target path makes the rename fail.
	require.NoError(t, os.MkdirAll(filepath.Join(path, "keep"), 0o700))

	err := Save(path, []history.Entry{{Text: "a", Timestamp: fixedNow}}, WithoutIDs)
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary file must be removed")
	assert.True(t, entries[0].IsDir())
}

func TestSave_UnwritableDirectory(t *testing.T) {
	parent := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(parent, []byte("x"), 0o600))

	err := Save(filepath.Join(parent, HistoryFilename), nil, WithoutIDs)
	assert.Error(t, err)
}

func TestLoad_Missing(t *testing.T) {
	assert.Empty(t, Load(filepath.Join(t.TempDir(), "absent.json")))
}

func TestLoad_Corrupt(t *testing.T) {
	for name, content := range map[string]string{
		"garbage":   "{not json",
		"object":    `{"text": "a"}`,
		"string":    `"hello"`,
		"empty":     "",
		"truncated": `[{"text": "a"}, {"te`,
	} {
		t.Run(name, func(t *testing.T) {
			assert.Empty(t, Load(writeFile(t, content)))
		})
	}
}

func TestLoad_DropsMalformedRecords(t *testing.T) {
	path := writeFile(t, `[{"timestamp": 5}, {"text": "ok", "timestamp": 1000}]`)

	got := Load(path)
	require.Len(t, got, 1)
	assert.Equal(t, "ok", got[0].Text)
	assert.Equal(t, int64(1000), got[0].Timestamp.UnixMilli())
}

func TestLoad_RecordValidation(t *testing.T) {
	path := writeFile(t, `[
		null,
		42,
		{"text": null},
		{"text": 7},
		{"text": "defaults"},
		{"id": 3, "text": "typed", "timestamp": 1700000000123, "pinned": true, "favorite": true},
		{"id": "x", "text": "bad types", "timestamp": "soon", "pinned": "yes"},
		{"id": 2.5, "text": "fractional id"}
	]`)

	got := load(path, func() time.Time { return fixedNow })
	require.Len(t, got, 4)

	assert.Equal(t, history.Entry{Text: "defaults", Timestamp: fixedNow}, got[0])

	assert.Equal(t, int64(3), got[1].ID)
	assert.Equal(t, int64(1700000000123), got[1].Timestamp.UnixMilli())
	assert.True(t, got[1].Pinned)
	assert.True(t, got[1].Favorite)

	assert.Equal(t, history.Entry{Text: "bad types", Timestamp: fixedNow, Pinned: true}, got[2])
	assert.Zero(t, got[3].ID)
}

func TestLoad_TruthyFlags(t *testing.T) {
	path := writeFile(t, `[
		{"text": "one", "pinned": 1, "favorite": 0},
		{"text": "str", "pinned": "", "favorite": "y"},
		{"text": "obj", "pinned": {}, "favorite": null},
		{"text": "off", "pinned": false, "favorite": []}
	]`)

	got := Load(path)
	require.Len(t, got, 4)
	flags := make(map[string][2]bool, len(got))
	for _, e := range got {
		flags[e.Text] = [2]bool{e.Pinned, e.Favorite}
	}
	assert.Equal(t, map[string][2]bool{
		"one": {true, false},
		"str": {false, true},
		"obj": {true, false},
		"off": {false, true},
	}, flags)
}

func TestDelete(t *testing.T) {
	path := writeFile(t, "[]")
	require.NoError(t, Delete(path))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, Delete(path), "absence is not an error")
}
