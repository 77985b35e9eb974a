package search

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/clipvault/internal/history"
)

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func entries(texts ...string) []history.Entry {
	out := make([]history.Entry, len(texts))
	for i, t := range texts {
		out[i] = history.Entry{ID: int64(i + 1), Text: t, Timestamp: now.Add(-time.Duration(i) * time.Minute)}
	}
	return out
}

func texts(p Page) []string {
	var out []string
	for _, r := range p.Results {
		out = append(out, r.Entry.Text)
	}
	return out
}

func TestQuery_EmptyReturnsSnapshot(t *testing.T) {
	items := entries("a", "b", "c")
	p := Query(items, "   ", Options{Now: func() time.Time { return now }})
	assert.Equal(t, []string{"a", "b", "c"}, texts(p))
	assert.Equal(t, 3, p.Total)
	assert.Equal(t, []int{0, 1, 2}, []int{p.Results[0].Index, p.Results[1].Index, p.Results[2].Index})
}

func TestQuery_Limit(t *testing.T) {
	var many []string
	for i := 0; i < 40; i++ {
		many = append(many, strings.Repeat("x", i+1))
	}
	p := Query(entries(many...), "", Options{})
	assert.Len(t, p.Results, DefaultLimit)
	assert.Equal(t, 40, p.Total)

	p = Query(entries(many...), "xxx", Options{Limit: 5})
	assert.Len(t, p.Results, 5)
	assert.Equal(t, 38, p.Total)
}

func TestQuery_SubstringCaseInsensitive(t *testing.T) {
	items := entries("Hello World", "goodbye", "WORLD peace", "word")
	p := Query(items, " world ", Options{})
	assert.Equal(t, []string{"Hello World", "WORLD peace"}, texts(p))
	assert.Equal(t, 2, p.Results[1].Index)
}

func TestQuery_SubstringNoMatch(t *testing.T) {
	p := Query(entries("alpha", "beta"), "gamma", Options{})
	assert.Empty(t, p.Results)
	assert.Zero(t, p.Total)
}

func TestQuery_Fuzzy(t *testing.T) {
	items := entries("git commit -m", "grep -rn", "go test ./...", "docker ps")
	p := Query(items, "gt", Options{Mode: ModeFuzzy})
	require.NotEmpty(t, p.Results)
	assert.NotContains(t, texts(p), "docker ps")
	assert.Contains(t, texts(p), "go test ./...")
}

func TestQuery_FuzzyTiesKeepSnapshotOrder(t *testing.T) {
	items := entries("abc one", "abc two", "abc three")
	p := Query(items, "abc", Options{Mode: ModeFuzzy})
	assert.Equal(t, []string{"abc one", "abc two", "abc three"}, texts(p))
}

func TestQuery_ResultDecoration(t *testing.T) {
	items := []history.Entry{{ID: 7, Text: "line one\n\tline two", Timestamp: now.Add(-3 * time.Hour), Pinned: true}}
	p := Query(items, "", Options{Now: func() time.Time { return now }})
	require.Len(t, p.Results, 1)
	r := p.Results[0]
	assert.Equal(t, "line one line two", r.Preview)
	assert.Equal(t, "3h ago", r.Age)
	assert.True(t, r.Entry.Pinned)
	assert.EqualValues(t, 7, r.Entry.ID)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "a b", Preview("  a \n b  ", 10))
	long := strings.Repeat("x", 100)
	got := Preview(long, PreviewWidth)
	assert.True(t, strings.HasSuffix(got, "…"))
	assert.LessOrEqual(t, len([]rune(got)), PreviewWidth)
	// wide runes occupy two cells each
	assert.Equal(t, "日本…", Preview("日本語テキスト", 6))
}

func TestAge(t *testing.T) {
	for _, tc := range []struct {
		d    time.Duration
		want string
	}{
		{0, "just now"},
		{59 * time.Second, "just now"},
		{5 * time.Minute, "5m ago"},
		{3*time.Hour + 10*time.Minute, "3h ago"},
		{49 * time.Hour, "2d ago"},
	} {
		assert.Equal(t, tc.want, Age(tc.d), tc.d.String())
	}
}

func TestParseMode(t *testing.T) {
	assert.Equal(t, ModeFuzzy, ParseMode("Fuzzy"))
	assert.Equal(t, ModeSubstring, ParseMode("substring"))
	assert.Equal(t, ModeSubstring, ParseMode(""))
}
