package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"go.klb.dev/clipvault/internal/history"
	"go.klb.dev/clipvault/internal/search"
)

var (
	styleIndex    = lipgloss.NewStyle().Faint(true)
	stylePinned   = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true)
	styleFavorite = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	styleAge      = lipgloss.NewStyle().Faint(true)
	styleMore     = lipgloss.NewStyle().Italic(true).Faint(true)
)

// sectionMarker is the one-cell badge shown before an entry.
func sectionMarker(e history.Entry) string {
	switch e.Section() {
	case history.SectionPinned:
		return stylePinned.Render("P")
	case history.SectionFavorite:
		return styleFavorite.Render("*")
	default:
		return " "
	}
}

// renderResults prints one line per result: snapshot index, section badge,
// padded preview and relative age.
func renderResults(w io.Writer, page *search.Page) {
	if len(page.Results) == 0 {
		fmt.Fprintln(w, "No entries.")
		return
	}
	for _, r := range page.Results {
		fmt.Fprintf(w, "%s %s %s  %s\n",
			styleIndex.Render(fmt.Sprintf("%3d", r.Index)),
			sectionMarker(r.Entry),
			runewidth.FillRight(r.Preview, search.PreviewWidth),
			styleAge.Render(r.Age),
		)
	}
	if more := page.Total - len(page.Results); more > 0 {
		fmt.Fprintln(w, styleMore.Render(fmt.Sprintf("(%d more…)", more)))
	}
}
