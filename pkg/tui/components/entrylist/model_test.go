package entrylist

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea/v2"

	"tableflip.dev/journal/pkg/entry"
)

func sample() []*entry.Entry {
	at := entry.Stamp(time.Date(2024, time.January, 15, 10, 30, 0, 0, time.UTC))
	return []*entry.Entry{
		{ID: 3, Title: "Standup", Content: "talked about the release", Timestamp: at},
		{ID: 2, Content: "no title here\nsecond line", Timestamp: at},
		{ID: 1, Title: "Groceries", Timestamp: at},
	}
}

func TestSelectedFollowsCursor(t *testing.T) {
	m := NewModel()
	m.SetSize(60, 20)
	m.SetEntries(sample())

	if got := m.Selected(); got == nil || got.ID != 3 {
		t.Fatalf("initial selection = %v, want #3", got)
	}
	m.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	if got := m.Selected(); got == nil || got.ID != 2 {
		t.Fatalf("after down = %v, want #2", got)
	}
}

func TestSetEntriesKeepsSelection(t *testing.T) {
	m := NewModel()
	m.SetSize(60, 20)
	m.SetEntries(sample())
	m.Update(tea.KeyPressMsg{Code: tea.KeyDown})

	reordered := sample()
	reordered[0], reordered[1] = reordered[1], reordered[0]
	m.SetEntries(reordered)
	if got := m.Selected(); got == nil || got.ID != 2 {
		t.Fatalf("selection = %v, want #2 kept", got)
	}
}

func TestEmptyView(t *testing.T) {
	m := NewModel()
	m.SetSize(60, 20)
	if m.Selected() != nil {
		t.Fatalf("selection on empty list")
	}
	if !strings.Contains(m.View(), "No entries yet") {
		t.Fatalf("view = %q", m.View())
	}
}

func TestItemRendering(t *testing.T) {
	items := itemsFromEntries(sample())
	untitled := items[1].(entryItem)
	if got := untitled.Title(); got != "no title here" {
		t.Fatalf("title = %q", got)
	}
	if got := untitled.Description(); got != "Jan 15 10:30  no title here" {
		t.Fatalf("description = %q", got)
	}
	if got := items[2].(entryItem).Description(); got != "Jan 15 10:30" {
		t.Fatalf("description without content = %q", got)
	}
}
