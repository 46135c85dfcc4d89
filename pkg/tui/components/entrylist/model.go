package entrylist

import (
	"github.com/charmbracelet/bubbles/v2/list"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/muesli/reflow/wordwrap"

	"tableflip.dev/journal/pkg/entry"
	"tableflip.dev/journal/pkg/printers"
)

const previewWidth = 60

// Model wraps a bubbles list of journal entries.
type Model struct {
	list list.Model
}

// NewModel constructs the entry list.
func NewModel() *Model {
	delegate := list.NewDefaultDelegate()
	l := list.New(nil, delegate, 0, 0)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	return &Model{list: l}
}

// SetEntries replaces the rendered entries, keeping the selection on the same
// id when it is still present.
func (m *Model) SetEntries(entries []*entry.Entry) {
	var keep int64
	if sel := m.Selected(); sel != nil {
		keep = sel.ID
	}
	m.list.SetItems(itemsFromEntries(entries))
	if keep == 0 {
		return
	}
	for i, e := range entries {
		if e.ID == keep {
			m.list.Select(i)
			return
		}
	}
}

// Len is the number of entries shown.
func (m *Model) Len() int { return len(m.list.Items()) }

// Selected returns the highlighted entry, or nil.
func (m *Model) Selected() *entry.Entry {
	it, ok := m.list.SelectedItem().(entryItem)
	if !ok {
		return nil
	}
	return it.entry
}

// Filtering reports whether the filter prompt owns the keyboard.
func (m *Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd { return nil }

// Update forwards Bubble Tea messages to the list.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the list.
func (m *Model) View() string {
	if m.Len() == 0 {
		return "No entries yet. Press n to start one."
	}
	return m.list.View()
}

func itemsFromEntries(entries []*entry.Entry) []list.Item {
	items := make([]list.Item, 0, len(entries))
	for _, e := range entries {
		items = append(items, entryItem{entry: e})
	}
	return items
}

type entryItem struct {
	entry *entry.Entry
}

func (i entryItem) Title() string { return printers.DisplayTitle(i.entry) }

func (i entryItem) Description() string {
	stamp := i.entry.Timestamp.Format("Jan 2 15:04")
	preview := printers.Preview(i.entry.Content, previewWidth)
	if preview == "" {
		return stamp
	}
	return stamp + "  " + preview
}

// FilterValue matches on title and the wrapped content so multi-line bodies
// filter the same way they read.
func (i entryItem) FilterValue() string {
	return i.entry.Title + " " + wordwrap.String(i.entry.Content, previewWidth)
}
