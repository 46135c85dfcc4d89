// Package editor renders the title and content inputs of one draft session.
package editor

import (
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/v2/textarea"
	"github.com/charmbracelet/bubbles/v2/textinput"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"

	"tableflip.dev/journal/pkg/draft"
	"tableflip.dev/journal/pkg/tui/theme"
)

type field int

const (
	fieldTitle field = iota
	fieldContent
)

const refreshInterval = time.Second

// LoadedMsg reports that the bound session was prefilled, or ended before it
// ever was (Ok false).
type LoadedMsg struct {
	Session *draft.Session
	Ok      bool
}

type refreshMsg struct {
	session *draft.Session
}

// Model binds a textinput and a textarea to a draft session.
type Model struct {
	session *draft.Session
	loaded  bool
	focus   field
	err     error

	title   textinput.Model
	content textarea.Model

	width  int
	height int
	theme  theme.EditorTheme
}

// New constructs an unbound editor.
func New(th theme.EditorTheme) *Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = "Title"
	ti.CharLimit = 0

	ta := textarea.New()
	ta.Placeholder = "Write…"
	ta.CharLimit = 0
	ta.ShowLineNumbers = false

	m := &Model{title: ti, content: ta, theme: th}
	m.SetSize(72, 16)
	return m
}

// Bind attaches the editor to s and returns the command that waits for the
// session to be prefilled.
func (m *Model) Bind(s *draft.Session) tea.Cmd {
	m.session = s
	m.loaded = false
	m.err = nil
	m.focus = fieldTitle
	m.title.SetValue("")
	m.content.SetValue("")
	m.title.Blur()
	m.content.Blur()
	if s == nil {
		return nil
	}
	return waitLoaded(s)
}

// Session is the bound session, or nil.
func (m *Model) Session() *draft.Session { return m.session }

// Loaded reports whether the buffer has been prefilled.
func (m *Model) Loaded() bool { return m.loaded }

// Err is the last edit or write error seen by the editor.
func (m *Model) Err() error { return m.err }

func waitLoaded(s *draft.Session) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-s.Loaded():
			return LoadedMsg{Session: s, Ok: true}
		case <-s.Done():
			return LoadedMsg{Session: s}
		}
	}
}

func refresh(s *draft.Session) tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg {
		return refreshMsg{session: s}
	})
}

// SetSize lays the inputs out inside width x height.
func (m *Model) SetSize(width, height int) {
	if width < 20 {
		width = 20
	}
	if height < 8 {
		height = 8
	}
	m.width = width
	m.height = height
	inner := width - m.theme.Frame.GetHorizontalFrameSize()
	m.title.SetWidth(inner)
	m.content.SetWidth(inner)
	// label, title frame, label, content frame, status
	m.content.SetHeight(max(height-4-2*m.theme.Frame.GetVerticalFrameSize(), 3))
}

// Update handles Bubble Tea messages for the bound session.
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		if msg.Session != m.session || !msg.Ok {
			return m, nil
		}
		title, content := m.session.Buffer()
		m.title.SetValue(title)
		m.content.SetValue(content)
		m.loaded = true
		return m, tea.Batch(m.focusField(fieldTitle), refresh(m.session))
	case refreshMsg:
		if msg.session != m.session {
			return m, nil
		}
		if err := m.session.Err(); err != nil {
			m.err = err
		}
		select {
		case <-m.session.Done():
			return m, nil
		default:
			return m, refresh(m.session)
		}
	case tea.KeyMsg:
		if !m.loaded {
			return m, nil
		}
		switch msg.String() {
		case "tab", "shift+tab":
			next := fieldContent
			if m.focus == fieldContent {
				next = fieldTitle
			}
			return m, m.focusField(next)
		}
		return m, m.edit(msg)
	}

	if !m.loaded {
		return m, nil
	}
	var cmd tea.Cmd
	if m.focus == fieldTitle {
		m.title, cmd = m.title.Update(msg)
	} else {
		m.content, cmd = m.content.Update(msg)
	}
	return m, cmd
}

func (m *Model) edit(msg tea.Msg) tea.Cmd {
	var (
		cmd tea.Cmd
		err error
	)
	if m.focus == fieldTitle {
		m.title, cmd = m.title.Update(msg)
		err = m.session.SetTitle(strings.ReplaceAll(m.title.Value(), "\n", " "))
	} else {
		m.content, cmd = m.content.Update(msg)
		err = m.session.SetContent(m.content.Value())
	}
	if err != nil && !errors.Is(err, draft.ErrLoading) {
		m.err = err
	}
	return cmd
}

func (m *Model) focusField(f field) tea.Cmd {
	m.focus = f
	if f == fieldTitle {
		m.content.Blur()
		return m.title.Focus()
	}
	m.title.Blur()
	return m.content.Focus()
}

// View renders the editor.
func (m *Model) View() string {
	if m.session == nil {
		return ""
	}
	if !m.loaded {
		return m.theme.Loading.Render("Loading entry …")
	}
	titleFrame, contentFrame := m.theme.Frame, m.theme.Frame
	if m.focus == fieldTitle {
		titleFrame = m.theme.FocusFrame
	} else {
		contentFrame = m.theme.FocusFrame
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.theme.Label.Render("Title"),
		titleFrame.Render(m.title.View()),
		m.theme.Label.Render("Content"),
		contentFrame.Render(m.content.View()),
		m.status(),
	)
}

func (m *Model) status() string {
	if m.err != nil {
		return m.theme.ErrorStatus.Render("save failed: " + m.err.Error())
	}
	stored, ok := m.session.Stored()
	if !ok || stored.Timestamp.IsZero() {
		return m.theme.LastChange.Render("not saved yet")
	}
	return m.theme.LastChange.Render("last change at " + stored.Timestamp.Local().Format("15:04"))
}
