// Package teaui hosts the Bubble Tea program for the journal TUI.
package teaui

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"

	"tableflip.dev/journal/pkg/app"
	"tableflip.dev/journal/pkg/draft"
	"tableflip.dev/journal/pkg/entry"
	"tableflip.dev/journal/pkg/printers"
	"tableflip.dev/journal/pkg/tui/components/editor"
	"tableflip.dev/journal/pkg/tui/components/entrylist"
	"tableflip.dev/journal/pkg/tui/theme"
)

type screen int

const (
	screenList screen = iota
	screenEditor
)

// closeTimeout bounds how long leaving the editor waits for the final write.
const closeTimeout = 5 * time.Second

// Model is the root Bubble Tea model: an entry list and an editor bound to
// the active draft session.
type Model struct {
	svc    *app.Service
	drafts *draft.Manager
	ctx    context.Context
	cancel context.CancelFunc

	screen screen
	list   *entrylist.Model
	editor *editor.Model

	listFeed *app.ListFeed

	confirmDelete *entry.Entry
	busy          bool
	status        string
	statusErr     bool
	err           error

	width  int
	height int
	theme  theme.Theme
}

// New creates a UI model backed by svc. opts configure the draft sessions it
// opens.
func New(svc *app.Service, th theme.Theme, opts ...draft.Option) *Model {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Model{
		svc:    svc,
		ctx:    ctx,
		cancel: cancel,
		screen: screenList,
		list:   entrylist.NewModel(),
		editor: editor.New(th.Editor),
		theme:  th,
	}
	if svc != nil {
		m.drafts = svc.Drafts(opts...)
	}
	m.applySizes()
	return m
}

// Err is the error the program ended with, if any.
func (m *Model) Err() error { return m.err }

// Init subscribes to the entry list.
func (m *Model) Init() tea.Cmd {
	return startListFeedCmd(m.ctx, m.svc)
}

type listFeedStartedMsg struct {
	feed *app.ListFeed
	err  error
}

type listUpdatedMsg struct {
	entries []*entry.Entry
}

type listStoppedMsg struct{}

type sessionOpenedMsg struct {
	session *draft.Session
	err     error
}

type sessionClosedMsg struct {
	outcome draft.Outcome
	err     error
	quit    bool
}

type entryDeletedMsg struct {
	entry *entry.Entry
	err   error
}

type shutdownMsg struct {
	err error
}

func startListFeedCmd(ctx context.Context, svc *app.Service) tea.Cmd {
	if svc == nil {
		return nil
	}
	return func() tea.Msg {
		f, err := svc.SubscribeAll(ctx)
		return listFeedStartedMsg{feed: f, err: err}
	}
}

func (m *Model) waitForList() tea.Cmd {
	if m.listFeed == nil {
		return nil
	}
	ch := m.listFeed.Updates()
	return func() tea.Msg {
		if entries, ok := <-ch; ok {
			return listUpdatedMsg{entries: entries}
		}
		return listStoppedMsg{}
	}
}

func (m *Model) stopListFeed() {
	if m.listFeed != nil {
		m.listFeed.Unsubscribe()
		m.listFeed = nil
	}
}

func (m *Model) openCmd(id int64) tea.Cmd {
	if m.drafts == nil {
		return nil
	}
	m.busy = true
	drafts, ctx := m.drafts, m.ctx
	return func() tea.Msg {
		s, err := drafts.Open(ctx, id)
		return sessionOpenedMsg{session: s, err: err}
	}
}

func (m *Model) createCmd() tea.Cmd {
	if m.drafts == nil {
		return nil
	}
	m.busy = true
	drafts, ctx := m.drafts, m.ctx
	return func() tea.Msg {
		s, err := drafts.Create(ctx)
		return sessionOpenedMsg{session: s, err: err}
	}
}

func (m *Model) closeCmd(quit bool) tea.Cmd {
	if m.drafts == nil {
		if quit {
			return tea.Quit
		}
		return nil
	}
	m.busy = true
	drafts, parent := m.drafts, m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, closeTimeout)
		defer cancel()
		outcome, err := drafts.Close(ctx)
		return sessionClosedMsg{outcome: outcome, err: err, quit: quit}
	}
}

func (m *Model) deleteCmd(e *entry.Entry) tea.Cmd {
	if m.svc == nil {
		return nil
	}
	svc, ctx := m.svc, m.ctx
	return func() tea.Msg {
		return entryDeletedMsg{entry: e, err: svc.Delete(ctx, e)}
	}
}

func (m *Model) shutdownCmd() tea.Cmd {
	if m.drafts == nil {
		return func() tea.Msg { return shutdownMsg{} }
	}
	m.busy = true
	drafts, parent := m.drafts, m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, closeTimeout)
		defer cancel()
		return shutdownMsg{err: drafts.Shutdown(ctx)}
	}
}

// Update routes Bubble Tea messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.applySizes()
		return m, nil
	case listFeedStartedMsg:
		if msg.err != nil {
			m.setError("list: " + msg.err.Error())
			break
		}
		m.stopListFeed()
		m.listFeed = msg.feed
		return m, m.waitForList()
	case listUpdatedMsg:
		m.list.SetEntries(msg.entries)
		return m, m.waitForList()
	case listStoppedMsg:
		m.listFeed = nil
	case sessionOpenedMsg:
		m.busy = false
		if msg.err != nil {
			m.setError("open: " + msg.err.Error())
			break
		}
		m.screen = screenEditor
		m.setStatus(fmt.Sprintf("editing #%d", msg.session.ID()))
		return m, m.editor.Bind(msg.session)
	case sessionClosedMsg:
		m.busy = false
		m.screen = screenList
		m.editor.Bind(nil)
		if msg.err != nil {
			m.setError("save failed: " + msg.err.Error())
		} else {
			m.setStatus(outcomeStatus(msg.outcome))
		}
		if msg.quit {
			return m, m.shutdownCmd()
		}
	case entryDeletedMsg:
		if msg.err != nil {
			m.setError("delete: " + msg.err.Error())
			break
		}
		m.setStatus(fmt.Sprintf("deleted #%d", msg.entry.ID))
	case shutdownMsg:
		m.stopListFeed()
		m.cancel()
		m.err = msg.err
		return m, tea.Quit
	case tea.KeyPressMsg:
		if m.busy {
			return m, nil
		}
		if m.screen == screenEditor {
			return m, m.handleEditorKey(msg)
		}
		return m, m.handleListKey(msg)
	default:
		if m.screen == screenEditor {
			var cmd tea.Cmd
			m.editor, cmd = m.editor.Update(msg)
			return m, cmd
		}
		_, cmd := m.list.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleListKey(msg tea.KeyPressMsg) tea.Cmd {
	if m.confirmDelete != nil {
		e := m.confirmDelete
		m.confirmDelete = nil
		if msg.String() == "y" {
			return m.deleteCmd(e)
		}
		m.setStatus("delete cancelled")
		return nil
	}
	if m.list.Filtering() {
		_, cmd := m.list.Update(msg)
		return cmd
	}
	switch msg.String() {
	case "q", "ctrl+c":
		return m.shutdownCmd()
	case "enter":
		if sel := m.list.Selected(); sel != nil {
			return m.openCmd(sel.ID)
		}
		return nil
	case "n":
		return m.createCmd()
	case "d":
		if sel := m.list.Selected(); sel != nil {
			m.confirmDelete = sel
		}
		return nil
	}
	_, cmd := m.list.Update(msg)
	return cmd
}

func (m *Model) handleEditorKey(msg tea.KeyPressMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		return m.closeCmd(false)
	case "ctrl+c":
		return m.closeCmd(true)
	}
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return cmd
}

func outcomeStatus(o draft.Outcome) string {
	switch o {
	case draft.OutcomeDeleted:
		return "empty entry deleted"
	case draft.OutcomeSaved:
		return "saved"
	case draft.OutcomeUnchanged:
		return "no changes"
	default:
		return "closed"
	}
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(s string) {
	m.status = s
	m.statusErr = true
}

// applySizes recalculates child sizes from the terminal size.
func (m *Model) applySizes() {
	if m.width == 0 || m.height == 0 {
		return
	}
	// header and footer take one line each
	body := max(m.height-2, 1)
	m.list.SetSize(m.width, body)
	m.editor.SetSize(m.width, body)
}

// View renders the current screen.
func (m *Model) View() string {
	return lipgloss.JoinVertical(lipgloss.Left, m.header(), m.body(), m.footer())
}

func (m *Model) header() string {
	title := m.theme.Header.Title.Render("Journal")
	if m.screen == screenEditor {
		if s := m.editor.Session(); s != nil {
			return title + m.theme.Header.Count.Render(fmt.Sprintf("  #%d", s.ID()))
		}
		return title
	}
	return title + m.theme.Header.Count.Render(fmt.Sprintf("  %d entries", m.list.Len()))
}

func (m *Model) body() string {
	if m.screen == screenEditor {
		return m.editor.View()
	}
	if e := m.confirmDelete; e != nil {
		modal := m.theme.Modal.Frame.Render(lipgloss.JoinVertical(lipgloss.Left,
			m.theme.Modal.Title.Render(fmt.Sprintf("Delete #%d?", e.ID)),
			m.theme.Modal.Body.Render(printers.DisplayTitle(e)),
			"",
			m.theme.Modal.Body.Render("y to confirm, any other key to cancel"),
		))
		if m.width > 0 && m.height > 2 {
			return lipgloss.Place(m.width, m.height-2, lipgloss.Center, lipgloss.Center, modal)
		}
		return modal
	}
	return m.list.View()
}

func (m *Model) footer() string {
	if m.status != "" {
		if m.statusErr {
			return m.theme.Footer.Error.Render(m.status)
		}
		return m.theme.Footer.Status.Render(m.status) + "  " + m.help()
	}
	return m.help()
}

func (m *Model) help() string {
	if m.screen == screenEditor {
		return m.theme.Footer.Help.Render("tab switch field • esc back • ctrl+c quit")
	}
	return m.theme.Footer.Help.Render("enter edit • n new • d delete • / filter • q quit")
}

// Run launches the interactive TUI program and shuts the draft manager down
// however the program ends.
func Run(svc *app.Service, opts ...draft.Option) error {
	if svc == nil {
		return errors.New("tui: service required")
	}
	m := New(svc, theme.Detect(), opts...)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		_ = m.drafts.Shutdown(ctx)
		m.stopListFeed()
		m.cancel()
	}()
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return m.Err()
}
