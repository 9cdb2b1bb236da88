package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tuneport/internal/models"
	"github.com/desertthunder/tuneport/internal/shared"
	"github.com/desertthunder/tuneport/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	TargetListView ViewState = iota
	ConfirmView
	SyncView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	engine       *tasks.SyncEngine
	library      *models.Library
	width        int
	height       int
	targetList   list.Model
	selected     targetItem
	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	result       *tasks.SyncResult
	err          error
	help         help.Model
	keys         keyMap
}

// keyMap defines the key bindings for the TUI.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	enter   key.Binding
	back    key.Binding
	yes     key.Binding
	no      key.Binding
	restart key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		yes: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "yes"),
		),
		no: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "no"),
		),
		restart: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "restart"),
		),
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter},
		{k.back, k.yes, k.no},
		{k.restart, k.quit},
	}
}

// targetKind distinguishes the selectable sync targets.
type targetKind int

const (
	targetEverything targetKind = iota
	targetLiked
	targetPlaylist
)

// targetItem wraps one selectable target to implement list.Item.
type targetItem struct {
	kind   targetKind
	name   string // raw playlist name for targetPlaylist
	tracks int
}

func (i targetItem) FilterValue() string { return i.Title() }

func (i targetItem) Title() string {
	switch i.kind {
	case targetEverything:
		return "Everything"
	case targetLiked:
		return tasks.LikedTargetName
	default:
		return shared.DecodeText(i.name)
	}
}

func (i targetItem) Description() string {
	return fmt.Sprintf("%d tracks", i.tracks)
}

type progressUpdateMsg tasks.ProgressUpdate

type syncCompleteMsg struct {
	result *tasks.SyncResult
	err    error
}

// NewModel creates a new TUI model over a loaded export library.
func NewModel(ctx context.Context, engine *tasks.SyncEngine, library *models.Library) *Model {
	m := &Model{
		ctx:     ctx,
		view:    TargetListView,
		engine:  engine,
		library: library,
		help:    help.New(),
		keys:    newKeyMap(),
	}

	items := []list.Item{targetItem{kind: targetEverything, tracks: libraryTrackCount(library)}}
	if len(library.LikedSongs) > 0 {
		items = append(items, targetItem{kind: targetLiked, tracks: len(library.LikedSongs)})
	}
	for _, pl := range library.Playlists {
		items = append(items, targetItem{kind: targetPlaylist, name: pl.Name, tracks: len(pl.Tracks)})
	}

	m.targetList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.targetList.Title = "Sync Targets"
	return m
}

// Result returns the completed sync result and error, for ledger writes
// after the program exits.
func (m *Model) Result() (*tasks.SyncResult, error) {
	return m.result, m.err
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.targetList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case TargetListView:
			return m.handleTargetListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case syncCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.view = ResultView
		return m, nil
	}

	return m.updateList(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case TargetListView:
		return m.renderTargetList()
	case ConfirmView:
		return m.renderConfirm()
	case SyncView:
		return m.renderSync()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleTargetListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		selected := m.targetList.SelectedItem()
		if selected != nil {
			if item, ok := selected.(targetItem); ok {
				m.selected = item
				m.view = ConfirmView
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.targetList, cmd = m.targetList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n", "esc":
		m.view = TargetListView
		return m, nil
	case "y":
		m.view = SyncView
		return m, m.startSync()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.view = TargetListView
		m.result = nil
		m.err = nil
		return m, nil
	}
	return m, nil
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.view == TargetListView {
		m.targetList, cmd = m.targetList.Update(msg)
	}
	return m, cmd
}

func (m *Model) startSync() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	progressChan := m.progressChan

	opts := tasks.SyncOptions{}
	switch m.selected.kind {
	case targetLiked:
		opts.LikedOnly = true
	case targetPlaylist:
		opts.PlaylistName = m.selected.name
	}

	go func() {
		result, err := m.engine.SyncLibrary(m.ctx, m.library, opts, progressChan)
		m.result = result
		m.err = err
		close(progressChan)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return syncCompleteMsg{result: m.result, err: m.err}
		}

		update, ok := <-m.progressChan
		if !ok {
			m.progressChan = nil
			return syncCompleteMsg{result: m.result, err: m.err}
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderTargetList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.targetList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Sync '%s' to YouTube Music?", m.selected.Title()))
	info := fmt.Sprintf("\nTarget: %s\nTracks: %d\n", m.selected.Title(), m.selected.tracks)

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderSync() string {
	title := styles.title.Render("Syncing")

	var phase string
	switch m.progress.Phase {
	case tasks.LocateTarget:
		phase = "Locating destination playlist..."
	case tasks.ResolveTracks:
		phase = fmt.Sprintf("Resolving tracks (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.DiffMembers:
		phase = "Comparing against destination..."
	case tasks.ApplyChanges:
		phase = "Adding tracks..."
	case tasks.LikeTracks:
		phase = fmt.Sprintf("Liking tracks (%d/%d)", m.progress.Step, m.progress.Total)
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Sync failed: %v\n\nPress r to retry, q to quit", m.err))
	}

	if m.result == nil {
		return styles.err.Render("No result available\n\nPress r to retry, q to quit")
	}

	title := styles.ok.Render("✓ Sync Complete!")

	info := ""
	for _, target := range m.result.Targets {
		info += fmt.Sprintf("\n%s: %d added, %d already present, %d failed",
			target.Name, target.Added, target.AlreadyPresent, target.Failed)
	}

	var failed string
	if len(m.result.Failures) > 0 {
		failed = fmt.Sprintf("\n\n%s", styles.warn.Render(fmt.Sprintf("%d tracks recorded in the failure ledger:", len(m.result.Failures))))
		for _, rec := range m.result.Failures {
			failed += fmt.Sprintf("\n  • %s (%s)", rec.Track.String(), rec.Reason)
		}
	}

	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, failed, helpView)
}

func libraryTrackCount(library *models.Library) int {
	n := len(library.LikedSongs)
	for _, pl := range library.Playlists {
		n += len(pl.Tracks)
	}
	return n
}
