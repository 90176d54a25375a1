package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/replayfm/replay/internal/formatter"
	"github.com/replayfm/replay/internal/models"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	SnapshotListView ViewState = iota
	OverviewView
	SongListView
	ArtistListView
)

// SnapshotSource provides the snapshot history the TUI browses.
// Implemented by the backend client and the local cache repository.
type SnapshotSource interface {
	ListSnapshots(ctx context.Context) ([]models.Snapshot, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	source       SnapshotSource
	width        int
	height       int
	snapshotList list.Model
	snapshots    []models.Snapshot
	selected     *models.Snapshot
	songList     list.Model
	artistList   list.Model
	err          error
	help         help.Model
	keys         keyMap
}

type snapshotsFetchedMsg struct {
	snapshots []models.Snapshot
	err       error
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, source SnapshotSource) *Model {
	return &Model{
		ctx:    ctx,
		view:   SnapshotListView,
		source: source,
		help:   help.New(),
		keys:   newKeyMap(),
	}
}

// Init initializes the TUI by fetching the snapshot history.
func (m *Model) Init() tea.Cmd {
	return m.fetchSnapshots()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.snapshotList.Width() == 0 {
			m.snapshotList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.songList.Width() == 0 {
			m.songList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.artistList.Width() == 0 {
			m.artistList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case SnapshotListView:
			return m.handleSnapshotListKeys(msg)
		case OverviewView:
			return m.handleOverviewKeys(msg)
		case SongListView, ArtistListView:
			return m.handleDetailListKeys(msg)
		}

	case snapshotsFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.snapshots = msg.snapshots
		items := make([]list.Item, len(msg.snapshots))
		for i, snapshot := range msg.snapshots {
			items[i] = snapshotItem{snapshot: snapshot}
		}
		m.snapshotList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.snapshotList.Title = "Listening History"
		m.snapshotList.SetSize(m.width-4, m.height-8)
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case SnapshotListView:
		return m.renderSnapshotList()
	case OverviewView:
		return m.renderOverview()
	case SongListView:
		return m.renderDetailList(m.songList)
	case ArtistListView:
		return m.renderDetailList(m.artistList)
	default:
		return ""
	}
}

func (m *Model) handleSnapshotListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		selected := m.snapshotList.SelectedItem()
		if selected != nil {
			if item, ok := selected.(snapshotItem); ok {
				m.selectSnapshot(item.snapshot)
				m.view = OverviewView
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.snapshotList, cmd = m.snapshotList.Update(msg)
	return m, cmd
}

func (m *Model) handleOverviewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = SnapshotListView
	case "s":
		m.view = SongListView
	case "a":
		m.view = ArtistListView
	}
	return m, nil
}

func (m *Model) handleDetailListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = OverviewView
		return m, nil
	}

	return m.updateLists(msg)
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case SnapshotListView:
		m.snapshotList, cmd = m.snapshotList.Update(msg)
	case SongListView:
		m.songList, cmd = m.songList.Update(msg)
	case ArtistListView:
		m.artistList, cmd = m.artistList.Update(msg)
	}
	return m, cmd
}

// selectSnapshot installs a snapshot as the detail target and rebuilds the
// song and artist lists from its contents.
func (m *Model) selectSnapshot(snapshot models.Snapshot) {
	m.selected = &snapshot

	songs := make([]list.Item, len(snapshot.TopSongs.Songs))
	for i, song := range snapshot.TopSongs.Songs {
		songs[i] = songItem{song: song}
	}
	m.songList = list.New(songs, list.NewDefaultDelegate(), 0, 0)
	m.songList.Title = fmt.Sprintf("Top Songs • %s", snapshot.Date)
	m.songList.SetSize(m.width-4, m.height-8)

	artists := make([]list.Item, len(snapshot.TopArtists.Artists))
	for i, artist := range snapshot.TopArtists.Artists {
		artists[i] = artistItem{artist: artist}
	}
	m.artistList = list.New(artists, list.NewDefaultDelegate(), 0, 0)
	m.artistList.Title = fmt.Sprintf("Top Artists • %s", snapshot.Date)
	m.artistList.SetSize(m.width-4, m.height-8)
}

func (m *Model) fetchSnapshots() tea.Cmd {
	return func() tea.Msg {
		snapshots, err := m.source.ListSnapshots(m.ctx)
		return snapshotsFetchedMsg{snapshots: snapshots, err: err}
	}
}

func (m *Model) renderSnapshotList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.snapshotList.View(), helpView)
}

func (m *Model) renderOverview() string {
	if m.selected == nil {
		return styles.err.Render("No snapshot selected\n\nPress q to quit")
	}

	title := styles.title.Render(fmt.Sprintf("%s • %s", m.selected.Username, m.selected.Date))
	info := fmt.Sprintf("\nListening time: %s\n", formatter.FormatListeningTime(m.selected.ListeningTime))

	var genres string
	if len(m.selected.TopGenres) > 0 {
		genres = fmt.Sprintf("Top genres: %s\n", strings.Join(m.selected.TopGenres, ", "))
	}

	helpKeys := []key.Binding{m.keys.songs, m.keys.artists, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s%s\n%s", title, info, genres, helpView)
}

func (m *Model) renderDetailList(l list.Model) string {
	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", l.View(), helpView)
}
