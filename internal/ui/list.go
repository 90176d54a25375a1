package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/replayfm/replay/internal/formatter"
	"github.com/replayfm/replay/internal/models"
)

var (
	_ list.Item = snapshotItem{}
	_ list.Item = songItem{}
	_ list.Item = artistItem{}
)

// snapshotItem wraps [models.Snapshot] to implement [list.Item].
type snapshotItem struct {
	snapshot models.Snapshot
}

func (i snapshotItem) FilterValue() string { return i.snapshot.Date }
func (i snapshotItem) Title() string       { return i.snapshot.Date }
func (i snapshotItem) Description() string {
	return fmt.Sprintf("%s • %s", i.snapshot.Username, formatter.FormatListeningTime(i.snapshot.ListeningTime))
}

// songItem wraps [models.SongEntry] to implement [list.Item].
type songItem struct {
	song models.SongEntry
}

func (i songItem) FilterValue() string { return i.song.Name }
func (i songItem) Title() string       { return i.song.Name }
func (i songItem) Description() string { return i.song.Artist }

// artistItem wraps [models.ArtistEntry] to implement [list.Item].
type artistItem struct {
	artist models.ArtistEntry
}

func (i artistItem) FilterValue() string { return i.artist.Name }
func (i artistItem) Title() string       { return i.artist.Name }
func (i artistItem) Description() string { return "" }
