// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for browsing listening statistics:
//  1. [SnapshotListView] : Browse historical snapshots
//  2. [OverviewView] : Listening time and top genres for a snapshot
//  3. [SongListView] : The snapshot's top songs
//  4. [ArtistListView] : The snapshot's top artists
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Snapshots are fetched asynchronously from a [SnapshotSource] so the interface stays responsive.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, s/a, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
