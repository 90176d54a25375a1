// package formatter renders snapshots and listening statistics to text and Markdown
package formatter

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/replayfm/replay/internal/models"
	"github.com/replayfm/replay/internal/services"
	"github.com/replayfm/replay/internal/shared"
)

// FormatListeningTime renders a millisecond total as "Xh YYm ZZs",
// with minutes and seconds zero-padded.
func FormatListeningTime(ms int64) string {
	if ms < 0 {
		ms = 0
	}

	hours := ms / 3600000
	minutes := (ms / 60000) % 60
	seconds := (ms / 1000) % 60

	return fmt.Sprintf("%dh %02dm %02ds", hours, minutes, seconds)
}

// SnapshotToText converts a snapshot to plain text format
func SnapshotToText(snapshot *models.Snapshot) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("User: %s\n", snapshot.Username))
	buf.WriteString(fmt.Sprintf("Date: %s\n", snapshot.Date))
	buf.WriteString(fmt.Sprintf("Listening time: %s\n\n", FormatListeningTime(snapshot.ListeningTime)))

	if len(snapshot.TopGenres) > 0 {
		buf.WriteString(fmt.Sprintf("Top genres: %s\n\n", strings.Join(snapshot.TopGenres, ", ")))
	}

	if len(snapshot.TopSongs.Songs) > 0 {
		buf.WriteString("Top songs:\n")
		for i, song := range snapshot.TopSongs.Songs {
			buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, song.Artist, song.Name))
		}
		buf.WriteString("\n")
	}

	if len(snapshot.TopArtists.Artists) > 0 {
		buf.WriteString("Top artists:\n")
		for i, artist := range snapshot.TopArtists.Artists {
			buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, artist.Name))
		}
	}

	return buf.Bytes()
}

// SnapshotToMarkdown converts a snapshot to Markdown format with optional avatar image
func SnapshotToMarkdown(snapshot *models.Snapshot, imageFilename string) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", snapshot.Username))

	if imageFilename != "" {
		buf.WriteString(fmt.Sprintf("![Avatar](%s)\n\n", imageFilename))
	}

	buf.WriteString(fmt.Sprintf("**Date**: %s\n", snapshot.Date))
	buf.WriteString(fmt.Sprintf("**Listening time**: %s\n\n", FormatListeningTime(snapshot.ListeningTime)))

	if len(snapshot.TopGenres) > 0 {
		buf.WriteString("## Genres\n\n")
		for i, genre := range snapshot.TopGenres {
			buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, genre))
		}
		buf.WriteString("\n")
	}

	if len(snapshot.TopSongs.Songs) > 0 {
		buf.WriteString("## Songs\n\n")
		for i, song := range snapshot.TopSongs.Songs {
			buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, song.Artist, song.Name))
		}
		buf.WriteString("\n")
	}

	if len(snapshot.TopArtists.Artists) > 0 {
		buf.WriteString("## Artists\n\n")
		for i, artist := range snapshot.TopArtists.Artists {
			buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, artist.Name))
		}
	}

	return buf.Bytes()
}

// SnapshotListToText renders a one-line-per-snapshot summary table
func SnapshotListToText(snapshots []*models.Snapshot) []byte {
	var buf bytes.Buffer

	for i, snapshot := range snapshots {
		buf.WriteString(fmt.Sprintf("%d. %s  %s  %s\n",
			i+1,
			snapshot.Date,
			snapshot.Username,
			FormatListeningTime(snapshot.ListeningTime),
		))
	}

	return buf.Bytes()
}

// PlaysToText renders a play history, most recent first
func PlaysToText(plays []services.Play) []byte {
	var buf bytes.Buffer

	for i, play := range plays {
		buf.WriteString(fmt.Sprintf("%d. %s - %s (%s)\n", i+1, play.Track.Artist, play.Track.Title, play.PlayedAt))
	}

	return buf.Bytes()
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// ToJSON generates a pretty-printed JSON representation of a snapshot
func ToJSON(snapshot *models.Snapshot) ([]byte, error) {
	return shared.MarshalJSON(snapshot, true)
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory string
	Files     []string
	Avatar    string
}

// WriteMarkdownExport exports a snapshot to Markdown format in a dedicated directory.
//
// Directory name defaults to the snapshot date.
// If the snapshot carries an avatar URL, attempts to download it alongside.
// Creates a directory structure: {dir}/README.md and optionally {dir}/avatar.jpg
func WriteMarkdownExport(snapshot *models.Snapshot, outputDir string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = snapshot.Date
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{},
	}

	var avatarFilename string
	if snapshot.AvatarURL != "" {
		imageData, err := DownloadImage(snapshot.AvatarURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to download avatar: %v\n", err)
		} else {
			avatarFilename = "avatar.jpg"
			avatarPath := fmt.Sprintf("%s/%s", outputDir, avatarFilename)
			if err := os.WriteFile(avatarPath, imageData, 0644); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to save avatar: %v\n", err)
				avatarFilename = ""
			} else {
				result.Avatar = avatarPath
				result.Files = append(result.Files, avatarPath)
			}
		}
	}

	mdData := SnapshotToMarkdown(snapshot, avatarFilename)

	mdFile := fmt.Sprintf("%s/README.md", outputDir)
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)

	return result, nil
}
