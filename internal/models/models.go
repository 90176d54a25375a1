package models

import "fmt"

// Image represents an image resource attached to profiles, songs and artists.
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height,omitempty"`
	Width  int    `json:"width,omitempty"`
}

type followers struct {
	Total int `json:"total"`
}

// Profile represents a Spotify user profile as returned by the
// current-user endpoint.
type Profile struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	Country     string    `json:"country"`
	Product     string    `json:"product"` // premium, free, etc.
	Followers   followers `json:"followers"`
	Images      []Image   `json:"images"`
}

// AvatarURL returns the first profile image URL, if any.
func (p *Profile) AvatarURL() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0].URL
}

// SongEntry is one song in a snapshot's top-songs list.
type SongEntry struct {
	Name   string `json:"name"`
	Artist string `json:"artist"`
	Image  Image  `json:"image"`
}

// ArtistEntry is one artist in a snapshot's top-artists list.
type ArtistEntry struct {
	Name  string `json:"name"`
	Image Image  `json:"image"`
}

// SongList wraps the backend's nested top-songs payload.
type SongList struct {
	Songs []SongEntry `json:"songs"`
}

// ArtistList wraps the backend's nested top-artists payload.
type ArtistList struct {
	Artists []ArtistEntry `json:"artists"`
}

// Snapshot is one historical aggregate of a user's listening statistics,
// as stored and served by the stats backend.
type Snapshot struct {
	Date          string     `json:"date"`
	Username      string     `json:"username"`
	AvatarURL     string     `json:"avatar_url"`
	ListeningTime int64      `json:"listening_time"` // milliseconds
	TopGenres     []string   `json:"top_genres"`
	TopSongs      SongList   `json:"top_songs"`
	TopArtists    ArtistList `json:"top_artists"`
}

// Validate checks that the snapshot carries the fields every backend
// response includes.
func (s *Snapshot) Validate() error {
	if s.Username == "" {
		return fmt.Errorf("snapshot missing username")
	}
	if s.Date == "" {
		return fmt.Errorf("snapshot missing date")
	}
	if s.ListeningTime < 0 {
		return fmt.Errorf("snapshot has negative listening time")
	}
	return nil
}
