// Package models defines the data model shared across the stats client.
//
// The package contains two categories of types:
//
// 1. Provider payloads, mirroring Spotify Web API responses:
//   - [Profile] : The authenticated user's account record
//   - [Image] : An image resource attached to profiles, songs and artists
//
// 2. Backend payloads, mirroring the stats backend's snapshot schema:
//   - [Snapshot] : One historical aggregate of listening statistics
//   - [SongEntry] / [SongList] : A snapshot's top songs
//   - [ArtistEntry] / [ArtistList] : A snapshot's top artists
package models
