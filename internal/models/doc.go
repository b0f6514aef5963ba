// Package models defines the domain entities of the listening log.
//
// The package contains three categories of types:
//
// 1. Persistent entities
//   - [Song] : A song the user has heard, with artists, album, cover art, and release date
//   - [User] : A local account that owns a remote-mode collection
//
// 2. Ephemeral pipeline records
//   - [ProviderSong] : Normalized search result from a metadata provider
//   - [ImportLineResult] : Outcome of one bulk-import line (a Song or a failure reason)
//   - [ImportReport] : Aggregated result of a bulk import, surfaced to the caller and discarded
//   - [CacheEntry] : Timestamped envelope for cached data with an absolute expiry
//
// 3. Derived views computed on demand
//   - [SortSongs] : Ordering by added time, title (locale-aware collation), or release date
//   - [ArtistStats] / [AlbumStats] : Distinct counts and per-artist / per-album groupings
//   - [Filter] : Case-insensitive search across title, artists, and album
//
// Artist strings are split with [SplitArtists] and library deduplication uses [DedupKey].
package models
