// Package services defines the [Provider] interface for song-metadata search APIs and the [Gateway] that routes between them.
//
// # Providers
//
// Every provider normalizes its response into [models.ProviderSong]:
//   - [ITunesProvider] : iTunes Search API, one instance per storefront (CN is domestic, US is international)
//   - [SpotifyProvider] : Spotify Web API search using an app-only client credentials token
//   - [YouTubeProvider] : YouTube Music search through the ytmusicapi FastAPI proxy (music/)
//
// # Cover Art
//
// Cover URLs are resolved through a per-provider fallback chain (artworkUrl100, 60, 30 for iTunes;
// track then album thumbnails for YouTube Music; album images for Spotify). The winner is passed
// through [UpgradeCover], which swaps known low-resolution size tokens for a larger size, and
// [NormalizeURL], which rewrites protocol-relative URLs to https. YouTube Music falls back to the
// video thumbnail template when no artwork is present.
//
// # Fallback
//
// [Gateway.Search] with an empty provider id uses the default provider and walks the configured
// fallback list on failure, stopping at the first success. A provider named by the caller is
// never substituted.
//
// # Error Handling
//
// Transport failures, non-2xx statuses and undecodable bodies are returned as [*ProviderError],
// which matches [shared.ErrProvider]. Unknown provider ids return [shared.ErrUnsupportedProvider].
package services
