// Package tasks implements the song enrichment and bulk import pipeline with real-time progress reporting.
//
// # Reconciliation
//
// [Reconciler.Reconcile] fills a song stub's missing album, cover, and release date:
//
//  1. A stub that already has both a cover and a release date is returned untouched, with no lookup.
//  2. The domestic storefront is searched for five candidates using "title artists...".
//  3. The first candidate passing [StrictMatch] supplies the fields.
//  4. Otherwise the top international result is accepted without filtering.
//
// Only blank fields are filled; a user-entered album is never replaced. Lookup errors are
// logged and the stub is returned as-is.
//
// # Bulk Import
//
// [Importer.Import] takes raw lines, each either a JSON record or "title - artist (album)"
// (see [ParseLine]). Lines are handled strictly in order. Each accepted line's dedup key is
// added to the seen set before the next line starts, so repeated lines within one batch are
// rejected as duplicates. Lookups go through a [Throttle] that keeps one request in flight with
// a fixed gap between starts.
//
// Accepted songs are persisted in one call when the sink implements [BatchSink], else one by one.
// The [models.ImportReport] lists every failed line with its reason in input order.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
