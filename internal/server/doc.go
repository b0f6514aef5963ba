// Package server provides HTTP routing, middleware, and the JSON API over a song library.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns, so "GET /api/songs/{id}" and
// "DELETE /api/songs/{id}" are separate routes and path values come from [http.Request.PathValue].
//
// # API
//
// [API] exposes a [library.Library]:
//
//	GET    /api/songs          list (?q= filter, ?sort=added|title|release, ?desc=true)
//	POST   /api/songs          add one song; 409 on a duplicate title and artist
//	GET    /api/songs/{id}     fetch one song
//	PUT    /api/songs/{id}     edit; blank optional fields clear the stored value
//	DELETE /api/songs/{id}     remove
//	POST   /api/import         bulk import from lines, raw text, or a CSV export
//	GET    /api/export.csv     CSV export (?rich=true adds release date, cover and addedAt)
//	GET    /api/stats          artist and album aggregates
//	GET    /api/search         provider lookup (?q=, ?provider=, ?limit=)
//	GET    /api/providers      registered providers
//	GET    /api/status         library state, write policy and cache status
//
// Errors are JSON objects of the form {"error": "..."}; sentinel errors from [shared] map to
// 400, 401, 404, 409 and 502. Anything else is a logged 500.
//
// [Server] wraps [http.Server] with context-driven graceful shutdown.
package server
