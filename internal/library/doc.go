// Package library is the persistence and cache layer that owns the in-memory song list.
//
// Two backing modes are selected by whether a user is signed in:
//
//   - Local-only: the whole list is one JSON array under [LocalKey] in the storage port.
//     Writes follow the [Optimistic] policy: memory first, then storage.
//   - Remote: songs are rows in a user-scoped [SongStore], mirrored into a [Cache] entry that
//     expires after [DefaultCacheTTL]. Writes follow the [Confirmed] policy: the remote store
//     must accept a write before memory or cache change.
//
// [Library.SignIn] walks SIGNED_OUT -> LOADING -> READY / READY_FROM_CACHE / READY_EMPTY,
// moving local-only songs into the remote store first (see [Library.MigrateLocalIntoRemote]).
// [Library.SignOut] always clears memory and the user's cache entry.
//
// Write failures surface as [PersistenceError]; load failures degrade to cached or local data.
package library
