// Package repositories implements the storage backends behind the song library.
//
// Key Implementations:
//   - [KVRepository] : key/value storage port over the kv_store table (local-only songs, cache entries, session)
//   - [SongRepository] : user-scoped song rows in SQLite, the default remote-mode store
//   - [PostgRESTClient] : the same song table reached over a hosted PostgREST endpoint
//   - [UserRepository] : local accounts with email lookups and soft deletes
//   - [SessionRepository] : the signed-in user, persisted through the key/value port
//
// Song rows mirror the JSON field names of [models.Song]; camelCase columns are quoted in SQL.
// Sequence numbers give users a stable, human-readable ordering independent of UUIDs.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
