package repositories

import (
	"context"
	"database/sql"
	"reflect"
	"testing"

	"github.com/desertthunder/melodylog/internal/models"
	"github.com/desertthunder/melodylog/internal/shared"
	tu "github.com/desertthunder/melodylog/internal/testing"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(shared.MemoryDatabase)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := models.NewUser("test@example.com", "Test User")

		if err := repo.Create(ctx, user); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		if user.ID == "" {
			t.Error("user ID should be set after creation")
		}
		if user.Sequence != 1 {
			t.Errorf("expected sequence 1, got %d", user.Sequence)
		}
	})

	t.Run("Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := models.NewUser("test@example.com", "Test User")

		if err := repo.Create(ctx, user); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		retrieved, err := repo.Get(ctx, user.ID)
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}

		if retrieved.ID != user.ID {
			t.Errorf("expected ID %s, got %s", user.ID, retrieved.ID)
		}

		if retrieved.Email != user.Email {
			t.Errorf("expected email %s, got %s", user.Email, retrieved.Email)
		}
	})

	t.Run("GetByEmail", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := models.NewUser("Mixed@Example.com", "")
		if err := repo.Create(ctx, user); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		retrieved, err := repo.GetByEmail(ctx, "mixed@example.com")
		if err != nil {
			t.Fatalf("failed to get user by email: %v", err)
		}
		if retrieved.ID != user.ID || retrieved.DisplayName() != "Mixed@Example.com" {
			t.Errorf("unexpected user %+v", retrieved)
		}
	})

	t.Run("FindOrCreate", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)

		first, created, err := repo.FindOrCreate(ctx, "me@example.com", "Me")
		if err != nil || !created {
			t.Fatalf("expected new user, got created=%v err=%v", created, err)
		}

		second, created, err := repo.FindOrCreate(ctx, "me@example.com", "Other Name")
		if err != nil || created {
			t.Fatalf("expected existing user, got created=%v err=%v", created, err)
		}
		if first.ID != second.ID {
			t.Errorf("expected same user, got %s and %s", first.ID, second.ID)
		}
	})

	t.Run("Update", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := models.NewUser("test@example.com", "Test User")

		if err := repo.Create(ctx, user); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		retrieved, err := repo.Get(ctx, user.ID)
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}

		retrieved.Name = "Renamed"
		if err := repo.Update(ctx, retrieved); err != nil {
			t.Fatalf("failed to update user: %v", err)
		}

		updated, _ := repo.Get(ctx, user.ID)
		if updated.Name != "Renamed" {
			t.Errorf("expected updated name, got %q", updated.Name)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := models.NewUser("test@example.com", "Test User")

		if err := repo.Create(ctx, user); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		if err := repo.Delete(ctx, user.ID); err != nil {
			t.Fatalf("failed to delete user: %v", err)
		}

		_, err := repo.Get(ctx, user.ID)
		if err == nil {
			t.Error("expected error when getting deleted user")
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)

		users := []*models.User{
			models.NewUser("user1@example.com", "User One"),
			models.NewUser("user2@example.com", "User Two"),
			models.NewUser("user3@example.com", "User Three"),
		}

		for _, user := range users {
			if err := repo.Create(ctx, user); err != nil {
				t.Fatalf("failed to create user: %v", err)
			}
		}

		retrieved, err := repo.List(ctx, "")
		if err != nil {
			t.Fatalf("failed to list users: %v", err)
		}

		if len(retrieved) != 3 {
			t.Errorf("expected 3 users, got %d", len(retrieved))
		}

		filtered, err := repo.List(ctx, "user2@example.com")
		if err != nil {
			t.Fatalf("failed to list filtered users: %v", err)
		}

		if len(filtered) != 1 {
			t.Errorf("expected 1 user, got %d", len(filtered))
		}

		if len(filtered) > 0 && filtered[0].Email != "user2@example.com" {
			t.Errorf("expected user2@example.com, got %s", filtered[0].Email)
		}
	})
}

func TestSongRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Insert & Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSongRepository(db)
		song := tu.SampleSong(t, "s1", "七里香", "周杰伦")
		song.Album = models.Ptr("七里香")
		song.ReleaseDate = models.Ptr("2004-08-03")
		song.Duration = 299

		if _, err := repo.Insert(ctx, "u1", song); err != nil {
			t.Fatalf("failed to insert song: %v", err)
		}

		got, err := repo.Get(ctx, "u1", "s1")
		if err != nil {
			t.Fatalf("failed to get song: %v", err)
		}
		if !reflect.DeepEqual(got, song) {
			t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, song)
		}
	})

	t.Run("blank optional columns read back absent", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSongRepository(db)
		song := tu.SampleSong(t, "s1", "Song", "A")
		song.CoverURL = models.Ptr("")

		if _, err := repo.Insert(ctx, "u1", song); err != nil {
			t.Fatalf("failed to insert song: %v", err)
		}
		got, _ := repo.Get(ctx, "u1", "s1")
		if got.CoverURL != nil || got.Album != nil {
			t.Errorf("expected absent fields, got %+v", got)
		}
	})

	t.Run("List is user scoped and newest first", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSongRepository(db)
		old := tu.SampleSong(t, "old", "Old", "A")
		old.AddedAt = 1000
		newer := tu.SampleSong(t, "new", "New", "A")
		newer.AddedAt = 2000
		other := tu.SampleSong(t, "other", "Other", "B")

		for _, s := range []models.Song{old, newer} {
			if _, err := repo.Insert(ctx, "u1", s); err != nil {
				t.Fatalf("failed to insert song: %v", err)
			}
		}
		if _, err := repo.Insert(ctx, "u2", other); err != nil {
			t.Fatalf("failed to insert song: %v", err)
		}

		songs, err := repo.List(ctx, "u1")
		if err != nil {
			t.Fatalf("failed to list songs: %v", err)
		}
		if len(songs) != 2 || songs[0].ID != "new" || songs[1].ID != "old" {
			t.Errorf("unexpected order %+v", songs)
		}

		n, _ := repo.Count(ctx, "u2")
		if n != 1 {
			t.Errorf("expected 1 song for u2, got %d", n)
		}
	})

	t.Run("same id may exist for different users", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSongRepository(db)
		song := tu.SampleSong(t, "shared", "Song", "A")
		if _, err := repo.Insert(ctx, "u1", song); err != nil {
			t.Fatalf("failed to insert song: %v", err)
		}
		if _, err := repo.Insert(ctx, "u2", song); err != nil {
			t.Fatalf("failed to insert song for second user: %v", err)
		}
	})

	t.Run("InsertMany", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSongRepository(db)
		songs := []models.Song{
			tu.SampleSong(t, "a", "A", "X"),
			tu.SampleSong(t, "b", "B", "Y"),
			tu.SampleSong(t, "c", "C", "Z"),
		}

		saved, err := repo.InsertMany(ctx, "u1", songs)
		if err != nil {
			t.Fatalf("failed to insert songs: %v", err)
		}
		if len(saved) != 3 {
			t.Errorf("expected 3 saved, got %d", len(saved))
		}

		ids, _ := repo.IDs(ctx, "u1")
		if len(ids) != 3 {
			t.Errorf("expected 3 ids, got %v", ids)
		}
	})

	t.Run("Update", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSongRepository(db)
		song := tu.SampleSong(t, "s1", "Song", "A")
		if _, err := repo.Insert(ctx, "u1", song); err != nil {
			t.Fatalf("failed to insert song: %v", err)
		}

		song.Title = "Renamed"
		song.Artists = []string{"A", "B"}
		song.Album = models.Ptr("Album")
		if _, err := repo.Update(ctx, "u1", song); err != nil {
			t.Fatalf("failed to update song: %v", err)
		}

		got, _ := repo.Get(ctx, "u1", "s1")
		if got.Title != "Renamed" || !reflect.DeepEqual(got.Artists, []string{"A", "B"}) || got.AlbumName() != "Album" {
			t.Errorf("unexpected song %+v", got)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSongRepository(db)
		song := tu.SampleSong(t, "s1", "Song", "A")
		if _, err := repo.Insert(ctx, "u1", song); err != nil {
			t.Fatalf("failed to insert song: %v", err)
		}

		if err := repo.Delete(ctx, "u1", "s1"); err != nil {
			t.Fatalf("failed to delete song: %v", err)
		}
		if n, _ := repo.Count(ctx, "u1"); n != 0 {
			t.Errorf("expected empty table, got %d", n)
		}
	})
}

func TestKVRepository(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	defer db.Close()

	repo := NewKVRepository(db)

	t.Run("missing key", func(t *testing.T) {
		_, ok, err := repo.Get(ctx, "missing")
		if err != nil || ok {
			t.Errorf("expected absent key, got ok=%v err=%v", ok, err)
		}
	})

	t.Run("set overwrites", func(t *testing.T) {
		if err := repo.Set(ctx, "k", "v1"); err != nil {
			t.Fatalf("failed to set: %v", err)
		}
		if err := repo.Set(ctx, "k", "v2"); err != nil {
			t.Fatalf("failed to overwrite: %v", err)
		}

		v, ok, err := repo.Get(ctx, "k")
		if err != nil || !ok || v != "v2" {
			t.Errorf("expected v2, got %q ok=%v err=%v", v, ok, err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := repo.Delete(ctx, "k"); err != nil {
			t.Fatalf("failed to delete: %v", err)
		}
		if _, ok, _ := repo.Get(ctx, "k"); ok {
			t.Error("expected key to be gone")
		}
		if err := repo.Delete(ctx, "k"); err != nil {
			t.Errorf("deleting an absent key should succeed, got %v", err)
		}
	})

	t.Run("keys by prefix", func(t *testing.T) {
		for _, k := range []string{"cache:b", "cache:a", "other"} {
			if err := repo.Set(ctx, k, "x"); err != nil {
				t.Fatalf("failed to set %s: %v", k, err)
			}
		}

		keys, err := repo.Keys(ctx, "cache:")
		if err != nil {
			t.Fatalf("failed to list keys: %v", err)
		}
		if !reflect.DeepEqual(keys, []string{"cache:a", "cache:b"}) {
			t.Errorf("unexpected keys %v", keys)
		}
	})
}

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("no session means no user", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		sessions := NewSessionRepository(NewKVRepository(db), NewUserRepository(db))
		user, err := sessions.Current(ctx)
		if err != nil || user != nil {
			t.Errorf("expected signed out, got %+v err=%v", user, err)
		}
	})

	t.Run("start and end", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		users := NewUserRepository(db)
		sessions := NewSessionRepository(NewKVRepository(db), users)

		user, _, err := users.FindOrCreate(ctx, "me@example.com", "Me")
		if err != nil {
			t.Fatalf("failed to create user: %v", err)
		}
		if err := sessions.Start(ctx, user); err != nil {
			t.Fatalf("failed to start session: %v", err)
		}

		current, err := sessions.Current(ctx)
		if err != nil || current == nil || current.ID != user.ID {
			t.Fatalf("expected signed in user, got %+v err=%v", current, err)
		}

		if err := sessions.End(ctx); err != nil {
			t.Fatalf("failed to end session: %v", err)
		}
		if current, _ := sessions.Current(ctx); current != nil {
			t.Error("expected signed out after End")
		}
	})

	t.Run("stale session is cleared", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		kv := tu.NewMemoryStore()
		_ = kv.Set(ctx, SessionKey, "deleted-user")
		sessions := NewSessionRepository(kv, NewUserRepository(db))

		user, err := sessions.Current(ctx)
		if err != nil || user != nil {
			t.Errorf("expected signed out, got %+v err=%v", user, err)
		}
		if kv.Has(SessionKey) {
			t.Error("expected stale session to be removed")
		}
	})
}

func TestNextSequence(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	defer db.Close()

	seq1, err := NextSequence(ctx, db, "users")
	if err != nil {
		t.Fatalf("failed to get first sequence: %v", err)
	}

	if seq1 != 1 {
		t.Errorf("expected first sequence to be 1, got %d", seq1)
	}

	// Get second sequence
	seq2, err := NextSequence(ctx, db, "users")
	if err != nil {
		t.Fatalf("failed to get second sequence: %v", err)
	}

	if seq2 != 2 {
		t.Errorf("expected second sequence to be 2, got %d", seq2)
	}

	if _, err := NextSequence(ctx, db, "missing"); err == nil {
		t.Error("expected error for table without a sequence")
	}
}
