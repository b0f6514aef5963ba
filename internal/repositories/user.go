package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/melodylog/internal/models"
	"github.com/desertthunder/melodylog/internal/shared"
)

const userColumns = `id, sequence, email, name, created_at, updated_at, deleted_at`

// UserRepository persists local [models.User] accounts.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new [UserRepository] with the given database connection
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user into the database with generated ID and sequence
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	user.ID = shared.GenerateID()
	if err := user.Validate(); err != nil {
		user.ID = ""
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(ctx, r.db, "users")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}
	user.Sequence = sequence

	query := `
		INSERT INTO users (id, sequence, email, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query, user.ID, user.Sequence, user.Email, user.Name, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("%w: email %s", shared.ErrDuplicateEntry, user.Email)
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// Get retrieves a user by ID, excluding soft-deleted users
func (r *UserRepository) Get(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ? AND deleted_at IS NULL`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrUserNotFound, id)
	}
	return user, err
}

// GetByEmail retrieves an active user by email, compared case-insensitively.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower(?) AND deleted_at IS NULL`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, strings.TrimSpace(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrUserNotFound, email)
	}
	return user, err
}

// FindOrCreate returns the active user with email, creating one when none exists.
func (r *UserRepository) FindOrCreate(ctx context.Context, email, name string) (*models.User, bool, error) {
	user, err := r.GetByEmail(ctx, email)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, shared.ErrUserNotFound) {
		return nil, false, err
	}

	user = models.NewUser(email, name)
	if err := r.Create(ctx, user); err != nil {
		return nil, false, err
	}
	return user, true, nil
}

// Update modifies an existing user in the database
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	user.UpdatedAt = now

	query := `
		UPDATE users
		SET email = ?, name = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, user.Email, user.Name, now, user.ID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	return expectUserRow(result, user.ID)
}

// Delete soft-deletes a user by ID
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	query := `
		UPDATE users
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return expectUserRow(result, id)
}

// List retrieves all active users in sequence order, optionally filtered by email
func (r *UserRepository) List(ctx context.Context, email string) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE deleted_at IS NULL`
	args := []any{}

	if email != "" {
		query += " AND email = ?"
		args = append(args, email)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return users, nil
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		user      models.User
		deletedAt sql.NullTime
	)

	err := row.Scan(&user.ID, &user.Sequence, &user.Email, &user.Name, &user.CreatedAt, &user.UpdatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	if deletedAt.Valid {
		user.DeletedAt = &deletedAt.Time
	}
	return &user, nil
}

func expectUserRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: not found or already deleted: %s", shared.ErrUserNotFound, id)
	}
	return nil
}
