package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/melodylog/internal/models"
	"github.com/desertthunder/melodylog/internal/shared"
)

// SessionKey is the storage key holding the signed-in user's id.
const SessionKey = "melodylog_session"

// KV is the storage port the session is kept in.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// SessionRepository tracks which local user is signed in.
type SessionRepository struct {
	kv    KV
	users *UserRepository
}

// NewSessionRepository creates a session store over kv that resolves ids through users.
func NewSessionRepository(kv KV, users *UserRepository) *SessionRepository {
	return &SessionRepository{kv: kv, users: users}
}

// Current returns the signed-in user, or nil when nobody is signed in.
//
// A session pointing at a deleted or unknown user is cleared and reported as signed out.
func (r *SessionRepository) Current(ctx context.Context) (*models.User, error) {
	id, ok, err := r.kv.Get(ctx, SessionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	if !ok || id == "" {
		return nil, nil
	}

	user, err := r.users.Get(ctx, id)
	if errors.Is(err, shared.ErrUserNotFound) {
		return nil, r.kv.Delete(ctx, SessionKey)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Start records user as signed in.
func (r *SessionRepository) Start(ctx context.Context, user *models.User) error {
	if user == nil || user.ID == "" {
		return fmt.Errorf("%w: user id is required", shared.ErrInvalidInput)
	}
	return r.kv.Set(ctx, SessionKey, user.ID)
}

// End clears the session.
func (r *SessionRepository) End(ctx context.Context) error {
	return r.kv.Delete(ctx, SessionKey)
}
