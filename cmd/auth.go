package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/melodylog/internal/formatter"
	"github.com/desertthunder/melodylog/internal/library"
	"github.com/desertthunder/melodylog/internal/models"
	"github.com/desertthunder/melodylog/internal/shared"
	"github.com/urfave/cli/v3"
)

// authStatus is the JSON shape of "auth status".
type authStatus struct {
	SignedIn bool   `json:"signedIn"`
	UserID   string `json:"userId,omitempty"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
	State    string `json:"state"`
	Policy   string `json:"policy"`
	Songs    int    `json:"songs"`
	Cache    any    `json:"cache,omitempty"`
}

// AuthLogin signs in as the user with the given email, creating the user on first use.
//
// Signing in switches the library to remote mode, which copies local-only songs into the
// user's collection before loading it.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	email := strings.TrimSpace(cmd.StringArg("email"))
	if email == "" {
		return fmt.Errorf("%w: email", shared.ErrMissingArgument)
	}

	if err := r.open(ctx); err != nil {
		return err
	}

	user, created, err := r.users.FindOrCreate(ctx, email, cmd.String("name"))
	if err != nil {
		return err
	}
	if created {
		r.logger.Info("created user", "email", user.Email, "id", user.ID)
	} else if name := strings.TrimSpace(cmd.String("name")); name != "" && name != user.Name {
		user.Name = name
		if err := r.users.Update(ctx, user); err != nil {
			return err
		}
		r.logger.Info("renamed user", "email", user.Email, "name", name)
	}

	if token := cmd.String("token"); token != "" {
		if err := r.kv.Set(ctx, AccessTokenKey, token); err != nil {
			return err
		}
	}

	if err := r.sessions.Start(ctx, user); err != nil {
		return err
	}

	// Rebuild so the remote store picks up a new token and the saved session signs in.
	r.library = nil
	if err := r.open(ctx); err != nil {
		return err
	}

	r.logger.Info("signed in", "user", user.Email, "state", r.library.State())
	return r.writePlain("✓ Signed in as %s (%d songs)\n", user.DisplayName(), len(r.library.Songs()))
}

// AuthLogout ends the session and drops the user's cached collection.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx); err != nil {
		return err
	}
	if r.user == nil {
		return r.writePlain("Not signed in\n")
	}

	email := r.user.Email
	if err := r.signOut(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ Signed out %s\n", email)
}

func (r *Runner) signOut(ctx context.Context) error {
	if err := r.library.SignOut(ctx); err != nil {
		r.logger.Warn("sign out did not clear the cache", "error", err)
	}
	if err := r.sessions.End(ctx); err != nil {
		return err
	}
	if err := r.kv.Delete(ctx, AccessTokenKey); err != nil {
		return err
	}

	r.logger.Info("signed out", "user", r.user.Email)
	r.user = nil
	return nil
}

// AuthUsers lists the local user accounts.
func (r *Runner) AuthUsers(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx); err != nil {
		return err
	}

	users, err := r.users.List(ctx, "")
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		if users == nil {
			users = []*models.User{}
		}
		return r.writeJSON(users, true)
	}

	current := ""
	if r.user != nil {
		current = r.user.ID
	}
	return r.writePlain("%s\n", formatter.RenderUsers(users, current))
}

// AuthDelete soft-deletes the user with the given email and drops its cached collection.
//
// Songs already in the remote store are left in place.
func (r *Runner) AuthDelete(ctx context.Context, cmd *cli.Command) error {
	email := strings.TrimSpace(cmd.StringArg("email"))
	if email == "" {
		return fmt.Errorf("%w: email", shared.ErrMissingArgument)
	}

	if err := r.open(ctx); err != nil {
		return err
	}

	user, err := r.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	if r.user != nil && r.user.ID == user.ID {
		if err := r.signOut(ctx); err != nil {
			return err
		}
	}
	if err := r.users.Delete(ctx, user.ID); err != nil {
		return err
	}
	if err := r.kv.Delete(ctx, library.CacheKey(user.ID)); err != nil {
		return err
	}

	r.logger.Info("deleted user", "email", user.Email, "id", user.ID)
	return r.writePlain("✓ Deleted %s\n", user.Email)
}

// AuthStatus reports the signed-in user, library state and write policy.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx); err != nil {
		return err
	}

	status := authStatus{
		SignedIn: r.user != nil,
		State:    r.library.State().String(),
		Policy:   r.library.Policy().String(),
		Songs:    len(r.library.Songs()),
	}
	if r.user != nil {
		status.UserID, status.Email, status.Name = r.user.ID, r.user.Email, r.user.Name
		cache, err := r.library.CacheStatus(ctx)
		if err != nil {
			return err
		}
		status.Cache = cache
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, true)
	}

	if r.user == nil {
		return r.writePlain("Not signed in • %s • %d songs\n", status.Policy, status.Songs)
	}
	return r.writePlain("Signed in as %s <%s>\nState: %s • %s • %d songs\n",
		r.user.DisplayName(), r.user.Email, status.State, status.Policy, status.Songs)
}
