package models

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/desertthunder/melodylog/internal/shared"
)

// User is a local account. Remote-mode songs are scoped by [User.ID].
type User struct {
	ID        string
	Sequence  int
	Email     string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// NewUser creates a User stamped with the current time. ID and Sequence are assigned on insert.
func NewUser(email, name string) *User {
	now := time.Now()
	return &User{
		Email:     strings.TrimSpace(email),
		Name:      strings.TrimSpace(name),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks that the user has an id and a well-formed email.
func (u *User) Validate() error {
	if u.ID == "" {
		return fmt.Errorf("%w: user id is required", shared.ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return fmt.Errorf("%w: invalid email %q", shared.ErrInvalidInput, u.Email)
	}
	return nil
}

// DisplayName returns the name, falling back to the email.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
