package auth

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
)

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Hash      []byte    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ProfileUpdate struct {
	Name  *string
	Email *string
}

type UserStore interface {
	Create(ctx context.Context, u User, password string) (User, error)
	Verify(ctx context.Context, email, password string) (User, error)
	Get(ctx context.Context, id string) (User, error)
	UpdateProfile(ctx context.Context, id string, upd ProfileUpdate, at time.Time) (User, error)
	ChangePassword(ctx context.Context, id, current, next string, at time.Time) error
	Ping(ctx context.Context) error
}

func NewStore() UserStore {
	return NewMemStore()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normalizePassword(password string) string {
	return strings.TrimSpace(password)
}
