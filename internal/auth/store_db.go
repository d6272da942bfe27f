package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
	pgUniqueCode = "23505"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

func (s *PostgresStore) Create(ctx context.Context, u User, password string) (User, error) {
	u.Email = normalizeEmail(u.Email)

	hash, err := bcrypt.GenerateFromPassword([]byte(normalizePassword(password)), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	u.Hash = hash

	err = withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO users (id, email, name, pass_hash, role, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, u.ID, u.Email, u.Name, u.Hash, u.Role, u.CreatedAt, u.UpdatedAt)
		return err
	})
	if isUniqueViolation(err) {
		return User{}, ErrEmailExists
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *PostgresStore) Verify(ctx context.Context, email, password string) (User, error) {
	u, err := s.scanOne(ctx, `WHERE email = $1`, normalizeEmail(email))
	if errors.Is(err, ErrUserNotFound) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}

	if err := bcrypt.CompareHashAndPassword(u.Hash, []byte(normalizePassword(password))); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (User, error) {
	return s.scanOne(ctx, `WHERE id = $1`, id)
}

func (s *PostgresStore) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate, at time.Time) (User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	if upd.Email != nil {
		u.Email = normalizeEmail(*upd.Email)
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	u.UpdatedAt = at

	err = withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			UPDATE users SET email = $2, name = $3, updated_at = $4
			WHERE id = $1
		`, u.ID, u.Email, u.Name, u.UpdatedAt)
		return err
	})
	if isUniqueViolation(err) {
		return User{}, ErrEmailExists
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *PostgresStore) ChangePassword(ctx context.Context, id, current, next string, at time.Time) error {
	u, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword(u.Hash, []byte(normalizePassword(current))); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(normalizePassword(next)), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			UPDATE users SET pass_hash = $2, updated_at = $3
			WHERE id = $1
		`, id, hash, at)
		return err
	})
}

func (s *PostgresStore) scanOne(ctx context.Context, where string, arg any) (User, error) {
	var u User
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, `
			SELECT id, email, name, pass_hash, role, created_at, updated_at
			FROM users `+where, arg).
			Scan(&u.ID, &u.Email, &u.Name, &u.Hash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueCode
}
