package auth

import (
	"context"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type MemStore struct {
	mu      sync.RWMutex
	byID    map[string]User
	byEmail map[string]string
}

func NewMemStore() *MemStore {
	return &MemStore{
		byID:    make(map[string]User),
		byEmail: make(map[string]string),
	}
}

func (s *MemStore) Ping(context.Context) error { return nil }

func (s *MemStore) Create(_ context.Context, u User, password string) (User, error) {
	u.Email = normalizeEmail(u.Email)

	hash, err := bcrypt.GenerateFromPassword([]byte(normalizePassword(password)), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	u.Hash = hash

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[u.Email]; ok {
		return User{}, ErrEmailExists
	}

	s.byID[u.ID] = u
	s.byEmail[u.Email] = u.ID
	return u, nil
}

func (s *MemStore) Verify(_ context.Context, email, password string) (User, error) {
	s.mu.RLock()
	u, ok := s.byID[s.byEmail[normalizeEmail(email)]]
	s.mu.RUnlock()

	if !ok {
		return User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(u.Hash, []byte(normalizePassword(password))); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

func (s *MemStore) Get(_ context.Context, id string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

func (s *MemStore) UpdateProfile(_ context.Context, id string, upd ProfileUpdate, at time.Time) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return User{}, ErrUserNotFound
	}

	if upd.Email != nil {
		email := normalizeEmail(*upd.Email)
		if owner, taken := s.byEmail[email]; taken && owner != id {
			return User{}, ErrEmailExists
		}
		delete(s.byEmail, u.Email)
		s.byEmail[email] = id
		u.Email = email
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	u.UpdatedAt = at

	s.byID[id] = u
	return u, nil
}

func (s *MemStore) ChangePassword(_ context.Context, id, current, next string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return ErrUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword(u.Hash, []byte(normalizePassword(current))); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(normalizePassword(next)), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Hash = hash
	u.UpdatedAt = at
	s.byID[id] = u
	return nil
}
