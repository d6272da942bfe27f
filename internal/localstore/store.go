// Package localstore keeps client state (session token, cart) in a leveldb directory.
package localstore

import (
	"errors"

	"github.com/syndtr/goleveldb/leveldb"
	ldbopt "github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

const tokenKey = "auth_token"

var syncWrite = &ldbopt.WriteOptions{Sync: true}

type Store struct {
	db *leveldb.DB
}

// Open creates the directory at path if it does not exist yet.
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, &ldbopt.Options{ErrorIfMissing: false})
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// OpenMemory returns a store that forgets everything on Close.
func OpenMemory() (*Store, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Get(key string) (string, bool, error) {
	v, err := s.db.Get([]byte(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(v), true, nil
}

func (s *Store) Set(key, value string) error {
	return s.db.Put([]byte(key), []byte(value), syncWrite)
}

func (s *Store) Delete(key string) error {
	return s.db.Delete([]byte(key), syncWrite)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Token() (string, error) {
	tok, _, err := s.Get(tokenKey)
	return tok, err
}

func (s *Store) SetToken(token string) error {
	if token == "" {
		return s.ClearToken()
	}
	return s.Set(tokenKey, token)
}

func (s *Store) ClearToken() error {
	return s.Delete(tokenKey)
}
