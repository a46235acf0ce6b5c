// Package session persists the small key/value bookkeeping a client session
// needs between runs: the access token and the resolved identity.
package session

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"chat-client/internal/models"
)

const (
	keyToken = "access_token"
	keyUser  = "current_user"
)

// Store is a sqlite-backed session store.
type Store struct {
	db *sqlx.DB
}

// Open initializes the session database at path and runs migrations.
// ":memory:" works for tests.
func Open(path string) (*Store, error) {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

func runMigrations(db *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS session (
            key TEXT PRIMARY KEY,
            value TEXT NOT NULL,
            updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
	}
	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) put(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO session (key, value, updated_at) VALUES ($1, $2, CURRENT_TIMESTAMP)
         ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=CURRENT_TIMESTAMP`,
		key, value,
	)
	return err
}

func (s *Store) get(key string) (string, bool, error) {
	var value string
	err := s.db.Get(&value, `SELECT value FROM session WHERE key=$1`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// SaveToken persists the access token.
func (s *Store) SaveToken(token string) error {
	return s.put(keyToken, token)
}

// Token returns the persisted access token, "" when none is stored.
func (s *Store) Token() (string, error) {
	value, _, err := s.get(keyToken)
	return value, err
}

// SaveUser persists the resolved identity.
func (s *Store) SaveUser(user models.CurrentUser) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return s.put(keyUser, string(raw))
}

// User returns the persisted identity; ok is false when none is stored.
func (s *Store) User() (models.CurrentUser, bool, error) {
	raw, ok, err := s.get(keyUser)
	if err != nil || !ok {
		return models.CurrentUser{}, false, err
	}
	var user models.CurrentUser
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return models.CurrentUser{}, false, err
	}
	return user, true, nil
}

// Clear wipes the session, e.g. on logout.
func (s *Store) Clear() error {
	_, err := s.db.Exec(`DELETE FROM session`)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
