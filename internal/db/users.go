package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// User is an API operator account, persisted only to back bearer-token
// login (§6.1); it has no relationship to the enrichment pipeline data.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
}

type UserStore struct {
	store *PostgresStore
}

func NewUserStore(s *PostgresStore) *UserStore {
	return &UserStore{store: s}
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	row := s.store.pool.QueryRow(ctx,
		`SELECT id, email, name, password_hash FROM users WHERE email=$1`, email)
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &u, err
}

func (s *UserStore) Get(ctx context.Context, id string) (*User, error) {
	row := s.store.pool.QueryRow(ctx,
		`SELECT id, email, name, password_hash FROM users WHERE id=$1`, id)
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &u, err
}

func (s *UserStore) Insert(ctx context.Context, u *User) error {
	_, err := s.store.pool.Exec(ctx,
		`INSERT INTO users (id, email, name, password_hash) VALUES ($1,$2,$3,$4)`,
		u.ID, u.Email, u.Name, u.PasswordHash)
	return err
}
