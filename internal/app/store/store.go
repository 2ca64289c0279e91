package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zechsoft/global-backfinal-sub000/internal/app/user"
)

// Store executes all persistence operations against a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// New constructs a Store backed by the given connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// parseID validates that id is a well-formed UUID and returns its canonical form.
func parseID(id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", ErrInvalidID
	}
	return parsed.String(), nil
}

// NormalizePair orders a two-user pair so that {A,B} and {B,A} map to the same
// (participantA, participantB) tuple. The conversations table enforces
// participant_a < participant_b, so normalization plus the unique constraint
// guarantees one conversation per unordered pair even under concurrent creation.
func NormalizePair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// GetUserByID resolves a user id to its identity record.
// Returns ErrNotFound if the user does not exist.
func (s *Store) GetUserByID(ctx context.Context, id string) (user.User, error) {
	userID, err := parseID(id)
	if err != nil {
		return user.User{}, err
	}

	var u user.User
	err = s.pool.QueryRow(ctx,
		`SELECT id, display_name, email, role FROM users WHERE id = $1`,
		userID,
	).Scan(&u.ID, &u.DisplayName, &u.Email, &u.Role)

	if err != nil {
		if isNoRows(err) {
			return user.User{}, ErrNotFound
		}
		return user.User{}, err
	}

	return u, nil
}
