package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PostgresTokenStore keeps the token as a row of session_tokens keyed by the
// session key, so several profiles can share one database.
type PostgresTokenStore struct {
	db  *sql.DB
	key string
	now func() time.Time
}

func NewPostgresTokenStore(db *sql.DB, key string) *PostgresTokenStore {
	return &PostgresTokenStore{db: db, key: key, now: time.Now}
}

func (p *PostgresTokenStore) Load(ctx context.Context) (string, error) {
	query := `
		SELECT token, expires_at
		FROM session_tokens
		WHERE session_key = $1
	`

	var (
		token     string
		expiresAt sql.NullTime
	)
	err := p.db.QueryRowContext(ctx, query, p.key).Scan(&token, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("failed to load session token: %w", err)
	}

	if expiresAt.Valid && !expiresAt.Time.After(p.now()) {
		if err := p.Clear(ctx); err != nil {
			return "", err
		}
		return "", ErrNoToken
	}
	return token, nil
}

func (p *PostgresTokenStore) Save(ctx context.Context, token string, expiresAt time.Time) error {
	query := `
		INSERT INTO session_tokens (session_key, token, expires_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_key)
		DO UPDATE SET token = EXCLUDED.token, expires_at = EXCLUDED.expires_at, updated_at = EXCLUDED.updated_at
	`

	exp := sql.NullTime{Time: expiresAt, Valid: !expiresAt.IsZero()}
	if _, err := p.db.ExecContext(ctx, query, p.key, token, exp, p.now()); err != nil {
		return fmt.Errorf("failed to save session token: %w", err)
	}
	return nil
}

func (p *PostgresTokenStore) Clear(ctx context.Context) error {
	query := `DELETE FROM session_tokens WHERE session_key = $1`

	if _, err := p.db.ExecContext(ctx, query, p.key); err != nil {
		return fmt.Errorf("failed to clear session token: %w", err)
	}
	return nil
}
