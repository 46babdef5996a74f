package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const (
	sessionsTable = "user_sessions"
)

// SessionStore keeps the single current refresh token of every user.
//
// SetRefreshToken is an upsert with last-write-wins semantics; storing ""
// signs the user out. GetRefreshToken returns "" when the user has no
// session record.
type SessionStore interface {
	SetRefreshToken(ctx context.Context, userID, token string) error
	GetRefreshToken(ctx context.Context, userID string) (string, error)

	Close() error
}

var ErrEmptyUserID = errors.New("empty user id")

type PostgresStorage struct {
	db *pgxpool.Pool
}

func NewPostgresStorage(ctx context.Context, DbURL string) (*PostgresStorage, error) {
	const op = "storage.NewPostgresStorage"

	conn, err := pgxpool.Connect(ctx, DbURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &PostgresStorage{
		db: conn,
	}, nil
}

// Migrate creates the sessions table when it does not exist yet.
func (p *PostgresStorage) Migrate(ctx context.Context) error {
	const op = "storage.Migrate"

	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	user_id       TEXT PRIMARY KEY,
	refresh_token TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);`, sessionsTable)

	if _, err := p.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (p *PostgresStorage) SetRefreshToken(ctx context.Context, userID, token string) error {
	const op = "storage.SetRefreshToken"

	if userID == "" {
		return fmt.Errorf("%s: %w", op, ErrEmptyUserID)
	}

	query := fmt.Sprintf(`INSERT INTO %s(user_id, refresh_token, created_at, updated_at)
	VALUES ($1, $2, $3, $3)
	ON CONFLICT (user_id) DO UPDATE
	   SET refresh_token = EXCLUDED.refresh_token,
	       updated_at = EXCLUDED.updated_at`, sessionsTable)

	if _, err := p.db.Exec(ctx, query, userID, token, time.Now().UTC()); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (p *PostgresStorage) GetRefreshToken(ctx context.Context, userID string) (string, error) {
	const op = "storage.GetRefreshToken"

	if userID == "" {
		return "", nil
	}

	var token string
	query := fmt.Sprintf("SELECT refresh_token FROM %s WHERE user_id=$1;", sessionsTable)

	err := p.db.QueryRow(ctx, query, userID).Scan(&token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return token, nil
}

func (p *PostgresStorage) Close() error {
	p.db.Close()
	return nil
}
