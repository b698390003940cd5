package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/italolelis/debrid_console/internal/storage"
)

type CredentialRepository struct {
	db *sql.DB
}

func NewCredentialRepository(dbConn *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: dbConn}
}

func (r *CredentialRepository) GetCredential(ctx context.Context, key string) (string, error) {
	var value string

	err := r.db.QueryRowContext(ctx, `SELECT value FROM credentials WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", storage.ErrCredentialNotFound
	}

	if err != nil {
		return "", err
	}

	return value, nil
}

// SaveCredential inserts or replaces the value stored under key.
func (r *CredentialRepository) SaveCredential(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO credentials (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value, time.Now().UTC().Format(time.RFC3339))

	return err
}

// DeleteCredential removes key. Deleting a missing key is not an error.
func (r *CredentialRepository) DeleteCredential(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM credentials WHERE key = ?`, key)

	return err
}
