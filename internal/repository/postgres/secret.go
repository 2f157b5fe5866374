package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/modkit/modkit-server/internal/model"
)

var _ model.SecretStore = (*SecretRepository)(nil)

// SecretRepository persists encrypted envelopes keyed by opaque storage keys.
// Single-key reads and writes are atomic; concurrent writers to the same key
// are last-write-wins.
type SecretRepository struct {
	db *Connection
}

func NewSecretRepository(db *Connection) *SecretRepository {
	return &SecretRepository{
		db: db,
	}
}

func (r *SecretRepository) Get(ctx context.Context, storageKey string) ([]byte, error) {
	const query = `SELECT envelope FROM module_secrets WHERE storage_key = $1`

	var envelope []byte
	err := r.db.QueryRow(ctx, query, storageKey).Scan(&envelope)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}

	return envelope, nil
}

func (r *SecretRepository) Put(ctx context.Context, storageKey string, value []byte) error {
	const query = `
		INSERT INTO module_secrets (storage_key, envelope)
		VALUES ($1, $2)
		ON CONFLICT (storage_key) DO UPDATE SET envelope = EXCLUDED.envelope, updated_at = NOW()`

	_, err := r.db.Exec(ctx, query, storageKey, value)
	return err
}

func (r *SecretRepository) Delete(ctx context.Context, storageKey string) error {
	const query = `DELETE FROM module_secrets WHERE storage_key = $1`

	_, err := r.db.Exec(ctx, query, storageKey)
	return err
}
