// Package entries provides PostgreSQL-backed storage for journal entries.
// Ciphertext blobs are stored and returned exactly as the client sent them.
package entries

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/moodjournal/internal/dbx"
	"github.com/dmitrijs2005/moodjournal/internal/server/models"
	"github.com/google/uuid"
)

var newID = func() string { return uuid.NewString() }

// PostgresRepository implements entry storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create appends a row and fills ID and CreatedAt on the passed entry.
func (r *PostgresRepository) Create(ctx context.Context, entry *models.Entry) (*models.Entry, error) {
	query := `
		INSERT INTO journal_entries (id, user_id, encrypted_text, encrypted_vector)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	id := newID()
	err := r.db.QueryRowContext(ctx, query, id, entry.UserID, entry.EncryptedText, entry.EncryptedVector).
		Scan(&entry.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	entry.ID = id
	return entry, nil
}

// ListByUser returns every entry owned by userID, newest first. Ties on
// created_at are broken by id so the order is stable.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Entry, error) {
	query := `
		SELECT id, user_id, encrypted_text, encrypted_vector, created_at FROM journal_entries
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select entries: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Entry, 0)
	for rows.Next() {
		var item models.Entry
		if err := rows.Scan(&item.ID, &item.UserID, &item.EncryptedText, &item.EncryptedVector, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
