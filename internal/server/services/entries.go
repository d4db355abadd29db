package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/moodjournal/internal/common"
	"github.com/dmitrijs2005/moodjournal/internal/server/models"
	"github.com/dmitrijs2005/moodjournal/internal/server/repositories/repomanager"
)

type EntryService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewEntryService(db *sql.DB, repomanager repomanager.RepositoryManager) *EntryService {
	return &EntryService{db: db, repomanager: repomanager}
}

// Save appends an entry for userID and returns its id. Both blobs must be
// non-empty; their contents are not inspected.
func (s *EntryService) Save(ctx context.Context, userID, encryptedText, encryptedVector string) (string, error) {
	if encryptedText == "" || encryptedVector == "" {
		return "", fmt.Errorf("%w: encryptedText and encryptedVector are required", common.ErrorValidation)
	}

	e, err := s.repomanager.Entries(s.db).Create(ctx, &models.Entry{
		UserID:          userID,
		EncryptedText:   encryptedText,
		EncryptedVector: encryptedVector,
	})
	if err != nil {
		return "", fmt.Errorf("error creating entry: %w", err)
	}
	return e.ID, nil
}

// ListByUser returns the caller's entries, newest first. userID always comes
// from the verified session, never from request input.
func (s *EntryService) ListByUser(ctx context.Context, userID string) ([]*models.Entry, error) {
	list, err := s.repomanager.Entries(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing entries: %w", err)
	}
	return list, nil
}
