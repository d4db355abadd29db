package entries

import (
	"context"

	"github.com/dmitrijs2005/moodjournal/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, entry *models.Entry) (*models.Entry, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Entry, error)
}
