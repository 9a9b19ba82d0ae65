package items

import (
	"context"

	"github.com/dmitrijs2005/gophtodo/internal/server/models"
)

// Repository stores list items. Reads and writes are scoped by the owner of
// the parent list, so an item of another user's list is reported as missing.
type Repository interface {
	Create(ctx context.Context, item *models.ListItem) (*models.ListItem, error)
	GetByID(ctx context.Context, userID, listID, itemID int64) (*models.ListItem, error)
	ListByList(ctx context.Context, userID, listID int64) ([]*models.ListItem, error)
	Search(ctx context.Context, userID, listID int64, q models.Query) ([]*models.ListItem, int64, error)
	Update(ctx context.Context, userID int64, item *models.ListItem) error
	Delete(ctx context.Context, userID, listID, itemID int64) error
}
