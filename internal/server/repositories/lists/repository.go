package lists

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophtodo/internal/server/models"
)

// Repository stores lists. Every method except Create takes the owner id and
// treats a list of another owner exactly like a missing one.
type Repository interface {
	Create(ctx context.Context, list *models.List) (*models.List, error)
	GetByID(ctx context.Context, userID, listID int64) (*models.List, error)
	ListByUser(ctx context.Context, userID int64) ([]*models.List, error)
	Search(ctx context.Context, userID int64, q models.Query) ([]*models.List, int64, error)
	Update(ctx context.Context, list *models.List) error
	Touch(ctx context.Context, userID, listID int64, at time.Time) error
	Delete(ctx context.Context, userID, listID int64) error
}
