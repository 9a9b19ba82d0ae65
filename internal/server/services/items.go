package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophtodo/internal/common"
	"github.com/dmitrijs2005/gophtodo/internal/dbx"
	"github.com/dmitrijs2005/gophtodo/internal/server/models"
	"github.com/dmitrijs2005/gophtodo/internal/server/repositories/repomanager"
)

// ItemService manages the items of a user's lists. The parent list is always
// resolved through its owner first, and every mutation touches it.
type ItemService struct {
	store
}

// NewItemService constructs an ItemService.
func NewItemService(tx dbx.Transactor, repos repomanager.RepositoryManager, opts ...Option) *ItemService {
	return &ItemService{store: newStore(tx, repos, opts)}
}

// Create adds one item per content to the list.
func (s *ItemService) Create(ctx context.Context, userID, listID int64, contents []string) ([]*models.ListItem, error) {
	if len(contents) == 0 {
		return nil, fmt.Errorf("%w: at least one item is required", common.ErrorValidation)
	}
	if err := validContents(contents); err != nil {
		return nil, err
	}

	var created []*models.ListItem
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		list, err := s.repos.Lists(tx).GetByID(ctx, userID, listID)
		if err != nil {
			return err
		}

		now := s.timestamp()
		items := s.repos.Items(tx)
		created = make([]*models.ListItem, 0, len(contents))
		for _, c := range contents {
			item, err := items.Create(ctx, &models.ListItem{
				Content: c, CreatedAt: now, LastModifiedAt: now, ListID: list.ID,
			})
			if err != nil {
				return fmt.Errorf("error creating list item: %w", err)
			}
			created = append(created, item)
		}

		return s.repos.Lists(tx).Touch(ctx, userID, list.ID, now)
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// Get returns one item of the list.
func (s *ItemService) Get(ctx context.Context, userID, listID, itemID int64) (*models.ListItem, error) {
	var item *models.ListItem
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		item, err = s.repos.Items(tx).GetByID(ctx, userID, listID, itemID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return item, nil
}

// Search returns one page of the list's items matching q. A list of another
// user is reported as common.ErrorNotFound, not as an empty page.
func (s *ItemService) Search(ctx context.Context, userID, listID int64, q models.Query) (*models.ItemsPage, error) {
	if err := q.Normalize(models.ItemSortFields); err != nil {
		return nil, err
	}

	page := &models.ItemsPage{}
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repos.Lists(tx).GetByID(ctx, userID, listID); err != nil {
			return err
		}

		items, total, err := s.repos.Items(tx).Search(ctx, userID, listID, q)
		if err != nil {
			return err
		}
		page.Items = items
		page.Pagination = models.NewPagination(q, total)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return page, nil
}

// Update applies a partial update to the item. Fields left nil in upd keep
// their value.
func (s *ItemService) Update(ctx context.Context, userID, listID, itemID int64, upd models.ItemUpdate) (*models.ListItem, error) {
	if upd.Content != nil && strings.TrimSpace(*upd.Content) == "" {
		return nil, fmt.Errorf("%w: content must not be empty", common.ErrorValidation)
	}

	var item *models.ListItem
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		items := s.repos.Items(tx)

		var err error
		item, err = items.GetByID(ctx, userID, listID, itemID)
		if err != nil {
			return err
		}

		if upd.Content != nil {
			item.Content = *upd.Content
		}
		if upd.IsCompleted != nil {
			item.IsCompleted = *upd.IsCompleted
		}
		now := s.timestamp()
		item.LastModifiedAt = now

		if err := items.Update(ctx, userID, item); err != nil {
			return err
		}
		return s.repos.Lists(tx).Touch(ctx, userID, listID, now)
	})
	if err != nil {
		return nil, err
	}

	return item, nil
}

// Delete removes the item and touches its list.
func (s *ItemService) Delete(ctx context.Context, userID, listID, itemID int64) error {
	return s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repos.Items(tx).Delete(ctx, userID, listID, itemID); err != nil {
			return err
		}
		return s.repos.Lists(tx).Touch(ctx, userID, listID, s.timestamp())
	})
}
