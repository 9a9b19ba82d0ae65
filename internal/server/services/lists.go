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

// ListService manages the lists of a user. The owner is always the resolved
// principal; a list of another user is reported as common.ErrorNotFound.
type ListService struct {
	store
}

// NewListService constructs a ListService.
func NewListService(tx dbx.Transactor, repos repomanager.RepositoryManager, opts ...Option) *ListService {
	return &ListService{store: newStore(tx, repos, opts)}
}

// Create creates a list for userID, optionally with initial items. The list
// and its items share one creation timestamp, so LastModifiedAt equals
// CreatedAt on a new list.
func (s *ListService) Create(ctx context.Context, userID int64, name string, contents []string) (*models.List, error) {
	name, err := validName(name)
	if err != nil {
		return nil, err
	}
	if err := validContents(contents); err != nil {
		return nil, err
	}

	now := s.timestamp()
	list := &models.List{Name: name, CreatedAt: now, LastModifiedAt: now, UserID: userID}

	err = s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repos.Lists(tx).Create(ctx, list); err != nil {
			return fmt.Errorf("error creating list: %w", err)
		}

		list.Items = make([]*models.ListItem, 0, len(contents))
		items := s.repos.Items(tx)
		for _, c := range contents {
			item, err := items.Create(ctx, &models.ListItem{
				Content: c, CreatedAt: now, LastModifiedAt: now, ListID: list.ID,
			})
			if err != nil {
				return fmt.Errorf("error creating list item: %w", err)
			}
			list.Items = append(list.Items, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return list, nil
}

// Get returns the list with its items.
func (s *ListService) Get(ctx context.Context, userID, listID int64) (*models.List, error) {
	var list *models.List
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		list, err = s.repos.Lists(tx).GetByID(ctx, userID, listID)
		if err != nil {
			return err
		}
		list.Items, err = s.repos.Items(tx).ListByList(ctx, userID, listID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return list, nil
}

// Search returns one page of the user's lists matching q.
func (s *ListService) Search(ctx context.Context, userID int64, q models.Query) (*models.ListsPage, error) {
	if err := q.Normalize(models.ListSortFields); err != nil {
		return nil, err
	}

	page := &models.ListsPage{}
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		lists, total, err := s.repos.Lists(tx).Search(ctx, userID, q)
		if err != nil {
			return err
		}
		page.Lists = lists
		page.Pagination = models.NewPagination(q, total)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return page, nil
}

// Update applies a partial update to the list and touches it.
func (s *ListService) Update(ctx context.Context, userID, listID int64, upd models.ListUpdate) (*models.List, error) {
	var name string
	if upd.Name != nil {
		var err error
		if name, err = validName(*upd.Name); err != nil {
			return nil, err
		}
	}

	var list *models.List
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Lists(tx)

		var err error
		list, err = repo.GetByID(ctx, userID, listID)
		if err != nil {
			return err
		}

		if upd.Name != nil {
			list.Name = name
		}
		list.LastModifiedAt = s.timestamp()

		return repo.Update(ctx, list)
	})
	if err != nil {
		return nil, err
	}

	return list, nil
}

// Delete removes the list and its items.
func (s *ListService) Delete(ctx context.Context, userID, listID int64) error {
	return s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repos.Lists(tx).Delete(ctx, userID, listID)
	})
}

func validName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name must not be empty", common.ErrorValidation)
	}
	return name, nil
}

func validContents(contents []string) error {
	for i, c := range contents {
		if strings.TrimSpace(c) == "" {
			return fmt.Errorf("%w: item %d has empty content", common.ErrorValidation, i)
		}
	}
	return nil
}
