// Package items provides the PostgreSQL-backed store of list items. Every
// query joins the parent list to filter by its owner.
package items

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophtodo/internal/common"
	"github.com/dmitrijs2005/gophtodo/internal/dbx"
	"github.com/dmitrijs2005/gophtodo/internal/server/models"
)

var sortColumns = map[string]string{
	"id":               "i.id",
	"content":          "i.content",
	"is_completed":     "i.is_completed",
	"created_at":       "i.created_at",
	"last_modified_at": "i.last_modified_at",
}

const itemColumns = `i.id, i.content, i.is_completed, i.created_at, i.last_modified_at, i.list_id`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts item into item.ListID and fills in its ID. The caller must
// have resolved the parent list through its owner first.
func (r *PostgresRepository) Create(ctx context.Context, item *models.ListItem) (*models.ListItem, error) {
	query :=
		`INSERT INTO list_items (content, is_completed, created_at, last_modified_at, list_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		item.Content, item.IsCompleted, item.CreatedAt, item.LastModifiedAt, item.ListID).Scan(&item.ID)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return item, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, userID, listID, itemID int64) (*models.ListItem, error) {
	query := `SELECT ` + itemColumns + `
		 FROM list_items i JOIN lists l ON l.id = i.list_id
		 WHERE i.id = $1 AND i.list_id = $2 AND l.user_id = $3
		 `

	var it models.ListItem
	err := r.db.QueryRowContext(ctx, query, itemID, listID, userID).Scan(
		&it.ID, &it.Content, &it.IsCompleted, &it.CreatedAt, &it.LastModifiedAt, &it.ListID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return &it, nil
}

// ListByList returns all items of the list ordered by id.
func (r *PostgresRepository) ListByList(ctx context.Context, userID, listID int64) ([]*models.ListItem, error) {
	query := `SELECT ` + itemColumns + `
		 FROM list_items i JOIN lists l ON l.id = i.list_id
		 WHERE i.list_id = $1 AND l.user_id = $2
		 ORDER BY i.id
		 `

	return r.query(ctx, query, listID, userID)
}

// Search returns one page of the items of the list whose content contains
// q.Search, and the number of matching items. q must be normalized.
func (r *PostgresRepository) Search(ctx context.Context, userID, listID int64, q models.Query) ([]*models.ListItem, int64, error) {
	column, ok := sortColumns[q.SortBy]
	if !ok {
		return nil, 0, fmt.Errorf("%w: unknown sort field %q", common.ErrorValidation, q.SortBy)
	}
	direction := "ASC"
	if q.SortOrder == models.SortDesc {
		direction = "DESC"
	}

	pattern := q.LikePattern()

	var total int64
	countQuery :=
		`SELECT COUNT(*)
		 FROM list_items i JOIN lists l ON l.id = i.list_id
		 WHERE i.list_id = $1 AND l.user_id = $2 AND i.content ILIKE $3
		 `
	if err := r.db.QueryRowContext(ctx, countQuery, listID, userID, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(`SELECT ` + itemColumns + `
		 FROM list_items i JOIN lists l ON l.id = i.list_id
		 WHERE i.list_id = $1 AND l.user_id = $2 AND i.content ILIKE $3
		 `)
	fmt.Fprintf(&sb, "ORDER BY %s %s, i.id ASC LIMIT $4 OFFSET $5", column, direction)

	result, err := r.query(ctx, sb.String(), listID, userID, pattern, q.PageSize, q.Offset())
	if err != nil {
		return nil, 0, err
	}

	return result, total, nil
}

// Update stores content, completion flag and last modification time of item.
func (r *PostgresRepository) Update(ctx context.Context, userID int64, item *models.ListItem) error {
	query :=
		`UPDATE list_items i SET content = $1, is_completed = $2, last_modified_at = $3
		 FROM lists l
		 WHERE i.id = $4 AND i.list_id = $5 AND l.id = i.list_id AND l.user_id = $6
		 `

	res, err := r.db.ExecContext(ctx, query,
		item.Content, item.IsCompleted, item.LastModifiedAt, item.ID, item.ListID, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return expectOneRow(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, listID, itemID int64) error {
	query :=
		`DELETE FROM list_items i USING lists l
		 WHERE i.id = $1 AND i.list_id = $2 AND l.id = i.list_id AND l.user_id = $3
		 `

	res, err := r.db.ExecContext(ctx, query, itemID, listID, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return expectOneRow(res)
}

func (r *PostgresRepository) query(ctx context.Context, query string, args ...any) ([]*models.ListItem, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.ListItem{}
	for rows.Next() {
		var it models.ListItem
		if err := rows.Scan(&it.ID, &it.Content, &it.IsCompleted, &it.CreatedAt, &it.LastModifiedAt, &it.ListID); err != nil {
			return nil, err
		}
		result = append(result, &it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
