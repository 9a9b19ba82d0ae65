// Package lists provides the PostgreSQL-backed, owner-scoped store of to-do
// lists.
package lists

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophtodo/internal/common"
	"github.com/dmitrijs2005/gophtodo/internal/dbx"
	"github.com/dmitrijs2005/gophtodo/internal/server/models"
)

// sortColumns maps the public sort fields onto columns.
var sortColumns = map[string]string{
	"id":               "id",
	"name":             "name",
	"created_at":       "created_at",
	"last_modified_at": "last_modified_at",
}

const listColumns = `id, name, created_at, last_modified_at, user_id`

// PostgresRepository implements list storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts list for list.UserID and fills in its ID.
func (r *PostgresRepository) Create(ctx context.Context, list *models.List) (*models.List, error) {
	query :=
		`INSERT INTO lists (name, created_at, last_modified_at, user_id)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		list.Name, list.CreatedAt, list.LastModifiedAt, list.UserID).Scan(&list.ID)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return list, nil
}

// GetByID returns the list only if it belongs to userID.
func (r *PostgresRepository) GetByID(ctx context.Context, userID, listID int64) (*models.List, error) {
	query := `SELECT ` + listColumns + ` FROM lists
		 WHERE id = $1 AND user_id = $2
		 `

	list := &models.List{}
	err := r.db.QueryRowContext(ctx, query, listID, userID).Scan(
		&list.ID, &list.Name, &list.CreatedAt, &list.LastModifiedAt, &list.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return list, nil
}

// ListByUser returns every list of userID ordered by id.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64) ([]*models.List, error) {
	query := `SELECT ` + listColumns + ` FROM lists
		 WHERE user_id = $1
		 ORDER BY id
		 `

	return r.query(ctx, query, userID)
}

// Search returns one page of the lists of userID whose name contains
// q.Search, and the number of matching lists. q must be normalized.
func (r *PostgresRepository) Search(ctx context.Context, userID int64, q models.Query) ([]*models.List, int64, error) {
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
		`SELECT COUNT(*) FROM lists
		 WHERE user_id = $1 AND name ILIKE $2
		 `
	if err := r.db.QueryRowContext(ctx, countQuery, userID, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(`SELECT ` + listColumns + ` FROM lists
		 WHERE user_id = $1 AND name ILIKE $2
		 `)
	fmt.Fprintf(&sb, "ORDER BY %s %s, id ASC LIMIT $3 OFFSET $4", column, direction)

	result, err := r.query(ctx, sb.String(), userID, pattern, q.PageSize, q.Offset())
	if err != nil {
		return nil, 0, err
	}

	return result, total, nil
}

// Update stores the name and last modification time of list. The owner is
// taken from list.UserID.
func (r *PostgresRepository) Update(ctx context.Context, list *models.List) error {
	query :=
		`UPDATE lists SET name = $1, last_modified_at = $2
		 WHERE id = $3 AND user_id = $4
		 `

	res, err := r.db.ExecContext(ctx, query, list.Name, list.LastModifiedAt, list.ID, list.UserID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return expectOneRow(res)
}

// Touch sets the last modification time of the list.
func (r *PostgresRepository) Touch(ctx context.Context, userID, listID int64, at time.Time) error {
	query :=
		`UPDATE lists SET last_modified_at = $1
		 WHERE id = $2 AND user_id = $3
		 `

	res, err := r.db.ExecContext(ctx, query, at, listID, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return expectOneRow(res)
}

// Delete removes the list and, by cascade, its items.
func (r *PostgresRepository) Delete(ctx context.Context, userID, listID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM lists WHERE id = $1 AND user_id = $2`, listID, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return expectOneRow(res)
}

func (r *PostgresRepository) query(ctx context.Context, query string, args ...any) ([]*models.List, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.List{}
	for rows.Next() {
		var l models.List
		if err := rows.Scan(&l.ID, &l.Name, &l.CreatedAt, &l.LastModifiedAt, &l.UserID); err != nil {
			return nil, err
		}
		result = append(result, &l)
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
