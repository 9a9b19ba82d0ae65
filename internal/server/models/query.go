package models

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/dmitrijs2005/gophtodo/internal/common"
)

// SortOrder is the direction of a listing.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100

	DefaultSortBy = "id"
)

// Sort fields a listing may be ordered by.
var (
	ListSortFields = []string{"id", "name", "created_at", "last_modified_at"}
	ItemSortFields = []string{"id", "content", "is_completed", "created_at", "last_modified_at"}
)

// Query describes a filtered, sorted and paginated listing. Zero values are
// replaced by defaults in Normalize.
type Query struct {
	// Search is a case-insensitive substring matched against the name of a
	// list or the content of an item. Empty matches everything.
	Search    string
	SortBy    string
	SortOrder SortOrder
	Page      int
	PageSize  int
}

// Normalize fills in defaults and checks q against the allowed sort fields.
// Errors wrap common.ErrorValidation.
func (q *Query) Normalize(sortFields []string) error {
	if q.SortBy == "" {
		q.SortBy = DefaultSortBy
	}
	if !slices.Contains(sortFields, q.SortBy) {
		return fmt.Errorf("%w: sort_by must be one of %s", common.ErrorValidation, strings.Join(sortFields, ", "))
	}

	q.SortOrder = SortOrder(strings.ToLower(string(q.SortOrder)))
	switch q.SortOrder {
	case "":
		q.SortOrder = SortAsc
	case SortAsc, SortDesc:
	default:
		return fmt.Errorf("%w: sort_order must be asc or desc", common.ErrorValidation)
	}

	if q.Page == 0 {
		q.Page = DefaultPage
	}
	if q.Page < 1 {
		return fmt.Errorf("%w: page must be greater than or equal to 1", common.ErrorValidation)
	}

	if q.PageSize == 0 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize < 1 || q.PageSize > MaxPageSize {
		return fmt.Errorf("%w: page_size must be between 1 and %d", common.ErrorValidation, MaxPageSize)
	}

	// Offset must not overflow.
	if q.Page > math.MaxInt/q.PageSize {
		return fmt.Errorf("%w: page must be at most %d", common.ErrorValidation, math.MaxInt/q.PageSize)
	}

	return nil
}

// Offset returns the number of rows preceding the requested page.
func (q Query) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// LikePattern returns an ILIKE pattern matching q.Search as a literal
// substring. Wildcards and the escape character in Search are escaped.
func (q Query) LikePattern() string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(q.Search) + "%"
}

// Pagination describes the page returned by a listing.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// NewPagination computes the pagination for q given the total number of
// matching rows.
func NewPagination(q Query, total int64) Pagination {
	p := Pagination{Page: q.Page, PageSize: q.PageSize, TotalItems: total}
	if q.PageSize > 0 {
		p.TotalPages = int((total + int64(q.PageSize) - 1) / int64(q.PageSize))
	}
	return p
}

// ListsPage is one page of a user's lists.
type ListsPage struct {
	Lists []*List `json:"lists"`
	Pagination
}

// ItemsPage is one page of a list's items.
type ItemsPage struct {
	Items []*ListItem `json:"list_items"`
	Pagination
}
