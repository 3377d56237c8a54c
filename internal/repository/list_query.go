package repository

import (
	"strings"

	"gorm.io/gorm"
)

// ListQuery represents common query parameters
type ListQuery struct {
	Page    int
	PerPage int
	Search  string
	SortBy  string
	SortDir string
	Filters map[string]string
}

// NewListQuery creates a ListQuery with defaults
func NewListQuery() *ListQuery {
	return &ListQuery{
		Page:    1,
		PerPage: 20,
		Filters: make(map[string]string),
	}
}

// order returns the ORDER BY clause for the query. Unknown columns fall back
// to the default so user input never reaches the SQL verbatim.
func (q *ListQuery) order(allowed []string, fallback string) string {
	for _, col := range allowed {
		if strings.EqualFold(col, q.SortBy) {
			if strings.EqualFold(q.SortDir, "desc") {
				return col + " DESC"
			}
			return col + " ASC"
		}
	}
	return fallback
}

// paginate applies offset and limit
func (q *ListQuery) paginate(db *gorm.DB) *gorm.DB {
	if q.PerPage <= 0 {
		return db
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	return db.Offset((page - 1) * q.PerPage).Limit(q.PerPage)
}
