package services

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// Pagination describes the page returned by an admin or catalog listing
type Pagination struct {
	Current int   `json:"current"`
	Pages   int64 `json:"pages"`
	Total   int64 `json:"total"`
}

// PageQuery is a 1-based page request
type PageQuery struct {
	Page  int
	Limit int
}

// normalize clamps the query to page >= 1 and 1 <= limit <= 100
func (q PageQuery) normalize() PageQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultPageLimit
	}
	if q.Limit > maxPageLimit {
		q.Limit = maxPageLimit
	}
	return q
}

func (q PageQuery) offset() int {
	return (q.Page - 1) * q.Limit
}

func newPagination(q PageQuery, total int64) Pagination {
	limit := int64(q.Limit)
	return Pagination{
		Current: q.Page,
		Pages:   (total + limit - 1) / limit,
		Total:   total,
	}
}
