package store

// Page size bounds for catalog search.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageParams selects a 1-based page.
type PageParams struct {
	Page     int
	PageSize int
}

// Normalize clamps Page to at least 1 and PageSize to [1, MaxPageSize].
// A zero PageSize means DefaultPageSize.
func (p *PageParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	switch {
	case p.PageSize == 0:
		p.PageSize = DefaultPageSize
	case p.PageSize < 1:
		p.PageSize = 1
	case p.PageSize > MaxPageSize:
		p.PageSize = MaxPageSize
	}
}

// Offset returns the number of rows before the page.
func (p PageParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// PageResult is one page of items plus the total number of matches.
type PageResult[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}
