package shared

import "math"

// Pagination is the listing metadata attached to paged responses.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"perPage"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPagination computes pagination metadata.
func NewPagination(page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = 20
	}
	if page <= 0 {
		page = 1
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// NewPaginationFromOffset derives the page number from a limit/offset pair,
// the shape the audit listing filters use.
func NewPaginationFromOffset(offset, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = 20
	}
	page := 1
	if offset > 0 {
		page = offset/perPage + 1
	}
	return NewPagination(page, perPage, total)
}
