package query

import "github.com/roach88/apparelgrid/internal/grid"

// Page is one page of a listing, shaped like the backend's page payload.
// Number is 0-based.
type Page[T any] struct {
	Content       []T  `json:"content"`
	TotalElements int  `json:"totalElements"`
	TotalPages    int  `json:"totalPages"`
	Number        int  `json:"number"`
	Size          int  `json:"size"`
	First         bool `json:"first"`
	Last          bool `json:"last"`
	Empty         bool `json:"empty"`
}

// NewPage assembles a page from its rows, the total row count and the
// pagination that produced it.
func NewPage[T any](content []T, total int, p Pagination) Page[T] {
	p = p.Normalize()
	if content == nil {
		content = []T{}
	}
	pages := 0
	if total > 0 {
		pages = (total + p.Size - 1) / p.Size
	}
	return Page[T]{
		Content:       content,
		TotalElements: total,
		TotalPages:    pages,
		Number:        p.Page,
		Size:          p.Size,
		First:         p.Page == 0,
		Last:          p.Page >= pages-1,
		Empty:         len(content) == 0,
	}
}

// Pager converts the page into grid pagination state. The grid counts
// pages from 1.
func (p Page[T]) Pager() grid.Pager {
	return grid.Pager{Page: p.Number + 1, PageSize: p.Size, Total: p.TotalElements}
}

// Pagination requests the grid page number page (1-based) at the current
// size. It is the inverse of Pager for OnPageChange handlers.
func (p Page[T]) Pagination(page int) Pagination {
	return Pagination{Page: page - 1, Size: p.Size}.Normalize()
}
