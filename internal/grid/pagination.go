package grid

import "fmt"

// PageSizeOptions are the page sizes offered by the page size selector.
var PageSizeOptions = []int{10, 20, 50, 100}

// DefaultMaxVisiblePages is the default window of VisiblePages.
const DefaultMaxVisiblePages = 7

// Pager derives pagination display state from a 1-based page, a page size
// and the total row count across all pages. It never slices rows and never
// changes its own fields; navigation only raises the callbacks.
type Pager struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
	Total    int `json:"total"`

	OnPageChange     func(page int) `json:"-"`
	OnPageSizeChange func(size int) `json:"-"`
}

// TotalPages is ceil(Total / PageSize).
func (p Pager) TotalPages() int {
	if p.PageSize <= 0 || p.Total <= 0 {
		return 0
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}

// StartItem is the 1-based index of the first row on the page.
func (p Pager) StartItem() int {
	return (p.Page-1)*p.PageSize + 1
}

// EndItem is the 1-based index of the last row on the page.
func (p Pager) EndItem() int {
	return min(p.Page*p.PageSize, p.Total)
}

// Summary is the "Showing a to b of n results" line.
func (p Pager) Summary() string {
	return fmt.Sprintf("Showing %d to %d of %d results", p.StartItem(), p.EndItem(), p.Total)
}

// Label is the "Page x of y" line.
func (p Pager) Label() string {
	return fmt.Sprintf("Page %d of %d", p.Page, p.TotalPages())
}

func (p Pager) HasPrev() bool { return p.Page > 1 }
func (p Pager) HasNext() bool { return p.Page < p.TotalPages() }

// First requests page 1. It reports false (and raises nothing) when the
// pager is already on the first page.
func (p Pager) First() bool {
	if !p.HasPrev() {
		return false
	}
	return p.goTo(1)
}

// Prev requests the previous page.
func (p Pager) Prev() bool {
	if !p.HasPrev() {
		return false
	}
	return p.goTo(p.Page - 1)
}

// Next requests the next page.
func (p Pager) Next() bool {
	if !p.HasNext() {
		return false
	}
	return p.goTo(p.Page + 1)
}

// Last requests the last page.
func (p Pager) Last() bool {
	if !p.HasNext() {
		return false
	}
	return p.goTo(p.TotalPages())
}

// GoTo requests an arbitrary page within range.
func (p Pager) GoTo(page int) bool {
	if page < 1 || page > p.TotalPages() || page == p.Page {
		return false
	}
	return p.goTo(page)
}

func (p Pager) goTo(page int) bool {
	if p.OnPageChange == nil {
		return false
	}
	p.OnPageChange(page)
	return true
}

// SetPageSize requests a new page size. By convention the caller resets
// its page to 1 when handling the callback.
func (p Pager) SetPageSize(size int) bool {
	if p.OnPageSizeChange == nil || size <= 0 {
		return false
	}
	p.OnPageSizeChange(size)
	return true
}

// PageItem is one entry of a page number strip: a page or an ellipsis.
type PageItem struct {
	Page     int  `json:"page,omitempty"`
	Ellipsis bool `json:"ellipsis,omitempty"`
	Current  bool `json:"current,omitempty"`
}

// VisiblePages returns the page number strip. Up to maxVisible pages
// (DefaultMaxVisiblePages when maxVisible <= 0) are listed in full.
// Beyond that the strip keeps the first and last pages plus a window of
// maxVisible/2 pages either side of the current page. Ellipses mark gaps.
func (p Pager) VisiblePages(maxVisible int) []PageItem {
	if maxVisible <= 0 {
		maxVisible = DefaultMaxVisiblePages
	}
	total := p.TotalPages()
	page := func(n int) PageItem { return PageItem{Page: n, Current: n == p.Page} }

	items := []PageItem{}
	if total <= maxVisible {
		for n := 1; n <= total; n++ {
			items = append(items, page(n))
		}
		return items
	}

	half := maxVisible / 2
	items = append(items, page(1))

	start := max(2, p.Page-half)
	end := min(total-1, p.Page+half)
	if p.Page <= half+1 {
		end = min(total-1, maxVisible-1)
	}
	if p.Page >= total-half {
		start = max(2, total-maxVisible+2)
	}

	if start > 2 {
		items = append(items, PageItem{Ellipsis: true})
	}
	for n := start; n <= end; n++ {
		items = append(items, page(n))
	}
	if end < total-1 {
		items = append(items, PageItem{Ellipsis: true})
	}
	if total > 1 {
		items = append(items, page(total))
	}
	return items
}
