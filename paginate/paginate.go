// Package paginate slices ordered result sets into fixed-size, 1-indexed pages.
//
// Page numbers arrive as raw request input. Anything that is not an integer
// selects the first page; an integer outside 1..NumPages selects the last page,
// so a request never fails and never yields an empty page for a non-empty set.
package paginate

import "strconv"

// PerPage is the page size used for every feed.
const PerPage = 10

// Paginator knows how many items a result set holds and how many fit on a page.
type Paginator struct {
	Count   int64
	PerPage int
}

// New returns a Paginator for count items. A non-positive perPage falls back to PerPage.
func New(count int64, perPage int) Paginator {
	if perPage <= 0 {
		perPage = PerPage
	}
	if count < 0 {
		count = 0
	}
	return Paginator{Count: count, PerPage: perPage}
}

// NumPages returns ceil(Count/PerPage). An empty set still has one (empty) page.
func (p Paginator) NumPages() int {
	if p.Count == 0 {
		return 1
	}
	per := int64(p.PerPage)
	return int((p.Count + per - 1) / per)
}

// Number resolves the raw page parameter to a valid page number.
func (p Paginator) Number(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 1
	}
	if n < 1 || n > p.NumPages() {
		return p.NumPages()
	}
	return n
}

// Bounds returns the offset and limit of a valid page number.
func (p Paginator) Bounds(number int) (offset, limit int) {
	offset = (number - 1) * p.PerPage
	limit = p.PerPage
	if rest := int(p.Count) - offset; rest < limit {
		limit = rest
	}
	if limit < 0 {
		limit = 0
	}
	return offset, limit
}

// Page is one slice of a result set plus the metadata needed to link
// to its neighbours.
type Page[T any] struct {
	Items       []T   `json:"items"`
	Number      int   `json:"number"`
	TotalPages  int   `json:"total_pages"`
	Count       int64 `json:"count"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
}

// NewPage wraps the items already fetched for page number.
func NewPage[T any](items []T, number int, p Paginator) Page[T] {
	if items == nil {
		items = []T{}
	}
	total := p.NumPages()
	return Page[T]{
		Items:       items,
		Number:      number,
		TotalPages:  total,
		Count:       p.Count,
		HasNext:     number < total,
		HasPrevious: number > 1,
	}
}

// Slice paginates an in-memory sequence.
func Slice[T any](items []T, perPage int, raw string) Page[T] {
	p := New(int64(len(items)), perPage)
	number := p.Number(raw)
	offset, limit := p.Bounds(number)
	return NewPage(items[offset:offset+limit], number, p)
}
