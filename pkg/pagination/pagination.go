package pagination

import (
	"strconv"
	"strings"
)

// Page sizes used by the feeds.
const (
	DiaryPageSize        = 9
	ProfilePageSize      = 12
	NotificationPageSize = 10
)

// LinkWindow is how many page links are shown on each side of the current page.
const LinkWindow = 3

// Page describes one page of a paginated result.
type Page struct {
	Number      int   `json:"number"`
	NumPages    int   `json:"num_pages"`
	Count       int64 `json:"count"`
	PageSize    int   `json:"page_size"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
	Links       []int `json:"links"`
}

// ParsePage reads a page query parameter. Anything that is not an integer is page 1.
// Out of range integers are kept and clamped by New.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 1
	}
	return n
}

// New computes the page for a result of count rows. A requested page below 1
// or past the end resolves to the last page; an empty result has one page.
func New(requested int, count int64, size int) Page {
	if size <= 0 {
		size = DiaryPageSize
	}
	if count < 0 {
		count = 0
	}

	numPages := int((count + int64(size) - 1) / int64(size))
	if numPages < 1 {
		numPages = 1
	}

	number := requested
	if number < 1 || number > numPages {
		number = numPages
	}

	return Page{
		Number:      number,
		NumPages:    numPages,
		Count:       count,
		PageSize:    size,
		HasNext:     number < numPages,
		HasPrevious: number > 1,
		Links:       links(number, numPages),
	}
}

// Offset is the number of rows before this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.PageSize
}

// Limit is the maximum number of rows on this page.
func (p Page) Limit() int {
	return p.PageSize
}

// IsPaginated reports whether the result spans more than one page.
func (p Page) IsPaginated() bool {
	return p.NumPages > 1
}

func links(number, numPages int) []int {
	lo := max(number-LinkWindow, 1)
	hi := min(number+LinkWindow, numPages)
	out := make([]int, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		out = append(out, i)
	}
	return out
}
