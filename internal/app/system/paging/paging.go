// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// DefaultPerPage is the number of rows a paged list returns when the
// request does not say otherwise.
const DefaultPerPage = 50

// MaxPerPage caps per_page so a single request cannot ask for an
// unbounded result set.
const MaxPerPage = 1000

// Params is a parsed page request. Page is 1-based.
type Params struct {
	Page    int
	PerPage int
}

// Parse extracts "page" and "per_page" from the request query string,
// falling back to page 1 and DefaultPerPage for missing or invalid
// values and clamping per_page to MaxPerPage.
func Parse(r *http.Request) Params {
	return Params{
		Page:    intParam(r, "page", 1, 1),
		PerPage: clamp(intParam(r, "per_page", DefaultPerPage, 1), MaxPerPage),
	}
}

// Offset returns the number of rows to skip before this page starts.
func (p Params) Offset() int64 {
	return int64(p.Page-1) * int64(p.PerPage)
}

// Limit returns the page size as int64 for Mongo Find().SetLimit().
func (p Params) Limit() int64 {
	return int64(p.PerPage)
}

// Pagination is the envelope block reported alongside every paged
// response. Records counts the rows on this page; Total counts all rows
// that passed filtering, across every page.
type Pagination struct {
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Records int   `json:"records"`
	Total   int64 `json:"total"`
}

// PaginationFor builds the envelope block for one returned page.
func PaginationFor(p Params, records int, total int64) Pagination {
	return Pagination{
		Page:    p.Page,
		PerPage: p.PerPage,
		Records: records,
		Total:   total,
	}
}

func intParam(r *http.Request, name string, def, min int) int {
	s := query.Get(r, name)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < min {
		return def
	}
	return n
}

func clamp(n, max int) int {
	if n > max {
		return max
	}
	return n
}
