// internal/app/system/paging/paging_test.go
package paging

import (
	"net/http/httptest"
	"testing"
)

func TestParseDefaults(t *testing.T) {
	r := httptest.NewRequest("GET", "/activities", nil)
	p := Parse(r)
	if p.Page != 1 {
		t.Errorf("Page = %d, want 1", p.Page)
	}
	if p.PerPage != DefaultPerPage {
		t.Errorf("PerPage = %d, want %d", p.PerPage, DefaultPerPage)
	}
	if p.Offset() != 0 {
		t.Errorf("Offset = %d, want 0", p.Offset())
	}
}

func TestParseExplicit(t *testing.T) {
	r := httptest.NewRequest("GET", "/activities?page=3&per_page=25", nil)
	p := Parse(r)
	if p.Page != 3 || p.PerPage != 25 {
		t.Fatalf("got %+v, want page 3 per_page 25", p)
	}
	if p.Offset() != 50 {
		t.Errorf("Offset = %d, want 50", p.Offset())
	}
	if p.Limit() != 25 {
		t.Errorf("Limit = %d, want 25", p.Limit())
	}
}

func TestParseInvalidFallsBack(t *testing.T) {
	cases := []string{
		"/a?page=0&per_page=0",
		"/a?page=-2&per_page=-9",
		"/a?page=abc&per_page=xyz",
	}
	for _, url := range cases {
		p := Parse(httptest.NewRequest("GET", url, nil))
		if p.Page != 1 || p.PerPage != DefaultPerPage {
			t.Errorf("%s: got %+v, want defaults", url, p)
		}
	}
}

func TestParseClampsPerPage(t *testing.T) {
	r := httptest.NewRequest("GET", "/a?per_page=999999", nil)
	if p := Parse(r); p.PerPage != MaxPerPage {
		t.Errorf("PerPage = %d, want %d", p.PerPage, MaxPerPage)
	}
}

func TestPaginationFor(t *testing.T) {
	p := Params{Page: 2, PerPage: 10}
	pg := PaginationFor(p, 7, 17)
	if pg.Page != 2 || pg.PerPage != 10 || pg.Records != 7 || pg.Total != 17 {
		t.Fatalf("got %+v", pg)
	}
}
