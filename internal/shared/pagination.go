package shared

import (
	"net/url"
	"strconv"
)

// Page describes one window of a listing.
type Page struct {
	Number  int
	PerPage int
	Total   int
}

// PageFromQuery reads ?page= from the query string, clamped to >= 1.
func PageFromQuery(q url.Values, perPage int) Page {
	if perPage <= 0 {
		perPage = 20
	}
	n, err := strconv.Atoi(q.Get("page"))
	if err != nil || n <= 0 {
		n = 1
	}
	return Page{Number: n, PerPage: perPage}
}

// Offset is the row offset of the page.
func (p Page) Offset() int {
	if p.Number <= 1 {
		return 0
	}
	return (p.Number - 1) * p.PerPage
}

// TotalPages returns the number of pages for Total rows.
func (p Page) TotalPages() int {
	if p.PerPage <= 0 || p.Total <= 0 {
		return 1
	}
	return (p.Total + p.PerPage - 1) / p.PerPage
}

func (p Page) HasPrev() bool { return p.Number > 1 }

func (p Page) HasNext() bool { return p.Number < p.TotalPages() }

func (p Page) Prev() int { return p.Number - 1 }

func (p Page) Next() int { return p.Number + 1 }
