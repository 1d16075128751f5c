package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

type Pass string

const (
	PassNone       Pass = "none"
	PassStructured Pass = "structured"
	PassFallback   Pass = "fallback"
)

// Row is one raw tee time as found on a page. Only Time is guaranteed to be
// set, zero values mean the page did not say.
type Row struct {
	Time    string
	Price   *int
	Players int
	Holes   int
	Cart    bool
	// Label is the visible text the row was extracted from.
	Label string
}

type Result struct {
	Rows []Row
	Pass Pass
}

// Extractor is one strategy for pulling rows out of a rendered page.
type Extractor interface {
	Pass() Pass
	Extract(doc *goquery.Document) []Row
}

// Run tries each extractor in order and returns the first non-empty result.
// The disambiguation filter applies to structured rows only, the fallback
// pass always scans the whole page.
func Run(doc *goquery.Document, filter string, extractors ...Extractor) Result {
	for _, e := range extractors {
		rows := e.Extract(doc)
		if e.Pass() == PassStructured {
			rows = FilterRows(rows, filter)
		}
		if len(rows) > 0 {
			return Result{Rows: rows, Pass: e.Pass()}
		}
	}
	return Result{Pass: PassNone}
}

// FilterRows keeps rows whose label contains filter (case-insensitive). When
// no row matches, every row is kept: a shared page we cannot narrow down is
// still better than nothing.
func FilterRows(rows []Row, filter string) []Row {
	filter = strings.ToLower(strings.TrimSpace(filter))
	if filter == "" {
		return rows
	}
	var matched []Row
	for _, r := range rows {
		if strings.Contains(strings.ToLower(r.Label), filter) {
			matched = append(matched, r)
		}
	}
	if len(matched) == 0 {
		return rows
	}
	return matched
}
