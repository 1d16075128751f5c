package extract

import (
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// FallbackTextExtractor scans all visible text on the page. Every unique
// time becomes a row, and all rows share one representative price: the
// median of the prices that fall inside [MinPrice, MaxPrice].
type FallbackTextExtractor struct {
	MinPrice int
	MaxPrice int
}

func (FallbackTextExtractor) Pass() Pass {
	return PassFallback
}

var invisible = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"head":     true,
}

// VisibleText returns the text of every rendered node in the document,
// one text node per line.
func VisibleText(doc *goquery.Document) string {
	var buffer strings.Builder
	for _, n := range doc.Nodes {
		collectText(n, &buffer)
	}
	return buffer.String()
}

// SelectionText is the visible text of sel on a single line. Adjacent text
// nodes are separated by a space so "Course" and "7:00 AM" in neighbouring
// cells do not run together.
func SelectionText(sel *goquery.Selection) string {
	var buffer strings.Builder
	for _, n := range sel.Nodes {
		collectText(n, &buffer)
	}
	return CleanText(buffer.String())
}

func collectText(node *html.Node, buffer *strings.Builder) {
	if node.Type == html.ElementNode && invisible[node.Data] {
		return
	}
	if node.Type == html.TextNode {
		text := CleanText(node.Data)
		if text != "" {
			buffer.WriteString(text)
			buffer.WriteByte('\n')
		}
		return
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		collectText(child, buffer)
	}
}

// MedianPrice returns the lower median of the prices inside [min, max]. It is
// always one of the given prices.
func MedianPrice(prices []int, min, max int) (int, bool) {
	var bounded []int
	for _, p := range prices {
		if p >= min && p <= max {
			bounded = append(bounded, p)
		}
	}
	if len(bounded) == 0 {
		return 0, false
	}
	slices.Sort(bounded)
	return bounded[(len(bounded)-1)/2], true
}

func (e FallbackTextExtractor) Extract(doc *goquery.Document) []Row {
	text := VisibleText(doc)

	var price *int
	if median, ok := MedianPrice(FindPrices(text), e.MinPrice, e.MaxPrice); ok {
		price = &median
	}

	seen := map[string]bool{}
	var rows []Row
	for _, token := range FindTimes(text) {
		key := strings.ToLower(strings.ReplaceAll(token, " ", ""))
		if seen[key] {
			continue
		}
		seen[key] = true
		row := Row{Time: token, Label: token}
		if price != nil {
			shared := *price
			row.Price = &shared
		}
		rows = append(rows, row)
	}
	return rows
}
