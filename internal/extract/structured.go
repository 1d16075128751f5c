package extract

import (
	"github.com/PuerkitoBio/goquery"
)

// StructuredExtractor reads rows out of known time-slot containers.
//
// Containers are tried in order, the first selector that produces at least
// one row wins. Time, Price and Label narrow down where inside a container
// each field is read from, the whole container is used when they are empty
// or match nothing.
type StructuredExtractor struct {
	Containers []string
	Time       string
	Price      string
	Label      string
}

func (StructuredExtractor) Pass() Pass {
	return PassStructured
}

// fieldText reads the text of selector inside row, falling back to the whole
// row when the selector is empty or matches nothing.
func fieldText(row *goquery.Selection, selector string) string {
	if selector != "" {
		if field := row.Find(selector).First(); field.Length() > 0 {
			return SelectionText(field)
		}
	}
	return SelectionText(row)
}

func (e StructuredExtractor) Extract(doc *goquery.Document) []Row {
	for _, container := range e.Containers {
		var rows []Row
		doc.Find(container).Each(func(_ int, sel *goquery.Selection) {
			text := SelectionText(sel)

			token, ok := FindTime(fieldText(sel, e.Time))
			if !ok {
				return
			}
			row := Row{
				Time:    token,
				Players: FindPlayers(text),
				Holes:   FindHoles(text),
				Cart:    HasCart(text),
				Label:   text,
			}
			if price, ok := FindPrice(fieldText(sel, e.Price)); ok {
				row.Price = &price
			}
			if e.Label != "" {
				row.Label = fieldText(sel, e.Label)
			}
			rows = append(rows, row)
		})
		if len(rows) > 0 {
			return rows
		}
	}
	return nil
}
