package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/antzucaro/matchr"
)

// names at least this similar are probably the same course entered twice
const duplicateNameThreshold = 0.97

type Problems struct {
	Errors   []error
	Warnings []string
}

func (p Problems) Err() error {
	return errors.Join(p.Errors...)
}

// Validate checks the catalog against the set of registered sources.
func (c Catalog) Validate(knownSources []string) Problems {
	var p Problems
	known := map[string]bool{}
	for _, s := range knownSources {
		known[s] = true
	}

	seen := map[string]bool{}
	for i, course := range c.Courses {
		where := fmt.Sprintf("course %d (%s)", i, course.ID)
		switch {
		case course.ID == "":
			p.Errors = append(p.Errors, fmt.Errorf("course %d: missing id", i))
		case seen[course.ID]:
			p.Errors = append(p.Errors, fmt.Errorf("%s: duplicate id", where))
		}
		seen[course.ID] = true

		if !known[course.Source] {
			p.Errors = append(p.Errors, fmt.Errorf("%s: unknown source %q", where, course.Source))
		}
		if course.Driver != "" && course.Driver != "browser" && course.Driver != "static" {
			p.Errors = append(p.Errors, fmt.Errorf("%s: unknown driver %q", where, course.Driver))
		}
		if course.PriceMin < 0 || course.PriceMax < 0 ||
			(course.PriceMax > 0 && course.PriceMin > course.PriceMax) {
			p.Errors = append(p.Errors, fmt.Errorf(
				"%s: invalid price bound [%d, %d]", where, course.PriceMin, course.PriceMax,
			))
		}
	}

	for i := 0; i < len(c.Courses); i++ {
		for j := i + 1; j < len(c.Courses); j++ {
			a, b := c.Courses[i], c.Courses[j]
			// courses sharing a page carry a filter each, their names are
			// allowed to look alike
			if a.Filter != "" && b.Filter != "" {
				continue
			}
			score := matchr.JaroWinkler(strings.ToLower(a.Name), strings.ToLower(b.Name), false)
			if score >= duplicateNameThreshold {
				p.Warnings = append(p.Warnings, fmt.Sprintf(
					"courses %q and %q have near-identical names (%.2f)", a.ID, b.ID, score,
				))
			}
		}
	}
	return p
}
