package adapters

import (
	"fmt"
	"strings"
	"time"

	"teetimes-backend/internal/catalog"
	"teetimes-backend/internal/components/telemetry"
	"teetimes-backend/internal/extract"
	"teetimes-backend/internal/session"
)

// EZLinks serves every course of a facility from one search page, courses
// are told apart by name with the catalog filter.
func ezLinksAddress(course catalog.Course, date time.Time) (string, error) {
	if course.BaseURL == "" {
		return "", fmt.Errorf("ezlinks course needs base_url")
	}
	base := strings.TrimSuffix(course.BaseURL, "/")
	return fmt.Sprintf("%s/index.html#/search?date=%s", base, date.Format("01/02/2006")), nil
}

func newEZLinks(opts Options, tel telemetry.API) platform {
	return platform{
		source:     "ezlinks",
		driver:     session.KindBrowser,
		address:    ezLinksAddress,
		selectable: true,
		structured: extract.StructuredExtractor{
			Containers: []string{
				".search-results .teetime",
				"[ng-repeat*=teeTime]",
				".tee-time-row",
				"table.teetimes tr",
			},
			Time:  ".teetime-time, .time",
			Price: ".teetime-price, .price",
			Label: ".course-name, .teetime-course",
		},
		minPrice: 10,
		maxPrice: 500,
		opts:     opts,
		tel:      telemetry.NewScopedAPI("ezlinks", tel),
	}
}
