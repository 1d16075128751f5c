package adapters

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"teetimes-backend/internal/catalog"
	"teetimes-backend/internal/components/chrono"
	"teetimes-backend/internal/components/telemetry"
	"teetimes-backend/internal/extract"
	"teetimes-backend/internal/session"
)

func teesnapAddress(course catalog.Course, date time.Time) (string, error) {
	base := strings.TrimSuffix(course.BaseURL, "/")
	if base == "" {
		if course.Subdomain == "" {
			return "", fmt.Errorf("teesnap course needs subdomain or base_url")
		}
		base = fmt.Sprintf("https://%s.teesnap.net", course.Subdomain)
	}

	query := url.Values{}
	query.Set("date", date.Format(chrono.DateLayout))
	if course.CourseCode != "" {
		query.Set("course", course.CourseCode)
	}
	query.Set("players", "1")
	query.Set("holes", "18")
	return base + "/?" + query.Encode(), nil
}

func newTeesnap(opts Options, tel telemetry.API) platform {
	return platform{
		source:     "teesnap",
		driver:     session.KindBrowser,
		address:    teesnapAddress,
		selectable: true,
		structured: extract.StructuredExtractor{
			Containers: []string{
				".tee-time-list .tee-time",
				".teetime-container",
				"[class*=TeeTimeCard]",
			},
			Time:  ".tee-time-time, .time",
			Price: ".tee-time-price, .price",
		},
		// teesnap lists member and cart fees next to green fees, small
		// amounts on the page are not round prices
		minPrice: 50,
		maxPrice: 500,
		opts:     opts,
		tel:      telemetry.NewScopedAPI("teesnap", tel),
	}
}
