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

const teeOnHost = "https://tee-on.com"

// TeeOn renders its tee sheet on the server, a plain http fetch is enough.
func teeOnAddress(course catalog.Course, date time.Time) (string, error) {
	if course.CourseCode == "" {
		return "", fmt.Errorf("teeon course needs course_code")
	}
	host := teeOnHost
	if course.BaseURL != "" {
		host = strings.TrimSuffix(course.BaseURL, "/")
	}

	query := url.Values{}
	query.Set("CourseCode", course.CourseCode)
	if course.CourseGroupID != "" {
		query.Set("CourseGroupID", course.CourseGroupID)
	}
	query.Set("Date", date.Format(chrono.DateLayout))
	query.Set("Referrer", "tee-on.com")
	return host + "/PubGolf/servlet/com.teeon.teesheet.servlets.golfersection.WebBookingAllTimesLanding?" + query.Encode(), nil
}

func newTeeOn(opts Options, tel telemetry.API) platform {
	return platform{
		source:  "teeon",
		driver:  session.KindStatic,
		address: teeOnAddress,
		structured: extract.StructuredExtractor{
			Containers: []string{".search-results-tee-times-box"},
			Time:       "p.time",
			Price:      "p.price",
		},
		minPrice: 10,
		maxPrice: 300,
		opts:     opts,
		tel:      telemetry.NewScopedAPI("teeon", tel),
	}
}
