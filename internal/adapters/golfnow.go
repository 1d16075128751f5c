package adapters

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"teetimes-backend/internal/catalog"
	"teetimes-backend/internal/components/telemetry"
	"teetimes-backend/internal/extract"
	"teetimes-backend/internal/session"
)

const golfNowHost = "https://www.golfnow.com"

// GolfNow keeps search state in the url fragment, the facility page reads
// the date from there after it loads.
func golfNowAddress(course catalog.Course, date time.Time) (string, error) {
	base := course.BaseURL
	if base == "" {
		if course.FacilityID == "" {
			return "", fmt.Errorf("golfnow course needs facility_id or base_url")
		}
		base = fmt.Sprintf("%s/tee-times/facility/%s/search", golfNowHost, url.PathEscape(course.FacilityID))
	}
	base = strings.TrimSuffix(base, "/")

	fragment := url.Values{}
	fragment.Set("sortby", "Date")
	fragment.Set("view", "List")
	fragment.Set("date", date.Format("Jan 02 2006"))
	fragment.Set("holes", "3")
	fragment.Set("players", "0")
	return base + "#" + fragment.Encode(), nil
}

func newGolfNow(opts Options, tel telemetry.API) platform {
	return platform{
		source:  "golfnow",
		driver:  session.KindBrowser,
		address: golfNowAddress,
		structured: extract.StructuredExtractor{
			Containers: []string{
				"[data-testid=tee-time-card]",
				".teetime-card",
				"#teetimes-list .tee-time",
				".promoted-campaign-wrapper .teetime",
			},
			Time:  ".time-meridian, .tee-time-time, time",
			Price: ".price, .teetime-price, [data-testid=price]",
		},
		minPrice: 10,
		maxPrice: 500,
		opts:     opts,
		tel:      telemetry.NewScopedAPI("golfnow", tel),
	}
}
