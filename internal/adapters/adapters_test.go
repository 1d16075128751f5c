package adapters

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"teetimes-backend/internal/catalog"
	"teetimes-backend/internal/components/telemetry"
	"teetimes-backend/internal/extract"
	"teetimes-backend/internal/session"
	"teetimes-backend/internal/session/sessiontest"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

var testOptions = Options{NavigationTimeout: 5 * time.Second, Settle: time.Millisecond}

func intp(n int) *int {
	return &n
}

func TestAddressing(t *testing.T) {
	date := time.Date(2024, time.August, 30, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name    string
		address func(catalog.Course, time.Time) (string, error)
		course  catalog.Course
		expect  string
	}{
		{
			name:    "golfnow facility",
			address: golfNowAddress,
			course:  catalog.Course{FacilityID: "17879"},
			expect:  "https://www.golfnow.com/tee-times/facility/17879/search#date=Aug+30+2024&holes=3&players=0&sortby=Date&view=List",
		},
		{
			name:    "foreup",
			address: foreUpAddress,
			course:  catalog.Course{FacilityID: "20573", ScheduleID: "5425"},
			expect:  "https://foreupsoftware.com/index.php/booking/20573/5425#/teetimes",
		},
		{
			name:    "ezlinks",
			address: ezLinksAddress,
			course:  catalog.Course{BaseURL: "https://cityofaurora.ezlinksgolf.com/"},
			expect:  "https://cityofaurora.ezlinksgolf.com/index.html#/search?date=08/30/2024",
		},
		{
			name:    "teesnap",
			address: teesnapAddress,
			course:  catalog.Course{Subdomain: "sundancegolfclub", CourseCode: "1801"},
			expect:  "https://sundancegolfclub.teesnap.net/?course=1801&date=2024-08-30&holes=18&players=1",
		},
		{
			name:    "teeon",
			address: teeOnAddress,
			course:  catalog.Course{CourseCode: "LKVW", CourseGroupID: "12"},
			expect:  "https://tee-on.com/PubGolf/servlet/com.teeon.teesheet.servlets.golfersection.WebBookingAllTimesLanding?CourseCode=LKVW&CourseGroupID=12&Date=2024-08-30&Referrer=tee-on.com",
		},
	}
	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			out, err := test.address(test.course, date)
			require.NoError(t, err)
			require.Equal(t, test.expect, out)
		})
	}

	_, err := foreUpAddress(catalog.Course{FacilityID: "1"}, date)
	require.Error(t, err)
	_, err = ezLinksAddress(catalog.Course{}, date)
	require.Error(t, err)
	_, err = teeOnAddress(catalog.Course{}, date)
	require.Error(t, err)
}

// serveFixture serves testdata/<name>.html on every path and records the
// request paths.
func serveFixture(t *testing.T, name string) (*httptest.Server, *[]string) {
	t.Helper()
	page, err := os.ReadFile(filepath.Join("testdata", name+".html"))
	require.NoError(t, err)

	var requested []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = append(requested, r.URL.RequestURI())
		w.Header().Set("content-type", "text/html")
		w.Write(page)
	}))
	t.Cleanup(server.Close)
	return server, &requested
}

func staticSession(t *testing.T) session.Driver {
	t.Helper()
	s, err := session.NewStatic(session.StaticConfig{RequestsPerSecond: 100, Burst: 10}, telemetry.NewTestingAPI(t))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

var ignoreLabel = cmpopts.IgnoreFields(extract.Row{}, "Label")

func TestScrapeFixtures(t *testing.T) {
	registry := NewRegistry(testOptions, telemetry.NewTestingAPI(t))

	cases := []struct {
		source     string
		course     func(server string) catalog.Course
		expectPass extract.Pass
		expectRows []extract.Row
		expectPath string
	}{
		{
			source: "golfnow",
			course: func(server string) catalog.Course {
				return catalog.Course{ID: "murphy-creek-golfnow", BaseURL: server + "/tee-times/facility/17879/search"}
			},
			expectPass: extract.PassStructured,
			expectRows: []extract.Row{
				{Time: "7:04 AM", Price: intp(54), Players: 4, Holes: 18, Cart: true},
				{Time: "7:04 AM", Price: intp(41), Players: 4, Holes: 18},
				{Time: "1:36 PM", Price: intp(30), Players: 2, Holes: 9},
			},
			expectPath: "/tee-times/facility/17879/search",
		},
		{
			source: "foreup",
			course: func(server string) catalog.Course {
				return catalog.Course{ID: "city-park", BaseURL: server, FacilityID: "20573", ScheduleID: "5425", BookingClass: "2651"}
			},
			expectPass: extract.PassStructured,
			expectRows: []extract.Row{
				{Time: "6:30am", Price: intp(38), Players: 4},
				{Time: "6:39am", Price: intp(38), Players: 2, Holes: 18, Cart: true},
				{Time: "12:15pm", Price: intp(31), Players: 1, Holes: 9},
			},
			expectPath: "/index.php/booking/20573/5425",
		},
		{
			source: "ezlinks",
			course: func(server string) catalog.Course {
				return catalog.Course{ID: "saddle-rock", BaseURL: server, Filter: "Saddle Rock"}
			},
			expectPass: extract.PassStructured,
			expectRows: []extract.Row{
				{Time: "7:10 AM", Price: intp(62), Players: 4},
				{Time: "7:30 AM", Price: intp(62), Players: 4, Cart: true},
			},
			expectPath: "/index.html",
		},
		{
			source: "teesnap",
			course: func(server string) catalog.Course {
				return catalog.Course{ID: "sundance", BaseURL: server, CourseCode: "1801"}
			},
			expectPass: extract.PassFallback,
			expectRows: []extract.Row{
				{Time: "7:30 AM", Price: intp(52)},
				{Time: "2:15 PM", Price: intp(52)},
			},
			expectPath: "/?course=1801&date=2024-08-30&holes=18&players=1",
		},
		{
			source: "teeon",
			course: func(server string) catalog.Course {
				return catalog.Course{ID: "lakeview-teeon", BaseURL: server, CourseCode: "LKVW"}
			},
			expectPass: extract.PassStructured,
			expectRows: []extract.Row{
				{Time: "8:00 AM", Price: intp(45), Players: 4, Holes: 18},
				{Time: "3:50 PM", Price: intp(28), Players: 2, Holes: 9, Cart: true},
			},
			expectPath: "/PubGolf/servlet/com.teeon.teesheet.servlets.golfersection.WebBookingAllTimesLanding?CourseCode=LKVW&Date=2024-08-30&Referrer=tee-on.com",
		},
	}

	for _, test := range cases {
		t.Run(test.source, func(t *testing.T) {
			server, requested := serveFixture(t, test.source)
			adapter, ok := registry.Get(test.source)
			require.True(t, ok)

			result, err := adapter.Scrape(context.Background(), staticSession(t), test.course(server.URL), "2024-08-30")
			require.NoError(t, err)
			require.Equal(t, test.expectPass, result.Pass)
			require.Empty(t, cmp.Diff(test.expectRows, result.Rows, ignoreLabel))
			require.Equal(t, []string{test.expectPath}, *requested)
		})
	}
}

func TestScrapePriceOverride(t *testing.T) {
	server, _ := serveFixture(t, "teesnap")
	adapter, _ := NewRegistry(testOptions, telemetry.NewTestingAPI(t)).Get("teesnap")

	course := catalog.Course{ID: "sundance", BaseURL: server.URL, PriceMin: 60, PriceMax: 100}
	result, err := adapter.Scrape(context.Background(), staticSession(t), course, "2024-08-30")
	require.NoError(t, err)
	require.Equal(t, extract.PassFallback, result.Pass)
	for _, row := range result.Rows {
		require.Equal(t, intp(68), row.Price)
	}
}

func TestScrapeInPageInteractions(t *testing.T) {
	page, err := os.ReadFile(filepath.Join("testdata", "foreup.html"))
	require.NoError(t, err)

	driver := &sessiontest.Driver{
		Page: func(string) (string, error) { return string(page), nil },
		Eval: func(string) (any, error) { return true, nil },
	}
	adapter, _ := NewRegistry(testOptions, telemetry.NewTestingAPI(t)).Get("foreup")

	course := catalog.Course{ID: "city-park", FacilityID: "20573", ScheduleID: "5425", BookingClass: "2651"}
	result, err := adapter.Scrape(context.Background(), driver, course, "2024-08-30")
	require.NoError(t, err)
	require.Len(t, result.Rows, 3)

	scripts := driver.Scripts()
	require.Len(t, scripts, 2)
	require.Contains(t, scripts[0], `data-booking-class=\"2651\"`)
	require.Contains(t, scripts[1], `"08-30-2024"`)
}

func TestScrapeSelectsCourseInPage(t *testing.T) {
	page, err := os.ReadFile(filepath.Join("testdata", "ezlinks.html"))
	require.NoError(t, err)

	driver := &sessiontest.Driver{
		Page: func(string) (string, error) { return string(page), nil },
		Eval: func(script string) (any, error) {
			return strings.Contains(script, `"Murphy Creek"`), nil
		},
	}
	adapter, _ := NewRegistry(testOptions, telemetry.NewTestingAPI(t)).Get("ezlinks")

	course := catalog.Course{ID: "murphy-creek", BaseURL: "https://cityofaurora.ezlinksgolf.com", Filter: "Murphy Creek"}
	result, err := adapter.Scrape(context.Background(), driver, course, "2024-08-30")
	require.NoError(t, err)
	require.Len(t, driver.Scripts(), 1)

	var times []string
	for _, r := range result.Rows {
		times = append(times, r.Time)
	}
	require.Equal(t, []string{"7:20 AM", "8:40 AM"}, times)
}

func TestScrapeEvaluationErrorIsNotFatal(t *testing.T) {
	tel := telemetry.NewTestingAPI(t)
	driver := &sessiontest.Driver{
		Page: func(string) (string, error) {
			return `<body><div class="search-results"><div class="teetime">7:10 AM $62</div></div></body>`, nil
		},
		Eval: func(string) (any, error) { return nil, errors.New("ReferenceError: angular is not defined") },
	}
	adapter, _ := NewRegistry(testOptions, tel).Get("ezlinks")

	result, err := adapter.Scrape(context.Background(), driver, catalog.Course{ID: "x", BaseURL: "https://x.test", Filter: "Old"}, "2024-08-30")
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	require.Equal(t, []string{"adapters: ezlinks: adapter.disambiguate"}, tel.Warnings())
}

func TestScrapeNavigationFailure(t *testing.T) {
	driver := &sessiontest.Driver{
		Page: func(string) (string, error) {
			return "", session.ErrNavigationTimeout
		},
	}
	adapter, _ := NewRegistry(testOptions, telemetry.NewTestingAPI(t)).Get("golfnow")

	_, err := adapter.Scrape(context.Background(), driver, catalog.Course{ID: "x", FacilityID: "1"}, "2024-08-30")
	require.ErrorIs(t, err, session.ErrNavigationTimeout)

	_, err = adapter.Scrape(context.Background(), driver, catalog.Course{ID: "x", FacilityID: "1"}, "08/30/2024")
	require.Error(t, err)
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry(Options{}, telemetry.NewTestingAPI(t))
	require.Equal(t, []string{"ezlinks", "foreup", "golfnow", "teeon", "teesnap"}, registry.Sources())

	kind, err := registry.DriverFor(catalog.Course{Source: "teeon"})
	require.NoError(t, err)
	require.Equal(t, session.KindStatic, kind)

	kind, err = registry.DriverFor(catalog.Course{Source: "teeon", Driver: "browser"})
	require.NoError(t, err)
	require.Equal(t, session.KindBrowser, kind)

	_, err = registry.DriverFor(catalog.Course{Source: "nope"})
	require.Error(t, err)
}
