package commands

import (
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"time"

	"teetimes-backend/internal/adapters"
	"teetimes-backend/internal/catalog"
	"teetimes-backend/internal/pipeline"
	"teetimes-backend/internal/teetime"

	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

func logStats(stats *pipeline.RunStatistics) {
	slog.Info(
		"refresh finished",
		"courses_scraped", stats.CoursesScraped,
		"courses_failed", stats.CoursesFailed,
		"courses_interrupted", stats.CoursesInterrupted,
		"units_failed", stats.UnitsFailed,
		"units_skipped", stats.UnitsSkipped,
		"tee_times", stats.TotalTeeTimes,
		"duration", stats.Duration.Round(time.Millisecond).String(),
	)
}

func renderCounts(w io.Writer, header string, counts map[string]int) {
	t := newTable(w)
	t.AppendHeader(table.Row{header, "Tee times"})
	for _, key := range slices.Sorted(maps.Keys(counts)) {
		t.AppendRow(table.Row{key, counts[key]})
	}
	t.Render()
}

func renderStats(w io.Writer, stats *pipeline.RunStatistics) {
	t := newTable(w)
	t.AppendRows([]table.Row{
		{"Courses scraped", stats.CoursesScraped},
		{"Courses failed", stats.CoursesFailed},
		{"Courses interrupted", stats.CoursesInterrupted},
		{"Units failed", stats.UnitsFailed},
		{"Units kept stale", stats.UnitsSkipped},
		{"Tee times", stats.TotalTeeTimes},
		{"Duration", stats.Duration.Round(time.Millisecond).String()},
	})
	t.Render()

	renderCounts(w, "Course", stats.PerCourse)
	renderCounts(w, "Date", stats.PerDate)
	renderCounts(w, "Source", stats.PerSource)
}

func renderCourses(w io.Writer, cat catalog.Catalog, registry adapters.Registry) {
	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Name", "Source", "Driver", "Filter", "Booking URL"})
	for _, c := range cat.Courses {
		driver, err := registry.DriverFor(c)
		driverText := string(driver)
		if err != nil {
			driverText = "?"
		}
		t.AppendRow(table.Row{c.ID, c.Name, c.Source, driverText, c.Filter, c.BookingURL})
	}
	t.Render()
}

func renderTeeTimes(w io.Writer, records []teetime.TeeTime) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Course", "Date", "Time", "Players", "Holes", "Price", "Cart", "Source"})
	for _, r := range records {
		display, ok := teetime.To12Hour(r.Time)
		if !ok {
			display = r.Time
		}
		price := "-"
		if r.Price != nil {
			price = fmt.Sprintf("$%d", *r.Price)
		}
		t.AppendRow(table.Row{r.CourseID, r.Date, display, r.Players, r.Holes, price, r.HasCart, r.Source})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "", "Total", len(records)})
	t.Render()
}
