package adapters

import (
	"context"
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

const foreUpHost = "https://foreupsoftware.com"

func foreUpAddress(course catalog.Course, _ time.Time) (string, error) {
	if course.FacilityID == "" || course.ScheduleID == "" {
		return "", fmt.Errorf("foreup course needs facility_id and schedule_id")
	}
	host := foreUpHost
	if course.BaseURL != "" {
		host = strings.TrimSuffix(course.BaseURL, "/")
	}
	return fmt.Sprintf(
		"%s/index.php/booking/%s/%s#/teetimes",
		host,
		url.PathEscape(course.FacilityID),
		url.PathEscape(course.ScheduleID),
	), nil
}

// foreUpPrepare picks the booking class (public, resident, ...) and then
// drives the date picker. The booking page always opens on today.
func foreUpPrepare(settle time.Duration) func(context.Context, session.Driver, catalog.Course, time.Time) error {
	return func(ctx context.Context, sess session.Driver, course catalog.Course, date time.Time) error {
		if course.BookingClass != "" {
			script, err := clickScript(fmt.Sprintf(
				`[data-booking-class="%s"], .booking-classes button[data-id="%s"]`,
				course.BookingClass, course.BookingClass,
			))
			if err != nil {
				return err
			}
			var clicked bool
			err = sess.Evaluate(ctx, script, &clicked)
			if err != nil {
				return fmt.Errorf("select booking class: %w", err)
			}
			if clicked {
				err = chrono.Sleep(ctx, settle)
				if err != nil {
					return err
				}
			}
		}

		script, err := setDateScript("#date-field, input[name=date]", date.Format("01-02-2006"))
		if err != nil {
			return err
		}
		var set bool
		err = sess.Evaluate(ctx, script, &set)
		if err != nil {
			return fmt.Errorf("set date: %w", err)
		}
		if !set {
			return fmt.Errorf("set date: no date field on page")
		}
		return chrono.Sleep(ctx, settle)
	}
}

func newForeUp(opts Options, tel telemetry.API) platform {
	return platform{
		source:  "foreup",
		driver:  session.KindBrowser,
		address: foreUpAddress,
		prepare: foreUpPrepare(opts.Settle),
		structured: extract.StructuredExtractor{
			Containers: []string{
				"#times .time",
				".times-list li",
				"[data-time]",
			},
			Time:  ".booking-start-time-label, .start",
			Price: ".js-booking-green-fee, .price",
		},
		minPrice: 10,
		maxPrice: 500,
		opts:     opts,
		tel:      telemetry.NewScopedAPI("foreup", tel),
	}
}
