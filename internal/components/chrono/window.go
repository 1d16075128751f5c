package chrono

import (
	"context"
	"time"
)

const DateLayout = "2006-01-02"

// ResolveWindow returns n consecutive ISO calendar dates starting at the
// calendar day of now in now's location. Dates are derived from the
// year/month/day triple so a DST transition inside the window cannot shift
// or repeat a day.
func ResolveWindow(now time.Time, n int) []string {
	if n <= 0 {
		return nil
	}
	y, m, d := now.Date()
	dates := make([]string, n)
	for i := range n {
		// noon avoids the missing/doubled midnight hour on transition days
		day := time.Date(y, m, d+i, 12, 0, 0, 0, now.Location())
		dates[i] = day.Format(DateLayout)
	}
	return dates
}

// Sleep pauses for d or until ctx is done, whichever is first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
