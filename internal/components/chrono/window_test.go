package chrono

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestResolveWindow(t *testing.T) {
	la, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)

	cases := []struct {
		name   string
		now    time.Time
		n      int
		expect []string
	}{
		{
			name:   "month boundary",
			now:    time.Date(2024, time.August, 30, 9, 0, 0, 0, la),
			n:      4,
			expect: []string{"2024-08-30", "2024-08-31", "2024-09-01", "2024-09-02"},
		},
		{
			name:   "straddles dst start",
			now:    time.Date(2024, time.March, 9, 23, 30, 0, 0, la),
			n:      3,
			expect: []string{"2024-03-09", "2024-03-10", "2024-03-11"},
		},
		{
			name:   "straddles dst end",
			now:    time.Date(2024, time.November, 2, 0, 15, 0, 0, la),
			n:      3,
			expect: []string{"2024-11-02", "2024-11-03", "2024-11-04"},
		},
		{
			name:   "zero days",
			now:    time.Date(2024, time.August, 30, 9, 0, 0, 0, la),
			n:      0,
			expect: nil,
		},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.expect, ResolveWindow(test.now, test.n))
		})
	}
}

func TestResolveWindowIgnoresHostZone(t *testing.T) {
	la, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)

	// 02:00 UTC on the 1st is still the 31st in Los Angeles
	instant := time.Date(2024, time.September, 1, 2, 0, 0, 0, time.UTC)
	clock := FixedImpl{At: instant.In(la)}

	require.Equal(t, []string{"2024-08-31"}, ResolveWindow(clock.Now(), 1))
}

func TestSleepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Sleep(ctx, time.Minute)
	require.ErrorIs(t, err, context.Canceled)
	require.Less(t, time.Since(start), time.Second)
}
