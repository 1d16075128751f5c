package pipeline

import (
	"fmt"

	"teetimes-backend/internal/extract"
	"teetimes-backend/internal/teetime"
)

// Dedupe collapses repeated extractions within one batch, the first
// occurrence wins. Structured rows are keyed by time alone. Fallback rows are
// keyed by time and price, the fallback pass can see the same time several
// times before the single representative price is applied.
func Dedupe(records []teetime.TeeTime, pass extract.Pass) []teetime.TeeTime {
	seen := make(map[string]bool, len(records))
	out := make([]teetime.TeeTime, 0, len(records))
	for _, r := range records {
		key := r.Time
		if pass == extract.PassFallback {
			key = fmt.Sprintf("%s|%s", r.Time, formatPrice(r.Price))
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

func formatPrice(price *int) string {
	if price == nil {
		return "-"
	}
	return fmt.Sprint(*price)
}
