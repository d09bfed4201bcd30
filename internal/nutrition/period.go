// internal/nutrition/period.go
package nutrition

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// ResolvePeriod translates a symbolic period ("week", "month") or an
// explicit start/end pair into concrete date boundaries. With neither,
// it defaults to the trailing 7-day window ending today. An explicit
// pair takes precedence over a symbolic period.
func ResolvePeriod(period, startDate, endDate string) (string, string, error) {
	return resolvePeriod(time.Now(), period, startDate, endDate)
}

func resolvePeriod(now time.Time, period, startDate, endDate string) (string, string, error) {
	startDate = strings.TrimSpace(startDate)
	endDate = strings.TrimSpace(endDate)

	if startDate != "" || endDate != "" {
		if startDate == "" || endDate == "" {
			return "", "", fmt.Errorf("start_date and end_date must be supplied together")
		}
		start, err := time.Parse(dateLayout, startDate)
		if err != nil {
			return "", "", fmt.Errorf("invalid start_date %q (expected YYYY-MM-DD)", startDate)
		}
		end, err := time.Parse(dateLayout, endDate)
		if err != nil {
			return "", "", fmt.Errorf("invalid end_date %q (expected YYYY-MM-DD)", endDate)
		}
		if start.After(end) {
			return "", "", fmt.Errorf("start_date %s is after end_date %s", startDate, endDate)
		}
		return startDate, endDate, nil
	}

	end := now
	var start time.Time
	switch strings.ToLower(strings.TrimSpace(period)) {
	case "", "week":
		start = now.AddDate(0, 0, -7)
	case "month":
		start = now.AddDate(0, -1, 0)
	default:
		return "", "", fmt.Errorf("unknown period %q (expected week or month)", period)
	}
	return start.Format(dateLayout), end.Format(dateLayout), nil
}
