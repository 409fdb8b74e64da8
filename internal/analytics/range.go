package analytics

import (
	"errors"
	"time"
)

// DefaultRange is used when no range is requested.
const DefaultRange = "30d"

var ranges = map[string]int{
	"7d":   7,
	"30d":  30,
	"90d":  90,
	"365d": 365,
}

// ErrUnknownRange is returned for ranges outside 7d, 30d, 90d, 365d.
var ErrUnknownRange = errors.New("range must be one of 7d, 30d, 90d, 365d")

// Window is an inclusive span of whole UTC days ending today.
type Window struct {
	Days  int
	Since time.Time
}

// ParseRange resolves a range label relative to now.
func ParseRange(label string, now time.Time) (Window, error) {
	if label == "" {
		label = DefaultRange
	}
	days, ok := ranges[label]
	if !ok {
		return Window{}, ErrUnknownRange
	}
	today := now.UTC().Truncate(24 * time.Hour)
	return Window{Days: days, Since: today.AddDate(0, 0, -(days - 1))}, nil
}

// DayKeys lists every day in the window as YYYY-MM-DD, oldest first.
func (w Window) DayKeys() []string {
	keys := make([]string, 0, w.Days)
	for i := 0; i < w.Days; i++ {
		keys = append(keys, w.Since.AddDate(0, 0, i).Format("2006-01-02"))
	}
	return keys
}
