// README: Availability window evaluation against the weekly recurring schedule.
package matching

import (
	"strings"
	"time"

	"taskhive/internal/modules/doer"
)

// isAvailableAt reports whether the doer can take a task at the given time.
// Weekday and clock are both evaluated in UTC, independent of the server
// locale. Windows that cross midnight (from > to) are not supported and
// evaluate to false for that day.
func isAvailableAt(p doer.Profile, at time.Time) bool {
	// A doer mid-task cannot take a new one, schedule notwithstanding.
	if p.ActiveTask != nil {
		return false
	}

	utc := at.UTC()
	day := strings.ToLower(utc.Weekday().String())
	clock := utc.Format("15:04")

	for _, e := range p.Availability.Schedule {
		if e.Day != day || !e.Available {
			continue
		}
		// First entry for the weekday wins; duplicates are ignored.
		// Lexicographic comparison is exact for zero-padded HH:MM, and both
		// bounds are inclusive.
		return clock >= e.Hours.From && clock <= e.Hours.To
	}
	return false
}
