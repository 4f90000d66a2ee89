package rules

import (
	"strconv"
	"strings"
	"time"
)

// withinActiveHours implements §4.2b / testable property 3: ranges is
// an OR of zero or more local-time windows; an unparsable range never
// matches, so the gate fails closed rather than panicking.
func withinActiveHours(ranges []ActiveHours, now time.Time) bool {
	m := now.Hour()*60 + now.Minute()
	for _, r := range ranges {
		from, okFrom := parseHHMM(r.From)
		to, okTo := parseHHMM(r.To)
		if !okFrom || !okTo {
			continue
		}
		if from <= to {
			if m >= from && m <= to {
				return true
			}
		} else {
			if m >= from || m <= to {
				return true
			}
		}
	}
	return false
}

// parseHHMM parses "HH:MM" into minutes since local midnight.
func parseHHMM(s string) (int, bool) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	mins, err := strconv.Atoi(parts[1])
	if err != nil || mins < 0 || mins > 59 {
		return 0, false
	}
	return h*60 + mins, true
}
