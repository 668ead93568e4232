package timeslot

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Parse converts an HH:MM clock string into minutes since midnight.
func Parse(hhmm string) (int, error) {
	parts := strings.Split(hhmm, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", hhmm)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q", hhmm)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q", hhmm)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("time %q out of range", hhmm)
	}
	return h*60 + m, nil
}

// MustParse parses hhmm and returns 0 for malformed input. Callers that need
// error reporting should use Parse; this variant suits already-validated data.
func MustParse(hhmm string) int {
	min, err := Parse(hhmm)
	if err != nil {
		return 0
	}
	return min
}

// Format renders minutes since midnight back into HH:MM.
func Format(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Add shifts an HH:MM time forward by the given minute count.
func Add(hhmm string, minutes int) string {
	return Format(MustParse(hhmm) + minutes)
}

// Diff returns end minus start in minutes for two HH:MM times.
func Diff(start, end string) int {
	return MustParse(end) - MustParse(start)
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect once
// each side is padded by pad minutes. Inputs are minutes since midnight.
func Overlaps(aStart, aEnd, bStart, bEnd, pad int) bool {
	return !(aEnd+pad <= bStart || bEnd+pad <= aStart)
}

// OverlapMinutes returns the length of the intersection of two half-open
// minute intervals, or 0 when they are disjoint.
func OverlapMinutes(aStart, aEnd, bStart, bEnd int) int {
	lo := aStart
	if bStart > lo {
		lo = bStart
	}
	hi := aEnd
	if bEnd < hi {
		hi = bEnd
	}
	if hi <= lo {
		return 0
	}
	return hi - lo
}

// Today returns the current local date in YYYY-MM-DD form.
func Today() string {
	return time.Now().Format("2006-01-02")
}

// MonthWindow returns the first and last calendar day of the month containing
// the given YYYY-MM-DD date. Malformed dates fall back to the current month.
func MonthWindow(date string) (string, string) {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		t = time.Now()
	}
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return first.Format("2006-01-02"), last.Format("2006-01-02")
}

// PeriodKey returns the YYYY-MM billing-period key for a date.
func PeriodKey(date string) string {
	if len(date) >= 7 {
		return date[:7]
	}
	return date
}

// ValidDate reports whether the string is a well-formed YYYY-MM-DD date.
func ValidDate(date string) bool {
	_, err := time.Parse("2006-01-02", date)
	return err == nil
}
