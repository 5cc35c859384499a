package domain

import (
	"fmt"
	"strings"
	"time"
)

// DueSoonWindow is how far ahead an assignment counts as due soon.
const DueSoonWindow = 7 * 24 * time.Hour

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999-0700",
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04:05.999999999 MST",
	"2006-01-02 15:04:05.999999999 -0700",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp accepts RFC 3339 (also with minute precision or a basic
// "+0100" offset), the grading tool's "2006-01-02 15:04:05[.ffffff] [UTC]"
// forms and date-only values. Zone-less values are read as UTC.
func ParseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DueTime returns the parsed due date, if any.
func (a AssignmentRecord) DueTime() (time.Time, bool) {
	return ParseTimestamp(a.DueDate)
}

// IsOverdue is true when the due date has passed and the work is not submitted.
func IsOverdue(a AssignmentRecord, now time.Time) bool {
	if a.Status == StatusSubmitted {
		return false
	}
	due, ok := a.DueTime()
	if !ok {
		return false
	}
	return due.Before(now)
}

// IsDueSoon is true when the due date lies in the future within DueSoonWindow.
func IsDueSoon(a AssignmentRecord, now time.Time) bool {
	due, ok := a.DueTime()
	if !ok {
		return false
	}
	diff := due.Sub(now)
	return diff > 0 && diff <= DueSoonWindow
}

// Remaining is a due-date countdown split into whole units.
type Remaining struct {
	Days    int
	Hours   int
	Minutes int
	Seconds int
}

// String renders the largest non-zero unit plus the next one when it is non-zero.
func (r Remaining) String() string {
	units := []struct {
		value  int
		suffix string
	}{
		{r.Days, "d"},
		{r.Hours, "h"},
		{r.Minutes, "m"},
		{r.Seconds, "s"},
	}

	for i, u := range units {
		if u.value == 0 {
			continue
		}
		out := fmt.Sprintf("%d%s", u.value, u.suffix)
		if i+1 < len(units) && units[i+1].value != 0 {
			out += fmt.Sprintf(" %d%s", units[i+1].value, units[i+1].suffix)
		}
		return out
	}
	return "0s"
}

// RemainingTime decomposes due-now. It reports false when the due date is
// missing, unparseable or already past.
func RemainingTime(a AssignmentRecord, now time.Time) (Remaining, bool) {
	due, ok := a.DueTime()
	if !ok {
		return Remaining{}, false
	}
	diff := due.Sub(now)
	if diff <= 0 {
		return Remaining{}, false
	}

	total := int(diff / time.Second)
	return Remaining{
		Days:    total / 86400,
		Hours:   total % 86400 / 3600,
		Minutes: total % 3600 / 60,
		Seconds: total % 60,
	}, true
}
