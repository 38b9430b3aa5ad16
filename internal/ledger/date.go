package ledger

import "time"

// DateLayout is how calendar dates are rendered for humans and the spreadsheet.
const DateLayout = "02/01/2006"

// Date returns the calendar date y-m-d as midnight UTC. Day is not clamped.
func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateOf truncates t to its calendar date in t's own location.
func DateOf(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	y, m, d := t.Date()
	return Date(y, m, d)
}

// DaysIn returns the number of days in month m of year y.
func DaysIn(y int, m time.Month) int {
	return Date(y, m+1, 0).Day()
}

// AddMonthsClamped moves to the first of d's month, advances months, then sets the
// day to day, clamped to the last day of the target month. This never rolls a
// 31st into the following month.
func AddMonthsClamped(d time.Time, months, day int) time.Time {
	first := Date(d.Year(), d.Month(), 1).AddDate(0, months, 0)
	return Date(first.Year(), first.Month(), min(day, DaysIn(first.Year(), first.Month())))
}

// FormatDate renders a date as dd/mm/yyyy, or "" for the zero date.
func FormatDate(d time.Time) string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// ParseDate accepts dd/mm/yyyy, yyyy-mm-dd and RFC 3339 timestamps.
func ParseDate(s string) (time.Time, bool) {
	for _, layout := range []string{DateLayout, "2/1/2006", time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), true
		}
	}
	return time.Time{}, false
}
