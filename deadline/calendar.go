package deadline

import "time"

// All engine dates are day-granularity instants at midnight UTC.

// floorDiv divides rounding toward negative infinity, so negative month
// indices land in the correct earlier year.
func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// positiveMod normalizes a into [0, b).
func positiveMod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// daysInMonth returns the number of days in the given month. Day zero of
// the following month normalizes to the last day of this one, which is
// correct for every month length including leap-year February.
func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// dateOf builds a midnight-UTC date with the day clamped to the last
// valid day of the month. Feb 29 degrades to Feb 28 on non-leap years
// instead of rolling into March.
func dateOf(year int, month time.Month, day int) time.Time {
	if max := daysInMonth(year, month); day > max {
		day = max
	}
	if day < 1 {
		day = 1
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// addMonthsClamped adds months with day-of-month clamping: the target
// year/month come from floor-division/modulo-12 normalization of the
// month index, and the day never overflows into the following month.
// This is deliberately not time.AddDate, which rolls Jan 31 + 1 month
// into March 2/3.
func addMonthsClamped(t time.Time, months int) time.Time {
	idx := t.Year()*12 + int(t.Month()) - 1 + months
	year := floorDiv(idx, 12)
	month := time.Month(positiveMod(idx, 12) + 1)
	return dateOf(year, month, t.Day())
}

// endOfMonthAfter returns the last calendar day of the month that is
// delta months after t's month.
func endOfMonthAfter(t time.Time, delta int) time.Time {
	idx := t.Year()*12 + int(t.Month()) - 1 + delta
	year := floorDiv(idx, 12)
	month := time.Month(positiveMod(idx, 12) + 1)
	return dateOf(year, month, daysInMonth(year, month))
}

// quarterEndAfter returns the last day of the quarter that is delta
// quarters after t's quarter. Quarter index arithmetic uses the same
// floor-division/positive-modulo normalization so wrap-around indices
// resolve to the correct year.
func quarterEndAfter(t time.Time, delta int) time.Time {
	q := t.Year()*4 + (int(t.Month())-1)/3 + delta
	year := floorDiv(q, 4)
	quarter := positiveMod(q, 4)
	month := time.Month(quarter*3 + 3)
	return dateOf(year, month, daysInMonth(year, month))
}

// truncateToDay strips the time-of-day component, normalizing to UTC.
func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func sameDay(a, b time.Time) bool {
	return truncateToDay(a).Equal(truncateToDay(b))
}
