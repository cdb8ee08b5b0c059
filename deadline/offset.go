package deadline

import "time"

// applyOffset shifts an anchor by a rule's month and day offsets.
// Months first with clamping, then days with plain calendar arithmetic:
// "1 month before the 31st" must clamp before the day offset nudges it,
// and only the day step may cross month boundaries by rolling over.
func applyOffset(anchor time.Time, offsetMonths, offsetDays int) time.Time {
	d := addMonthsClamped(anchor, offsetMonths)
	return d.AddDate(0, 0, offsetDays)
}
