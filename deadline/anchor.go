package deadline

import (
	"fmt"
	"time"
)

// resolveAnchor maps a rule's anchor type plus company data to the base
// date for occurrence i, before offsets. Data problems come back as a
// Warning, never an error.
//
// The source systems stepped anchors inconsistently; the consolidated
// semantics are: company-fact anchors (INCORPORATION, SERVICE_START)
// advance by i recurrence steps, calendar anchors (MONTH_END,
// QUARTER_END, FIXED_CALENDAR) advance by i calendar units, and FYE
// advances by i years from its base year.
func resolveAnchor(r *DeadlineRule, company CompanyAnchorData, serviceStart *time.Time, now time.Time, i int) (time.Time, *Warning) {
	switch r.AnchorType {
	case AnchorFYE:
		if company.FYEMonth < 1 || company.FYEMonth > 12 || company.FYEDay < 1 {
			w := missingAnchorData(r.TaskName, "company financial year end is not set")
			return time.Time{}, &w
		}
		baseYear := company.FYEYear
		if baseYear == 0 {
			baseYear = now.Year()
		}
		return dateOf(baseYear+i, time.Month(company.FYEMonth), company.FYEDay), nil

	case AnchorIncorporation:
		if company.IncorporationDate == nil || company.IncorporationDate.IsZero() {
			w := missingAnchorData(r.TaskName, "company incorporation date is not set")
			return time.Time{}, &w
		}
		base := truncateToDay(*company.IncorporationDate)
		return addMonthsClamped(base, i*stepMonths(r.Frequency)), nil

	case AnchorServiceStart:
		if serviceStart == nil || serviceStart.IsZero() {
			w := missingAnchorData(r.TaskName, "service start date is not set")
			return time.Time{}, &w
		}
		base := truncateToDay(*serviceStart)
		return addMonthsClamped(base, i*stepMonths(r.Frequency)), nil

	case AnchorMonthEnd:
		// Occurrence 0 is the end of the current month, mirroring
		// QUARTER_END's occurrence 0 being the current quarter end.
		return endOfMonthAfter(now, i), nil

	case AnchorQuarterEnd:
		return quarterEndAfter(now, i), nil

	case AnchorFixedCalendar:
		if r.FixedMonth < 1 || r.FixedMonth > 12 || r.FixedDay < 1 {
			w := missingAnchorData(r.TaskName, "rule has no fixed calendar month/day")
			return time.Time{}, &w
		}
		return dateOf(now.Year()+i, time.Month(r.FixedMonth), r.FixedDay), nil

	case AnchorIPCExpiry:
		// IPC expiry dates come from the charity register, not from
		// company data. Never fabricate one here.
		w := unsupportedAnchor(r.TaskName, "IPC expiry date unavailable, resolved elsewhere")
		return time.Time{}, &w

	default:
		w := unsupportedAnchor(r.TaskName, fmt.Sprintf("unknown anchor type %q", r.AnchorType))
		return time.Time{}, &w
	}
}
