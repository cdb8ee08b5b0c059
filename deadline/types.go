package deadline

import (
	"time"

	"github.com/shopspring/decimal"
)

// RuleType distinguishes rules pinned to one calendar date from rules
// computed off an anchor.
type RuleType string

const (
	RuleTypeFixedDate RuleType = "FIXED_DATE"
	RuleTypeRuleBased RuleType = "RULE_BASED"
)

// AnchorType names the company or calendar fact a RULE_BASED rule is
// computed from.
type AnchorType string

const (
	AnchorFYE           AnchorType = "FYE"
	AnchorIncorporation AnchorType = "INCORPORATION"
	AnchorServiceStart  AnchorType = "SERVICE_START"
	AnchorMonthEnd      AnchorType = "MONTH_END"
	AnchorQuarterEnd    AnchorType = "QUARTER_END"
	AnchorFixedCalendar AnchorType = "FIXED_CALENDAR"
	AnchorIPCExpiry     AnchorType = "IPC_EXPIRY"
)

// Frequency is the recurrence step of a recurring rule.
type Frequency string

const (
	FrequencyOneTime   Frequency = "ONE_TIME"
	FrequencyMonthly   Frequency = "MONTHLY"
	FrequencyQuarterly Frequency = "QUARTERLY"
	FrequencyAnnually  Frequency = "ANNUALLY"
)

// Engine-wide generation policy. These are the single source of truth for
// every caller, local preview and server-mirroring request body alike.
const (
	// MaxOccurrencesPerRule caps expansion of a single rule regardless of
	// what generateOccurrences asks for.
	MaxOccurrencesPerRule = 12

	// DefaultRenderCap is the number of merged deadlines shown when the
	// caller does not pick a cap.
	DefaultRenderCap = 24
)

// defaultOccurrences is the occurrence count used when a recurring rule
// does not set GenerateOccurrences. The monthly value is a provisional
// business default; see DESIGN.md.
func defaultOccurrences(f Frequency) int {
	switch f {
	case FrequencyMonthly:
		return 6
	case FrequencyQuarterly:
		return 4
	case FrequencyAnnually:
		return 3
	default:
		return 1
	}
}

// DeadlineRule is a reusable obligation template. TaskName is the rule's
// identity for exclusion matching and warning attribution.
type DeadlineRule struct {
	TaskName    string   `json:"taskName"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	RuleType    RuleType `json:"ruleType"`

	// RULE_BASED fields.
	AnchorType   AnchorType `json:"anchorType,omitempty"`
	OffsetMonths int        `json:"offsetMonths,omitempty"`
	OffsetDays   int        `json:"offsetDays,omitempty"`
	FixedMonth   int        `json:"fixedMonth,omitempty"`
	FixedDay     int        `json:"fixedDay,omitempty"`

	// FIXED_DATE field.
	SpecificDate *time.Time `json:"specificDate,omitempty"`

	// Recurrence.
	IsRecurring         bool       `json:"isRecurring"`
	Frequency           Frequency  `json:"frequency,omitempty"`
	GenerateOccurrences int        `json:"generateOccurrences,omitempty"`
	GenerateUntilDate   *time.Time `json:"generateUntilDate,omitempty"`

	// AppliesWhen is an optional CEL expression over the Company fact
	// object. A rule with a false condition contributes no dates.
	AppliesWhen string `json:"appliesWhen,omitempty"`

	// Billing metadata, carried through but never used in date math.
	IsBillable bool            `json:"isBillable,omitempty"`
	Amount     decimal.Decimal `json:"amount,omitempty"`
	Currency   string          `json:"currency,omitempty"`

	DisplayOrder int `json:"displayOrder,omitempty"`
}

// CompanyAnchorData holds the external company facts anchors are grounded
// on. Zero FYEMonth/FYEDay means the fiscal year end is not set.
type CompanyAnchorData struct {
	FYEMonth int `json:"fyeMonth,omitempty"`
	FYEDay   int `json:"fyeDay,omitempty"`
	// FYEYear overrides the base year for FYE anchors; zero means the
	// current year is used.
	FYEYear           int        `json:"fyeYear,omitempty"`
	IncorporationDate *time.Time `json:"incorporationDate,omitempty"`

	// GST registration fields are part of the shared caller type. The
	// date math never reads them, but AppliesWhen conditions may.
	GSTRegistered       bool       `json:"gstRegistered,omitempty"`
	GSTRegistrationDate *time.Time `json:"gstRegistrationDate,omitempty"`
}

// Exclusion suppresses one generated (taskName, date) pair. The date is
// kept as a string because callers send day-granularity ISO dates;
// anything unparseable simply never matches.
type Exclusion struct {
	TaskName         string `json:"taskName"`
	StatutoryDueDate string `json:"statutoryDueDate"`
}

// GeneratedDeadline is one computed due date in the merged timeline.
type GeneratedDeadline struct {
	TaskName      string    `json:"taskName"`
	Date          time.Time `json:"date"`
	DateString    string    `json:"dateString"`
	RelativeLabel string    `json:"relativeLabel"`
	IsPast        bool      `json:"isPast"`
	IsToday       bool      `json:"isToday"`
}

// PreviewResult is the aggregate output of a preview computation.
// TotalCount counts deadlines surviving exclusion filtering; Deadlines is
// that list truncated to the render cap.
type PreviewResult struct {
	Deadlines    []GeneratedDeadline `json:"deadlines"`
	Warnings     []Warning           `json:"warnings"`
	TotalCount   int                 `json:"totalCount"`
	HiddenCount  int                 `json:"hiddenCount"`
	OverdueCount int                 `json:"overdueCount"`
}

// PreviewRequest carries every input of a preview computation. The same
// shape is serialized as the server-mirroring request body so the local
// and authoritative paths cannot drift.
type PreviewRequest struct {
	Rules            []*DeadlineRule   `json:"rules"`
	Company          CompanyAnchorData `json:"company"`
	ServiceStartDate *time.Time        `json:"serviceStartDate,omitempty"`
	Exclusions       []Exclusion       `json:"exclusions,omitempty"`

	// Now pins the computation's current moment; the zero value defers
	// to the engine clock. Classification and the date-anchored anchor
	// types use it at day granularity.
	Now time.Time `json:"now,omitempty"`

	// RenderCap truncates the merged list for display. Zero applies
	// DefaultRenderCap; a negative value is a caller bug and fails
	// loudly.
	RenderCap int `json:"renderCap,omitempty"`
}
