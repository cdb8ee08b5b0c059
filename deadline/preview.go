package deadline

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Contract violations. Data problems become warnings; these mean the
// caller itself is broken and must fail loudly.
var (
	ErrInvalidRenderCap = errors.New("render cap must be positive")
	ErrInvalidRule      = errors.New("invalid rule")
)

// validateRuleShape rejects rule shapes the upstream schema validator is
// supposed to guarantee. Anything failing here is a caller bug, not a
// data problem.
func validateRuleShape(i int, r *DeadlineRule) error {
	if r == nil {
		return fmt.Errorf("%w: rule %d is nil", ErrInvalidRule, i)
	}
	if r.TaskName == "" {
		return fmt.Errorf("%w: rule %d has no task name", ErrInvalidRule, i)
	}
	switch r.RuleType {
	case RuleTypeFixedDate:
		if r.SpecificDate == nil || r.SpecificDate.IsZero() {
			return fmt.Errorf("%w: fixed-date rule %q has no specific date", ErrInvalidRule, r.TaskName)
		}
	case RuleTypeRuleBased:
		// Anchor problems resolve to warnings, not errors; only the
		// rule type itself is contract-checked here.
	default:
		return fmt.Errorf("%w: rule %q has unknown rule type %q", ErrInvalidRule, r.TaskName, r.RuleType)
	}
	if r.IsRecurring {
		switch r.Frequency {
		case FrequencyOneTime, FrequencyMonthly, FrequencyQuarterly, FrequencyAnnually:
		default:
			return fmt.Errorf("%w: rule %q has unknown frequency %q", ErrInvalidRule, r.TaskName, r.Frequency)
		}
	}
	return nil
}

// occurrence is one pre-classification computed date. Rule order and
// occurrence index are kept for the stable sort tie-break.
type occurrence struct {
	taskName string
	date     time.Time
	ruleIdx  int
	occIdx   int
}

// Preview turns a set of rules plus company data into the merged,
// classified deadline timeline. Each rule resolves independently: a rule
// that cannot resolve contributes zero dates and exactly one warning and
// never blocks the rest of the batch.
func (e *Engine) Preview(req PreviewRequest) (*PreviewResult, error) {
	limit := req.RenderCap
	if limit == 0 {
		limit = DefaultRenderCap
	}
	if limit < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidRenderCap, req.RenderCap)
	}
	for i, r := range req.Rules {
		if err := validateRuleShape(i, r); err != nil {
			return nil, err
		}
	}

	now := req.Now
	if now.IsZero() {
		now = e.now()
	}
	today := truncateToDay(now)

	facts := companyFacts(req.Company, now)

	var (
		rows     []occurrence
		warnings []Warning
	)
	for ruleIdx, r := range req.Rules {
		applies, warn := e.ruleApplies(r, facts)
		if warn != nil {
			warnings = append(warnings, *warn)
			continue
		}
		if !applies {
			continue
		}

		bases, warn := e.expandRule(r, req.Company, req.ServiceStartDate, now)
		if warn != nil {
			warnings = append(warnings, *warn)
			continue
		}
		for occIdx, base := range bases {
			rows = append(rows, occurrence{
				taskName: r.TaskName,
				date:     applyOffset(base, r.OffsetMonths, r.OffsetDays),
				ruleIdx:  ruleIdx,
				occIdx:   occIdx,
			})
		}
	}

	// Exclusions are applied to the full generated set, before
	// truncation, so hiding a row never resurfaces an excluded one.
	if set := buildExclusionSet(req.Exclusions); len(set) > 0 {
		kept := rows[:0]
		for _, row := range rows {
			key, ok := exclusionKey(row.taskName, row.date)
			if ok {
				if _, excluded := set[key]; excluded {
					continue
				}
			}
			kept = append(kept, row)
		}
		rows = kept
	}

	// Rows are generated in (rule order, occurrence index) order, so a
	// stable date sort keeps that order as the tie-break.
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].date.Before(rows[j].date)
	})

	result := &PreviewResult{
		Warnings:   warnings,
		TotalCount: len(rows),
	}
	if result.Warnings == nil {
		result.Warnings = []Warning{}
	}

	shown := len(rows)
	if shown > limit {
		shown = limit
	}
	result.Deadlines = make([]GeneratedDeadline, 0, shown)
	for _, row := range rows {
		isPast := row.date.Before(today)
		if isPast {
			result.OverdueCount++
		}
		if len(result.Deadlines) < shown {
			result.Deadlines = append(result.Deadlines, GeneratedDeadline{
				TaskName:      row.taskName,
				Date:          row.date,
				DateString:    row.date.Format("2006-01-02"),
				RelativeLabel: relativeLabel(row.date, today),
				IsPast:        isPast,
				IsToday:       row.date.Equal(today),
			})
		}
	}
	result.HiddenCount = result.TotalCount - len(result.Deadlines)

	return result, nil
}

// expandRule produces a rule's pre-offset base dates. A resolution
// failure surfaces once, from occurrence zero; missing anchor data fails
// identically for every later index.
func (e *Engine) expandRule(r *DeadlineRule, company CompanyAnchorData, serviceStart *time.Time, now time.Time) ([]time.Time, *Warning) {
	count := occurrenceCount(r)
	bases := make([]time.Time, 0, count)
	for i := 0; i < count; i++ {
		var (
			base time.Time
			warn *Warning
		)
		if r.RuleType == RuleTypeFixedDate {
			base = addMonthsClamped(truncateToDay(*r.SpecificDate), i*stepMonths(r.Frequency))
		} else {
			base, warn = resolveAnchor(r, company, serviceStart, now, i)
		}
		if warn != nil {
			return nil, warn
		}
		if r.GenerateUntilDate != nil && base.After(truncateToDay(*r.GenerateUntilDate)) {
			break
		}
		bases = append(bases, base)
	}
	return bases, nil
}

// relativeLabel renders a day-granularity human label for the UI.
func relativeLabel(date, today time.Time) string {
	days := int(date.Sub(today).Hours() / 24)
	switch {
	case days == 0:
		return "today"
	case days == 1:
		return "tomorrow"
	case days == -1:
		return "yesterday"
	case days > 0:
		return fmt.Sprintf("in %d days", days)
	default:
		return fmt.Sprintf("%d days ago", -days)
	}
}
