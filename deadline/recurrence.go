package deadline

// stepMonths is the month advance between occurrences of a recurring
// rule. One-time and unknown frequencies step annually, which only
// matters for callers probing indices beyond zero.
func stepMonths(f Frequency) int {
	switch f {
	case FrequencyMonthly:
		return 1
	case FrequencyQuarterly:
		return 3
	default:
		return 12
	}
}

// occurrenceCount resolves how many occurrences a rule expands to:
// min(generateOccurrences or the frequency default, MaxOccurrencesPerRule).
// Non-recurring and one-time rules always expand to exactly one.
func occurrenceCount(r *DeadlineRule) int {
	if !r.IsRecurring || r.Frequency == FrequencyOneTime || r.Frequency == "" {
		return 1
	}
	n := r.GenerateOccurrences
	if n <= 0 {
		n = defaultOccurrences(r.Frequency)
	}
	if n > MaxOccurrencesPerRule {
		n = MaxOccurrencesPerRule
	}
	return n
}
