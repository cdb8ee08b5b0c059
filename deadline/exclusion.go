package deadline

import (
	"strings"
	"time"
)

// Exclusion matching is day-granular: key = lowercased, trimmed task name
// plus the ISO calendar day. Empty names and unparseable dates produce no
// key at all, so nothing unrelated is ever dropped (fail open).

func exclusionKey(taskName string, day time.Time) (string, bool) {
	name := strings.ToLower(strings.TrimSpace(taskName))
	if name == "" || day.IsZero() {
		return "", false
	}
	return name + "|" + truncateToDay(day).Format("2006-01-02"), true
}

// parseExclusionDay accepts the day-granularity ISO form callers send,
// falling back to full RFC 3339 timestamps.
func parseExclusionDay(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return truncateToDay(t), true
	}
	return time.Time{}, false
}

// buildExclusionSet normalizes the caller's exclusions into a lookup set,
// built once per preview call.
func buildExclusionSet(exclusions []Exclusion) map[string]struct{} {
	if len(exclusions) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(exclusions))
	for _, ex := range exclusions {
		day, ok := parseExclusionDay(ex.StatutoryDueDate)
		if !ok {
			continue
		}
		key, ok := exclusionKey(ex.TaskName, day)
		if !ok {
			continue
		}
		set[key] = struct{}{}
	}
	return set
}
