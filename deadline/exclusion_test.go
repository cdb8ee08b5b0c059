package deadline

import (
	"testing"
	"time"
)

func TestExclusionKeyNormalization(t *testing.T) {
	day := date(2024, time.June, 30)

	key1, ok := exclusionKey("  Annual Return ", day)
	if !ok {
		t.Fatal("exclusionKey() should produce a key for a valid pair")
	}
	key2, _ := exclusionKey("annual return", day.Add(13*time.Hour))
	if key1 != key2 {
		t.Errorf("keys differ after normalization: %q vs %q", key1, key2)
	}

	if _, ok := exclusionKey("   ", day); ok {
		t.Error("blank task name should produce no key")
	}
	if _, ok := exclusionKey("Annual Return", time.Time{}); ok {
		t.Error("zero date should produce no key")
	}
}

func TestParseExclusionDay(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  time.Time
		ok    bool
	}{
		{"ISO day", "2024-06-30", date(2024, time.June, 30), true},
		{"RFC 3339 truncated", "2024-06-30T15:04:05Z", date(2024, time.June, 30), true},
		{"Garbage", "not-a-date", time.Time{}, false},
		{"Empty", "", time.Time{}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := parseExclusionDay(tc.input)
			if ok != tc.ok {
				t.Fatalf("parseExclusionDay(%q) ok = %v, want %v", tc.input, ok, tc.ok)
			}
			if ok && !got.Equal(tc.want) {
				t.Errorf("parseExclusionDay(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestBuildExclusionSetFailsOpen(t *testing.T) {
	set := buildExclusionSet([]Exclusion{
		{TaskName: "Annual Return", StatutoryDueDate: "2024-06-30"},
		{TaskName: "", StatutoryDueDate: "2024-06-30"},        // no identity
		{TaskName: "GST Return", StatutoryDueDate: "garbage"}, // unparseable
	})

	if len(set) != 1 {
		t.Fatalf("buildExclusionSet() kept %d keys, want 1 (invalid entries never match)", len(set))
	}

	key, _ := exclusionKey("Annual Return", date(2024, time.June, 30))
	if _, ok := set[key]; !ok {
		t.Error("valid exclusion missing from set")
	}
}
