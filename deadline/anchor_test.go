package deadline

import (
	"testing"
	"time"
)

func ptr(t time.Time) *time.Time { return &t }

func TestResolveAnchorFYE(t *testing.T) {
	rule := &DeadlineRule{TaskName: "Annual Return", RuleType: RuleTypeRuleBased, AnchorType: AnchorFYE}
	now := date(2024, time.March, 15)

	t.Run("Base year from current year", func(t *testing.T) {
		company := CompanyAnchorData{FYEMonth: 12, FYEDay: 31}
		got, warn := resolveAnchor(rule, company, nil, now, 0)
		if warn != nil {
			t.Fatalf("resolveAnchor() returned warning: %v", warn)
		}
		if want := date(2024, time.December, 31); !got.Equal(want) {
			t.Errorf("anchor = %v, want %v", got, want)
		}
	})

	t.Run("Base year override and occurrence stepping", func(t *testing.T) {
		company := CompanyAnchorData{FYEMonth: 6, FYEDay: 30, FYEYear: 2022}
		got, warn := resolveAnchor(rule, company, nil, now, 2)
		if warn != nil {
			t.Fatalf("resolveAnchor() returned warning: %v", warn)
		}
		if want := date(2024, time.June, 30); !got.Equal(want) {
			t.Errorf("anchor = %v, want %v", got, want)
		}
	})

	t.Run("Day clamped per year", func(t *testing.T) {
		company := CompanyAnchorData{FYEMonth: 2, FYEDay: 29, FYEYear: 2023}
		got, warn := resolveAnchor(rule, company, nil, now, 0)
		if warn != nil {
			t.Fatalf("resolveAnchor() returned warning: %v", warn)
		}
		if want := date(2023, time.February, 28); !got.Equal(want) {
			t.Errorf("anchor = %v, want %v", got, want)
		}
	})

	t.Run("Missing FYE warns", func(t *testing.T) {
		_, warn := resolveAnchor(rule, CompanyAnchorData{}, nil, now, 0)
		if warn == nil {
			t.Fatal("resolveAnchor() should warn when FYE is not set")
		}
		if warn.Code != WarnMissingAnchorData {
			t.Errorf("warning code = %s, want %s", warn.Code, WarnMissingAnchorData)
		}
		if warn.TaskName != "Annual Return" {
			t.Errorf("warning task = %q, want %q", warn.TaskName, "Annual Return")
		}
	})
}

func TestResolveAnchorIncorporation(t *testing.T) {
	now := date(2024, time.March, 15)
	rule := &DeadlineRule{
		TaskName:   "AGM",
		RuleType:   RuleTypeRuleBased,
		AnchorType: AnchorIncorporation,
		Frequency:  FrequencyAnnually,
	}

	t.Run("Steps by recurrence frequency", func(t *testing.T) {
		company := CompanyAnchorData{IncorporationDate: ptr(date(2020, time.May, 31))}
		got, warn := resolveAnchor(rule, company, nil, now, 1)
		if warn != nil {
			t.Fatalf("resolveAnchor() returned warning: %v", warn)
		}
		if want := date(2021, time.May, 31); !got.Equal(want) {
			t.Errorf("anchor = %v, want %v", got, want)
		}
	})

	t.Run("Monthly stepping clamps", func(t *testing.T) {
		monthly := &DeadlineRule{TaskName: "Filing", RuleType: RuleTypeRuleBased, AnchorType: AnchorIncorporation, Frequency: FrequencyMonthly}
		company := CompanyAnchorData{IncorporationDate: ptr(date(2024, time.January, 31))}
		got, warn := resolveAnchor(monthly, company, nil, now, 1)
		if warn != nil {
			t.Fatalf("resolveAnchor() returned warning: %v", warn)
		}
		if want := date(2024, time.February, 29); !got.Equal(want) {
			t.Errorf("anchor = %v, want %v", got, want)
		}
	})

	t.Run("Missing incorporation date warns", func(t *testing.T) {
		_, warn := resolveAnchor(rule, CompanyAnchorData{}, nil, now, 0)
		if warn == nil {
			t.Fatal("resolveAnchor() should warn when incorporation date is missing")
		}
	})
}

func TestResolveAnchorServiceStart(t *testing.T) {
	now := date(2024, time.March, 15)
	rule := &DeadlineRule{TaskName: "Engagement Review", RuleType: RuleTypeRuleBased, AnchorType: AnchorServiceStart, Frequency: FrequencyQuarterly}

	start := date(2024, time.January, 31)
	got, warn := resolveAnchor(rule, CompanyAnchorData{}, &start, now, 1)
	if warn != nil {
		t.Fatalf("resolveAnchor() returned warning: %v", warn)
	}
	if want := date(2024, time.April, 30); !got.Equal(want) {
		t.Errorf("anchor = %v, want %v", got, want)
	}

	_, warn = resolveAnchor(rule, CompanyAnchorData{}, nil, now, 0)
	if warn == nil {
		t.Fatal("resolveAnchor() should warn when service start date is missing")
	}
}

func TestResolveAnchorMonthEnd(t *testing.T) {
	rule := &DeadlineRule{TaskName: "Payroll", RuleType: RuleTypeRuleBased, AnchorType: AnchorMonthEnd}

	testCases := []struct {
		name string
		now  time.Time
		i    int
		want time.Time
	}{
		{"Occurrence zero is current month end", date(2024, time.January, 10), 0, date(2024, time.January, 31)},
		{"Occurrence one is leap February end", date(2024, time.January, 10), 1, date(2024, time.February, 29)},
		{"Rolls across year boundary", date(2024, time.December, 2), 1, date(2025, time.January, 31)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, warn := resolveAnchor(rule, CompanyAnchorData{}, nil, tc.now, tc.i)
			if warn != nil {
				t.Fatalf("resolveAnchor() returned warning: %v", warn)
			}
			if !got.Equal(tc.want) {
				t.Errorf("anchor = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestResolveAnchorQuarterEnd(t *testing.T) {
	rule := &DeadlineRule{TaskName: "GST Return", RuleType: RuleTypeRuleBased, AnchorType: AnchorQuarterEnd}
	now := date(2024, time.November, 20) // Q4

	got, warn := resolveAnchor(rule, CompanyAnchorData{}, nil, now, 0)
	if warn != nil {
		t.Fatalf("resolveAnchor() returned warning: %v", warn)
	}
	if want := date(2024, time.December, 31); !got.Equal(want) {
		t.Errorf("occurrence 0 = %v, want %v (current quarter, not Q1 next year)", got, want)
	}

	got, warn = resolveAnchor(rule, CompanyAnchorData{}, nil, now, 1)
	if warn != nil {
		t.Fatalf("resolveAnchor() returned warning: %v", warn)
	}
	if want := date(2025, time.March, 31); !got.Equal(want) {
		t.Errorf("occurrence 1 = %v, want %v", got, want)
	}
}

func TestResolveAnchorFixedCalendar(t *testing.T) {
	now := date(2023, time.June, 1)

	t.Run("Feb 29 degrades on non-leap years", func(t *testing.T) {
		rule := &DeadlineRule{TaskName: "Levy", RuleType: RuleTypeRuleBased, AnchorType: AnchorFixedCalendar, FixedMonth: 2, FixedDay: 29}

		got, warn := resolveAnchor(rule, CompanyAnchorData{}, nil, now, 0)
		if warn != nil {
			t.Fatalf("resolveAnchor() returned warning: %v", warn)
		}
		if want := date(2023, time.February, 28); !got.Equal(want) {
			t.Errorf("non-leap year anchor = %v, want %v", got, want)
		}

		got, warn = resolveAnchor(rule, CompanyAnchorData{}, nil, now, 1)
		if warn != nil {
			t.Fatalf("resolveAnchor() returned warning: %v", warn)
		}
		if want := date(2024, time.February, 29); !got.Equal(want) {
			t.Errorf("leap year anchor = %v, want %v", got, want)
		}
	})

	t.Run("Missing month/day warns", func(t *testing.T) {
		rule := &DeadlineRule{TaskName: "Levy", RuleType: RuleTypeRuleBased, AnchorType: AnchorFixedCalendar}
		_, warn := resolveAnchor(rule, CompanyAnchorData{}, nil, now, 0)
		if warn == nil {
			t.Fatal("resolveAnchor() should warn when fixed month/day is missing")
		}
	})
}

func TestResolveAnchorIPCExpiry(t *testing.T) {
	rule := &DeadlineRule{TaskName: "IPC Renewal", RuleType: RuleTypeRuleBased, AnchorType: AnchorIPCExpiry}

	_, warn := resolveAnchor(rule, CompanyAnchorData{}, nil, date(2024, time.January, 1), 0)
	if warn == nil {
		t.Fatal("resolveAnchor() must never fabricate an IPC expiry date")
	}
	if warn.Code != WarnUnsupportedAnchor {
		t.Errorf("warning code = %s, want %s", warn.Code, WarnUnsupportedAnchor)
	}
}
