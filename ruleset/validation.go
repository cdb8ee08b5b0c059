// Package ruleset validates deadline rule shapes before they reach the
// engine. The engine treats malformed shapes as caller bugs; this is the
// validation collaborator callers run first.
package ruleset

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/complyport/deadlines/deadline"
)

// Field limits. Task names are rule identity and flow into exclusion
// keys and warning text, so they get the tightest bounds.
const (
	maxTaskNameLength    = 200
	maxDescriptionLength = 2000
	maxOffsetMonths      = 120
	maxOffsetDays        = 366
)

// Validator checks rule shapes, including that applicability conditions
// compile against the engine's fact schema.
type Validator struct {
	env *cel.Env
}

// NewValidator creates a validator with the engine's condition
// environment.
func NewValidator() (*Validator, error) {
	env, err := cel.NewEnv(
		cel.Variable("Company", cel.DynType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &Validator{env: env}, nil
}

// ValidateRules validates a batch, reporting the first offending rule by
// position and task name.
func (v *Validator) ValidateRules(rules []*deadline.DeadlineRule) error {
	for i, r := range rules {
		if err := v.ValidateRule(r); err != nil {
			return fmt.Errorf("rule %d: %w", i, err)
		}
	}
	return nil
}

// ValidateRule validates a single rule's shape.
func (v *Validator) ValidateRule(r *deadline.DeadlineRule) error {
	if r == nil {
		return fmt.Errorf("rule is nil")
	}
	if r.TaskName == "" {
		return fmt.Errorf("taskName is required")
	}
	if len(r.TaskName) > maxTaskNameLength {
		return fmt.Errorf("taskName %q exceeds %d characters", r.TaskName[:32]+"...", maxTaskNameLength)
	}
	if len(r.Description) > maxDescriptionLength {
		return fmt.Errorf("description of %q exceeds %d characters", r.TaskName, maxDescriptionLength)
	}

	switch r.RuleType {
	case deadline.RuleTypeFixedDate:
		if r.SpecificDate == nil || r.SpecificDate.IsZero() {
			return fmt.Errorf("%q: specificDate is required for FIXED_DATE rules", r.TaskName)
		}
	case deadline.RuleTypeRuleBased:
		if err := validateAnchor(r); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%q: unknown ruleType %q", r.TaskName, r.RuleType)
	}

	if r.OffsetMonths < -maxOffsetMonths || r.OffsetMonths > maxOffsetMonths {
		return fmt.Errorf("%q: offsetMonths %d outside [-%d, %d]", r.TaskName, r.OffsetMonths, maxOffsetMonths, maxOffsetMonths)
	}
	if r.OffsetDays < -maxOffsetDays || r.OffsetDays > maxOffsetDays {
		return fmt.Errorf("%q: offsetDays %d outside [-%d, %d]", r.TaskName, r.OffsetDays, maxOffsetDays, maxOffsetDays)
	}

	if r.IsRecurring {
		switch r.Frequency {
		case deadline.FrequencyOneTime, deadline.FrequencyMonthly, deadline.FrequencyQuarterly, deadline.FrequencyAnnually:
		default:
			return fmt.Errorf("%q: unknown frequency %q", r.TaskName, r.Frequency)
		}
	}
	if r.GenerateOccurrences < 0 {
		return fmt.Errorf("%q: generateOccurrences must not be negative", r.TaskName)
	}

	if r.AppliesWhen != "" {
		if _, issues := v.env.Compile(r.AppliesWhen); issues != nil && issues.Err() != nil {
			return fmt.Errorf("%q: appliesWhen does not compile: %w", r.TaskName, issues.Err())
		}
	}

	return nil
}

func validateAnchor(r *deadline.DeadlineRule) error {
	switch r.AnchorType {
	case deadline.AnchorFYE, deadline.AnchorIncorporation, deadline.AnchorServiceStart,
		deadline.AnchorMonthEnd, deadline.AnchorQuarterEnd, deadline.AnchorIPCExpiry:
		return nil
	case deadline.AnchorFixedCalendar:
		if r.FixedMonth < 1 || r.FixedMonth > 12 {
			return fmt.Errorf("%q: fixedMonth %d outside [1, 12]", r.TaskName, r.FixedMonth)
		}
		if r.FixedDay < 1 || r.FixedDay > 31 {
			return fmt.Errorf("%q: fixedDay %d outside [1, 31]", r.TaskName, r.FixedDay)
		}
		return nil
	default:
		return fmt.Errorf("%q: unknown anchorType %q", r.TaskName, r.AnchorType)
	}
}
