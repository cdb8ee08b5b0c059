package deadline

import (
	"encoding/json"
	"fmt"
)

// WarningCode classifies why a rule produced no dates.
type WarningCode string

const (
	WarnMissingAnchorData WarningCode = "MISSING_ANCHOR_DATA"
	WarnInvalidAnchorData WarningCode = "INVALID_ANCHOR_DATA"
	WarnUnsupportedAnchor WarningCode = "UNSUPPORTED_ANCHOR"
	WarnConditionFailed   WarningCode = "CONDITION_FAILED"
)

// Warning is a non-fatal diagnostic for one rule. Business-logic problems
// never become errors: the affected rule contributes zero dates and
// exactly one Warning while every other rule still resolves.
type Warning struct {
	TaskName string
	Code     WarningCode
	Detail   string
}

// String renders the warning the way the UI shows it, keyed by task name.
func (w Warning) String() string {
	if w.TaskName == "" {
		return w.Detail
	}
	return fmt.Sprintf("%s: %s", w.TaskName, w.Detail)
}

// MarshalJSON emits the formatted message so API responses carry plain
// warning strings.
func (w Warning) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.String())
}

func missingAnchorData(task, detail string) Warning {
	return Warning{TaskName: task, Code: WarnMissingAnchorData, Detail: detail}
}

func invalidAnchorData(task, detail string) Warning {
	return Warning{TaskName: task, Code: WarnInvalidAnchorData, Detail: detail}
}

func unsupportedAnchor(task, detail string) Warning {
	return Warning{TaskName: task, Code: WarnUnsupportedAnchor, Detail: detail}
}

func conditionFailed(task, detail string) Warning {
	return Warning{TaskName: task, Code: WarnConditionFailed, Detail: detail}
}
