package deadline

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/cel-go/cel"
)

// Engine computes deadline previews. It holds no state between calls
// beyond its clock and a cache of compiled applicability conditions, so
// one instance serves every company of a tenant concurrently.
type Engine struct {
	env      *cel.Env
	now      func() time.Time
	programs map[string]cel.Program // condition expression -> compiled program
	mu       sync.RWMutex
}

// NewEngine creates an engine on the wall clock.
func NewEngine() (*Engine, error) {
	return NewEngineWithClock(time.Now)
}

// NewEngineWithClock creates an engine with an injected current-moment
// source. Tests pin the clock instead of relying on wall time.
func NewEngineWithClock(now func() time.Time) (*Engine, error) {
	// Conditions see a single dynamic Company object; the fact shape is
	// fixed, so no per-tenant environment is needed.
	env, err := cel.NewEnv(
		cel.Variable("Company", cel.DynType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Engine{
		env:      env,
		now:      now,
		programs: make(map[string]cel.Program),
	}, nil
}

// CompileCondition compiles an applicability expression and caches the
// program. Compiling is the expensive step; previews run per keystroke,
// so cached programs are reused across calls.
func (e *Engine) CompileCondition(expression string) (cel.Program, error) {
	e.mu.RLock()
	prog, ok := e.programs[expression]
	e.mu.RUnlock()
	if ok {
		return prog, nil
	}

	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}

	// Cost limit prevents resource exhaustion from pathological
	// expressions.
	prog, err := e.env.Program(ast, cel.CostLimit(1000000))
	if err != nil {
		return nil, fmt.Errorf("program creation error: %w", err)
	}

	e.mu.Lock()
	e.programs[expression] = prog
	e.mu.Unlock()

	return prog, nil
}

// ruleApplies evaluates a rule's AppliesWhen condition against the
// company facts. Rules without a condition always apply. Compile and
// evaluation failures are business problems: skip the rule with a
// warning.
func (e *Engine) ruleApplies(r *DeadlineRule, facts map[string]any) (bool, *Warning) {
	if r.AppliesWhen == "" {
		return true, nil
	}

	prog, err := e.CompileCondition(r.AppliesWhen)
	if err != nil {
		w := conditionFailed(r.TaskName, fmt.Sprintf("applicability condition does not compile: %v", err))
		return false, &w
	}

	out, _, err := prog.Eval(facts)
	if err != nil {
		w := conditionFailed(r.TaskName, fmt.Sprintf("applicability condition failed to evaluate: %v", err))
		return false, &w
	}

	matched, ok := out.Value().(bool)
	if !ok {
		w := conditionFailed(r.TaskName, "applicability condition is not a boolean expression")
		return false, &w
	}
	return matched, nil
}

// companyFacts flattens the shared company type into the fact map
// conditions evaluate against.
func companyFacts(c CompanyAnchorData, now time.Time) map[string]any {
	company := map[string]any{
		"FYEMonth":      c.FYEMonth,
		"FYEDay":        c.FYEDay,
		"FYEYear":       c.FYEYear,
		"GSTRegistered": c.GSTRegistered,
	}
	if c.IncorporationDate != nil {
		company["IncorporationDate"] = *c.IncorporationDate
		company["AgeYears"] = now.Year() - c.IncorporationDate.Year()
	}
	if c.GSTRegistrationDate != nil {
		company["GSTRegistrationDate"] = *c.GSTRegistrationDate
	}
	return map[string]any{"Company": company}
}
