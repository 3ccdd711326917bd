// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package expand repairs a length shortfall by directing the draft writer to
// grow exactly one section per iteration. The loop is a bounded state
// machine, not a retry-until-happy script: it terminates at the iteration
// cap and refuses expansions that change the citation set.
package expand

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/survey-engine/pkg/types"
)

// State tracks the controller. Idle is both the start state and the
// terminal state after a successful repair.
type State string

const (
	StateIdle         State = "idle"
	StateExpanding    State = "expanding"
	StateRevalidating State = "revalidating"
)

// Instruction is the fixed expansion directive. Expansion adds supporting
// detail only; claims and citations are frozen.
const Instruction = "Add supporting evidence and specifics to this section only, " +
	"without introducing new claims, new citations, or new subtopics; keep the tone consistent."

// Directive scopes one expansion to a single section.
type Directive struct {
	// SectionID is the section with the largest planned-versus-actual gap.
	SectionID string

	// GapWords is the shortfall the expansion should close.
	GapWords int

	// Instruction is the writer-facing directive text.
	Instruction string
}

// Controller drives the bounded expansion loop for one run.
type Controller struct {
	plan types.BudgetPlan
	cfg  types.ExpansionConfig

	state      State
	iterations int
	baseline   map[string]bool
	current    string
}

// NewController builds a controller against the run's budget plan.
func NewController(plan types.BudgetPlan, cfg types.ExpansionConfig) *Controller {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 2
	}
	return &Controller{plan: plan, cfg: cfg, state: StateIdle}
}

// State returns the controller's current state.
func (c *Controller) State() State { return c.state }

// Resume seeds the iteration count from cycles already recorded in the run
// ledger, so the cap holds across separate invocations.
func (c *Controller) Resume(iterations int) {
	if iterations > c.iterations {
		c.iterations = iterations
	}
}

// Iterations returns how many expansion directives have been issued.
func (c *Controller) Iterations() int { return c.iterations }

// Propose examines a validation report and, when the draft fell short of the
// word range, returns a directive for the single most under-filled section.
// It returns ok=false when no expansion applies: the report passed, the
// failure is not length-related, or the draft is over rather than under.
// Exceeding the iteration cap while still short is a terminal error.
func (c *Controller) Propose(report types.ValidationReport) (Directive, bool, error) {
	if c.state != StateIdle {
		return Directive{}, false, fmt.Errorf("expansion already in flight for section %s", c.current)
	}
	if report.Passed || !report.HasFailure(types.FailWordCount) {
		return Directive{}, false, nil
	}
	if report.WordCount >= c.plan.TargetTotal {
		// Over-length is not repairable by expansion.
		return Directive{}, false, nil
	}
	if c.iterations >= c.cfg.MaxIterations {
		return Directive{}, false, fmt.Errorf(
			"draft still %d words short after %d expansion passes",
			c.plan.TargetTotal-report.WordCount, c.iterations)
	}

	section, gap := c.largestShortfall(report)
	if section == "" {
		return Directive{}, false, fmt.Errorf("word count short but no section shows a shortfall")
	}

	c.state = StateExpanding
	c.current = section
	c.iterations++
	c.baseline = keySet(report.UsedCiteKeys)

	return Directive{
		SectionID:   section,
		GapWords:    gap,
		Instruction: Instruction,
	}, true, nil
}

// Observe consumes the re-validation report produced after the directive was
// applied. It enforces the frozen-citations invariant: the set of keys used
// before and after the expansion must be identical. On success the
// controller returns to idle, ready for the next Propose if the draft is
// still short.
func (c *Controller) Observe(report types.ValidationReport) error {
	if c.state != StateExpanding {
		return fmt.Errorf("no expansion in flight")
	}
	c.state = StateRevalidating

	after := keySet(report.UsedCiteKeys)
	if diff := setDiff(after, c.baseline); len(diff) > 0 {
		return fmt.Errorf("expansion of %s introduced new citation keys: %s",
			c.current, strings.Join(diff, ", "))
	}
	if diff := setDiff(c.baseline, after); len(diff) > 0 {
		return fmt.Errorf("expansion of %s dropped citation keys: %s",
			c.current, strings.Join(diff, ", "))
	}

	c.state = StateIdle
	c.current = ""
	return nil
}

// largestShortfall returns the section with the largest positive
// (planned − actual) gap, ties broken by section ID for determinism.
func (c *Controller) largestShortfall(report types.ValidationReport) (string, int) {
	bestSection := ""
	bestGap := 0
	var ids []string
	for id := range report.SectionWords {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		gap := c.plan.SectionTotal(id) - report.SectionWords[id]
		if gap > bestGap {
			bestSection, bestGap = id, gap
		}
	}
	return bestSection, bestGap
}

func keySet(keys []string) map[string]bool {
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[strings.ToLower(k)] = true
	}
	return set
}

// setDiff returns the keys in a but not in b, sorted.
func setDiff(a, b map[string]bool) []string {
	var diff []string
	for k := range a {
		if !b[k] {
			diff = append(diff, k)
		}
	}
	sort.Strings(diff)
	return diff
}
