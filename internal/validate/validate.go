// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package validate runs the hard acceptance gates against a drafted
// document: length, citation count, structural completeness, and citation
// key consistency. Checks are not short-circuited; a draft failing three
// ways reports all three reasons.
package validate

import (
	"sort"
	"strings"

	"github.com/pdiddy/survey-engine/pkg/types"
)

// State tracks a validator pass. Passed and Failed are terminal.
type State string

const (
	StatePending  State = "pending"
	StateChecking State = "checking"
	StatePassed   State = "passed"
	StateFailed   State = "failed"
)

// Validator gates draft acceptance for one run. The zero state is pending;
// each Validate call moves through checking into passed or failed and
// produces a fresh report.
type Validator struct {
	Limits types.TierLimits
	Cfg    types.ValidationConfig

	state State
}

// NewValidator builds a validator for one tier.
func NewValidator(limits types.TierLimits, cfg types.ValidationConfig) *Validator {
	return &Validator{Limits: limits, Cfg: cfg, state: StatePending}
}

// State returns the validator's current state.
func (v *Validator) State() State {
	if v.state == "" {
		return StatePending
	}
	return v.state
}

// Validate checks the draft against the tier limits, the outline, and the
// selection registry. The same draft and selection always produce an
// identical report.
func (v *Validator) Validate(draftText string, outline types.Outline, set types.SelectionSet) types.ValidationReport {
	v.state = StateChecking

	d := ParseDraft(draftText)
	report := types.ValidationReport{
		WordCount:           d.WordCount,
		UniqueCitationCount: len(d.CiteKeys),
		UsedCiteKeys:        d.CiteKeys,
		SectionWords:        make(map[string]int, len(outline.Sections)),
	}

	// Length gate.
	if d.WordCount < v.Limits.MinWords || d.WordCount > v.Limits.MaxWords {
		report.Failures = append(report.Failures, types.FailWordCount)
	}

	// Citation count gate.
	if len(d.CiteKeys) < v.Limits.MinRefs || len(d.CiteKeys) > v.Limits.MaxRefs {
		report.Failures = append(report.Failures, types.FailReferenceCount)
	}

	// Structural completeness: every required section present and above the
	// per-section floor.
	floor := v.Cfg.SectionFloor
	if floor <= 0 {
		floor = 40
	}
	for _, s := range outline.Sections {
		actual, ok := sectionActual(d, s)
		report.SectionWords[s.ID] = actual
		if !ok || actual < floor {
			report.MissingSections = append(report.MissingSections, s.ID)
		}
	}
	if len(report.MissingSections) > 0 {
		report.Failures = append(report.Failures, types.FailMissingSection)
	}

	// Citation key consistency against the registry, case-insensitive both
	// ways: dangling keys are a hard failure, unused registry keys and
	// citations of do-not-cite records are review warnings.
	registry := set.KeyRegistry()
	used := make(map[string]bool, len(d.CiteKeys))
	for _, key := range d.CiteKeys {
		lower := strings.ToLower(key)
		used[lower] = true
		rec, ok := registry[lower]
		if !ok {
			report.DanglingCiteKeys = append(report.DanglingCiteKeys, key)
			continue
		}
		if rec.DoNotCite {
			report.DoNotCiteViolations = append(report.DoNotCiteViolations, rec.CitationKey)
		}
	}
	if len(report.DanglingCiteKeys) > 0 {
		report.Failures = append(report.Failures, types.FailDanglingKey)
	}
	for lower, rec := range registry {
		if !used[lower] {
			report.UnusedKeys = append(report.UnusedKeys, rec.CitationKey)
		}
	}
	sort.Strings(report.UnusedKeys)

	report.Passed = len(report.Failures) == 0
	if report.Passed {
		v.state = StatePassed
	} else {
		v.state = StateFailed
	}
	return report
}
