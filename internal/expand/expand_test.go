// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package expand

import (
	"strings"
	"testing"

	"github.com/pdiddy/survey-engine/pkg/types"
)

func testPlan() types.BudgetPlan {
	return types.BudgetPlan{
		TargetTotal: 10000,
		Rows: []types.BudgetRow{
			{SectionID: "introduction", SynthesisWords: 1000},
			{SectionID: "topic_1", RecordKey: "Smith2020", SynthesisWords: 500, ElaborationWords: 2500},
			{SectionID: "topic_1", SynthesisWords: 500},
			{SectionID: "topic_2", RecordKey: "Jones2021", SynthesisWords: 500, ElaborationWords: 3500},
			{SectionID: "topic_2", SynthesisWords: 500},
			{SectionID: "conclusion", SynthesisWords: 1000},
		},
	}
}

func shortReport() types.ValidationReport {
	return types.ValidationReport{
		WordCount:    8700,
		UsedCiteKeys: []string{"Smith2020", "Jones2021"},
		SectionWords: map[string]int{
			"introduction": 1000,
			"topic_1":      3300, // 200 short
			"topic_2":      3400, // 1100 short
			"conclusion":   1000,
		},
		Failures: []types.FailureReason{types.FailWordCount},
	}
}

func TestProposeTargetsLargestShortfall(t *testing.T) {
	c := NewController(testPlan(), types.ExpansionConfig{MaxIterations: 2})
	if c.State() != StateIdle {
		t.Fatalf("new controller state = %s, want idle", c.State())
	}

	directive, ok, err := c.Propose(shortReport())
	if err != nil || !ok {
		t.Fatalf("Propose: ok=%v err=%v", ok, err)
	}
	if directive.SectionID != "topic_2" {
		t.Errorf("directive section = %s, want topic_2 (largest shortfall)", directive.SectionID)
	}
	if directive.GapWords != 1100 {
		t.Errorf("directive gap = %d, want 1100", directive.GapWords)
	}
	if directive.Instruction == "" || strings.Contains(directive.Instruction, "new citations, or") == false {
		t.Errorf("directive instruction missing the no-new-citations constraint: %q", directive.Instruction)
	}
	if c.State() != StateExpanding {
		t.Errorf("state after Propose = %s, want expanding", c.State())
	}
}

func TestProposeOnlyForWordCountShortfall(t *testing.T) {
	tests := []struct {
		name   string
		report types.ValidationReport
	}{
		{"passed report", types.ValidationReport{Passed: true}},
		{"non-length failure", types.ValidationReport{
			WordCount: 9000,
			Failures:  []types.FailureReason{types.FailDanglingKey},
		}},
		{"over-length draft", types.ValidationReport{
			WordCount: 12000,
			Failures:  []types.FailureReason{types.FailWordCount},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewController(testPlan(), types.ExpansionConfig{})
			_, ok, err := c.Propose(tt.report)
			if err != nil {
				t.Fatalf("Propose: %v", err)
			}
			if ok {
				t.Error("controller proposed an expansion where none applies")
			}
			if c.State() != StateIdle {
				t.Errorf("state = %s, want idle", c.State())
			}
		})
	}
}

func TestObserveEnforcesFrozenCitations(t *testing.T) {
	c := NewController(testPlan(), types.ExpansionConfig{MaxIterations: 2})
	if _, ok, err := c.Propose(shortReport()); !ok || err != nil {
		t.Fatalf("Propose: ok=%v err=%v", ok, err)
	}

	grown := types.ValidationReport{
		Passed:       true,
		WordCount:    9900,
		UsedCiteKeys: []string{"Smith2020", "Jones2021", "Sneaky2022"},
	}
	err := c.Observe(grown)
	if err == nil || !strings.Contains(err.Error(), "sneaky2022") {
		t.Fatalf("Observe = %v, want new-citation-key error naming sneaky2022", err)
	}
}

func TestObserveRejectsDroppedKeys(t *testing.T) {
	c := NewController(testPlan(), types.ExpansionConfig{MaxIterations: 2})
	if _, ok, err := c.Propose(shortReport()); !ok || err != nil {
		t.Fatalf("Propose: ok=%v err=%v", ok, err)
	}

	shrunk := types.ValidationReport{
		Passed:       true,
		WordCount:    9900,
		UsedCiteKeys: []string{"Smith2020"},
	}
	if err := c.Observe(shrunk); err == nil {
		t.Fatal("Observe accepted a revision that dropped a citation key")
	}
}

func TestExpansionCycleOnePass(t *testing.T) {
	c := NewController(testPlan(), types.ExpansionConfig{MaxIterations: 2})
	if _, ok, err := c.Propose(shortReport()); !ok || err != nil {
		t.Fatalf("Propose: ok=%v err=%v", ok, err)
	}

	repaired := types.ValidationReport{
		Passed:       true,
		WordCount:    9900,
		UsedCiteKeys: []string{"jones2021", "SMITH2020"}, // same set, case varies
	}
	if err := c.Observe(repaired); err != nil {
		t.Fatalf("Observe: %v", err)
	}
	if c.State() != StateIdle {
		t.Errorf("state after successful cycle = %s, want idle", c.State())
	}
	if c.Iterations() != 1 {
		t.Errorf("iterations = %d, want 1", c.Iterations())
	}
}

func TestProposeRespectsIterationCap(t *testing.T) {
	c := NewController(testPlan(), types.ExpansionConfig{MaxIterations: 2})

	for i := 0; i < 2; i++ {
		if _, ok, err := c.Propose(shortReport()); !ok || err != nil {
			t.Fatalf("Propose %d: ok=%v err=%v", i, ok, err)
		}
		still := shortReport()
		still.Passed = false
		if err := c.Observe(still); err != nil {
			t.Fatalf("Observe %d: %v", i, err)
		}
	}

	if _, ok, err := c.Propose(shortReport()); ok || err == nil {
		t.Fatalf("third Propose: ok=%v err=%v, want terminal cap error", ok, err)
	}
}

func TestResumeCountsPriorCycles(t *testing.T) {
	// A fresh controller seeded with the run's recorded cycles must refuse
	// a directive once the cap is spent.
	c := NewController(testPlan(), types.ExpansionConfig{MaxIterations: 2})
	c.Resume(2)

	if _, ok, err := c.Propose(shortReport()); ok || err == nil {
		t.Fatalf("Propose after resumed cap: ok=%v err=%v, want terminal cap error", ok, err)
	}

	// Resume never rewinds progress already made in this process.
	c = NewController(testPlan(), types.ExpansionConfig{MaxIterations: 2})
	if _, ok, err := c.Propose(shortReport()); !ok || err != nil {
		t.Fatalf("Propose: ok=%v err=%v", ok, err)
	}
	c.Resume(0)
	if c.Iterations() != 1 {
		t.Errorf("iterations after Resume(0) = %d, want 1", c.Iterations())
	}
}

func TestProposeWhileExpandingFails(t *testing.T) {
	c := NewController(testPlan(), types.ExpansionConfig{MaxIterations: 2})
	if _, ok, err := c.Propose(shortReport()); !ok || err != nil {
		t.Fatalf("Propose: ok=%v err=%v", ok, err)
	}
	if _, _, err := c.Propose(shortReport()); err == nil {
		t.Fatal("Propose while a directive is in flight must error")
	}
}

func TestObserveWithoutProposeFails(t *testing.T) {
	c := NewController(testPlan(), types.ExpansionConfig{})
	if err := c.Observe(types.ValidationReport{}); err == nil {
		t.Fatal("Observe with no expansion in flight must error")
	}
}
