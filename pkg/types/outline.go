// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// OutlineSection is an element of the fixed document skeleton: abstract,
// introduction, topic sections, discussion, outlook, conclusion.
type OutlineSection struct {
	// ID identifies the section (e.g. "abstract", "topic_1", "conclusion").
	ID string `json:"id" yaml:"id"`

	// Title is the section heading as it appears in the draft.
	Title string `json:"title" yaml:"title"`

	// Citing reports whether the section carries per-record budget rows.
	// Non-citing sections (abstract, discussion, outlook, conclusion) get a
	// single narrative row.
	Citing bool `json:"citing" yaml:"citing"`

	// QuotaShare is the fraction of the total target length assigned to
	// this section. Shares across an outline sum to 1.0 within rounding.
	QuotaShare float64 `json:"quota_share" yaml:"quota_share"`
}

// Outline is the ordered document skeleton for one survey run.
type Outline struct {
	Sections []OutlineSection `json:"sections" yaml:"sections"`
}

// ShareSum returns the sum of quota shares across all sections.
func (o Outline) ShareSum() float64 {
	var sum float64
	for _, s := range o.Sections {
		sum += s.QuotaShare
	}
	return sum
}

// Section returns the section with the given ID, if present.
func (o Outline) Section(id string) (OutlineSection, bool) {
	for _, s := range o.Sections {
		if s.ID == id {
			return s, true
		}
	}
	return OutlineSection{}, false
}

// BudgetRow is one allocation unit keyed by (section, record). A row with an
// empty RecordKey is a narrative row: connective prose inside a citing
// section, or the whole allocation of a non-citing section.
type BudgetRow struct {
	// SectionID names the outline section this row belongs to.
	SectionID string `json:"section_id" yaml:"section_id"`

	// RecordKey is the citation key of the record this row covers, or empty
	// for a narrative row.
	RecordKey string `json:"record_key,omitempty" yaml:"record_key,omitempty"`

	// SynthesisWords budgets compressed, contextual mention of the record.
	SynthesisWords int `json:"synthesis_words" yaml:"synthesis_words"`

	// ElaborationWords budgets the fuller treatment of the record.
	ElaborationWords int `json:"elaboration_words" yaml:"elaboration_words"`
}

// Words returns the row's total word allocation.
func (r BudgetRow) Words() int {
	return r.SynthesisWords + r.ElaborationWords
}

// BudgetPlan is the budget planner's output: the averaged, normalized rows
// for one run.
type BudgetPlan struct {
	// TargetTotal is the word count the plan was built for.
	TargetTotal int `json:"target_total" yaml:"target_total"`

	// Rows holds one row per (section, record) pair plus narrative rows,
	// ordered by section then record key.
	Rows []BudgetRow `json:"rows" yaml:"rows"`

	// Seed is the sampling seed the plan was produced with, recorded so a
	// run can be reproduced.
	Seed int64 `json:"seed" yaml:"seed"`
}

// Total returns the grand total words across all rows.
func (p BudgetPlan) Total() int {
	sum := 0
	for _, r := range p.Rows {
		sum += r.Words()
	}
	return sum
}

// SectionTotal returns the planned words for one section.
func (p BudgetPlan) SectionTotal(sectionID string) int {
	sum := 0
	for _, r := range p.Rows {
		if r.SectionID == sectionID {
			sum += r.Words()
		}
	}
	return sum
}
