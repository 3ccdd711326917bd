// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// FailureReason classifies one failed validation check.
type FailureReason string

const (
	FailWordCount      FailureReason = "word_count_out_of_range"
	FailReferenceCount FailureReason = "reference_count_out_of_range"
	FailMissingSection FailureReason = "missing_section"
	FailDanglingKey    FailureReason = "dangling_citation_key"
)

// ValidationReport is the outcome of one validator pass. Reports are created
// fresh on every invocation and never mutated; the expansion controller reads
// the most recent report only.
type ValidationReport struct {
	// WordCount is the draft's total word count.
	WordCount int `json:"word_count" yaml:"word_count"`

	// UniqueCitationCount is the number of distinct citation keys used in
	// the draft, compared case-insensitively.
	UniqueCitationCount int `json:"unique_citation_count" yaml:"unique_citation_count"`

	// MissingSections lists required sections that are absent or below the
	// per-section length floor.
	MissingSections []string `json:"missing_sections,omitempty" yaml:"missing_sections,omitempty"`

	// DanglingCiteKeys lists citation keys used in the draft with no entry
	// in the selection registry.
	DanglingCiteKeys []string `json:"dangling_cite_keys,omitempty" yaml:"dangling_cite_keys,omitempty"`

	// UsedCiteKeys lists the distinct citation keys used in the draft, in
	// first-use order. The expansion controller compares this set across
	// passes to verify an expansion introduced no new citations.
	UsedCiteKeys []string `json:"used_cite_keys,omitempty" yaml:"used_cite_keys,omitempty"`

	// UnusedKeys lists registry keys never cited in the draft. A warning,
	// not a failure.
	UnusedKeys []string `json:"unused_keys,omitempty" yaml:"unused_keys,omitempty"`

	// DoNotCiteViolations lists citations of records marked do-not-cite.
	// A review warning, not a failure.
	DoNotCiteViolations []string `json:"do_not_cite_violations,omitempty" yaml:"do_not_cite_violations,omitempty"`

	// SectionWords maps section ID to the section's actual word count, used
	// by the expansion controller to find the largest shortfall.
	SectionWords map[string]int `json:"section_words,omitempty" yaml:"section_words,omitempty"`

	// Failures lists every failed check. Checks are not short-circuited:
	// simultaneous failures are all reported.
	Failures []FailureReason `json:"failures,omitempty" yaml:"failures,omitempty"`

	// Passed reports whether every hard check passed.
	Passed bool `json:"passed" yaml:"passed"`
}

// HasFailure reports whether the given reason is among the report's failures.
func (r ValidationReport) HasFailure(reason FailureReason) bool {
	for _, f := range r.Failures {
		if f == reason {
			return true
		}
	}
	return false
}
