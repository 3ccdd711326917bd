// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// SelectedRecord is one member of a SelectionSet: a scored record with its
// assigned citation key.
type SelectedRecord struct {
	ScoredRecord `yaml:",inline"`

	// CitationKey is the inline citation label (e.g. "Vaswani2017",
	// "Smith2020a"). Keys are unique case-insensitively across the set.
	CitationKey string `json:"citation_key" yaml:"citation_key"`

	// DoNotCite marks a record whose abstract or metadata is too thin to
	// support a citation. The record stays in the set for bibliography
	// completeness, but the validator warns about any citation of it.
	DoNotCite bool `json:"do_not_cite,omitempty" yaml:"do_not_cite,omitempty"`
}

// SelectionSet is the final citable set produced by the selector.
type SelectionSet struct {
	// Records lists the selected records in descending score order.
	Records []SelectedRecord `json:"records" yaml:"records"`

	// InsufficientPool is set when the scored pool was smaller than the
	// configured minimum and the selector took everything available.
	InsufficientPool bool `json:"insufficient_pool,omitempty" yaml:"insufficient_pool,omitempty"`
}

// KeyRegistry returns the set of citation keys, lowercased for
// case-insensitive lookup.
func (s SelectionSet) KeyRegistry() map[string]SelectedRecord {
	reg := make(map[string]SelectedRecord, len(s.Records))
	for _, r := range s.Records {
		reg[strings.ToLower(r.CitationKey)] = r
	}
	return reg
}

// HighScoreCount returns how many members score at or above the high band
// threshold (7.0).
func (s SelectionSet) HighScoreCount() int {
	n := 0
	for _, r := range s.Records {
		if r.Score >= 7.0 {
			n++
		}
	}
	return n
}
