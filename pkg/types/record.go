// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the survey-engine pipeline.
// Records flow through the stages in this order: CandidateRecord (ingestion) →
// CanonicalRecord (dedup) → ScoredRecord (relevance scoring) → SelectionSet
// (selection) → BudgetPlan (budgeting) → ValidationReport (validation).
// Every stage consumes the previous stage's output as an immutable snapshot.
package types

// Topic describes the research topic a survey run is built around.
type Topic struct {
	// Text is the free-text research topic (e.g. "diffusion models for
	// medical image segmentation").
	Text string `json:"text" yaml:"text"`

	// Keywords are optional additional terms used by the heuristic scorer
	// and source adapters.
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
}

// CandidateRecord is one bibliographic entry as returned by a source query.
// Candidates are immutable once ingested; the dedup stage groups them but
// never edits them in place.
type CandidateRecord struct {
	// SourceID is the stable identifier assigned at ingestion. It encodes
	// the source and the source-local identifier (e.g. "openalex:W2741809807").
	SourceID string `json:"source_id" yaml:"source_id"`

	// Title is the work's title as returned by the source.
	Title string `json:"title" yaml:"title"`

	// Authors lists the work's authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Year is the publication year. Zero means unknown.
	Year int `json:"year" yaml:"year"`

	// Venue is the journal or conference (optional).
	Venue string `json:"venue,omitempty" yaml:"venue,omitempty"`

	// DOI is the digital object identifier, if the source provided one.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// URL points at the work's landing page (optional).
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Abstract is the work's abstract (optional; its absence marks the
	// record as thin metadata downstream).
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// IngestOrder is the position of the record in the concatenated
	// ingestion batch. It is the deterministic tiebreak used by dedup
	// canonical-field election and by the selector's stable sort.
	IngestOrder int `json:"ingest_order" yaml:"ingest_order"`
}

// HasIdentity reports whether the record carries enough identity to be
// deduplicated: a DOI, or a title together with a year. Records without
// identity are rejected at ingestion as malformed.
func (r CandidateRecord) HasIdentity() bool {
	return r.DOI != "" || (r.Title != "" && r.Year != 0)
}

// CanonicalRecord is the deduplicated representative of one or more
// CandidateRecords. A new merge event produces a new CanonicalRecord; an
// existing one is never edited in place.
type CanonicalRecord struct {
	CandidateRecord `yaml:",inline"`

	// MergedFrom lists the SourceIDs of every candidate merged into this
	// record. It is never empty: a singleton group lists its own source.
	MergedFrom []string `json:"merged_from" yaml:"merged_from"`
}

// ScoredRecord is a CanonicalRecord annotated with a relevance judgment.
type ScoredRecord struct {
	CanonicalRecord `yaml:",inline"`

	// Score is the relevance score in [1, 10], recorded to one decimal
	// place. Band meanings: 9-10 exact task+method+modality match, 7-8 same
	// task differing method/modality, 5-6 same broad area, 3-4 weak
	// conceptual overlap, 1-2 background-only relevance.
	Score float64 `json:"score" yaml:"score"`

	// Subtopic labels the record for outline planning. Set only when
	// Score >= 5 so low-relevance noise stays out of the outline.
	Subtopic string `json:"subtopic,omitempty" yaml:"subtopic,omitempty"`

	// Rationale is the judge's free-text justification for the score.
	Rationale string `json:"rationale,omitempty" yaml:"rationale,omitempty"`

	// Strategy names the judgment source that produced the score
	// (e.g. "heuristic", "semantic"). Recorded for auditability.
	Strategy string `json:"strategy,omitempty" yaml:"strategy,omitempty"`
}
