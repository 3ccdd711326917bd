// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strings"
)

// MalformedRecordError marks a candidate that carries neither a DOI nor a
// (title, year) pair. Such records are dropped at ingestion with a warning,
// never deduplicated.
type MalformedRecordError struct {
	SourceID string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record %s: no DOI and no (title, year)", e.SourceID)
}

// InsufficientPoolError reports that fewer candidates than the tier minimum
// survived dedup and scoring, even after backfill. Surfaced to the caller
// rather than silently under-filling the selection.
type InsufficientPoolError struct {
	Have int
	Want int
}

func (e *InsufficientPoolError) Error() string {
	return fmt.Sprintf("insufficient pool: %d scored records, need at least %d", e.Have, e.Want)
}

// ScorerUnavailableError reports that the external judge exhausted its
// retries. The scorer recovers by falling back to the heuristic strategy;
// the error is logged as a degraded-mode notice.
type ScorerUnavailableError struct {
	Attempts int
	Err      error
}

func (e *ScorerUnavailableError) Error() string {
	return fmt.Sprintf("semantic judge unavailable after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ScorerUnavailableError) Unwrap() error { return e.Err }

// BudgetImbalanceError reports that normalization could not bring the plan
// total within tolerance of the target.
type BudgetImbalanceError struct {
	Total     int
	Target    int
	Tolerance float64
}

func (e *BudgetImbalanceError) Error() string {
	return fmt.Sprintf("budget imbalance: total %d outside %.0f%% of target %d",
		e.Total, e.Tolerance*100, e.Target)
}

// ValidationFailedError carries every failed validator check for one draft.
type ValidationFailedError struct {
	Reasons []FailureReason
}

func (e *ValidationFailedError) Error() string {
	parts := make([]string, len(e.Reasons))
	for i, r := range e.Reasons {
		parts[i] = string(r)
	}
	return "validation failed: " + strings.Join(parts, ", ")
}
