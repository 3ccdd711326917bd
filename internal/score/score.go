// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package score assigns relevance scores to canonical records. The judgment
// itself is pluggable: a deterministic heuristic for offline runs and tests,
// or an external semantic judge for production quality. Both produce scores
// on the same 1-10 band scale.
package score

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/pdiddy/survey-engine/pkg/types"
)

// Strategy judges the relevance of records to a topic. Implementations must
// reproduce the band scale: 9-10 exact task+method+modality match, 7-8 same
// task differing method/modality, 5-6 same broad area, 3-4 weak overlap,
// 1-2 background only.
type Strategy interface {
	Name() string
	Score(ctx context.Context, records []types.CanonicalRecord, topic types.Topic) ([]types.ScoredRecord, error)
}

// Scorer runs a primary strategy with an optional fallback. The external
// judge is fallible; when it exhausts its retries the scorer degrades to the
// fallback rather than aborting the run.
type Scorer struct {
	Primary  Strategy
	Fallback Strategy
	Log      *zap.Logger
}

// Score judges every record with the primary strategy, falling back when the
// primary fails. The returned slice preserves input order.
func (s *Scorer) Score(ctx context.Context, records []types.CanonicalRecord, topic types.Topic) ([]types.ScoredRecord, error) {
	scored, err := s.Primary.Score(ctx, records, topic)
	if err == nil {
		return finalize(scored, s.Primary.Name()), nil
	}
	if s.Fallback == nil {
		return nil, fmt.Errorf("scoring with %s: %w", s.Primary.Name(), err)
	}

	s.Log.Warn("primary scorer unavailable, degrading to fallback",
		zap.String("primary", s.Primary.Name()),
		zap.String("fallback", s.Fallback.Name()),
		zap.Error(err))

	scored, ferr := s.Fallback.Score(ctx, records, topic)
	if ferr != nil {
		return nil, fmt.Errorf("fallback scoring with %s: %w", s.Fallback.Name(), ferr)
	}
	return finalize(scored, s.Fallback.Name()), nil
}

// finalize clamps scores into [1, 10] at one decimal place, stamps the
// strategy name, and clears subtopics on records below the subtopic floor.
func finalize(scored []types.ScoredRecord, strategy string) []types.ScoredRecord {
	for i := range scored {
		scored[i].Score = RoundScore(scored[i].Score)
		if scored[i].Score < 5 {
			scored[i].Subtopic = ""
		}
		if scored[i].Strategy == "" {
			scored[i].Strategy = strategy
		}
	}
	return scored
}

// RoundScore clamps a raw score into [1, 10] and rounds it to one decimal
// place.
func RoundScore(v float64) float64 {
	if v < 1 {
		v = 1
	}
	if v > 10 {
		v = 10
	}
	return math.Round(v*10) / 10
}

// CheckDistribution returns diagnostic warnings when the score distribution
// falls outside the healthy bands: high (≥7) share in [20%, 40%], mid
// (5-6.9) in [40%, 60%], low (<5) in [10%, 30%]. A miscalibrated judge shows
// up here before it distorts selection.
func CheckDistribution(scored []types.ScoredRecord) []string {
	if len(scored) == 0 {
		return nil
	}

	var high, mid, low int
	for _, r := range scored {
		switch {
		case r.Score >= 7:
			high++
		case r.Score >= 5:
			mid++
		default:
			low++
		}
	}

	total := float64(len(scored))
	var warnings []string
	if share := float64(high) / total; share < 0.20 || share > 0.40 {
		warnings = append(warnings, fmt.Sprintf("high-score share %.0f%% outside [20%%, 40%%]", share*100))
	}
	if share := float64(mid) / total; share < 0.40 || share > 0.60 {
		warnings = append(warnings, fmt.Sprintf("mid-score share %.0f%% outside [40%%, 60%%]", share*100))
	}
	if share := float64(low) / total; share < 0.10 || share > 0.30 {
		warnings = append(warnings, fmt.Sprintf("low-score share %.0f%% outside [10%%, 30%%]", share*100))
	}
	return warnings
}
