// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package budget allocates a total target word count across the document
// skeleton and across individual records within citing sections. The
// allocation runs several independently sampled passes, averages them
// row-by-row, and normalizes the result to the target.
package budget

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/pdiddy/survey-engine/pkg/types"
)

// shareEpsilon is the rounding slack allowed when checking that outline
// quota shares sum to 1.0.
const shareEpsilon = 0.01

// rowKey identifies one allocation unit. An empty record key marks a
// narrative row.
type rowKey struct {
	section string
	record  string
}

// rowWords accumulates fractional allocations before rounding.
type rowWords struct {
	synthesis   float64
	elaboration float64
}

// Plan builds the word budget for one run. Each of cfg.Samples passes
// allocates independently with seeded randomized tie-breaking, the passes
// are averaged row-by-row (a row absent from one pass contributes zero for
// that pass), and the averaged rows are scaled by a single constant when the
// grand total drifts outside cfg.Tolerance of the target. A total that
// cannot be brought within tolerance is a BudgetImbalanceError.
func Plan(set types.SelectionSet, outline types.Outline, target int, cfg types.BudgetConfig) (types.BudgetPlan, error) {
	if target <= 0 {
		return types.BudgetPlan{}, fmt.Errorf("target total must be positive, got %d", target)
	}
	if len(outline.Sections) == 0 {
		return types.BudgetPlan{}, fmt.Errorf("outline has no sections")
	}
	if sum := outline.ShareSum(); math.Abs(sum-1.0) > shareEpsilon {
		return types.BudgetPlan{}, fmt.Errorf("outline quota shares sum to %.3f, want 1.0", sum)
	}

	samples := cfg.Samples
	if samples <= 0 {
		samples = 3
	}
	tol := cfg.Tolerance
	if tol <= 0 {
		tol = 0.05
	}
	elabShare := cfg.ElaborationShare
	if elabShare <= 0 || elabShare >= 1 {
		elabShare = 0.7
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	assign := AssignRecords(set, outline)

	// Average the passes. Row order is fixed by the outline and assignment,
	// independent of sampling.
	order, totals := rowOrder(outline, assign), make(map[rowKey]*rowWords)
	for _, k := range order {
		totals[k] = &rowWords{}
	}
	for pass := 0; pass < samples; pass++ {
		rng := rand.New(rand.NewSource(seed + int64(pass)))
		sampled := samplePass(outline, assign, target, elabShare, rng)
		for k, w := range sampled {
			totals[k].synthesis += w.synthesis
			totals[k].elaboration += w.elaboration
		}
	}
	for _, w := range totals {
		w.synthesis /= float64(samples)
		w.elaboration /= float64(samples)
	}

	// Normalize only when the averaged total is outside tolerance; scaling
	// an in-tolerance plan would just add rounding drift.
	grand := 0.0
	for _, w := range totals {
		grand += w.synthesis + w.elaboration
	}
	if grand == 0 {
		return types.BudgetPlan{}, &types.BudgetImbalanceError{Total: 0, Target: target, Tolerance: tol}
	}
	if math.Abs(grand-float64(target))/float64(target) > tol {
		scale := float64(target) / grand
		for _, w := range totals {
			w.synthesis *= scale
			w.elaboration *= scale
		}
	}

	plan := types.BudgetPlan{TargetTotal: target, Seed: seed}
	for _, k := range order {
		w := totals[k]
		plan.Rows = append(plan.Rows, types.BudgetRow{
			SectionID:        k.section,
			RecordKey:        k.record,
			SynthesisWords:   int(math.Round(w.synthesis)),
			ElaborationWords: int(math.Round(w.elaboration)),
		})
	}

	if total := plan.Total(); math.Abs(float64(total-target))/float64(target) > tol {
		return types.BudgetPlan{}, &types.BudgetImbalanceError{Total: total, Target: target, Tolerance: tol}
	}
	return plan, nil
}

// rowOrder fixes the row layout: sections in outline order, each citing
// section's record rows in assignment order followed by its connective
// narrative row, non-citing sections as a single narrative row.
func rowOrder(outline types.Outline, assign Assignment) []rowKey {
	var order []rowKey
	for _, s := range outline.Sections {
		if s.Citing {
			for _, key := range assign[s.ID] {
				order = append(order, rowKey{section: s.ID, record: key})
			}
		}
		order = append(order, rowKey{section: s.ID})
	}
	return order
}

// samplePass runs one allocation pass. The target splits across sections by
// quota share; within a citing section the pool splits into an elaboration
// share divided among the section's records and a synthesis share divided
// among the records plus one connective narrative row. Leftover words from
// integer division go to rows picked by the pass's tie-break ordering.
func samplePass(outline types.Outline, assign Assignment, target int, elabShare float64, rng *rand.Rand) map[rowKey]rowWords {
	rows := make(map[rowKey]rowWords)

	pools := sectionPools(outline, target, rng)
	for _, s := range outline.Sections {
		pool := pools[s.ID]
		records := assign[s.ID]

		if !s.Citing || len(records) == 0 {
			// Narrative-only allocation keeps summary statistics
			// section-complete even for non-citing sections.
			rows[rowKey{section: s.ID}] = rowWords{synthesis: float64(pool)}
			continue
		}

		elabPool := int(math.Round(float64(pool) * elabShare))
		synthPool := pool - elabPool

		elab := splitEvenly(elabPool, len(records), rng)
		// Synthesis shares cover each record's contextual mention plus one
		// connective row of pure narrative prose.
		synth := splitEvenly(synthPool, len(records)+1, rng)

		for i, key := range records {
			rows[rowKey{section: s.ID, record: key}] = rowWords{
				synthesis:   float64(synth[i]),
				elaboration: float64(elab[i]),
			}
		}
		rows[rowKey{section: s.ID}] = rowWords{synthesis: float64(synth[len(records)])}
	}
	return rows
}

// sectionPools splits the target across sections by quota share. The words
// lost to flooring are handed out one at a time to sections ordered by their
// fractional remainder, ties broken by the pass's shuffled order.
func sectionPools(outline types.Outline, target int, rng *rand.Rand) map[string]int {
	type frac struct {
		id   string
		rem  float64
		tick int
	}

	pools := make(map[string]int, len(outline.Sections))
	fracs := make([]frac, 0, len(outline.Sections))
	allocated := 0
	for _, s := range outline.Sections {
		raw := float64(target) * s.QuotaShare
		base := int(math.Floor(raw))
		pools[s.ID] = base
		allocated += base
		fracs = append(fracs, frac{id: s.ID, rem: raw - float64(base), tick: rng.Int()})
	}

	sort.Slice(fracs, func(i, j int) bool {
		if fracs[i].rem != fracs[j].rem {
			return fracs[i].rem > fracs[j].rem
		}
		return fracs[i].tick < fracs[j].tick
	})

	for i := 0; i < target-allocated; i++ {
		pools[fracs[i%len(fracs)].id]++
	}
	return pools
}

// splitEvenly divides pool words across n recipients, distributing the
// remainder one word each to recipients in a pass-specific random order.
func splitEvenly(pool, n int, rng *rand.Rand) []int {
	shares := make([]int, n)
	if n == 0 {
		return shares
	}
	base := pool / n
	rem := pool % n
	for i := range shares {
		shares[i] = base
	}
	for _, idx := range rng.Perm(n)[:rem] {
		shares[idx]++
	}
	return shares
}
