// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dedupe

import (
	"fmt"
	"testing"

	"github.com/pdiddy/survey-engine/pkg/types"
)

func testCfg() types.DedupeConfig {
	return types.DedupeConfig{TitleSimilarity: 0.85, MaxYearDelta: 1}
}

// uniqueTitle builds an eight-token title with no overlap across indices.
func uniqueTitle(i int) string {
	return fmt.Sprintf("w%da w%db w%dc w%dd w%de w%df w%dg w%dh", i, i, i, i, i, i, i, i)
}

func TestNormalizeDOI(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare", "10.1000/xyz", "10.1000/xyz"},
		{"uppercase", "10.1000/XYZ", "10.1000/xyz"},
		{"https resolver", "https://doi.org/10.1000/xyz", "10.1000/xyz"},
		{"http resolver", "http://doi.org/10.1000/XYZ", "10.1000/xyz"},
		{"bare resolver", "doi.org/10.1000/xyz", "10.1000/xyz"},
		{"doi scheme", "doi:10.1000/xyz", "10.1000/xyz"},
		{"whitespace", "  10.1000/xyz \n", "10.1000/xyz"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeDOI(tt.in); got != tt.want {
				t.Errorf("NormalizeDOI(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestJaccard(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "deep learning for graphs", "deep learning for graphs", 1.0},
		{"disjoint", "alpha beta gamma", "delta epsilon zeta", 0.0},
		{"case and punctuation ignored", "Deep Learning: For Graphs!", "deep learning for graphs", 1.0},
		{"one empty", "", "deep learning", 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := jaccard(titleTokens(tt.a), titleTokens(tt.b))
			if got != tt.want {
				t.Errorf("jaccard = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDedupeDOIMatch(t *testing.T) {
	candidates := []types.CandidateRecord{
		{SourceID: "a", Title: uniqueTitle(0), Year: 2020, DOI: "10.1000/xyz", IngestOrder: 0},
		{SourceID: "b", Title: uniqueTitle(1), Year: 2015, DOI: "https://doi.org/10.1000/XYZ", IngestOrder: 1},
		{SourceID: "c", Title: uniqueTitle(2), Year: 2021, DOI: "10.1000/other", IngestOrder: 2},
	}
	got := Dedupe(candidates, testCfg())
	if len(got) != 2 {
		t.Fatalf("got %d canonical records, want 2", len(got))
	}
	if len(got[0].MergedFrom) != 2 {
		t.Errorf("merged group has %d members, want 2", len(got[0].MergedFrom))
	}
}

func TestDedupeTitleMatchRequiresCloseYears(t *testing.T) {
	title := "attention is all you need for machine translation really"
	tests := []struct {
		name  string
		yearA int
		yearB int
		want  int
	}{
		{"same year", 2017, 2017, 1},
		{"one apart", 2017, 2018, 1},
		{"two apart", 2017, 2019, 2},
		{"missing year never merges", 2017, 0, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidates := []types.CandidateRecord{
				{SourceID: "a", Title: title, Year: tt.yearA, IngestOrder: 0},
				{SourceID: "b", Title: title, Year: tt.yearB, IngestOrder: 1},
			}
			if got := Dedupe(candidates, testCfg()); len(got) != tt.want {
				t.Errorf("got %d canonical records, want %d", len(got), tt.want)
			}
		})
	}
}

func TestDedupeNearTitleBelowThreshold(t *testing.T) {
	// Four shared tokens out of eight total per title: similarity 0.33.
	candidates := []types.CandidateRecord{
		{SourceID: "a", Title: "graph neural networks for molecular property prediction tasks", Year: 2021, IngestOrder: 0},
		{SourceID: "b", Title: "graph neural networks for traffic flow forecasting problems", Year: 2021, IngestOrder: 1},
	}
	if got := Dedupe(candidates, testCfg()); len(got) != 2 {
		t.Errorf("got %d canonical records, want 2 (similarity below threshold)", len(got))
	}
}

func TestDedupeTransitive(t *testing.T) {
	// A and B share a DOI; B and C share a title. All three must land in
	// one group even though A and C match on nothing directly.
	candidates := []types.CandidateRecord{
		{SourceID: "a", Title: uniqueTitle(0), Year: 2019, DOI: "10.1/abc", IngestOrder: 0},
		{SourceID: "b", Title: "survey of federated learning systems and their applications", Year: 2020, DOI: "doi:10.1/ABC", IngestOrder: 1},
		{SourceID: "c", Title: "survey of federated learning systems and their applications", Year: 2020, IngestOrder: 2},
	}
	got := Dedupe(candidates, testCfg())
	if len(got) != 1 {
		t.Fatalf("got %d canonical records, want 1", len(got))
	}
	if len(got[0].MergedFrom) != 3 {
		t.Errorf("merged group has %d members, want 3", len(got[0].MergedFrom))
	}
}

func TestDedupeElection(t *testing.T) {
	candidates := []types.CandidateRecord{
		// Sparse record first: title and year only, but it carries the URL.
		{SourceID: "sparse", Title: "quantum error correction with surface codes explained simply here",
			Year: 2022, URL: "https://example.org/p1", IngestOrder: 0},
		// Complete record second: should win the election.
		{SourceID: "full", Title: "quantum error correction with surface codes explained simply here",
			Authors: []string{"Ada Lovelace"}, Year: 2022, Venue: "Nature", DOI: "10.1/qec",
			Abstract: "We study surface codes.", IngestOrder: 1},
	}
	got := Dedupe(candidates, testCfg())
	if len(got) != 1 {
		t.Fatalf("got %d canonical records, want 1", len(got))
	}
	rec := got[0]
	if rec.SourceID != "full" {
		t.Errorf("canonical SourceID = %q, want the most complete member", rec.SourceID)
	}
	if rec.URL != "https://example.org/p1" {
		t.Errorf("canonical URL = %q, want the sparse member's URL retained", rec.URL)
	}
	if rec.DOI != "10.1/qec" {
		t.Errorf("canonical DOI = %q, want 10.1/qec", rec.DOI)
	}
	if rec.IngestOrder != 0 {
		t.Errorf("canonical IngestOrder = %d, want the earliest member's (0)", rec.IngestOrder)
	}
}

func TestDedupePoolReduction(t *testing.T) {
	// 120 candidates: 97 distinct works, 15 exact-DOI duplicates, and 8
	// near-duplicate titles. The canonical pool must come out at 97.
	var candidates []types.CandidateRecord
	for i := 0; i < 97; i++ {
		candidates = append(candidates, types.CandidateRecord{
			SourceID:    fmt.Sprintf("openalex:W%d", i),
			Title:       uniqueTitle(i),
			Year:        2000 + i%20,
			DOI:         fmt.Sprintf("10.1/w%d", i),
			IngestOrder: i,
		})
	}
	for i := 0; i < 15; i++ {
		candidates = append(candidates, types.CandidateRecord{
			SourceID:    fmt.Sprintf("arxiv:%d", i),
			Title:       uniqueTitle(200 + i),
			Year:        1990,
			DOI:         fmt.Sprintf("https://doi.org/10.1/W%d", i),
			IngestOrder: 97 + i,
		})
	}
	for i := 0; i < 8; i++ {
		candidates = append(candidates, types.CandidateRecord{
			SourceID:    fmt.Sprintf("seed:%d", i),
			Title:       uniqueTitle(20+i) + " extra",
			Year:        2000 + (20+i)%20 + 1,
			IngestOrder: 112 + i,
		})
	}

	got := Dedupe(candidates, testCfg())
	if len(got) != 97 {
		t.Fatalf("got %d canonical records, want 97", len(got))
	}

	// Running the pass again over the canonical pool must not merge further.
	again := make([]types.CandidateRecord, len(got))
	for i, rec := range got {
		again[i] = rec.CandidateRecord
	}
	if rerun := Dedupe(again, testCfg()); len(rerun) != len(got) {
		t.Errorf("second pass changed the pool: %d -> %d", len(got), len(rerun))
	}
}

func TestDedupeOrderedByEarliestMember(t *testing.T) {
	candidates := []types.CandidateRecord{
		{SourceID: "a", Title: uniqueTitle(0), Year: 2020, IngestOrder: 0},
		{SourceID: "b", Title: uniqueTitle(1), Year: 2020, IngestOrder: 1},
		{SourceID: "c", Title: uniqueTitle(0), Year: 2020, IngestOrder: 2},
	}
	got := Dedupe(candidates, testCfg())
	if len(got) != 2 {
		t.Fatalf("got %d canonical records, want 2", len(got))
	}
	if got[0].IngestOrder != 0 || got[1].IngestOrder != 1 {
		t.Errorf("canonical order = [%d %d], want [0 1]",
			got[0].IngestOrder, got[1].IngestOrder)
	}
}

func TestDedupeEmptyInput(t *testing.T) {
	if got := Dedupe(nil, testCfg()); len(got) != 0 {
		t.Errorf("got %d canonical records for empty input, want 0", len(got))
	}
}
