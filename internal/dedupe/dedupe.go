// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dedupe merges candidate records that refer to the same underlying
// work. Dedup is a single-threaded pass over the full ingestion batch so the
// union-find merge decisions are deterministic.
package dedupe

import (
	"sort"
	"strings"
	"unicode"

	"github.com/pdiddy/survey-engine/pkg/types"
)

// Dedupe groups the candidates and returns one canonical record per group,
// ordered by the earliest ingestion position of each group's members. The
// input list is not mutated.
//
// Two candidates merge when either holds:
//   - their normalized DOIs match, or
//   - their normalized titles overlap at or above cfg.TitleSimilarity and
//     their publication years differ by at most cfg.MaxYearDelta.
func Dedupe(candidates []types.CandidateRecord, cfg types.DedupeConfig) []types.CanonicalRecord {
	if cfg.TitleSimilarity <= 0 {
		cfg.TitleSimilarity = 0.85
	}
	if cfg.MaxYearDelta <= 0 {
		cfg.MaxYearDelta = 1
	}

	n := len(candidates)
	uf := newUnionFind(n)

	// DOI matches via a map, one union per shared key.
	byDOI := make(map[string]int)
	for i, c := range candidates {
		doi := NormalizeDOI(c.DOI)
		if doi == "" {
			continue
		}
		if j, ok := byDOI[doi]; ok {
			uf.union(i, j)
		} else {
			byDOI[doi] = i
		}
	}

	// Title similarity needs pairwise comparison; normalize once up front.
	tokens := make([][]string, n)
	for i, c := range candidates {
		tokens[i] = titleTokens(c.Title)
	}
	for i := 0; i < n; i++ {
		if len(tokens[i]) == 0 || candidates[i].Year == 0 {
			continue
		}
		for j := i + 1; j < n; j++ {
			if len(tokens[j]) == 0 || candidates[j].Year == 0 {
				continue
			}
			if yearDelta(candidates[i].Year, candidates[j].Year) > cfg.MaxYearDelta {
				continue
			}
			if jaccard(tokens[i], tokens[j]) >= cfg.TitleSimilarity {
				uf.union(i, j)
			}
		}
	}

	// Collect groups keyed by root, ordered by earliest member.
	groups := make(map[int][]int)
	for i := 0; i < n; i++ {
		root := uf.find(i)
		groups[root] = append(groups[root], i)
	}

	roots := make([]int, 0, len(groups))
	for root := range groups {
		roots = append(roots, root)
	}
	sort.Slice(roots, func(a, b int) bool {
		return groups[roots[a]][0] < groups[roots[b]][0]
	})

	canon := make([]types.CanonicalRecord, 0, len(roots))
	for _, root := range roots {
		canon = append(canon, elect(candidates, groups[root]))
	}
	return canon
}

// elect builds the canonical record for one group. Scalar fields come from
// the member with the most complete metadata, ties broken by earliest
// ingestion order; DOI and URL are retained if any member has them.
func elect(candidates []types.CandidateRecord, members []int) types.CanonicalRecord {
	best := members[0]
	for _, idx := range members[1:] {
		if completeness(candidates[idx]) > completeness(candidates[best]) {
			best = idx
		}
	}

	rec := types.CanonicalRecord{CandidateRecord: candidates[best]}
	rec.MergedFrom = make([]string, 0, len(members))
	for _, idx := range members {
		rec.MergedFrom = append(rec.MergedFrom, candidates[idx].SourceID)
		if rec.DOI == "" && candidates[idx].DOI != "" {
			rec.DOI = candidates[idx].DOI
		}
		if rec.URL == "" && candidates[idx].URL != "" {
			rec.URL = candidates[idx].URL
		}
		if rec.Abstract == "" && candidates[idx].Abstract != "" {
			rec.Abstract = candidates[idx].Abstract
		}
	}
	// The group's ingestion position is its earliest member's.
	rec.IngestOrder = candidates[members[0]].IngestOrder
	return rec
}

// completeness counts non-empty metadata fields.
func completeness(c types.CandidateRecord) int {
	n := 0
	for _, s := range []string{c.Title, c.Venue, c.DOI, c.URL, c.Abstract} {
		if s != "" {
			n++
		}
	}
	if c.Year != 0 {
		n++
	}
	if len(c.Authors) > 0 {
		n++
	}
	return n
}

// NormalizeDOI lowercases a DOI and strips a leading resolver URL prefix so
// "https://doi.org/10.1000/XYZ" and "10.1000/xyz" compare equal.
func NormalizeDOI(doi string) string {
	doi = strings.TrimSpace(strings.ToLower(doi))
	for _, prefix := range []string{"https://doi.org/", "http://doi.org/", "doi.org/", "doi:"} {
		doi = strings.TrimPrefix(doi, prefix)
	}
	return doi
}

// titleTokens returns the deduplicated tokens of a lowercased,
// punctuation-stripped title.
func titleTokens(title string) []string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	fields := strings.Fields(b.String())
	seen := make(map[string]bool, len(fields))
	tokens := fields[:0]
	for _, f := range fields {
		if !seen[f] {
			seen[f] = true
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// jaccard computes the Jaccard similarity of two token sets.
func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]bool, len(a))
	for _, t := range a {
		set[t] = true
	}
	inter := 0
	for _, t := range b {
		if set[t] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

func yearDelta(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
