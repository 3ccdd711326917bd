// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package budget

import (
	"sort"

	"github.com/pdiddy/survey-engine/pkg/types"
)

// Assignment maps each citing section to the citation keys of the records
// it will discuss, in descending score order.
type Assignment map[string][]string

// AssignRecords distributes the selected records across the outline's citing
// sections. Records sharing a subtopic are kept together: subtopics are
// ordered by the best score among their records and dealt onto citing
// sections in that order; records without a subtopic are spread round-robin
// afterwards. The result is deterministic for a given set and outline.
func AssignRecords(set types.SelectionSet, outline types.Outline) Assignment {
	var citing []string
	for _, s := range outline.Sections {
		if s.Citing {
			citing = append(citing, s.ID)
		}
	}
	assign := make(Assignment, len(citing))
	if len(citing) == 0 {
		return assign
	}

	// Group by subtopic, tracking each group's best score for ordering.
	bySubtopic := make(map[string][]types.SelectedRecord)
	var unlabeled []types.SelectedRecord
	for _, r := range set.Records {
		if r.Subtopic == "" {
			unlabeled = append(unlabeled, r)
			continue
		}
		bySubtopic[r.Subtopic] = append(bySubtopic[r.Subtopic], r)
	}

	subtopics := make([]string, 0, len(bySubtopic))
	for st := range bySubtopic {
		subtopics = append(subtopics, st)
	}
	sort.Slice(subtopics, func(i, j int) bool {
		si, sj := bestScore(bySubtopic[subtopics[i]]), bestScore(bySubtopic[subtopics[j]])
		if si != sj {
			return si > sj
		}
		return subtopics[i] < subtopics[j]
	})

	for i, st := range subtopics {
		section := citing[i%len(citing)]
		for _, r := range bySubtopic[st] {
			assign[section] = append(assign[section], r.CitationKey)
		}
	}
	for i, r := range unlabeled {
		section := citing[i%len(citing)]
		assign[section] = append(assign[section], r.CitationKey)
	}
	return assign
}

func bestScore(records []types.SelectedRecord) float64 {
	best := 0.0
	for _, r := range records {
		if r.Score > best {
			best = r.Score
		}
	}
	return best
}
