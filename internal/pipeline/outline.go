// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/pdiddy/survey-engine/pkg/types"
)

// Fixed quota shares for the narrative skeleton. The topic sections split
// the remaining 0.60 evenly.
const (
	abstractShare     = 0.05
	introductionShare = 0.10
	topicsShare       = 0.60
	discussionShare   = 0.10
	outlookShare      = 0.05
	conclusionShare   = 0.10
)

// BuildOutline constructs the fixed document skeleton: abstract,
// introduction, topicSections topic sections, discussion, outlook,
// conclusion. Topic section titles come from the selection's most frequent
// subtopics; sections beyond the available subtopics get a generic title.
// Only the topic sections are citing.
func BuildOutline(set types.SelectionSet, topicSections int) types.Outline {
	if topicSections <= 0 {
		topicSections = distinctSubtopics(set)
		if topicSections < 2 {
			topicSections = 2
		}
		if topicSections > 6 {
			topicSections = 6
		}
	}

	titles := topicTitles(set, topicSections)

	var o types.Outline
	o.Sections = append(o.Sections,
		types.OutlineSection{ID: "abstract", Title: "Abstract", QuotaShare: abstractShare},
		types.OutlineSection{ID: "introduction", Title: "Introduction", QuotaShare: introductionShare},
	)
	per := topicsShare / float64(topicSections)
	for i := 0; i < topicSections; i++ {
		o.Sections = append(o.Sections, types.OutlineSection{
			ID:         fmt.Sprintf("topic_%d", i+1),
			Title:      titles[i],
			Citing:     true,
			QuotaShare: per,
		})
	}
	o.Sections = append(o.Sections,
		types.OutlineSection{ID: "discussion", Title: "Discussion", QuotaShare: discussionShare},
		types.OutlineSection{ID: "outlook", Title: "Outlook", QuotaShare: outlookShare},
		types.OutlineSection{ID: "conclusion", Title: "Conclusion", QuotaShare: conclusionShare},
	)
	return o
}

// topicTitles ranks subtopics by how many selected records carry them
// (ties broken alphabetically) and returns topicSections titles.
func topicTitles(set types.SelectionSet, topicSections int) []string {
	counts := make(map[string]int)
	for _, r := range set.Records {
		if r.Subtopic != "" {
			counts[r.Subtopic]++
		}
	}
	subtopics := make([]string, 0, len(counts))
	for st := range counts {
		subtopics = append(subtopics, st)
	}
	sort.Slice(subtopics, func(i, j int) bool {
		if counts[subtopics[i]] != counts[subtopics[j]] {
			return counts[subtopics[i]] > counts[subtopics[j]]
		}
		return subtopics[i] < subtopics[j]
	})

	titles := make([]string, topicSections)
	for i := range titles {
		if i < len(subtopics) {
			titles[i] = titleCase(subtopics[i])
		} else {
			titles[i] = fmt.Sprintf("Topic Area %d", i+1)
		}
	}
	return titles
}

func titleCase(s string) string {
	fields := strings.Fields(s)
	for i, f := range fields {
		r := []rune(f)
		r[0] = unicode.ToUpper(r[0])
		fields[i] = string(r)
	}
	return strings.Join(fields, " ")
}

func distinctSubtopics(set types.SelectionSet) int {
	seen := make(map[string]bool)
	for _, r := range set.Records {
		if r.Subtopic != "" {
			seen[r.Subtopic] = true
		}
	}
	return len(seen)
}
