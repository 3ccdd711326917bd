// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package score

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/pdiddy/survey-engine/pkg/types"
)

// Heuristic scores records by keyword overlap between the topic terms and
// the record's title and abstract. It is fully deterministic and needs no
// network, which makes it the offline default and the degraded-mode fallback
// for the semantic judge.
type Heuristic struct{}

// Name returns the strategy identifier.
func (Heuristic) Name() string { return "heuristic" }

// Score judges every record against the topic's term set.
func (h Heuristic) Score(_ context.Context, records []types.CanonicalRecord, topic types.Topic) ([]types.ScoredRecord, error) {
	terms := termSet(topic.Text)
	for _, kw := range topic.Keywords {
		for t := range termSet(kw) {
			terms[t] = true
		}
	}
	if len(terms) == 0 {
		return nil, fmt.Errorf("topic has no scoreable terms")
	}

	scored := make([]types.ScoredRecord, len(records))
	for i, rec := range records {
		titleHits := overlap(terms, termSet(rec.Title))
		absHits := overlap(terms, termSet(rec.Abstract))

		// Title matches weigh double: a topic term in the title is a much
		// stronger relevance signal than one buried in the abstract.
		coverage := (2*float64(titleHits) + float64(absHits)) / (2 * float64(len(terms)))
		if coverage > 1 {
			coverage = 1
		}

		s := types.ScoredRecord{
			CanonicalRecord: rec,
			Score:           1 + 9*coverage,
			Rationale: fmt.Sprintf("keyword overlap: %d/%d topic terms in title, %d in abstract",
				titleHits, len(terms), absHits),
		}
		if s.Score >= 5 {
			s.Subtopic = bestSubtopic(topic, rec)
		}
		scored[i] = s
	}
	return scored, nil
}

// bestSubtopic labels the record with the topic keyword it overlaps most,
// falling back to the topic's leading term.
func bestSubtopic(topic types.Topic, rec types.CanonicalRecord) string {
	recTerms := termSet(rec.Title + " " + rec.Abstract)

	best := ""
	bestHits := 0
	for _, kw := range topic.Keywords {
		hits := overlap(recTerms, termSet(kw))
		if hits > bestHits {
			best, bestHits = kw, hits
		}
	}
	if best != "" {
		return best
	}
	if fields := strings.Fields(topic.Text); len(fields) > 0 {
		return strings.ToLower(fields[0])
	}
	return ""
}

// termSet tokenizes text into a lowercase term set, dropping short stopword
// sized tokens.
func termSet(text string) map[string]bool {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	set := make(map[string]bool)
	for _, f := range strings.Fields(b.String()) {
		if len(f) >= 3 {
			set[f] = true
		}
	}
	return set
}

// overlap counts how many terms the two sets share.
func overlap(a, b map[string]bool) int {
	n := 0
	for t := range b {
		if a[t] {
			n++
		}
	}
	return n
}
