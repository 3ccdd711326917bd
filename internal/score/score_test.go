// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package score

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/survey-engine/internal/httputil"
	"github.com/pdiddy/survey-engine/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = 1 * time.Millisecond
}

// --- fixed strategy for Scorer tests ---

type fixedStrategy struct {
	name   string
	scores []float64
	err    error
}

func (f *fixedStrategy) Name() string { return f.name }

func (f *fixedStrategy) Score(_ context.Context, records []types.CanonicalRecord, _ types.Topic) ([]types.ScoredRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	scored := make([]types.ScoredRecord, len(records))
	for i, rec := range records {
		scored[i] = types.ScoredRecord{
			CanonicalRecord: rec,
			Score:           f.scores[i],
			Subtopic:        "methods",
		}
	}
	return scored, nil
}

func testRecords(n int) []types.CanonicalRecord {
	recs := make([]types.CanonicalRecord, n)
	for i := range recs {
		recs[i] = types.CanonicalRecord{CandidateRecord: types.CandidateRecord{
			SourceID:    fmt.Sprintf("openalex:W%d", i),
			Title:       fmt.Sprintf("paper %d", i),
			IngestOrder: i,
		}}
	}
	return recs
}

func TestRoundScore(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{7.25, 7.3},
		{7.24, 7.2},
		{0.3, 1},
		{-2, 1},
		{11.5, 10},
		{10, 10},
		{1, 1},
	}
	for _, tt := range tests {
		if got := RoundScore(tt.in); got != tt.want {
			t.Errorf("RoundScore(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestScorerClampsAndClearsSubtopic(t *testing.T) {
	s := &Scorer{
		Primary: &fixedStrategy{name: "fixed", scores: []float64{12, 4.9, 5.0, 0.1}},
		Log:     zap.NewNop(),
	}
	scored, err := s.Score(context.Background(), testRecords(4), types.Topic{Text: "anything"})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	wantScores := []float64{10, 4.9, 5.0, 1}
	wantSubtopic := []bool{true, false, true, false}
	for i, rec := range scored {
		if rec.Score != wantScores[i] {
			t.Errorf("record %d score = %v, want %v", i, rec.Score, wantScores[i])
		}
		if got := rec.Subtopic != ""; got != wantSubtopic[i] {
			t.Errorf("record %d subtopic present = %v, want %v (score %v)", i, got, wantSubtopic[i], rec.Score)
		}
		if rec.Strategy != "fixed" {
			t.Errorf("record %d strategy = %q, want fixed", i, rec.Strategy)
		}
	}
}

func TestScorerFallsBack(t *testing.T) {
	s := &Scorer{
		Primary:  &fixedStrategy{name: "semantic", err: fmt.Errorf("judge down")},
		Fallback: &fixedStrategy{name: "heuristic", scores: []float64{6, 7}},
		Log:      zap.NewNop(),
	}
	scored, err := s.Score(context.Background(), testRecords(2), types.Topic{Text: "anything"})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	for i, rec := range scored {
		if rec.Strategy != "heuristic" {
			t.Errorf("record %d strategy = %q, want heuristic", i, rec.Strategy)
		}
	}
}

func TestScorerNoFallbackPropagatesError(t *testing.T) {
	s := &Scorer{
		Primary: &fixedStrategy{name: "semantic", err: fmt.Errorf("judge down")},
		Log:     zap.NewNop(),
	}
	if _, err := s.Score(context.Background(), testRecords(1), types.Topic{Text: "anything"}); err == nil {
		t.Fatal("want error when primary fails with no fallback")
	}
}

// --- heuristic ---

func TestHeuristicBands(t *testing.T) {
	topic := types.Topic{
		Text:     "graph neural networks",
		Keywords: []string{"message passing"},
	}
	records := []types.CanonicalRecord{
		{CandidateRecord: types.CandidateRecord{
			Title:    "graph neural networks with message passing",
			Abstract: "We study graph neural networks and message passing.",
		}},
		{CandidateRecord: types.CandidateRecord{
			Title:    "a study of convex optimization",
			Abstract: "Gradient methods for smooth problems.",
		}},
	}

	scored, err := Heuristic{}.Score(context.Background(), records, topic)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if scored[0].Score <= scored[1].Score {
		t.Errorf("on-topic record scored %v, off-topic %v; want on-topic higher",
			scored[0].Score, scored[1].Score)
	}
	if scored[0].Score < 5 || scored[0].Subtopic == "" {
		t.Errorf("full-overlap record: score %v subtopic %q, want >=5 with a subtopic",
			scored[0].Score, scored[0].Subtopic)
	}
	if scored[1].Score >= 5 {
		t.Errorf("no-overlap record scored %v, want below 5", scored[1].Score)
	}
	if scored[1].Rationale == "" {
		t.Error("every scored record should carry a rationale")
	}
}

func TestHeuristicDeterministic(t *testing.T) {
	topic := types.Topic{Text: "federated learning privacy"}
	records := testRecords(5)
	for i := range records {
		records[i].Abstract = "federated learning with differential privacy guarantees"
	}

	first, err := Heuristic{}.Score(context.Background(), records, topic)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	second, _ := Heuristic{}.Score(context.Background(), records, topic)
	for i := range first {
		if first[i].Score != second[i].Score {
			t.Errorf("record %d scored %v then %v; heuristic must be deterministic",
				i, first[i].Score, second[i].Score)
		}
	}
}

func TestHeuristicEmptyTopic(t *testing.T) {
	if _, err := (Heuristic{}).Score(context.Background(), testRecords(1), types.Topic{}); err == nil {
		t.Fatal("want error for topic with no scoreable terms")
	}
}

// --- semantic judge ---

func TestSemanticScoresBatches(t *testing.T) {
	var batches int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&batches, 1)
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q, want Bearer sk-test", got)
		}
		var req struct {
			Records []struct {
				SourceID string `json:"source_id"`
			} `json:"records"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		judgments := make([]map[string]any, len(req.Records))
		for i := range judgments {
			judgments[i] = map[string]any{"score": 7.5, "subtopic": "theory", "rationale": "close match"}
		}
		json.NewEncoder(w).Encode(map[string]any{"judgments": judgments})
	}))
	defer ts.Close()

	judge := &Semantic{
		Client: ts.Client(),
		Cfg: types.JudgeConfig{
			Endpoint:  ts.URL,
			APIKey:    "sk-test",
			BatchSize: 10,
		},
	}
	scored, err := judge.Score(context.Background(), testRecords(25), types.Topic{Text: "anything"})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if len(scored) != 25 {
		t.Fatalf("got %d scored records, want 25", len(scored))
	}
	if got := atomic.LoadInt32(&batches); got != 3 {
		t.Errorf("judge saw %d batches, want 3", got)
	}
	for i, rec := range scored {
		if rec.Score != 7.5 || rec.Subtopic != "theory" {
			t.Errorf("record %d = (%v, %q), want (7.5, theory)", i, rec.Score, rec.Subtopic)
		}
		if rec.SourceID != fmt.Sprintf("openalex:W%d", i) {
			t.Errorf("record %d source = %q; order must be preserved", i, rec.SourceID)
		}
	}
}

func TestSemanticUnavailableAfterRetries(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	judge := &Semantic{
		Client: ts.Client(),
		Cfg:    types.JudgeConfig{Endpoint: ts.URL, MaxRetries: 1},
	}
	_, err := judge.Score(context.Background(), testRecords(3), types.Topic{Text: "anything"})
	var unavailable *types.ScorerUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("got %v, want ScorerUnavailableError", err)
	}
}

func TestSemanticJudgmentCountMismatch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"judgments": []map[string]any{{"score": 8.0}},
		})
	}))
	defer ts.Close()

	judge := &Semantic{
		Client: ts.Client(),
		Cfg:    types.JudgeConfig{Endpoint: ts.URL},
	}
	_, err := judge.Score(context.Background(), testRecords(2), types.Topic{Text: "anything"})
	if err == nil || !strings.Contains(err.Error(), "1 judgments for 2 records") {
		t.Fatalf("got %v, want judgment count mismatch error", err)
	}
}

// --- distribution ---

func TestCheckDistribution(t *testing.T) {
	build := func(high, mid, low int) []types.ScoredRecord {
		var scored []types.ScoredRecord
		for i := 0; i < high; i++ {
			scored = append(scored, types.ScoredRecord{Score: 8})
		}
		for i := 0; i < mid; i++ {
			scored = append(scored, types.ScoredRecord{Score: 5.5})
		}
		for i := 0; i < low; i++ {
			scored = append(scored, types.ScoredRecord{Score: 3})
		}
		return scored
	}

	tests := []struct {
		name           string
		high, mid, low int
		wantWarnings   int
	}{
		{"healthy", 30, 50, 20, 0},
		{"all high", 100, 0, 0, 3},
		{"high band inflated", 50, 40, 10, 1},
		{"no low scores", 30, 70, 0, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheckDistribution(build(tt.high, tt.mid, tt.low))
			if len(got) != tt.wantWarnings {
				t.Errorf("got %d warnings %v, want %d", len(got), got, tt.wantWarnings)
			}
		})
	}
}

func TestCheckDistributionEmpty(t *testing.T) {
	if got := CheckDistribution(nil); got != nil {
		t.Errorf("got %v for empty input, want nil", got)
	}
}
