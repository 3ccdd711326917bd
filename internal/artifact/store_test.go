// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package artifact

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/survey-engine/pkg/types"
)

func newTestStore(t *testing.T, runID string) (*Store, string) {
	t.Helper()
	runsDir := t.TempDir()
	s, err := NewStore(runsDir, runID)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, runsDir
}

func TestSaveLoadStage(t *testing.T) {
	s, _ := newTestStore(t, "run-1")
	ctx := context.Background()
	require.NoError(t, s.RegisterRun(ctx, types.Topic{Text: "test topic"}, types.TierStandard))

	want := []types.CandidateRecord{
		{SourceID: "openalex:W1", Title: "First Paper", Year: 2020, DOI: "10.1/a", IngestOrder: 0},
		{SourceID: "arxiv:2101.00001", Title: "Second Paper", Year: 2021, IngestOrder: 1},
	}
	require.NoError(t, s.SaveStage(ctx, StageCandidates, want))

	var got []types.CandidateRecord
	require.NoError(t, s.LoadStage(StageCandidates, &got))
	assert.Equal(t, want, got)

	last, err := s.LastStage(ctx)
	require.NoError(t, err)
	assert.Equal(t, StageCandidates, last)
}

func TestLoadMissingStage(t *testing.T) {
	s, _ := newTestStore(t, "run-1")
	var v []types.CandidateRecord
	assert.Error(t, s.LoadStage(StageScored, &v))
	assert.False(t, s.HasStage(StageScored))
}

func TestHasStageRejectsCorruptArtifact(t *testing.T) {
	s, runsDir := newTestStore(t, "run-1")
	path := filepath.Join(runsDir, "run-1", StageDeduped+".yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not: valid: yaml: ["), 0o644))
	assert.False(t, s.HasStage(StageDeduped), "corrupt artifact must count as missing")
}

func TestNextStageProgression(t *testing.T) {
	s, _ := newTestStore(t, "run-1")
	ctx := context.Background()
	require.NoError(t, s.RegisterRun(ctx, types.Topic{Text: "t"}, types.TierBasic))

	stage, ok := s.NextStage()
	require.True(t, ok)
	assert.Equal(t, StageCandidates, stage)

	require.NoError(t, s.SaveStage(ctx, StageCandidates, []types.CandidateRecord{{SourceID: "a", Title: "x", Year: 2020}}))
	stage, ok = s.NextStage()
	require.True(t, ok)
	assert.Equal(t, StageDeduped, stage)

	// Complete everything; NextStage reports done.
	for _, st := range StageOrder[1:] {
		require.NoError(t, s.SaveStage(ctx, st, map[string]string{"stage": st}))
	}
	_, ok = s.NextStage()
	assert.False(t, ok)
}

func TestRegisterRunIdempotent(t *testing.T) {
	s, _ := newTestStore(t, "run-1")
	ctx := context.Background()
	require.NoError(t, s.RegisterRun(ctx, types.Topic{Text: "original"}, types.TierPremium))
	require.NoError(t, s.SaveStage(ctx, StageCandidates, []string{"x"}))

	// Resuming re-registers; the existing row, including last_stage, stays.
	require.NoError(t, s.RegisterRun(ctx, types.Topic{Text: "original"}, types.TierPremium))
	last, err := s.LastStage(ctx)
	require.NoError(t, err)
	assert.Equal(t, StageCandidates, last)
}

func TestExpansionLogSurvivesReopen(t *testing.T) {
	runsDir := t.TempDir()
	ctx := context.Background()

	first, err := NewStore(runsDir, "run-1")
	require.NoError(t, err)
	require.NoError(t, first.RegisterRun(ctx, types.Topic{Text: "t"}, types.TierStandard))
	require.NoError(t, first.RecordExpansion(ctx, "topic_2", 1100))
	require.NoError(t, first.Close())

	// A later invocation of the same run sees the earlier cycle.
	reopened, err := NewStore(runsDir, "run-1")
	require.NoError(t, err)
	defer reopened.Close()
	require.NoError(t, reopened.RecordExpansion(ctx, "topic_1", 200))

	n, err := reopened.ExpansionCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Cycles are scoped per run.
	other, err := NewStore(runsDir, "run-2")
	require.NoError(t, err)
	defer other.Close()
	n, err = other.ExpansionCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestScoreHistoryAppendOnly(t *testing.T) {
	runsDir := t.TempDir()
	ctx := context.Background()

	scored := func(score float64, strategy string) []types.ScoredRecord {
		return []types.ScoredRecord{{
			CanonicalRecord: types.CanonicalRecord{CandidateRecord: types.CandidateRecord{SourceID: "openalex:W1"}},
			Score:           score,
			Subtopic:        "methods",
			Strategy:        strategy,
		}}
	}

	first, err := NewStore(runsDir, "run-1")
	require.NoError(t, err)
	require.NoError(t, first.RegisterRun(ctx, types.Topic{Text: "t"}, types.TierStandard))
	require.NoError(t, first.RecordScores(ctx, scored(7.5, "semantic")))
	require.NoError(t, first.Close())

	second, err := NewStore(runsDir, "run-2")
	require.NoError(t, err)
	defer second.Close()
	require.NoError(t, second.RegisterRun(ctx, types.Topic{Text: "t"}, types.TierStandard))
	require.NoError(t, second.RecordScores(ctx, scored(6.0, "heuristic")))

	events, err := second.ScoreHistory(ctx, "openalex:W1")
	require.NoError(t, err)
	require.Len(t, events, 2, "both runs' judgments must be retained")
	assert.Equal(t, "run-1", events[0].RunID)
	assert.Equal(t, 7.5, events[0].Score)
	assert.Equal(t, "run-2", events[1].RunID)
	assert.Equal(t, "heuristic", events[1].Strategy)
}
