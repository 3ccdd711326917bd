// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline orchestrates the survey stages in strict sequential
// dependency order: ingest → dedupe → score → select → budget → validate →
// expand. Every stage's output is an immutable snapshot persisted as an
// artifact, so a cancelled or failed run resumes at the first incomplete
// stage instead of repeating external calls.
package pipeline

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/pdiddy/survey-engine/internal/artifact"
	"github.com/pdiddy/survey-engine/internal/budget"
	"github.com/pdiddy/survey-engine/internal/dedupe"
	"github.com/pdiddy/survey-engine/internal/expand"
	"github.com/pdiddy/survey-engine/internal/ingest"
	"github.com/pdiddy/survey-engine/internal/score"
	"github.com/pdiddy/survey-engine/internal/selection"
	"github.com/pdiddy/survey-engine/internal/validate"
	"github.com/pdiddy/survey-engine/pkg/types"
)

// StageError wraps a stage failure with resume context: which stage failed
// and the last artifact that was successfully produced.
type StageError struct {
	Stage        string
	LastArtifact string
	Err          error
}

func (e *StageError) Error() string {
	if e.LastArtifact == "" {
		return fmt.Sprintf("stage %s failed (no artifact completed): %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("stage %s failed (last completed artifact: %s): %v", e.Stage, e.LastArtifact, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// BudgetArtifact pairs the outline with the plan so the validation stage
// sees exactly the skeleton the budget was built against.
type BudgetArtifact struct {
	Outline types.Outline    `yaml:"outline"`
	Plan    types.BudgetPlan `yaml:"plan"`
}

// Writer is the external draft-writer collaborator. Expansion sends one
// bounded directive at a time; the writer returns the revised draft.
type Writer interface {
	Expand(ctx context.Context, directive expand.Directive, draft string) (string, error)
}

// Pipeline holds one run's configuration and collaborators.
type Pipeline struct {
	Cfg     types.PipelineConfig
	Topic   types.Topic
	Store   *artifact.Store
	Sources []ingest.Source
	Scorer  *score.Scorer
	Log     *zap.Logger
	Out     io.Writer
}

// Prepare executes the stages up to the budget plan, resuming from persisted
// artifacts. It returns the selection set and budget artifact the draft
// writer needs.
func (p *Pipeline) Prepare(ctx context.Context) (types.SelectionSet, BudgetArtifact, error) {
	var (
		set types.SelectionSet
		ba  BudgetArtifact
	)

	if err := p.Store.RegisterRun(ctx, p.Topic, p.Cfg.Tier); err != nil {
		return set, ba, p.stageErr(ctx, "register", err)
	}

	candidates, err := p.candidates(ctx)
	if err != nil {
		return set, ba, err
	}
	if err := ctx.Err(); err != nil {
		return set, ba, p.stageErr(ctx, artifact.StageDeduped, err)
	}

	canon, err := p.deduped(ctx, candidates)
	if err != nil {
		return set, ba, err
	}
	if err := ctx.Err(); err != nil {
		return set, ba, p.stageErr(ctx, artifact.StageScored, err)
	}

	scored, err := p.scored(ctx, canon)
	if err != nil {
		return set, ba, err
	}
	if err := ctx.Err(); err != nil {
		return set, ba, p.stageErr(ctx, artifact.StageSelected, err)
	}

	set, err = p.selected(ctx, scored)
	if err != nil {
		return set, ba, err
	}

	ba, err = p.budgeted(ctx, set)
	return set, ba, err
}

func (p *Pipeline) candidates(ctx context.Context) ([]types.CandidateRecord, error) {
	stage := artifact.StageCandidates
	if p.Store.HasStage(stage) {
		var cached []types.CandidateRecord
		if err := p.Store.LoadStage(stage, &cached); err == nil {
			p.Log.Info("resuming from artifact", zap.String("stage", stage), zap.Int("records", len(cached)))
			return cached, nil
		}
	}

	out, err := ingest.Ingest(ctx, p.Topic, p.Sources, p.Cfg.Ingest, p.Out)
	if err != nil {
		return nil, p.stageErr(ctx, stage, err)
	}
	p.Log.Info("ingestion complete",
		zap.Int("candidates", len(out.Candidates)),
		zap.Int("dropped", out.Dropped),
		zap.Strings("source_errors", out.SourceErrors))

	if err := p.Store.SaveStage(ctx, stage, out.Candidates); err != nil {
		return nil, p.stageErr(ctx, stage, err)
	}
	return out.Candidates, nil
}

func (p *Pipeline) deduped(ctx context.Context, candidates []types.CandidateRecord) ([]types.CanonicalRecord, error) {
	stage := artifact.StageDeduped
	if p.Store.HasStage(stage) {
		var cached []types.CanonicalRecord
		if err := p.Store.LoadStage(stage, &cached); err == nil {
			p.Log.Info("resuming from artifact", zap.String("stage", stage), zap.Int("records", len(cached)))
			return cached, nil
		}
	}

	canon := dedupe.Dedupe(candidates, p.Cfg.Dedupe)
	p.Log.Info("dedup complete",
		zap.Int("candidates", len(candidates)),
		zap.Int("canonical", len(canon)),
		zap.Int("merged", len(candidates)-len(canon)))

	if err := p.Store.SaveStage(ctx, stage, canon); err != nil {
		return nil, p.stageErr(ctx, stage, err)
	}
	return canon, nil
}

func (p *Pipeline) scored(ctx context.Context, canon []types.CanonicalRecord) ([]types.ScoredRecord, error) {
	stage := artifact.StageScored
	if p.Store.HasStage(stage) {
		var cached []types.ScoredRecord
		if err := p.Store.LoadStage(stage, &cached); err == nil {
			p.Log.Info("resuming from artifact", zap.String("stage", stage), zap.Int("records", len(cached)))
			return cached, nil
		}
	}

	scored, err := p.Scorer.Score(ctx, canon, p.Topic)
	if err != nil {
		return nil, p.stageErr(ctx, stage, err)
	}
	for _, warning := range score.CheckDistribution(scored) {
		p.Log.Warn("score distribution unhealthy", zap.String("detail", warning))
		fmt.Fprintf(p.Out, "warning: %s\n", warning)
	}

	if err := p.Store.RecordScores(ctx, scored); err != nil {
		return nil, p.stageErr(ctx, stage, err)
	}
	if err := p.Store.SaveStage(ctx, stage, scored); err != nil {
		return nil, p.stageErr(ctx, stage, err)
	}
	return scored, nil
}

func (p *Pipeline) selected(ctx context.Context, scored []types.ScoredRecord) (types.SelectionSet, error) {
	stage := artifact.StageSelected
	if p.Store.HasStage(stage) {
		var cached types.SelectionSet
		if err := p.Store.LoadStage(stage, &cached); err == nil {
			p.Log.Info("resuming from artifact", zap.String("stage", stage), zap.Int("records", len(cached.Records)))
			return cached, nil
		}
	}

	set, err := selection.Select(scored, p.Cfg.Limits, p.Cfg.Selection)
	if err != nil {
		return set, p.stageErr(ctx, stage, err)
	}
	if set.InsufficientPool {
		// Under-filling silently would mislead every stage downstream.
		return set, p.stageErr(ctx, stage,
			&types.InsufficientPoolError{Have: len(set.Records), Want: p.Cfg.Limits.MinRefs})
	}
	if !selection.QuotaSatisfied(set, p.Cfg.Selection.HighScoreQuota) {
		p.Log.Warn("high-score quota not met, backfilled from lower bands",
			zap.Int("high", set.HighScoreCount()),
			zap.Int("total", len(set.Records)))
	}

	if err := p.Store.SaveStage(ctx, stage, set); err != nil {
		return set, p.stageErr(ctx, stage, err)
	}
	return set, nil
}

func (p *Pipeline) budgeted(ctx context.Context, set types.SelectionSet) (BudgetArtifact, error) {
	stage := artifact.StageBudget
	if p.Store.HasStage(stage) {
		var cached BudgetArtifact
		if err := p.Store.LoadStage(stage, &cached); err == nil {
			p.Log.Info("resuming from artifact", zap.String("stage", stage))
			return cached, nil
		}
	}

	outline := BuildOutline(set, p.Cfg.TopicSections)
	plan, err := budget.Plan(set, outline, p.Cfg.Limits.TargetTotal(), p.Cfg.Budget)
	if err != nil {
		return BudgetArtifact{}, p.stageErr(ctx, stage, err)
	}
	p.Log.Info("budget plan complete",
		zap.Int("target", plan.TargetTotal),
		zap.Int("total", plan.Total()),
		zap.Int("rows", len(plan.Rows)),
		zap.Int64("seed", plan.Seed))

	ba := BudgetArtifact{Outline: outline, Plan: plan}
	if err := p.Store.SaveStage(ctx, stage, ba); err != nil {
		return BudgetArtifact{}, p.stageErr(ctx, stage, err)
	}
	return ba, nil
}

// ValidateAndRepair validates the draft and, on a length shortfall, runs the
// bounded expansion loop against the external writer. It returns the final
// draft and report; a report that still fails after the expansion cap is a
// terminal ValidationFailedError.
func (p *Pipeline) ValidateAndRepair(ctx context.Context, draft string, writer Writer) (string, types.ValidationReport, error) {
	var (
		set types.SelectionSet
		ba  BudgetArtifact
	)
	if err := p.Store.LoadStage(artifact.StageSelected, &set); err != nil {
		return draft, types.ValidationReport{}, p.stageErr(ctx, artifact.StageReport, err)
	}
	if err := p.Store.LoadStage(artifact.StageBudget, &ba); err != nil {
		return draft, types.ValidationReport{}, p.stageErr(ctx, artifact.StageReport, err)
	}

	v := validate.NewValidator(p.Cfg.Limits, p.Cfg.Validate)
	ctrl := expand.NewController(ba.Plan, p.Cfg.Expansion)
	cycles, err := p.Store.ExpansionCount(ctx)
	if err != nil {
		return draft, types.ValidationReport{}, p.stageErr(ctx, artifact.StageReport, err)
	}
	ctrl.Resume(cycles)

	report := v.Validate(draft, ba.Outline, set)
	for !report.Passed {
		directive, ok, err := ctrl.Propose(report)
		if err != nil {
			return draft, report, p.stageErr(ctx, artifact.StageReport, err)
		}
		if !ok {
			// Not a repairable shortfall: surface every failed check.
			return draft, report, p.stageErr(ctx, artifact.StageReport,
				&types.ValidationFailedError{Reasons: report.Failures})
		}

		p.Log.Info("expanding section",
			zap.String("section", directive.SectionID),
			zap.Int("gap_words", directive.GapWords),
			zap.Int("iteration", ctrl.Iterations()))
		fmt.Fprintf(p.Out, "expanding %s (%d words short)\n", directive.SectionID, directive.GapWords)
		if err := p.Store.RecordExpansion(ctx, directive.SectionID, directive.GapWords); err != nil {
			return draft, report, p.stageErr(ctx, artifact.StageReport, err)
		}

		revised, err := writer.Expand(ctx, directive, draft)
		if err != nil {
			return draft, report, p.stageErr(ctx, artifact.StageReport, fmt.Errorf("draft writer: %w", err))
		}

		report = v.Validate(revised, ba.Outline, set)
		if err := ctrl.Observe(report); err != nil {
			return draft, report, p.stageErr(ctx, artifact.StageReport, err)
		}
		draft = revised
	}

	if err := p.Store.SaveStage(ctx, artifact.StageReport, report); err != nil {
		return draft, report, p.stageErr(ctx, artifact.StageReport, err)
	}
	p.Log.Info("draft accepted",
		zap.Int("words", report.WordCount),
		zap.Int("citations", report.UniqueCitationCount))
	return draft, report, nil
}

// stageErr annotates err with the failing stage and the last completed
// artifact so the caller can resume after fixing the root cause.
func (p *Pipeline) stageErr(ctx context.Context, stage string, err error) error {
	last, lerr := p.Store.LastStage(ctx)
	if lerr != nil {
		last = ""
	}
	return &StageError{Stage: stage, LastArtifact: last, Err: err}
}
