// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/survey-engine/internal/artifact"
	"github.com/pdiddy/survey-engine/internal/expand"
	"github.com/pdiddy/survey-engine/internal/pipeline"
	"github.com/pdiddy/survey-engine/internal/validate"
	"github.com/pdiddy/survey-engine/pkg/types"
)

var expandCmd = &cobra.Command{
	Use:   "expand [draft.md] [revised.md]",
	Short: "Propose an expansion directive and check a revised draft against it",
	Long: `Expand validates a short draft and prints the directive for the single
most under-filled section. With a second argument it re-validates the revised
draft and enforces the frozen-citations rule: the revision may not add or drop
citation keys. The revised report is persisted when it passes.

Expansion cycles are recorded in the run ledger, so the iteration cap holds
across repeated invocations of this command and the run pipeline alike.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runExpand,
}

func init() {
	expandCmd.Flags().String("run-id", "", "run identifier (required)")

	rootCmd.AddCommand(expandCmd)
}

func runExpand(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig(cmd)
	store, err := openStore(cmd, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	var set types.SelectionSet
	if err := store.LoadStage(artifact.StageSelected, &set); err != nil {
		return err
	}
	var ba pipeline.BudgetArtifact
	if err := store.LoadStage(artifact.StageBudget, &ba); err != nil {
		return err
	}

	draftData, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading draft: %w", err)
	}

	v := validate.NewValidator(cfg.Limits, cfg.Validate)
	report := v.Validate(string(draftData), ba.Outline, set)

	ctx := runContext(cmd)
	ctrl := expand.NewController(ba.Plan, cfg.Expansion)
	cycles, err := store.ExpansionCount(ctx)
	if err != nil {
		return err
	}
	ctrl.Resume(cycles)

	directive, ok, err := ctrl.Propose(report)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(os.Stderr, "draft needs no expansion")
		return nil
	}
	if err := store.RecordExpansion(ctx, directive.SectionID, directive.GapWords); err != nil {
		return err
	}

	enc := yaml.NewEncoder(os.Stdout)
	if err := enc.Encode(directive); err != nil {
		return err
	}
	enc.Close()

	if len(args) < 2 {
		return nil
	}

	revisedData, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("reading revised draft: %w", err)
	}
	revised := validate.NewValidator(cfg.Limits, cfg.Validate).
		Validate(string(revisedData), ba.Outline, set)
	if err := ctrl.Observe(revised); err != nil {
		return err
	}

	if !revised.Passed {
		return &types.ValidationFailedError{Reasons: revised.Failures}
	}
	return store.SaveStage(ctx, artifact.StageReport, revised)
}
