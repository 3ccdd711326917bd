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

var validateCmd = &cobra.Command{
	Use:   "validate [draft.md]",
	Short: "Run the acceptance gates against a drafted document",
	Long: `Validate checks a draft against the tier's word and citation-count
ranges, the outline's required sections, and the selection's citation-key
registry. All failures are reported together. On a length shortfall the
single expansion directive a draft writer should apply is printed; a passing
draft persists the report artifact and completes the run.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().String("run-id", "", "run identifier (required)")

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig(cmd)
	store, err := openStore(cmd, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	draftData, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading draft: %w", err)
	}

	var set types.SelectionSet
	if err := store.LoadStage(artifact.StageSelected, &set); err != nil {
		return err
	}
	var ba pipeline.BudgetArtifact
	if err := store.LoadStage(artifact.StageBudget, &ba); err != nil {
		return err
	}

	v := validate.NewValidator(cfg.Limits, cfg.Validate)
	report := v.Validate(string(draftData), ba.Outline, set)

	enc := yaml.NewEncoder(os.Stdout)
	if err := enc.Encode(report); err != nil {
		return err
	}
	enc.Close()

	if report.Passed {
		return store.SaveStage(runContext(cmd), artifact.StageReport, report)
	}

	// On a repairable shortfall, print the one directive a writer should
	// apply before re-validating.
	ctrl := expand.NewController(ba.Plan, cfg.Expansion)
	directive, ok, perr := ctrl.Propose(report)
	if perr != nil {
		return perr
	}
	if ok {
		fmt.Fprintf(os.Stderr, "\nexpand section %s (%d words short): %s\n",
			directive.SectionID, directive.GapWords, directive.Instruction)
	}
	return &types.ValidationFailedError{Reasons: report.Failures}
}
