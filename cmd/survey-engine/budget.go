// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/survey-engine/internal/artifact"
	"github.com/pdiddy/survey-engine/internal/budget"
	"github.com/pdiddy/survey-engine/internal/pipeline"
	"github.com/pdiddy/survey-engine/pkg/types"
)

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Allocate the word budget across sections and records",
	Long: `Budget builds the document skeleton from the selection's subtopics, runs
the sampled allocation passes, averages and normalizes them, and persists
the outline and plan as the budget artifact. The plan total always lands
within the configured tolerance of the tier's word target.`,
	RunE: runBudget,
}

func init() {
	budgetCmd.Flags().String("run-id", "", "run identifier (required)")
	budgetCmd.Flags().Int64("seed", 0, "sampling seed (default: from clock)")

	rootCmd.AddCommand(budgetCmd)
}

func runBudget(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig(cmd)
	if seed, _ := cmd.Flags().GetInt64("seed"); seed != 0 {
		cfg.Budget.Seed = seed
	}

	store, err := openStore(cmd, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	var set types.SelectionSet
	if err := store.LoadStage(artifact.StageSelected, &set); err != nil {
		return err
	}

	outline := pipeline.BuildOutline(set, cfg.TopicSections)
	plan, err := budget.Plan(set, outline, cfg.Limits.TargetTotal(), cfg.Budget)
	if err != nil {
		return err
	}

	ba := pipeline.BudgetArtifact{Outline: outline, Plan: plan}
	if err := store.SaveStage(runContext(cmd), artifact.StageBudget, ba); err != nil {
		return err
	}

	fmt.Printf("budget planned: %d rows, %d of %d words (seed %d)\n",
		len(plan.Rows), plan.Total(), plan.TargetTotal, plan.Seed)
	return nil
}
