// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/survey-engine/internal/artifact"
	"github.com/pdiddy/survey-engine/internal/selection"
	"github.com/pdiddy/survey-engine/pkg/types"
)

var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "Choose the final citable set and assign citation keys",
	Long: `Select sorts the scored pool, takes records into the tier's reference
range with the high-score quota enforced where the pool allows, assigns
case-insensitively unique citation keys, and marks thin-metadata records as
do-not-cite. The result is persisted as the selected artifact.`,
	RunE: runSelect,
}

func init() {
	selectCmd.Flags().String("run-id", "", "run identifier (required)")

	rootCmd.AddCommand(selectCmd)
}

func runSelect(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig(cmd)
	store, err := openStore(cmd, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	var scored []types.ScoredRecord
	if err := store.LoadStage(artifact.StageScored, &scored); err != nil {
		return err
	}

	set, err := selection.Select(scored, cfg.Limits, cfg.Selection)
	if err != nil {
		return err
	}
	if set.InsufficientPool {
		return &types.InsufficientPoolError{Have: len(set.Records), Want: cfg.Limits.MinRefs}
	}
	if !selection.QuotaSatisfied(set, cfg.Selection.HighScoreQuota) {
		fmt.Fprintf(os.Stderr, "warning: high-score quota not met (%d of %d records in the high band)\n",
			set.HighScoreCount(), len(set.Records))
	}

	if err := store.SaveStage(runContext(cmd), artifact.StageSelected, set); err != nil {
		return err
	}

	fmt.Printf("%d records selected (%d high band)\n", len(set.Records), set.HighScoreCount())
	return nil
}
