// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/survey-engine/internal/artifact"
	"github.com/pdiddy/survey-engine/internal/dedupe"
	"github.com/pdiddy/survey-engine/pkg/types"
)

var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Merge candidates that refer to the same work",
	Long: `Dedupe reads the run's candidates artifact, merges records with matching
DOIs or near-identical same-era titles into canonical records, and persists
the result as the deduped artifact.`,
	RunE: runDedupe,
}

func init() {
	dedupeCmd.Flags().String("run-id", "", "run identifier (required)")

	rootCmd.AddCommand(dedupeCmd)
}

func runDedupe(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig(cmd)
	store, err := openStore(cmd, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	var candidates []types.CandidateRecord
	if err := store.LoadStage(artifact.StageCandidates, &candidates); err != nil {
		return err
	}

	canon := dedupe.Dedupe(candidates, cfg.Dedupe)
	if err := store.SaveStage(runContext(cmd), artifact.StageDeduped, canon); err != nil {
		return err
	}

	fmt.Printf("%d candidates merged into %d canonical records\n", len(candidates), len(canon))
	return nil
}
