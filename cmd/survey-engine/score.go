// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/survey-engine/internal/artifact"
	"github.com/pdiddy/survey-engine/internal/score"
	"github.com/pdiddy/survey-engine/pkg/types"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Judge the relevance of deduplicated records to the topic",
	Long: `Score judges every canonical record against the topic, using the external
semantic judge when configured and the deterministic heuristic otherwise.
Judgments are appended to the score history and persisted as the scored
artifact. Distribution warnings flag a miscalibrated judge.`,
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().String("topic", "", "research topic (required)")
	scoreCmd.Flags().String("keywords", "", "topic keywords (comma-separated)")
	scoreCmd.Flags().String("run-id", "", "run identifier (required)")

	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	topicText, _ := cmd.Flags().GetString("topic")
	if topicText == "" {
		return fmt.Errorf("--topic is required")
	}
	topic := types.Topic{Text: topicText}
	if kw, _ := cmd.Flags().GetString("keywords"); kw != "" {
		for _, k := range strings.Split(kw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				topic.Keywords = append(topic.Keywords, k)
			}
		}
	}

	cfg := pipelineConfig(cmd)
	store, err := openStore(cmd, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	var canon []types.CanonicalRecord
	if err := store.LoadStage(artifact.StageDeduped, &canon); err != nil {
		return err
	}

	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := runContext(cmd)
	scored, err := buildScorer(cfg, log).Score(ctx, canon, topic)
	if err != nil {
		return err
	}

	for _, warning := range score.CheckDistribution(scored) {
		fmt.Fprintf(os.Stderr, "warning: %s\n", warning)
	}

	if err := store.RecordScores(ctx, scored); err != nil {
		return err
	}
	if err := store.SaveStage(ctx, artifact.StageScored, scored); err != nil {
		return err
	}

	fmt.Printf("%d records scored\n", len(scored))
	return nil
}
