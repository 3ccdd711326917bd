// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/survey-engine/internal/artifact"
	"github.com/pdiddy/survey-engine/internal/ingest"
	"github.com/pdiddy/survey-engine/internal/pipeline"
	"github.com/pdiddy/survey-engine/internal/score"
	"github.com/pdiddy/survey-engine/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute the preparation stages end to end",
	Long: `Run executes ingest, dedupe, score, select, and budget in order for one
topic, persisting each stage's artifact under the run directory. A re-run
with the same run ID resumes at the first incomplete stage. The resulting
selection set and budget plan are the inputs to the external draft writer.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().String("topic", "", "research topic (required)")
	runCmd.Flags().String("keywords", "", "topic keywords (comma-separated)")
	runCmd.Flags().String("run-id", "", "run identifier (default: new UUID)")
	runCmd.Flags().String("seed-file", "", "local YAML file of candidate records")
	runCmd.Flags().Int64("seed", 0, "budget sampling seed (default: from clock)")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	p, cleanup, err := buildPipeline(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	set, ba, err := p.Prepare(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("run %s prepared: %d records selected, %d budget rows, target %d words\n",
		p.Store.RunDir(), len(set.Records), len(ba.Plan.Rows), ba.Plan.TargetTotal)
	return nil
}

// buildPipeline assembles the pipeline and its collaborators from flags,
// config, and secrets. The returned cleanup closes the artifact store and
// flushes the logger.
func buildPipeline(cmd *cobra.Command) (*pipeline.Pipeline, func(), error) {
	topicText, _ := cmd.Flags().GetString("topic")
	if topicText == "" {
		return nil, nil, fmt.Errorf("--topic is required")
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
	if seedFile, _ := cmd.Flags().GetString("seed-file"); seedFile != "" {
		cfg.Ingest.SeedFile = seedFile
	}
	if seed, _ := cmd.Flags().GetInt64("seed"); seed != 0 {
		cfg.Budget.Seed = seed
	}

	runID, _ := cmd.Flags().GetString("run-id")
	if runID == "" {
		runID = uuid.NewString()
		fmt.Fprintf(os.Stderr, "run ID: %s\n", runID)
	}

	store, err := artifact.NewStore(cfg.RunsDir, runID)
	if err != nil {
		return nil, nil, err
	}

	log, err := newLogger()
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	client := &http.Client{Timeout: cfg.Ingest.Timeout}

	p := &pipeline.Pipeline{
		Cfg:     cfg,
		Topic:   topic,
		Store:   store,
		Sources: ingest.BuildSources(cfg.Ingest, client),
		Scorer:  buildScorer(cfg, log),
		Log:     log,
		Out:     os.Stdout,
	}
	cleanup := func() {
		log.Sync()
		store.Close()
	}
	return p, cleanup, nil
}

// buildScorer wires the semantic judge as primary when an endpoint is
// configured, with the heuristic as fallback; otherwise the heuristic runs
// alone.
func buildScorer(cfg types.PipelineConfig, log *zap.Logger) *score.Scorer {
	heuristic := score.Heuristic{}
	s := &score.Scorer{Primary: heuristic, Log: log}
	if cfg.Judge.Endpoint != "" {
		s.Primary = &score.Semantic{
			Client: &http.Client{Timeout: cfg.Judge.Timeout},
			Cfg:    cfg.Judge,
		}
		s.Fallback = heuristic
	}
	return s
}

// runContext returns the command's context, falling back to Background for
// callers invoking commands programmatically.
func runContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
