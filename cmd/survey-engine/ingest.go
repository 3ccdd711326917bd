// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/survey-engine/internal/artifact"
	"github.com/pdiddy/survey-engine/internal/ingest"
	"github.com/pdiddy/survey-engine/pkg/types"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Query bibliographic sources and persist the candidate pool",
	Long: `Ingest queries the enabled sources (OpenAlex, arXiv, optional seed file)
for the topic, concatenates their results into one batch, drops malformed
records, and persists the batch as the run's candidates artifact.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().String("topic", "", "research topic (required)")
	ingestCmd.Flags().String("keywords", "", "topic keywords (comma-separated)")
	ingestCmd.Flags().String("run-id", "", "run identifier (required)")
	ingestCmd.Flags().String("seed-file", "", "local YAML file of candidate records")

	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
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
	if seedFile, _ := cmd.Flags().GetString("seed-file"); seedFile != "" {
		cfg.Ingest.SeedFile = seedFile
	}

	store, err := openStore(cmd, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := runContext(cmd)
	if err := store.RegisterRun(ctx, topic, cfg.Tier); err != nil {
		return err
	}

	client := &http.Client{Timeout: cfg.Ingest.Timeout}
	out, err := ingest.Ingest(ctx, topic, ingest.BuildSources(cfg.Ingest, client), cfg.Ingest, os.Stdout)
	if err != nil {
		return err
	}

	if err := store.SaveStage(ctx, artifact.StageCandidates, out.Candidates); err != nil {
		return err
	}
	fmt.Printf("%d candidates ingested (%d malformed dropped)\n", len(out.Candidates), out.Dropped)
	return nil
}

// openStore opens the run's artifact store. Stage commands require an
// explicit run ID so they always attach to an existing run directory.
func openStore(cmd *cobra.Command, cfg types.PipelineConfig) (*artifact.Store, error) {
	runID, _ := cmd.Flags().GetString("run-id")
	if runID == "" {
		return nil, fmt.Errorf("--run-id is required")
	}
	return artifact.NewStore(cfg.RunsDir, runID)
}
