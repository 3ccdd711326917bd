// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ingest queries bibliographic sources and assembles the candidate
// pool for a survey run. Sources run concurrently, but their result lists are
// concatenated in source registration order so the batch handed to dedup is
// deterministic.
package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/pdiddy/survey-engine/pkg/types"
)

// Source queries a single bibliographic API. Each adapter (OpenAlex, arXiv,
// seed file) implements this interface per the Strategy pattern.
type Source interface {
	Name() string
	Fetch(ctx context.Context, topic types.Topic, cfg types.IngestConfig) ([]types.CandidateRecord, error)
}

// Output holds the candidate batch and ingestion statistics.
type Output struct {
	Candidates   []types.CandidateRecord
	Dropped      int
	SourceErrors []string
}

// Ingest fans the topic out to all sources concurrently and concatenates the
// results into one batch. Records without identity (no DOI and no
// (title, year)) are dropped with a warning. A failed source degrades the
// pool but does not abort the run; ingestion fails only when every source
// fails or none is configured.
func Ingest(ctx context.Context, topic types.Topic, sources []Source, cfg types.IngestConfig, w io.Writer) (Output, error) {
	if topic.Text == "" {
		return Output{}, fmt.Errorf("topic is empty: provide a research topic")
	}
	if len(sources) == 0 {
		return Output{}, fmt.Errorf("no ingestion sources configured")
	}

	// One result slot per source keeps concatenation order independent of
	// goroutine completion order.
	results := make([][]types.CandidateRecord, len(sources))
	errs := make([]error, len(sources))

	var wg sync.WaitGroup
	for i, s := range sources {
		wg.Add(1)
		go func(i int, s Source) {
			defer wg.Done()
			results[i], errs[i] = s.Fetch(ctx, topic, cfg)
		}(i, s)
	}
	wg.Wait()

	var out Output
	failed := 0
	for i, s := range sources {
		if errs[i] != nil {
			failed++
			msg := fmt.Sprintf("%s: %v", s.Name(), errs[i])
			out.SourceErrors = append(out.SourceErrors, msg)
			fmt.Fprintf(w, "warning: source %s failed: %v\n", s.Name(), errs[i])
			continue
		}
		for _, c := range results[i] {
			if !c.HasIdentity() {
				out.Dropped++
				fmt.Fprintf(w, "warning: %v\n", &types.MalformedRecordError{SourceID: c.SourceID})
				continue
			}
			c.IngestOrder = len(out.Candidates)
			out.Candidates = append(out.Candidates, c)
		}
	}

	if failed == len(sources) {
		return out, fmt.Errorf("all %d ingestion sources failed", failed)
	}
	return out, nil
}

// BuildSources constructs the source list enabled by the config. The seed
// file source, when configured, is always first so curated records win
// ingestion-order tiebreaks.
func BuildSources(cfg types.IngestConfig, client *http.Client) []Source {
	var sources []Source
	if cfg.SeedFile != "" {
		sources = append(sources, &FileSource{Path: cfg.SeedFile})
	}
	if cfg.EnableOpenAlex {
		sources = append(sources, &OpenAlexSource{Client: client, Email: cfg.OpenAlexEmail})
	}
	if cfg.EnableArxiv {
		sources = append(sources, &ArxivSource{Client: client})
	}
	return sources
}
