// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"context"
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/survey-engine/pkg/types"
)

// FileSource reads candidate records from a local YAML file. It backs
// offline runs and lets curated records be mixed into the pool ahead of the
// network sources.
type FileSource struct {
	Path string
}

// Name returns the source identifier.
func (s *FileSource) Name() string { return "seedfile" }

// seedFile is the on-disk layout of a candidate seed file.
type seedFile struct {
	Candidates []types.CandidateRecord `yaml:"candidates"`
}

// Fetch loads candidate records from the seed file. Records without a
// SourceID get one derived from their position in the file.
func (s *FileSource) Fetch(_ context.Context, _ types.Topic, _ types.IngestConfig) ([]types.CandidateRecord, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}

	var sf seedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}

	for i := range sf.Candidates {
		if sf.Candidates[i].SourceID == "" {
			sf.Candidates[i].SourceID = fmt.Sprintf("seed:%d", i)
		}
	}
	return sf.Candidates, nil
}
