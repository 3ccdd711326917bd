//go:build mage

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

// engine invokes the built CLI with common flags taken from the environment:
// SURVEY_RUN_ID and SURVEY_TIER.
func engine(args ...string) error {
	bin := filepath.Join(binDir, binName)
	if runID := os.Getenv("SURVEY_RUN_ID"); runID != "" {
		args = append(args, "--run-id", runID)
	}
	if tier := os.Getenv("SURVEY_TIER"); tier != "" {
		args = append(args, "--tier", tier)
	}
	cmd := exec.Command(bin, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Ingest fetches candidate references for the topic in SURVEY_TOPIC.
func Ingest() error {
	mg.Deps(Build)
	topic := os.Getenv("SURVEY_TOPIC")
	if topic == "" {
		return fmt.Errorf("set SURVEY_TOPIC to the survey topic")
	}
	return engine("ingest", "--topic", topic)
}

// Dedupe merges duplicate candidates into canonical records.
func Dedupe() error {
	mg.Deps(Build)
	return engine("dedupe")
}

// Score assigns relevance scores to the deduplicated pool.
func Score() error {
	mg.Deps(Build)
	return engine("score")
}

// Select picks the citable reference set for the run's tier.
func Select() error {
	mg.Deps(Build)
	return engine("select")
}

// Budget plans per-section, per-reference word allocations.
func Budget() error {
	mg.Deps(Build)
	return engine("budget")
}

// Export writes the selected references as BibTeX to stdout.
func Export() error {
	mg.Deps(Build)
	return engine("export", "--format", "bibtex")
}
