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

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the run's selected references as a bibliography",
	Long: `Export renders the selection artifact in a citation-manager format.
Supported formats are bibtex and csl (CSL-YAML). Output goes to stdout
unless --output names a file.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().String("run-id", "", "run identifier (required)")
	exportCmd.Flags().String("format", "bibtex", "output format: bibtex or csl")
	exportCmd.Flags().StringP("output", "o", "", "output file (default stdout)")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig(cmd)
	store, err := openStore(cmd, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	var set types.SelectionSet
	if err := store.LoadStage(artifact.StageSelected, &set); err != nil {
		return err
	}

	out := os.Stdout
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "bibtex":
		_, err := fmt.Fprint(out, selection.GenerateBibTeX(set))
		return err
	case "csl":
		return selection.FormatCSL(set, out)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}
