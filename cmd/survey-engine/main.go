// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the survey-engine CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/survey-engine/internal/secrets"
	"github.com/pdiddy/survey-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns the secret value for key if it exists, or fallback otherwise.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the survey-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "survey-engine",
	Short: "Reference ingestion and length budgeting for literature surveys",
	Long: `survey-engine assembles a bounded, deduplicated, relevance-ranked set of
bibliographic records for a research topic, partitions a target document
length across those records and a fixed narrative skeleton, and gates draft
acceptance on hard length, citation-count, and structure checks.

Each stage is a subcommand: ingest, dedupe, score, select, budget, validate,
and export. The run command executes the preparation stages end to end.
Stage outputs are persisted per run so an interrupted run resumes at the
first incomplete stage.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./survey-engine.yaml or ~/.config/survey-engine/config.yaml)")
	rootCmd.PersistentFlags().String("tier", "standard", "document tier: basic, standard, or premium")
	rootCmd.PersistentFlags().String("runs-dir", "", "base directory for run artifacts (default: ./runs)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("survey-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "survey-engine"))
		}
	}

	viper.SetEnvPrefix("SURVEY_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// pipelineConfig assembles the immutable config snapshot for one invocation:
// tier defaults, then config file overrides, then flags and secrets.
func pipelineConfig(cmd *cobra.Command) types.PipelineConfig {
	tierName, _ := cmd.Flags().GetString("tier")
	cfg := types.DefaultPipelineConfig(types.Tier(tierName))

	if viper.IsSet("pipeline") {
		// Config file overrides every default it mentions.
		_ = viper.UnmarshalKey("pipeline", &cfg)
	}

	if runsDir, _ := cmd.Flags().GetString("runs-dir"); runsDir != "" {
		cfg.RunsDir = runsDir
	}
	cfg.Ingest.OpenAlexEmail = secretDefault("openalex-email", cfg.Ingest.OpenAlexEmail)
	cfg.Judge.APIKey = secretDefault("judge-api-key", cfg.Judge.APIKey)
	return cfg
}

// newLogger builds the structured logger the pipeline stages share.
func newLogger() (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.OutputPaths = []string{"stderr"}
	return zcfg.Build()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
