// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "survey-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// Tier selects a document size class.
type Tier string

const (
	TierBasic    Tier = "basic"
	TierStandard Tier = "standard"
	TierPremium  Tier = "premium"
)

// TierLimits holds the acceptance bounds for one tier. Limits are an
// immutable snapshot passed explicitly into each stage, never ambient state,
// so runs with different tiers can execute side by side.
type TierLimits struct {
	// MinWords and MaxWords bound the draft's total word count.
	MinWords int `json:"min_words" yaml:"min_words"`
	MaxWords int `json:"max_words" yaml:"max_words"`

	// MinRefs and MaxRefs bound the selection set size.
	MinRefs int `json:"min_refs" yaml:"min_refs"`
	MaxRefs int `json:"max_refs" yaml:"max_refs"`
}

// TargetTotal returns the word target the budget planner aims for: the
// midpoint of the tier's word range.
func (l TierLimits) TargetTotal() int {
	return (l.MinWords + l.MaxWords) / 2
}

// DefaultTierLimits returns the built-in limits for a tier. Unknown tiers
// get the standard limits.
func DefaultTierLimits(t Tier) TierLimits {
	switch t {
	case TierBasic:
		return TierLimits{MinWords: 4000, MaxWords: 6000, MinRefs: 30, MaxRefs: 50}
	case TierPremium:
		return TierLimits{MinWords: 12000, MaxWords: 15000, MinRefs: 80, MaxRefs: 120}
	default:
		return TierLimits{MinWords: 9000, MaxWords: 11000, MinRefs: 50, MaxRefs: 90}
	}
}

// IngestConfig holds settings for the ingestion stage.
type IngestConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxPerSource caps how many candidates each source adapter returns
	// (default 100).
	MaxPerSource int `json:"max_per_source" yaml:"max_per_source"`

	// EnableOpenAlex controls whether the OpenAlex adapter is used.
	EnableOpenAlex bool `json:"enable_openalex" yaml:"enable_openalex"`

	// EnableArxiv controls whether the arXiv adapter is used.
	EnableArxiv bool `json:"enable_arxiv" yaml:"enable_arxiv"`

	// OpenAlexEmail is sent as the mailto parameter for polite pool access.
	OpenAlexEmail string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty"`

	// SeedFile is an optional local YAML file of candidates, used for
	// offline runs or to mix curated records into the pool.
	SeedFile string `json:"seed_file,omitempty" yaml:"seed_file,omitempty"`
}

// DedupeConfig holds settings for the dedup stage.
type DedupeConfig struct {
	// TitleSimilarity is the token-overlap threshold above which two same-era
	// titles are considered the same work (default 0.85).
	TitleSimilarity float64 `json:"title_similarity" yaml:"title_similarity"`

	// MaxYearDelta is the largest publication-year difference allowed for a
	// title-based merge (default 1). Guards against reprint/erratum merges.
	MaxYearDelta int `json:"max_year_delta" yaml:"max_year_delta"`
}

// JudgeConfig holds settings for the external semantic relevance judge.
type JudgeConfig struct {
	HTTPConfig `yaml:",inline"`

	// Endpoint is the judge's HTTP scoring endpoint. Empty disables the
	// semantic judge; the heuristic scorer is used instead.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`

	// Model is the judge model identifier.
	Model string `json:"model,omitempty" yaml:"model,omitempty"`

	// APIKey is the authentication key for the judge API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed judge calls
	// (default 3). After exhaustion the scorer falls back to the heuristic.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// BatchSize is how many records are scored per judge request (default 10).
	BatchSize int `json:"batch_size" yaml:"batch_size"`
}

// SelectionConfig holds settings for the selector.
type SelectionConfig struct {
	// HighScoreQuota is the minimum fraction of the final set drawn from
	// the high score band (default 0.6).
	HighScoreQuota float64 `json:"high_score_quota" yaml:"high_score_quota"`

	// MinAbstractLen is the abstract length below which a record is marked
	// do-not-cite (default 200 bytes).
	MinAbstractLen int `json:"min_abstract_len" yaml:"min_abstract_len"`
}

// BudgetConfig holds settings for the budget planner.
type BudgetConfig struct {
	// Samples is the number of independent allocation passes averaged into
	// the final plan (default 3).
	Samples int `json:"samples" yaml:"samples"`

	// Tolerance is the allowed relative deviation of the plan total from
	// the target (default 0.05).
	Tolerance float64 `json:"tolerance" yaml:"tolerance"`

	// ElaborationShare is the fraction of a citing section's pool spent on
	// elaboration rows; the rest goes to synthesis and connective rows
	// (default 0.7, mirroring the split observed in expert-written surveys).
	ElaborationShare float64 `json:"elaboration_share" yaml:"elaboration_share"`

	// Seed seeds the sampling tie-break. Zero means derive from the clock.
	Seed int64 `json:"seed,omitempty" yaml:"seed,omitempty"`
}

// ValidationConfig holds settings for the validator.
type ValidationConfig struct {
	// SectionFloor is the minimum word count for a section to count as
	// non-trivial (default 40).
	SectionFloor int `json:"section_floor" yaml:"section_floor"`
}

// ExpansionConfig holds settings for the expansion controller.
type ExpansionConfig struct {
	// MaxIterations caps expansion passes per run (default 2). The cap
	// keeps the repair loop from inflating the draft with padding.
	MaxIterations int `json:"max_iterations" yaml:"max_iterations"`
}

// PipelineConfig groups all stage configurations for one survey run.
type PipelineConfig struct {
	Tier      Tier             `json:"tier" yaml:"tier"`
	Limits    TierLimits       `json:"limits" yaml:"limits"`
	Ingest    IngestConfig     `json:"ingest" yaml:"ingest"`
	Dedupe    DedupeConfig     `json:"dedupe" yaml:"dedupe"`
	Judge     JudgeConfig      `json:"judge" yaml:"judge"`
	Selection SelectionConfig  `json:"selection" yaml:"selection"`
	Budget    BudgetConfig     `json:"budget" yaml:"budget"`
	Validate  ValidationConfig `json:"validate" yaml:"validate"`
	Expansion ExpansionConfig  `json:"expansion" yaml:"expansion"`

	// TopicSections is the number of topic sections in the document
	// skeleton (default 4). Zero derives it from the distinct subtopics.
	TopicSections int `json:"topic_sections" yaml:"topic_sections"`

	// RunsDir is the base directory for persisted run artifacts.
	RunsDir string `json:"runs_dir" yaml:"runs_dir"`
}

// DefaultPipelineConfig returns a config populated with every stage's
// defaults for the given tier.
func DefaultPipelineConfig(tier Tier) PipelineConfig {
	return PipelineConfig{
		Tier:   tier,
		Limits: DefaultTierLimits(tier),
		Ingest: IngestConfig{
			HTTPConfig:     HTTPConfig{Timeout: 30 * time.Second, UserAgent: "survey-engine/0.1"},
			MaxPerSource:   100,
			EnableOpenAlex: true,
			EnableArxiv:    true,
		},
		Dedupe: DedupeConfig{TitleSimilarity: 0.85, MaxYearDelta: 1},
		Judge: JudgeConfig{
			HTTPConfig: HTTPConfig{Timeout: 60 * time.Second, UserAgent: "survey-engine/0.1"},
			MaxRetries: 3,
			BatchSize:  10,
		},
		Selection:     SelectionConfig{HighScoreQuota: 0.6, MinAbstractLen: 200},
		Budget:        BudgetConfig{Samples: 3, Tolerance: 0.05, ElaborationShare: 0.7},
		Validate:      ValidationConfig{SectionFloor: 40},
		Expansion:     ExpansionConfig{MaxIterations: 2},
		TopicSections: 4,
		RunsDir:       "runs",
	}
}
