// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package artifact persists each pipeline stage's output as a discrete named
// artifact and keeps a SQLite run ledger. A run resumes at the first stage
// whose artifact is missing or unreadable, so the expensive external-call
// stages never re-execute needlessly.
package artifact

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/survey-engine/pkg/types"
)

// Stage artifact names, in pipeline order.
const (
	StageCandidates = "candidates"
	StageDeduped    = "deduped"
	StageScored     = "scored"
	StageSelected   = "selected"
	StageBudget     = "budget_final"
	StageReport     = "report"
)

// StageOrder lists the stages in dependency order.
var StageOrder = []string{
	StageCandidates,
	StageDeduped,
	StageScored,
	StageSelected,
	StageBudget,
	StageReport,
}

const dbFile = "survey.db"

// Store manages one run's artifacts and the shared run ledger.
type Store struct {
	db     *sql.DB
	runID  string
	runDir string
}

// NewStore opens or creates the run directory runsDir/runID and the shared
// SQLite ledger at runsDir/survey.db, creating the schema if needed.
func NewStore(runsDir, runID string) (*Store, error) {
	runDir := filepath.Join(runsDir, runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating run directory: %w", err)
	}

	dbPath := filepath.Join(runsDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening ledger database: %w", err)
	}

	s := &Store{db: db, runID: runID, runDir: runDir}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// RunDir returns the run's artifact directory.
func (s *Store) RunDir() string { return s.runDir }

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			topic TEXT NOT NULL,
			tier TEXT NOT NULL,
			created_at TEXT NOT NULL,
			last_stage TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS score_history (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id),
			source_id TEXT NOT NULL,
			score REAL NOT NULL,
			subtopic TEXT,
			rationale TEXT,
			strategy TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_score_history_run ON score_history(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_score_history_source ON score_history(source_id)`,
		`CREATE TABLE IF NOT EXISTS expansion_log (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			section_id TEXT NOT NULL,
			gap_words INTEGER NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_expansion_log_run ON expansion_log(run_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// RegisterRun records the run in the ledger. Re-registering an existing run
// (a resume) is a no-op.
func (s *Store) RegisterRun(ctx context.Context, topic types.Topic, tier types.Tier) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO runs (id, topic, tier, created_at) VALUES (?, ?, ?, ?)`,
		s.runID, topic.Text, string(tier), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("registering run: %w", err)
	}
	return nil
}

// SaveStage writes a stage artifact as YAML and advances the ledger's
// last_stage marker.
func (s *Store) SaveStage(ctx context.Context, stage string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s artifact: %w", stage, err)
	}
	path := filepath.Join(s.runDir, stage+".yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s artifact: %w", stage, err)
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE runs SET last_stage = ? WHERE id = ?`, stage, s.runID); err != nil {
		return fmt.Errorf("updating run ledger: %w", err)
	}
	return nil
}

// LoadStage reads a stage artifact into v.
func (s *Store) LoadStage(stage string, v any) error {
	data, err := os.ReadFile(filepath.Join(s.runDir, stage+".yaml"))
	if err != nil {
		return fmt.Errorf("reading %s artifact: %w", stage, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s artifact: %w", stage, err)
	}
	return nil
}

// HasStage reports whether a stage artifact exists and parses. A corrupt
// artifact counts as missing so the stage re-executes on resume.
func (s *Store) HasStage(stage string) bool {
	var v any
	return s.LoadStage(stage, &v) == nil
}

// NextStage returns the first stage whose artifact is missing or invalid.
// ok is false when every stage has a valid artifact.
func (s *Store) NextStage() (stage string, ok bool) {
	for _, st := range StageOrder {
		if !s.HasStage(st) {
			return st, true
		}
	}
	return "", false
}

// RecordScores appends all judgments to the append-only score history. The
// history is never updated in place: each pipeline run adds its own rows, so
// scorer behavior stays auditable across runs.
func (s *Store) RecordScores(ctx context.Context, scored []types.ScoredRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO score_history (run_id, source_id, score, subtopic, rationale, strategy, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, r := range scored {
		if _, err := stmt.ExecContext(ctx,
			s.runID, r.SourceID, r.Score, r.Subtopic, r.Rationale, r.Strategy, now); err != nil {
			return fmt.Errorf("inserting score for %s: %w", r.SourceID, err)
		}
	}
	return tx.Commit()
}

// ScoreEvent is one row of the append-only score history.
type ScoreEvent struct {
	RunID     string
	SourceID  string
	Score     float64
	Subtopic  string
	Rationale string
	Strategy  string
	CreatedAt string
}

// ScoreHistory returns every recorded judgment for a source record, oldest
// first, across all runs.
func (s *Store) ScoreHistory(ctx context.Context, sourceID string) ([]ScoreEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, source_id, score, subtopic, rationale, strategy, created_at
		 FROM score_history WHERE source_id = ? ORDER BY rowid`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("querying score history: %w", err)
	}
	defer rows.Close()

	var events []ScoreEvent
	for rows.Next() {
		var e ScoreEvent
		if err := rows.Scan(&e.RunID, &e.SourceID, &e.Score, &e.Subtopic, &e.Rationale, &e.Strategy, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning score history: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// RecordExpansion appends one expansion cycle to the ledger, so the
// iteration cap holds across separate command invocations.
func (s *Store) RecordExpansion(ctx context.Context, sectionID string, gapWords int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO expansion_log (run_id, section_id, gap_words, created_at) VALUES (?, ?, ?, ?)`,
		s.runID, sectionID, gapWords, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("recording expansion: %w", err)
	}
	return nil
}

// ExpansionCount returns how many expansion cycles the run has recorded.
func (s *Store) ExpansionCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM expansion_log WHERE run_id = ?`, s.runID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("querying expansion log: %w", err)
	}
	return n, nil
}

// LastStage returns the ledger's last completed stage for this run, or empty
// when the run is fresh.
func (s *Store) LastStage(ctx context.Context) (string, error) {
	var stage sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT last_stage FROM runs WHERE id = ?`, s.runID).Scan(&stage)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("querying run ledger: %w", err)
	}
	return stage.String, nil
}
