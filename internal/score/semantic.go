// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package score

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pdiddy/survey-engine/internal/httputil"
	"github.com/pdiddy/survey-engine/pkg/types"
)

// Semantic delegates relevance judgment to an external HTTP scoring service.
// Records are sent in batches to cut round trips; each call is retried with
// backoff and bounded by the configured timeout. When the service stays
// unavailable the caller's fallback strategy takes over.
type Semantic struct {
	Client *http.Client
	Cfg    types.JudgeConfig
}

// Name returns the strategy identifier.
func (s *Semantic) Name() string { return "semantic" }

// judgeRequest is the wire format of one batch scoring call.
type judgeRequest struct {
	Model   string        `json:"model,omitempty"`
	Topic   types.Topic   `json:"topic"`
	Records []judgeRecord `json:"records"`
}

type judgeRecord struct {
	SourceID string `json:"source_id"`
	Title    string `json:"title"`
	Abstract string `json:"abstract,omitempty"`
	Venue    string `json:"venue,omitempty"`
	Year     int    `json:"year,omitempty"`
}

// judgeResponse is the wire format of the service's answer. Judgments are
// positional: the i-th judgment scores the i-th record of the request.
type judgeResponse struct {
	Judgments []judgeJudgment `json:"judgments"`
}

type judgeJudgment struct {
	Score     float64 `json:"score"`
	Subtopic  string  `json:"subtopic,omitempty"`
	Rationale string  `json:"rationale,omitempty"`
}

// Score judges the records batch by batch. Any exhausted-retry failure is
// wrapped in a ScorerUnavailableError so the scorer can log the degradation
// before falling back.
func (s *Semantic) Score(ctx context.Context, records []types.CanonicalRecord, topic types.Topic) ([]types.ScoredRecord, error) {
	if s.Cfg.Endpoint == "" {
		return nil, fmt.Errorf("semantic judge endpoint not configured")
	}

	batchSize := s.Cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 10
	}

	scored := make([]types.ScoredRecord, 0, len(records))
	for start := 0; start < len(records); start += batchSize {
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}

		judgments, err := s.scoreBatch(ctx, records[start:end], topic)
		if err != nil {
			return nil, &types.ScorerUnavailableError{Attempts: s.Cfg.MaxRetries + 1, Err: err}
		}

		for i, j := range judgments {
			scored = append(scored, types.ScoredRecord{
				CanonicalRecord: records[start+i],
				Score:           j.Score,
				Subtopic:        j.Subtopic,
				Rationale:       j.Rationale,
			})
		}
	}
	return scored, nil
}

func (s *Semantic) scoreBatch(ctx context.Context, records []types.CanonicalRecord, topic types.Topic) ([]judgeJudgment, error) {
	reqBody := judgeRequest{
		Model: s.Cfg.Model,
		Topic: topic,
	}
	for _, r := range records {
		reqBody.Records = append(reqBody.Records, judgeRecord{
			SourceID: r.SourceID,
			Title:    r.Title,
			Abstract: r.Abstract,
			Venue:    r.Venue,
			Year:     r.Year,
		})
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("encoding judge request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", s.Cfg.UserAgent)
	if s.Cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.Cfg.APIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, s.Client, req, s.Cfg.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("judge request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("judge returned HTTP %d", resp.StatusCode)
	}

	var jr judgeResponse
	if err := json.NewDecoder(resp.Body).Decode(&jr); err != nil {
		return nil, fmt.Errorf("parsing judge response: %w", err)
	}
	if len(jr.Judgments) != len(records) {
		return nil, fmt.Errorf("judge returned %d judgments for %d records", len(jr.Judgments), len(records))
	}
	return jr.Judgments, nil
}
