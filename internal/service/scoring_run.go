package service

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/churnwatch/backend/internal/db"
	"github.com/churnwatch/backend/internal/engine"
	"github.com/churnwatch/backend/internal/models"
	"github.com/churnwatch/backend/internal/scoring"
)

const (
	RunStatusRunning = "RUNNING"
	RunStatusSuccess = "SUCCESS"
	RunStatusFailed  = "FAILED"
)

// ScoringService re-scores the customer base against the external churn
// model and persists the returned probabilities and factor contributions.
// A failed prediction fails only that customer: it is reported in the run
// summary, never papered over with a substitute score.
type ScoringService struct {
	Store      *db.Store
	Scorer     scoring.Scorer
	Classifier engine.Classifier
	Logger     zerolog.Logger
}

type RunSummary struct {
	Events []map[string]any `json:"events"`
	Counts map[string]any   `json:"counts"`
	Errors []string         `json:"errors,omitempty"`
}

func (s *ScoringService) ScoreCustomers(ctx context.Context) (RunSummary, error) {
	customers, err := s.Store.ListCustomers(ctx)
	if err != nil {
		return RunSummary{}, err
	}

	summary := RunSummary{Counts: map[string]any{}}
	start := time.Now()
	summary.Events = append(summary.Events, map[string]any{
		"type":    "scoring_started",
		"message": "Customers queued for scoring",
		"count":   len(customers),
		"time":    time.Now().UTC(),
	})

	var (
		scoredCount    int
		scoreErrors    int
		latencyTotal   int64
		categoryCounts = map[models.RiskCategory]int{}
	)

	for _, customer := range customers {
		prediction, latencyMs, err := s.Scorer.ScoreCustomer(ctx, customer)
		if err != nil {
			scoreErrors++
			summary.Errors = append(summary.Errors, engine.RecordError{ID: customer.ID, Err: err}.Error())
			s.Logger.Error().Err(err).Str("customer_id", customer.ID).Msg("scoring failed")
			continue
		}
		latencyTotal += latencyMs

		category, err := s.Classifier.Score(prediction.Score)
		if err != nil {
			scoreErrors++
			summary.Errors = append(summary.Errors, engine.RecordError{ID: customer.ID, Err: err}.Error())
			s.Logger.Error().Err(err).Str("customer_id", customer.ID).Msg("model returned invalid score")
			continue
		}

		err = s.Store.WithTx(ctx, func(tx pgx.Tx) error {
			return s.Store.UpdateCustomerScore(ctx, tx, customer.ID, prediction.Score, prediction.Factors)
		})
		if err != nil {
			scoreErrors++
			summary.Errors = append(summary.Errors, engine.RecordError{ID: customer.ID, Err: err}.Error())
			s.Logger.Error().Err(err).Str("customer_id", customer.ID).Msg("score write failed")
			continue
		}

		scoredCount++
		categoryCounts[category]++
	}

	summary.Events = append(summary.Events, map[string]any{
		"type":           "model_scoring",
		"message":        "Model scoring complete",
		"count":          scoredCount,
		"avg_latency_ms": avgLatency(latencyTotal, scoredCount),
		"errors":         scoreErrors,
		"time":           time.Now().UTC(),
	})
	summary.Events = append(summary.Events, map[string]any{
		"type":       "db_save",
		"message":    "Scores saved",
		"elapsed_ms": time.Since(start).Milliseconds(),
		"time":       time.Now().UTC(),
	})

	summary.Counts["customers_total"] = len(customers)
	summary.Counts["scored"] = scoredCount
	summary.Counts["errors"] = scoreErrors
	summary.Counts["high_risk"] = categoryCounts[models.RiskHigh]
	summary.Counts["medium_risk"] = categoryCounts[models.RiskMedium]
	summary.Counts["low_risk"] = categoryCounts[models.RiskLow]
	return summary, nil
}

func avgLatency(total int64, count int) int64 {
	if count == 0 {
		return 0
	}
	return total / int64(count)
}
