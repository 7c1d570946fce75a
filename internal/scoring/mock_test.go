package scoring

import (
	"context"
	"testing"

	"github.com/churnwatch/backend/internal/models"
)

func TestMockScorerDeterministic(t *testing.T) {
	scorer := MockScorer{ModelVersion: "mock-v1"}
	customer := models.Customer{ID: "cust-42"}

	first, _, err := scorer.ScoreCustomer(context.Background(), customer)
	if err != nil {
		t.Fatalf("ScoreCustomer: %v", err)
	}
	second, _, err := scorer.ScoreCustomer(context.Background(), customer)
	if err != nil {
		t.Fatalf("ScoreCustomer: %v", err)
	}
	if first.Score != second.Score {
		t.Fatalf("same customer scored differently: %v vs %v", first.Score, second.Score)
	}
	if first.ModelVersion != "mock-v1" {
		t.Fatalf("model version not carried: %q", first.ModelVersion)
	}
}

func TestMockScorerScoreWithinUnitRange(t *testing.T) {
	scorer := MockScorer{ModelVersion: "mock-v1"}
	for _, id := range []string{"a", "b", "c", "cust-1", "cust-2", "long-identifier-with-digits-0123456789"} {
		prediction, _, err := scorer.ScoreCustomer(context.Background(), models.Customer{ID: id})
		if err != nil {
			t.Fatalf("ScoreCustomer(%s): %v", id, err)
		}
		if prediction.Score < 0 || prediction.Score > 1 {
			t.Fatalf("score out of range for %s: %v", id, prediction.Score)
		}
	}
}

func TestMockScorerFactorsSumToScore(t *testing.T) {
	scorer := MockScorer{ModelVersion: "mock-v1"}
	prediction, _, err := scorer.ScoreCustomer(context.Background(), models.Customer{ID: "cust-7"})
	if err != nil {
		t.Fatalf("ScoreCustomer: %v", err)
	}
	if len(prediction.Factors) != 4 {
		t.Fatalf("expected 4 factors, got %d", len(prediction.Factors))
	}
	sum := 0.0
	for _, f := range prediction.Factors {
		if f.Contribution < 0 {
			t.Fatalf("negative contribution: %+v", f)
		}
		sum += f.Contribution
	}
	if diff := sum - prediction.Score; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("factor contributions %v do not sum to score %v", sum, prediction.Score)
	}
}
