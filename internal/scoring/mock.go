package scoring

import (
	"context"
	"time"

	"github.com/churnwatch/backend/internal/models"
	"github.com/churnwatch/backend/internal/utils"
)

// MockScorer produces deterministic hash-seeded predictions for local
// development. It is selected explicitly via config when no model URL is
// set; it is never used as a silent fallback for a failing model service.
type MockScorer struct {
	ModelVersion string
}

func (m MockScorer) ScoreCustomer(ctx context.Context, customer models.Customer) (Prediction, int64, error) {
	start := time.Now()
	h := utils.HashStringToUint64(customer.ID)

	score := float64(h%1000) / 1000

	factorNames := []string{"Months Inactive", "Balance Trend", "Product Usage", "Support Calls"}
	factors := make([]models.RiskFactor, 0, len(factorNames))
	remaining := score
	for i, name := range factorNames {
		share := remaining / 2
		if i == len(factorNames)-1 {
			share = remaining
		}
		factors = append(factors, models.RiskFactor{Name: name, Contribution: share})
		remaining -= share
	}

	prediction := Prediction{
		CustomerID:   customer.ID,
		Score:        score,
		Factors:      factors,
		ModelVersion: m.ModelVersion,
		CreatedAt:    time.Now().UTC(),
	}
	return prediction, time.Since(start).Milliseconds(), nil
}
