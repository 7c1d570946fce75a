package scoring

import (
	"context"
	"time"

	"github.com/churnwatch/backend/internal/models"
)

// Prediction is the model output for one customer: a churn probability on
// the [0,1] scale plus the factor contributions behind it. Impact tiers are
// not part of the prediction; the classifier derives them.
type Prediction struct {
	CustomerID   string
	Score        float64
	Factors      []models.RiskFactor
	ModelVersion string
	CreatedAt    time.Time
}

// Scorer talks to the external churn model. Failures must propagate to the
// caller; an adapter never substitutes invented scores for a failed call.
type Scorer interface {
	ScoreCustomer(ctx context.Context, customer models.Customer) (Prediction, int64, error)
}
