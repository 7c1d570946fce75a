package engine

import (
	"fmt"
	"math"

	"github.com/churnwatch/backend/internal/models"
)

// Classifier buckets churn scores and factor contributions. Floors are
// closed lower bounds: a score exactly at HighFloor is High, exactly at
// MediumFloor is Medium. All classification runs on the [0,1] scale; the
// 0-100 scale is handled only by the ScorePercent adapter.
type Classifier struct {
	MediumFloor float64
	HighFloor   float64
}

const (
	DefaultMediumFloor = 0.50
	DefaultHighFloor   = 0.75
)

func NewClassifier(mediumFloor, highFloor float64) (Classifier, error) {
	if !isUnit(mediumFloor) || !isUnit(highFloor) {
		return Classifier{}, fmt.Errorf("%w: thresholds must be in [0,1], got medium=%v high=%v", ErrInvalidInput, mediumFloor, highFloor)
	}
	if mediumFloor >= highFloor {
		return Classifier{}, fmt.Errorf("%w: medium floor %v must be below high floor %v", ErrInvalidInput, mediumFloor, highFloor)
	}
	return Classifier{MediumFloor: mediumFloor, HighFloor: highFloor}, nil
}

func DefaultClassifier() Classifier {
	return Classifier{MediumFloor: DefaultMediumFloor, HighFloor: DefaultHighFloor}
}

func (c Classifier) Score(score float64) (models.RiskCategory, error) {
	if !isUnit(score) {
		return "", fmt.Errorf("%w: risk score %v outside [0,1]", ErrInvalidInput, score)
	}
	switch {
	case score >= c.HighFloor:
		return models.RiskHigh, nil
	case score >= c.MediumFloor:
		return models.RiskMedium, nil
	default:
		return models.RiskLow, nil
	}
}

// ScorePercent adapts a 0-100 score to the internal [0,1] scale before
// classifying.
func (c Classifier) ScorePercent(score float64) (models.RiskCategory, error) {
	normalized, err := NormalizeScore(score, true)
	if err != nil {
		return "", err
	}
	return c.Score(normalized)
}

// NormalizeScore validates a raw score and returns it on the internal [0,1]
// scale; percent selects the 0-100 input scale. This adapter is the only
// place the engine accepts the percentage convention, so the two scales can
// never be mixed downstream.
func NormalizeScore(value float64, percent bool) (float64, error) {
	if percent {
		if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 || value > 100 {
			return 0, fmt.Errorf("%w: percent risk score %v outside [0,100]", ErrInvalidInput, value)
		}
		return value / 100, nil
	}
	if !isUnit(value) {
		return 0, fmt.Errorf("%w: risk score %v outside [0,1]", ErrInvalidInput, value)
	}
	return value, nil
}

func (c Classifier) Factor(contribution float64) (models.ImpactTier, error) {
	if !isUnit(contribution) {
		return "", fmt.Errorf("%w: factor contribution %v outside [0,1]", ErrInvalidInput, contribution)
	}
	switch {
	case contribution >= c.HighFloor:
		return models.ImpactHigh, nil
	case contribution >= c.MediumFloor:
		return models.ImpactMedium, nil
	default:
		return models.ImpactLow, nil
	}
}

// Enrich derives the risk category and per-factor impact tiers for one
// record. The input is never mutated; factors are copied before tagging.
func (c Classifier) Enrich(customer models.Customer) (models.EnrichedCustomer, error) {
	category, err := c.Score(customer.RiskScore)
	if err != nil {
		return models.EnrichedCustomer{}, err
	}
	if customer.AccountValue < 0 {
		return models.EnrichedCustomer{}, fmt.Errorf("%w: negative account value %v", ErrInvalidInput, customer.AccountValue)
	}

	enriched := models.EnrichedCustomer{Customer: customer, RiskCategory: category}
	if len(customer.Factors) > 0 {
		factors := make([]models.RiskFactor, len(customer.Factors))
		copy(factors, customer.Factors)
		for i := range factors {
			impact, err := c.Factor(factors[i].Contribution)
			if err != nil {
				return models.EnrichedCustomer{}, err
			}
			factors[i].Impact = impact
		}
		enriched.Factors = factors
	}
	return enriched, nil
}

// EnrichAll enriches a batch. A malformed record fails only itself: it is
// reported in the error list and the remaining records are still returned.
func (c Classifier) EnrichAll(customers []models.Customer) ([]models.EnrichedCustomer, []RecordError) {
	enriched := make([]models.EnrichedCustomer, 0, len(customers))
	var failed []RecordError
	for _, customer := range customers {
		e, err := c.Enrich(customer)
		if err != nil {
			failed = append(failed, RecordError{ID: customer.ID, Err: err})
			continue
		}
		enriched = append(enriched, e)
	}
	return enriched, failed
}

func isUnit(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0 && v <= 1
}
