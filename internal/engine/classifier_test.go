package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/churnwatch/backend/internal/models"
)

func TestClassifyScoreBoundaries(t *testing.T) {
	cls := DefaultClassifier()
	cases := []struct {
		score float64
		want  models.RiskCategory
	}{
		{0, models.RiskLow},
		{0.3, models.RiskLow},
		{0.49999, models.RiskLow},
		{0.50, models.RiskMedium},
		{0.62, models.RiskMedium},
		{0.74999, models.RiskMedium},
		{0.75, models.RiskHigh},
		{0.87, models.RiskHigh},
		{1, models.RiskHigh},
	}
	for _, tc := range cases {
		got, err := cls.Score(tc.score)
		if err != nil {
			t.Fatalf("Score(%v): unexpected error %v", tc.score, err)
		}
		if got != tc.want {
			t.Fatalf("Score(%v) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestClassifyScoreMonotonic(t *testing.T) {
	cls := DefaultClassifier()
	rank := map[models.RiskCategory]int{models.RiskLow: 0, models.RiskMedium: 1, models.RiskHigh: 2}

	prev := -1
	for s := 0.0; s <= 1.0; s += 0.01 {
		cat, err := cls.Score(s)
		if err != nil {
			t.Fatalf("Score(%v): %v", s, err)
		}
		if rank[cat] < prev {
			t.Fatalf("category rank decreased at score %v", s)
		}
		prev = rank[cat]
	}
}

func TestClassifyScoreInvalid(t *testing.T) {
	cls := DefaultClassifier()
	for _, s := range []float64{-0.1, 1.1, math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, err := cls.Score(s); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("Score(%v): expected ErrInvalidInput, got %v", s, err)
		}
	}
}

func TestScorePercentAdapter(t *testing.T) {
	cls := DefaultClassifier()
	got, err := cls.ScorePercent(75)
	if err != nil {
		t.Fatalf("ScorePercent(75): %v", err)
	}
	if got != models.RiskHigh {
		t.Fatalf("ScorePercent(75) = %s, want High", got)
	}
	got, err = cls.ScorePercent(50)
	if err != nil {
		t.Fatalf("ScorePercent(50): %v", err)
	}
	if got != models.RiskMedium {
		t.Fatalf("ScorePercent(50) = %s, want Medium", got)
	}
	if _, err := cls.ScorePercent(101); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("ScorePercent(101): expected ErrInvalidInput, got %v", err)
	}
}

func TestNewClassifierRejectsBadFloors(t *testing.T) {
	if _, err := NewClassifier(0.75, 0.50); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for inverted floors, got %v", err)
	}
	if _, err := NewClassifier(-0.1, 0.75); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for negative floor, got %v", err)
	}
}

func TestFactorImpactTiers(t *testing.T) {
	cls := DefaultClassifier()
	cases := []struct {
		contribution float64
		want         models.ImpactTier
	}{
		{0.45, models.ImpactLow},
		{0.50, models.ImpactMedium},
		{0.75, models.ImpactHigh},
	}
	for _, tc := range cases {
		got, err := cls.Factor(tc.contribution)
		if err != nil {
			t.Fatalf("Factor(%v): %v", tc.contribution, err)
		}
		if got != tc.want {
			t.Fatalf("Factor(%v) = %s, want %s", tc.contribution, got, tc.want)
		}
	}
}

func TestEnrichDoesNotMutateInput(t *testing.T) {
	cls := DefaultClassifier()
	customer := models.Customer{
		ID:        "c1",
		RiskScore: 0.87,
		Factors:   []models.RiskFactor{{Name: "Months Inactive", Contribution: 0.45}},
	}

	enriched, err := cls.Enrich(customer)
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if enriched.RiskCategory != models.RiskHigh {
		t.Fatalf("expected High category, got %s", enriched.RiskCategory)
	}
	if enriched.Factors[0].Impact != models.ImpactLow {
		t.Fatalf("expected Low impact on factor, got %s", enriched.Factors[0].Impact)
	}
	if customer.Factors[0].Impact != "" {
		t.Fatalf("input factor was mutated: %+v", customer.Factors[0])
	}
}

func TestEnrichAllPartialFailure(t *testing.T) {
	cls := DefaultClassifier()
	customers := []models.Customer{
		{ID: "good-1", RiskScore: 0.3},
		{ID: "bad", RiskScore: 1.5},
		{ID: "good-2", RiskScore: 0.8},
	}

	enriched, failed := cls.EnrichAll(customers)
	if len(enriched) != 2 {
		t.Fatalf("expected 2 enriched records, got %d", len(enriched))
	}
	if len(failed) != 1 || failed[0].ID != "bad" {
		t.Fatalf("expected failure for record bad, got %+v", failed)
	}
	if !errors.Is(failed[0], ErrInvalidInput) {
		t.Fatalf("expected wrapped ErrInvalidInput, got %v", failed[0].Err)
	}
}
