package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/churnwatch/backend/internal/models"
)

// PeriodSample is one trend period. When Rate is set it is used as-is;
// otherwise the rate is the mean risk score of Records (0 for an empty
// period, so absent months show up explicitly instead of being skipped).
type PeriodSample struct {
	Period  string
	Records []models.EnrichedCustomer
	Rate    *float64
}

// Aggregate computes the dashboard snapshot for a set of enriched records.
// An empty set is not an error: the snapshot comes back zeroed with an empty
// distribution and trend. The snapshot is recomputed on every call and never
// cached by the engine.
func Aggregate(enriched []models.EnrichedCustomer, history []PeriodSample) models.DashboardSnapshot {
	snapshot := models.DashboardSnapshot{
		TotalCustomers: len(enriched),
	}

	if len(enriched) > 0 {
		counts := map[models.RiskCategory]int{}
		var scoreSum float64
		for _, c := range enriched {
			counts[c.RiskCategory]++
			scoreSum += c.RiskScore
			if c.RiskCategory == models.RiskHigh {
				snapshot.ValueAtRisk += c.AccountValue
			}
		}
		snapshot.AtRiskCount = counts[models.RiskHigh] + counts[models.RiskMedium]
		snapshot.AtRiskRate = float64(snapshot.AtRiskCount) / float64(len(enriched))
		snapshot.AverageScore = scoreSum / float64(len(enriched))
		snapshot.Distribution = distribution(counts, len(enriched))
	}

	for _, sample := range history {
		rate := 0.0
		switch {
		case sample.Rate != nil:
			rate = *sample.Rate
		case len(sample.Records) > 0:
			var sum float64
			for _, c := range sample.Records {
				sum += c.RiskScore
			}
			rate = sum / float64(len(sample.Records))
		}
		snapshot.Trend = append(snapshot.Trend, models.TrendPoint{Period: sample.Period, Rate: rate})
	}

	return snapshot
}

// distribution reports all three buckets in High/Medium/Low order with
// one-decimal percentages. Every non-last non-empty bucket is rounded and
// the last non-empty bucket takes the remainder, so the column always sums
// to exactly 100.0 instead of 99.9 or 100.1.
func distribution(counts map[models.RiskCategory]int, total int) []models.RiskBucket {
	order := []models.RiskCategory{models.RiskHigh, models.RiskMedium, models.RiskLow}

	lastNonZero := -1
	for i, cat := range order {
		if counts[cat] > 0 {
			lastNonZero = i
		}
	}

	buckets := make([]models.RiskBucket, 0, len(order))
	var allocated float64
	for i, cat := range order {
		bucket := models.RiskBucket{Category: cat, Count: counts[cat]}
		if bucket.Count > 0 {
			if i == lastNonZero {
				bucket.Percentage = roundTenth(100 - allocated)
			} else {
				bucket.Percentage = roundTenth(float64(bucket.Count) / float64(total) * 100)
				allocated += bucket.Percentage
			}
		}
		buckets = append(buckets, bucket)
	}
	return buckets
}

// MonthlyHistory groups records into calendar-month samples by last-activity
// date, covering the `months` most recent months ending at now. Months with
// no activity are present with an empty record set; records outside the
// window are ignored.
func MonthlyHistory(enriched []models.EnrichedCustomer, months int, now time.Time) ([]PeriodSample, error) {
	if months < 1 {
		return nil, fmt.Errorf("%w: trend window must cover at least one month, got %d", ErrOutOfRange, months)
	}

	byPeriod := map[string][]models.EnrichedCustomer{}
	for _, c := range enriched {
		period := c.LastActivity.Format("2006-01")
		byPeriod[period] = append(byPeriod[period], c)
	}

	samples := make([]PeriodSample, 0, months)
	// Anchor to the first of the month before stepping back, so a late
	// day-of-month cannot normalize into the wrong window.
	cursor := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)
	for i := 0; i < months; i++ {
		period := cursor.Format("2006-01")
		samples = append(samples, PeriodSample{Period: period, Records: byPeriod[period]})
		cursor = cursor.AddDate(0, 1, 0)
	}
	return samples, nil
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
