package engine

import (
	"sort"

	"github.com/churnwatch/backend/internal/models"
)

// Recommend ranks candidate retention actions for one customer.
//
// ROI% = (recovered - cost) / cost * 100 when a recovered value is known and
// the cost is positive. An unknown recovered value keeps ROI nil — reporting
// 0 would present an unknown outcome as a guaranteed loss. Ranking is ROI
// descending with nil ROI below any number, ties broken by impact tier
// High > Medium > Low, and remaining ties keep catalog order.
func Recommend(customer models.EnrichedCustomer, actions []models.RetentionAction) []models.Recommendation {
	recs := make([]models.Recommendation, 0, len(actions))
	for _, action := range actions {
		rec := models.Recommendation{
			Action:   action,
			Priority: customer.RiskCategory,
		}
		if action.RecoveredValue != nil && action.Cost > 0 {
			roi := (*action.RecoveredValue - action.Cost) / action.Cost * 100
			rec.ROI = &roi
		}
		recs = append(recs, rec)
	}

	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		switch {
		case a.ROI != nil && b.ROI == nil:
			return true
		case a.ROI == nil && b.ROI != nil:
			return false
		case a.ROI != nil && b.ROI != nil && *a.ROI != *b.ROI:
			return *a.ROI > *b.ROI
		}
		return impactWeight(a.Action.Impact) > impactWeight(b.Action.Impact)
	})

	for i := range recs {
		recs[i].Rank = i + 1
	}
	return recs
}

func impactWeight(tier models.ImpactTier) int {
	switch tier {
	case models.ImpactHigh:
		return 3
	case models.ImpactMedium:
		return 2
	case models.ImpactLow:
		return 1
	default:
		return 0
	}
}
