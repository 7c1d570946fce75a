package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/churnwatch/backend/internal/models"
)

const (
	RiskFilterAll    = "all"
	RiskFilterLow    = "low"
	RiskFilterMedium = "medium"
	RiskFilterHigh   = "high"
)

// QueryParams selects, orders, and pages a customer listing. Search and Risk
// are ANDed; an empty search matches everything. Page is 1-indexed.
type QueryParams struct {
	Search   string
	Risk     string
	SortBy   string
	SortDesc bool
	Page     int
	PageSize int
}

// Query filters, sorts, and pages enriched records. Total always equals the
// size of the filtered set before paging, so "Showing X-Y of Z" stays correct
// for any page size. A page past the end returns empty items with the real
// Total, which callers can tell apart from an error.
func Query(enriched []models.EnrichedCustomer, p QueryParams) (models.QueryResult, error) {
	if p.Page < 1 {
		return models.QueryResult{}, fmt.Errorf("%w: page %d, pages are 1-indexed", ErrOutOfRange, p.Page)
	}
	if p.PageSize < 1 {
		return models.QueryResult{}, fmt.Errorf("%w: page size %d", ErrOutOfRange, p.PageSize)
	}

	wantCategory, err := riskFilterCategory(p.Risk)
	if err != nil {
		return models.QueryResult{}, err
	}

	needle := strings.ToLower(strings.TrimSpace(p.Search))
	matched := make([]models.EnrichedCustomer, 0, len(enriched))
	for _, c := range enriched {
		if wantCategory != "" && c.RiskCategory != wantCategory {
			continue
		}
		if needle != "" && !matchesSearch(c, needle) {
			continue
		}
		matched = append(matched, c)
	}

	if p.SortBy != "" {
		less, err := sortLess(p.SortBy)
		if err != nil {
			return models.QueryResult{}, err
		}
		// Stable so equal keys keep input order and repeated queries page
		// identically.
		sort.SliceStable(matched, func(i, j int) bool {
			if p.SortDesc {
				return less(matched[j], matched[i])
			}
			return less(matched[i], matched[j])
		})
	}

	result := models.QueryResult{
		Total:    len(matched),
		Page:     p.Page,
		PageSize: p.PageSize,
		Items:    []models.EnrichedCustomer{},
	}

	start := (p.Page - 1) * p.PageSize
	if start < len(matched) {
		end := start + p.PageSize
		if end > len(matched) {
			end = len(matched)
		}
		result.Items = matched[start:end]
	}
	return result, nil
}

func riskFilterCategory(filter string) (models.RiskCategory, error) {
	switch strings.ToLower(strings.TrimSpace(filter)) {
	case "", RiskFilterAll:
		return "", nil
	case RiskFilterLow:
		return models.RiskLow, nil
	case RiskFilterMedium:
		return models.RiskMedium, nil
	case RiskFilterHigh:
		return models.RiskHigh, nil
	default:
		return "", fmt.Errorf("%w: risk filter %q", ErrInvalidInput, filter)
	}
}

func matchesSearch(c models.EnrichedCustomer, needle string) bool {
	return strings.Contains(strings.ToLower(c.Name), needle) ||
		strings.Contains(strings.ToLower(c.Email), needle) ||
		strings.Contains(strings.ToLower(c.Phone), needle)
}

func sortLess(field string) (func(a, b models.EnrichedCustomer) bool, error) {
	switch strings.ToLower(strings.TrimSpace(field)) {
	case "id":
		return func(a, b models.EnrichedCustomer) bool { return a.ID < b.ID }, nil
	case "name":
		return func(a, b models.EnrichedCustomer) bool { return a.Name < b.Name }, nil
	case "email":
		return func(a, b models.EnrichedCustomer) bool { return a.Email < b.Email }, nil
	case "segment":
		return func(a, b models.EnrichedCustomer) bool { return a.Segment < b.Segment }, nil
	case "account_value":
		return func(a, b models.EnrichedCustomer) bool { return a.AccountValue < b.AccountValue }, nil
	case "risk_score":
		return func(a, b models.EnrichedCustomer) bool { return a.RiskScore < b.RiskScore }, nil
	case "last_activity":
		return func(a, b models.EnrichedCustomer) bool { return a.LastActivity.Before(b.LastActivity) }, nil
	default:
		return nil, fmt.Errorf("%w: sort field %q", ErrInvalidInput, field)
	}
}
