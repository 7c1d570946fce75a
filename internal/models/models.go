package models

import "time"

type RiskCategory string

const (
	RiskLow    RiskCategory = "Low"
	RiskMedium RiskCategory = "Medium"
	RiskHigh   RiskCategory = "High"
)

type ImpactTier string

const (
	ImpactLow    ImpactTier = "Low"
	ImpactMedium ImpactTier = "Medium"
	ImpactHigh   ImpactTier = "High"
)

// RiskFactor is one named driver of a customer's churn score. Contribution is
// in [0,1]; contributions within one customer are independent and do not need
// to sum to 1. Impact is derived by the classifier, never supplied by callers.
type RiskFactor struct {
	Name         string     `json:"name"`
	Contribution float64    `json:"contribution"`
	Impact       ImpactTier `json:"impact,omitempty"`
}

// Customer is a raw record as supplied by the data source. RiskScore is on
// the [0,1] scale; scale adaptation happens at the import boundary.
type Customer struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	Phone        string       `json:"phone"`
	AccountValue float64      `json:"account_value"`
	RiskScore    float64      `json:"risk_score"`
	LastActivity time.Time    `json:"last_activity"`
	Segment      string       `json:"segment"`
	Factors      []RiskFactor `json:"factors,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

// EnrichedCustomer is the derived read-only view handed to aggregation,
// querying, and recommendation. The embedded Customer is a copy.
type EnrichedCustomer struct {
	Customer
	RiskCategory RiskCategory `json:"risk_category"`
}

type RiskBucket struct {
	Category   RiskCategory `json:"category"`
	Count      int          `json:"count"`
	Percentage float64      `json:"percentage"`
}

type TrendPoint struct {
	Period string  `json:"period"`
	Rate   float64 `json:"rate"`
}

type DashboardSnapshot struct {
	TotalCustomers int          `json:"total_customers"`
	AtRiskCount    int          `json:"at_risk_count"`
	AtRiskRate     float64      `json:"at_risk_rate"`
	AverageScore   float64      `json:"average_churn_probability"`
	ValueAtRisk    float64      `json:"value_at_risk"`
	Distribution   []RiskBucket `json:"risk_distribution"`
	Trend          []TrendPoint `json:"trend"`
}

type QueryResult struct {
	Items    []EnrichedCustomer `json:"items"`
	Total    int                `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
}

// RetentionAction is a candidate intervention from the catalog.
// RecoveredValue is the estimated account value saved if the action works;
// when unknown it stays nil and ROI is reported as not applicable.
type RetentionAction struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	Impact         ImpactTier `json:"impact"`
	Cost           float64    `json:"cost"`
	RecoveredValue *float64   `json:"recovered_value,omitempty"`
}

type Recommendation struct {
	Action   RetentionAction `json:"action"`
	ROI      *float64        `json:"roi,omitempty"`
	Rank     int             `json:"rank"`
	Priority RiskCategory    `json:"priority"`
}

type AppliedAction struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customer_id"`
	ActionID   string    `json:"action_id"`
	AppliedAt  time.Time `json:"applied_at"`
}

type Run struct {
	ID         string     `json:"id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
	Status     string     `json:"status"`
	Summary    []byte     `json:"summary"`
}
