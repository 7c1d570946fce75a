package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/churnwatch/backend/internal/models"
)

type HTTPScorer struct {
	BaseURL string
	Client  *http.Client
}

type requestBody struct {
	CustomerID   string  `json:"customer_id"`
	Segment      string  `json:"segment"`
	AccountValue float64 `json:"account_value"`
	LastActivity string  `json:"last_activity"`
}

type responseBody struct {
	CustomerID string  `json:"customer_id"`
	Score      float64 `json:"churn_probability"`
	Factors    []struct {
		Name         string  `json:"name"`
		Contribution float64 `json:"contribution"`
	} `json:"factors"`
	ModelVersion string `json:"model_version"`
}

func (h HTTPScorer) ScoreCustomer(ctx context.Context, customer models.Customer) (Prediction, int64, error) {
	if h.Client == nil {
		h.Client = &http.Client{Timeout: 15 * time.Second}
	}

	payload := requestBody{
		CustomerID:   customer.ID,
		Segment:      customer.Segment,
		AccountValue: customer.AccountValue,
		LastActivity: customer.LastActivity.Format(time.RFC3339),
	}
	b, _ := json.Marshal(payload)
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.BaseURL+"/predict", bytes.NewBuffer(b))
	if err != nil {
		return Prediction{}, 0, err
	}

	req.Header.Set("Content-Type", "application/json")
	resp, err := h.Client.Do(req)
	if err != nil {
		return Prediction{}, time.Since(start).Milliseconds(), err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Prediction{}, time.Since(start).Milliseconds(), errors.New("model service error")
	}

	var r responseBody
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return Prediction{}, time.Since(start).Milliseconds(), err
	}

	prediction := Prediction{
		CustomerID:   customer.ID,
		Score:        r.Score,
		ModelVersion: r.ModelVersion,
		CreatedAt:    time.Now().UTC(),
	}
	for _, f := range r.Factors {
		prediction.Factors = append(prediction.Factors, models.RiskFactor{Name: f.Name, Contribution: f.Contribution})
	}
	return prediction, time.Since(start).Milliseconds(), nil
}
