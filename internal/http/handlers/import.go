package handlers

import (
	"encoding/csv"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"github.com/churnwatch/backend/internal/engine"
	"github.com/churnwatch/backend/internal/models"
)

type ImportSummary struct {
	Parsed   int      `json:"parsed"`
	Inserted int      `json:"inserted"`
	Errors   []string `json:"errors"`
}

// @Summary Import customers CSV
// @Description Replaces the customer dataset. Malformed rows are reported and skipped; valid rows still load.
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Param customers formData file true "customers.csv"
// @Param score_scale formData string false "unit (0-1, default) or percent (0-100)"
// @Success 200 {object} ImportSummary
// @Failure 400 {object} map[string]any
// @Router /api/import [post]
func (h *Handler) Import(c *gin.Context) {
	file, err := c.FormFile("customers")
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "customers file required", nil)
		return
	}
	if !validateExt(file.Filename) {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "file must be .csv", nil)
		return
	}

	scale := c.DefaultPostForm("score_scale", "unit")
	if scale != "unit" && scale != "percent" {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "score_scale must be unit or percent", nil)
		return
	}

	customers, rowErrs := parseCustomersCSV(file, scale == "percent")
	summary := ImportSummary{
		Parsed: len(customers),
		Errors: rowErrs,
	}
	if summary.Errors == nil {
		summary.Errors = []string{}
	}
	if len(customers) == 0 && len(rowErrs) > 0 {
		writeError(c, http.StatusBadRequest, "CSV_PARSE_ERROR", "No valid rows in upload", summary.Errors)
		return
	}

	ctx := c.Request.Context()
	err = h.Store.WithTx(ctx, func(tx pgx.Tx) error {
		return h.Store.ResetCustomers(ctx, tx)
	})
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to reset customers", err.Error())
		return
	}
	h.Actions.Clear()

	inserted, err := h.Store.InsertCustomers(ctx, customers)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to insert customers", err.Error())
		return
	}
	summary.Inserted = int(inserted)

	c.JSON(http.StatusOK, summary)
}

func parseCustomersCSV(file *multipart.FileHeader, percent bool) ([]models.Customer, []string) {
	f, err := file.Open()
	if err != nil {
		return nil, []string{err.Error()}
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	headers, err := reader.Read()
	if err != nil {
		return nil, []string{"failed to read header"}
	}
	index := headerIndex(headers)
	var rowErrs []string
	var out []models.Customer

	row := 1
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			rowErrs = append(rowErrs, fmt.Sprintf("row %d: %v", row, err))
			continue
		}

		customer, err := parseCustomerRow(rec, index, percent)
		if err != nil {
			rowErrs = append(rowErrs, fmt.Sprintf("row %d: %v", row, err))
			continue
		}
		out = append(out, customer)
	}
	return out, rowErrs
}

func parseCustomerRow(rec []string, index map[string]int, percent bool) (models.Customer, error) {
	id := getFieldAny(rec, index, "id", "customer_id")
	if id == "" {
		return models.Customer{}, fmt.Errorf("customer id required")
	}
	name := getFieldAny(rec, index, "name", "customer_name")
	if name == "" {
		return models.Customer{}, fmt.Errorf("customer name required")
	}

	accountValue, err := strconv.ParseFloat(getFieldAny(rec, index, "account_value", "clv"), 64)
	if err != nil {
		return models.Customer{}, fmt.Errorf("invalid account_value: %v", err)
	}
	if accountValue < 0 {
		return models.Customer{}, fmt.Errorf("account_value must be non-negative, got %v", accountValue)
	}

	rawScore, err := strconv.ParseFloat(getFieldAny(rec, index, "risk_score", "churn_probability"), 64)
	if err != nil {
		return models.Customer{}, fmt.Errorf("invalid risk_score: %v", err)
	}
	score, err := engine.NormalizeScore(rawScore, percent)
	if err != nil {
		return models.Customer{}, err
	}

	lastActivity, err := parseDate(getFieldAny(rec, index, "last_activity", "last_activity_date"))
	if err != nil {
		return models.Customer{}, fmt.Errorf("invalid last_activity: %v", err)
	}

	segment, err := normalizeSegment(getField(rec, index, "segment"))
	if err != nil {
		return models.Customer{}, err
	}

	return models.Customer{
		ID:           id,
		Name:         name,
		Email:        getFieldAny(rec, index, "email", "contact_email"),
		Phone:        getFieldAny(rec, index, "phone", "contact_phone"),
		AccountValue: accountValue,
		RiskScore:    score,
		LastActivity: lastActivity,
		Segment:      segment,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

func headerIndex(headers []string) map[string]int {
	idx := map[string]int{}
	for i, h := range headers {
		idx[normalizeHeader(h)] = i
	}
	return idx
}

func getField(rec []string, idx map[string]int, name string) string {
	pos, ok := idx[name]
	if !ok || pos >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[pos])
}

func getFieldAny(rec []string, idx map[string]int, names ...string) string {
	for _, name := range names {
		if v := getField(rec, idx, normalizeHeader(name)); v != "" {
			return v
		}
	}
	return ""
}

func normalizeHeader(h string) string {
	h = strings.ReplaceAll(h, "\ufeff", "")
	return strings.ToLower(strings.TrimSpace(h))
}

func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("last_activity required")
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}

// Segment is a closed set; empty defaults to Retail, anything else is a row
// error rather than a silently invented value.
func normalizeSegment(value string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return "Retail", nil
	case "retail":
		return "Retail", nil
	case "business":
		return "Business", nil
	case "premium":
		return "Premium", nil
	default:
		return "", fmt.Errorf("unknown segment %q", value)
	}
}

func validateExt(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".csv"
}
