package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/churnwatch/backend/internal/actions"
	"github.com/churnwatch/backend/internal/db"
	"github.com/churnwatch/backend/internal/engine"
	"github.com/churnwatch/backend/internal/scoring"
	"github.com/churnwatch/backend/internal/service"
)

type Handler struct {
	Store           *db.Store
	Actions         *actions.Store
	Scorer          scoring.Scorer
	Classifier      engine.Classifier
	Validator       *validator.Validate
	Logger          zerolog.Logger
	AdminKey        string
	DefaultPageSize int
}

func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary Dashboard summary
// @Description Risk totals, distribution, value at risk, and monthly trend
// @Tags dashboard
// @Produce json
// @Param months query int false "Trend window in months (default 6)"
// @Success 200 {object} map[string]any
// @Router /api/dashboard/summary [get]
func (h *Handler) DashboardSummary(c *gin.Context) {
	months, err := strconv.Atoi(c.DefaultQuery("months", "6"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "months must be an integer", err.Error())
		return
	}

	records, err := h.Store.ListCustomers(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list customers", err.Error())
		return
	}

	enriched, recordErrs := h.Classifier.EnrichAll(records)
	history, err := engine.MonthlyHistory(enriched, months, time.Now().UTC())
	if err != nil {
		writeEngineError(c, err)
		return
	}
	snapshot := engine.Aggregate(enriched, history)

	c.JSON(http.StatusOK, gin.H{
		"summary":       snapshot,
		"record_errors": recordErrorPayload(recordErrs),
	})
}

// @Summary List customers
// @Description Filtered, sorted, paginated customer listing with derived risk categories
// @Tags customers
// @Produce json
// @Param q query string false "Substring match on name, email, or phone"
// @Param risk query string false "all, low, medium, or high"
// @Param sort query string false "Sort field"
// @Param order query string false "asc or desc"
// @Param page query int false "1-indexed page"
// @Param page_size query int false "Page size"
// @Success 200 {object} map[string]any
// @Router /api/customers [get]
func (h *Handler) CustomersList(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "page must be an integer", err.Error())
		return
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(h.DefaultPageSize)))
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "page_size must be an integer", err.Error())
		return
	}
	order := c.DefaultQuery("order", "asc")
	if order != "asc" && order != "desc" {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "order must be asc or desc", nil)
		return
	}

	records, err := h.Store.ListCustomers(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list customers", err.Error())
		return
	}

	enriched, recordErrs := h.Classifier.EnrichAll(records)
	result, err := engine.Query(enriched, engine.QueryParams{
		Search:   c.Query("q"),
		Risk:     c.DefaultQuery("risk", engine.RiskFilterAll),
		SortBy:   c.Query("sort"),
		SortDesc: order == "desc",
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		writeEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":         result.Items,
		"total":         result.Total,
		"page":          result.Page,
		"page_size":     result.PageSize,
		"record_errors": recordErrorPayload(recordErrs),
	})
}

// @Summary Customer details
// @Tags customers
// @Produce json
// @Param id path string true "Customer ID"
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /api/customers/{id} [get]
func (h *Handler) CustomerDetails(c *gin.Context) {
	id := c.Param("id")
	customer, err := h.Store.GetCustomer(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, "UNKNOWN_CUSTOMER", "Customer not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to get customer", err.Error())
		return
	}

	enriched, err := h.Classifier.Enrich(customer)
	if err != nil {
		writeEngineError(c, err)
		return
	}

	catalog, err := h.Store.ListRetentionActions(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list retention actions", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"customer":        enriched,
		"recommendations": engine.Recommend(enriched, catalog),
		"applied_actions": h.Actions.ListForCustomer(id),
	})
}

type ApplyActionRequest struct {
	ActionID string `json:"action_id" validate:"required"`
}

// @Summary Apply a retention action
// @Description Idempotent per customer and action; a repeat apply returns the original record
// @Tags actions
// @Accept json
// @Produce json
// @Param id path string true "Customer ID"
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /api/customers/{id}/actions [post]
func (h *Handler) ApplyAction(c *gin.Context) {
	id := c.Param("id")
	var req ApplyActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	if _, err := h.Store.GetCustomer(c.Request.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, "UNKNOWN_CUSTOMER", "Customer not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to get customer", err.Error())
		return
	}

	catalog, err := h.Store.ListRetentionActions(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list retention actions", err.Error())
		return
	}

	applied, err := h.Actions.Apply(c.Request.Context(), id, req.ActionID, catalog)
	if err != nil {
		if errors.Is(err, engine.ErrUnknownAction) {
			writeError(c, http.StatusNotFound, "UNKNOWN_ACTION", "Action is not a candidate for this customer", err.Error())
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to apply action", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"applied": applied})
}

// @Summary Run batch scoring
// @Tags scoring
// @Produce json
// @Success 200 {object} service.RunSummary
// @Router /api/score [post]
func (h *Handler) Score(c *gin.Context) {
	runID := uuid.NewString()
	if err := h.Store.CreateRun(c.Request.Context(), runID, service.RunStatusRunning); err != nil {
		h.Logger.Error().Err(err).Msg("failed to create run")
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to create run", err.Error())
		return
	}

	scorer := service.ScoringService{Store: h.Store, Scorer: h.Scorer, Classifier: h.Classifier, Logger: h.Logger}
	summary, err := scorer.ScoreCustomers(c.Request.Context())
	status := service.RunStatusSuccess
	if err != nil {
		status = service.RunStatusFailed
	}
	b, _ := json.Marshal(summary)
	if finishErr := h.Store.FinishRun(c.Request.Context(), runID, status, b); finishErr != nil {
		h.Logger.Error().Err(finishErr).Msg("failed to finish run")
	}

	if err != nil {
		h.Logger.Error().Err(err).Msg("scoring run failed")
		writeError(c, http.StatusInternalServerError, "SCORING_ERROR", "Scoring run failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, summary)
}

// @Summary Latest scoring run
// @Tags scoring
// @Produce json
// @Success 200 {object} models.Run
// @Router /api/runs/latest [get]
func (h *Handler) RunsLatest(c *gin.Context) {
	run, err := h.Store.GetLatestRun(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "No runs found", err.Error())
		return
	}
	c.JSON(http.StatusOK, run)
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

func writeEngineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, engine.ErrUnknownCustomer):
		writeError(c, http.StatusNotFound, "UNKNOWN_CUSTOMER", "Customer not found", err.Error())
	case errors.Is(err, engine.ErrUnknownAction):
		writeError(c, http.StatusNotFound, "UNKNOWN_ACTION", "Action not found", err.Error())
	case errors.Is(err, engine.ErrOutOfRange):
		writeError(c, http.StatusBadRequest, "OUT_OF_RANGE", "Parameter out of range", err.Error())
	case errors.Is(err, engine.ErrInvalidInput):
		writeError(c, http.StatusBadRequest, "INVALID_INPUT", "Invalid input", err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "INTERNAL", "Internal error", err.Error())
	}
}

func recordErrorPayload(errs []engine.RecordError) []gin.H {
	out := make([]gin.H, 0, len(errs))
	for _, e := range errs {
		out = append(out, gin.H{"id": e.ID, "reason": e.Reason()})
	}
	return out
}
