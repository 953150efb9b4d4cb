package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dvloznov/spending-insights/internal/api/middleware"
	"github.com/dvloznov/spending-insights/internal/insights"
	"github.com/dvloznov/spending-insights/internal/jobs"
	"github.com/dvloznov/spending-insights/internal/store"
)

// InsightsHandler handles insight generation and retrieval endpoints.
type InsightsHandler struct {
	generator *insights.Generator
	insights  *store.InsightStore
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewInsightsHandler creates a new insights handler.
func NewInsightsHandler(generator *insights.Generator, insightStore *store.InsightStore, publisher jobs.Publisher, log zerolog.Logger) *InsightsHandler {
	return &InsightsHandler{
		generator: generator,
		insights:  insightStore,
		publisher: publisher,
		log:       log,
	}
}

// Generate handles POST /api/insights/generate. Generation runs
// synchronously; an existing insight is returned unchanged unless force is
// set.
func (h *InsightsHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
		Period string `json:"period,omitempty"`
		Force  bool   `json:"force,omitempty"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	result, err := h.generator.Generate(r.Context(), req.UserID, req.Period, req.Force)
	if err != nil {
		h.writeStoreError(w, err, "Failed to generate insight")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, result)
}

// GenerateAsync handles POST /api/insights/generate-async. It enqueues a
// generation job and returns immediately with the job ID.
func (h *InsightsHandler) GenerateAsync(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id,omitempty"`
		Period string `json:"period,omitempty"`
		Force  bool   `json:"force,omitempty"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	job := &jobs.GenerateInsightJob{
		UserID:          req.UserID,
		PeriodKey:       req.Period,
		ForceRegenerate: req.Force,
	}
	if err := h.publisher.PublishGenerateInsight(r.Context(), job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue generation job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue job")
		return
	}

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.JobID,
	})
}

// Get handles GET /api/insights?user_id=U&period=P.
func (h *InsightsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	period := r.URL.Query().Get("period")

	if userID == "" || period == "" {
		middleware.WriteError(w, http.StatusBadRequest, "user_id and period are required")
		return
	}

	insight, err := h.insights.GetInsight(r.Context(), userID, period)
	if err != nil {
		h.writeStoreError(w, err, "Failed to load insight")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, insight)
}

// List handles GET /api/insights/list?user_id=U.
func (h *InsightsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	result, err := h.insights.ListInsights(r.Context(), userID)
	if err != nil {
		h.writeStoreError(w, err, "Failed to list insights")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"insights": result,
		"count":    len(result),
	})
}

// MarkAction handles POST /api/insights/actions. It records a recommendation
// as implemented by the user.
func (h *InsightsHandler) MarkAction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID           string `json:"user_id"`
		Period           string `json:"period"`
		RecommendationID string `json:"recommendation_id"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserID == "" || req.Period == "" || req.RecommendationID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "user_id, period and recommendation_id are required")
		return
	}

	insight, err := h.generator.MarkActionImplemented(r.Context(), req.UserID, req.Period, req.RecommendationID)
	if err != nil {
		h.writeStoreError(w, err, "Failed to mark action implemented")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, insight)
}

// writeStoreError maps the typed store error surface onto HTTP statuses.
func (h *InsightsHandler) writeStoreError(w http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		middleware.WriteError(w, http.StatusNotFound, "Insight not found")
	case errors.Is(err, store.ErrValidation):
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrThroughputExceeded):
		middleware.WriteError(w, http.StatusTooManyRequests, "Store is throttling, retry later")
	default:
		h.log.Error().Err(err).Msg(message)
		middleware.WriteError(w, http.StatusInternalServerError, message)
	}
}
