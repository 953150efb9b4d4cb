package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dvloznov/spending-insights/internal/api/middleware"
	"github.com/dvloznov/spending-insights/internal/gcs"
	"github.com/dvloznov/spending-insights/internal/ingest"
)

// IngestHandler handles CSV ingestion endpoints.
type IngestHandler struct {
	ingestor *ingest.Ingestor
	bucket   string
	log      zerolog.Logger
}

// NewIngestHandler creates a new ingestion handler. bucket may be empty if
// GCS-based ingestion is disabled.
func NewIngestHandler(ingestor *ingest.Ingestor, bucket string, log zerolog.Logger) *IngestHandler {
	return &IngestHandler{
		ingestor: ingestor,
		bucket:   bucket,
		log:      log,
	}
}

// IngestCSV handles POST /api/ingest. The body carries either the CSV text
// inline or a gs:// URI pointing at an uploaded statement.
func (h *IngestHandler) IngestCSV(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		UserID string `json:"user_id"`
		CSV    string `json:"csv,omitempty"`
		GCSURI string `json:"gcs_uri,omitempty"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.UserID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if req.CSV == "" && req.GCSURI == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Either csv or gcs_uri is required")
		return
	}

	content := req.CSV
	if content == "" {
		if h.bucket == "" {
			middleware.WriteError(w, http.StatusBadRequest, "GCS ingestion is not configured")
			return
		}
		data, err := gcs.Download(ctx, req.GCSURI)
		if err != nil {
			h.log.Error().Err(err).Str("gcs_uri", req.GCSURI).Msg("Failed to download statement")
			middleware.WriteError(w, http.StatusBadGateway, "Failed to download statement from GCS")
			return
		}
		content = string(data)
	}

	result, err := h.ingestor.IngestCSV(ctx, req.UserID, content)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", req.UserID).Msg("Ingestion failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Ingestion failed")
		return
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	middleware.WriteJSON(w, status, result)
}
