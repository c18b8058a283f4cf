package handler

import (
	"log/slog"
	"net/http"

	"arbor/internal/httputil"

	models "arbor/internal/domain/models/retrieval"
	retrSvc "arbor/internal/domain/services/retrieval"
)

// RetrievalHandler handles HTTP requests for the retrieval audit trail.
// Vendor adapters post their results here after answering the caller.
type RetrievalHandler struct {
	audit  retrSvc.AuditService
	logger *slog.Logger
}

// NewRetrievalHandler creates a new retrieval audit handler
func NewRetrievalHandler(audit retrSvc.AuditService, logger *slog.Logger) *RetrievalHandler {
	return &RetrievalHandler{
		audit:  audit,
		logger: logger,
	}
}

// PersistRun records one retrieval invocation. Always 202: persistence is
// best-effort and never blocks the adapter.
func (h *RetrievalHandler) PersistRun(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RunID  string         `json:"run_id"`
		Query  string         `json:"query"`
		Result *models.Result `json:"result"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Result == nil {
		httputil.RespondError(w, http.StatusBadRequest, "result is required")
		return
	}

	h.audit.Persist(r.Context(), req.RunID, req.Query, req.Result)

	httputil.RespondJSON(w, http.StatusAccepted, map[string]string{"run_id": req.RunID})
}

// GetRunChunks returns a run's chunks in their persisted order, for
// highlight/preview rendering
func (h *RetrievalHandler) GetRunChunks(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("id")
	if runID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "run id is required")
		return
	}

	chunks, err := h.audit.GetRunChunks(r.Context(), runID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, chunks)
}
