package handler

import (
	"log/slog"
	"net/http"

	"arbor/internal/httputil"

	models "arbor/internal/domain/models/knowledge"
	knowSvc "arbor/internal/domain/services/knowledge"
)

// TreeHandler handles HTTP requests for tree views and statistics
type TreeHandler struct {
	treeService knowSvc.TreeService
	statistics  knowSvc.StatisticsService
	logger      *slog.Logger
}

// NewTreeHandler creates a new tree handler
func NewTreeHandler(
	treeService knowSvc.TreeService,
	statistics knowSvc.StatisticsService,
	logger *slog.Logger,
) *TreeHandler {
	return &TreeHandler{
		treeService: treeService,
		statistics:  statistics,
		logger:      logger,
	}
}

// GetTree returns the nested knowledge tree under the virtual root
func (h *TreeHandler) GetTree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.treeService.GetTree(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, tree)
}

// GetTreeStatistic returns the statistics-only view of one subtree
func (h *TreeHandler) GetTreeStatistic(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		id = models.VirtualRootID
	}

	stats, err := h.treeService.GetTreeStatistic(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, stats)
}

// RefreshStatistics recomputes the whole forest's statistics
func (h *TreeHandler) RefreshStatistics(w http.ResponseWriter, r *http.Request) {
	if err := h.statistics.UpdateAllNodesStatistic(r.Context()); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}
