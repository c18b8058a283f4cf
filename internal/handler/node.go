package handler

import (
	"log/slog"
	"net/http"

	"arbor/internal/config"
	"arbor/internal/httputil"

	knowSvc "arbor/internal/domain/services/knowledge"
)

// NodeHandler handles HTTP requests for tree-node lifecycle operations
type NodeHandler struct {
	nodeService knowSvc.NodeService
	logger      *slog.Logger
}

// NewNodeHandler creates a new node handler
func NewNodeHandler(nodeService knowSvc.NodeService, logger *slog.Logger) *NodeHandler {
	return &NodeHandler{
		nodeService: nodeService,
		logger:      logger,
	}
}

// CreateNode creates a tree node and its backing dataset
func (h *NodeHandler) CreateNode(w http.ResponseWriter, r *http.Request) {
	var req knowSvc.CreateNodeRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	node, err := h.nodeService.CreateNode(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, node)
}

// UpdateNode renames/reconfigures a node and its backing dataset
func (h *NodeHandler) UpdateNode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "node id is required")
		return
	}

	var req knowSvc.UpdateNodeRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	node, err := h.nodeService.UpdateNode(r.Context(), id, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, node)
}

// DeleteNode removes a node's whole subtree and its datasets
func (h *NodeHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "node id is required")
		return
	}

	deletedID, err := h.nodeService.DeleteNode(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]string{"id": deletedID})
}

// DeleteNodes is the batch delete endpoint
func (h *NodeHandler) DeleteNodes(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.IDs) == 0 {
		httputil.RespondError(w, http.StatusBadRequest, "at least one node id is required")
		return
	}
	if len(req.IDs) > config.MaxDeleteBatchSize {
		httputil.RespondError(w, http.StatusBadRequest, "delete batch too large")
		return
	}

	deletedIDs, err := h.nodeService.DeleteNodes(r.Context(), req.IDs)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string][]string{"ids": deletedIDs})
}

// HealthCheck reports service liveness
func (h *NodeHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
