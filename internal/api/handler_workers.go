package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dorm-occupancy-backend/internal/model"
)

// GetWorkers handles GET /api/workers.
func (h *Handler) GetWorkers(c *gin.Context) {
	workers, err := h.dispatcher.ListWorkers(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"workers": workers, "total": len(workers)})
}

// CreateWorker handles POST /api/workers (check-in).
func (h *Handler) CreateWorker(c *gin.Context) {
	var req model.CreateWorkerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.dispatcher.CreateWorker(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// UpdateWorker handles PUT /api/workers/:id — room transfers,
// checkout and reactivation included.
func (h *Handler) UpdateWorker(c *gin.Context) {
	var upd model.UpdateWorkerRequest
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.dispatcher.UpdateWorker(c.Request.Context(), c.Param("id"), upd); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteWorker handles DELETE /api/workers/:id.
func (h *Handler) DeleteWorker(c *gin.Context) {
	if err := h.dispatcher.DeleteWorker(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RepairWorkers handles POST /api/workers/repair: reassigns workers
// whose room reference is dangling and reports per-worker outcomes.
func (h *Handler) RepairWorkers(c *gin.Context) {
	report, err := h.dispatcher.FixWorkerRoomData(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
