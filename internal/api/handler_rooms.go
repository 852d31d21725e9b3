package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dorm-occupancy-backend/internal/model"
)

// roomResponse is a room together with the active workers assigned to
// it.
type roomResponse struct {
	model.Room
	Occupants []model.Worker `json:"occupants"`
}

// GetRooms handles GET /api/rooms, optionally narrowed with
// ?dorm_id=.
func (h *Handler) GetRooms(c *gin.Context) {
	rooms, err := h.dispatcher.ListRooms(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	workers, err := h.dispatcher.ListWorkers(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	dormID := c.Query("dorm_id")
	byRoom := make(map[string][]model.Worker)
	for _, w := range workers {
		if w.Status == model.StatusActive {
			byRoom[w.RoomID] = append(byRoom[w.RoomID], w)
		}
	}

	response := make([]roomResponse, 0, len(rooms))
	for _, r := range rooms {
		if dormID != "" && r.DormID != dormID {
			continue
		}
		occupants := byRoom[r.ID]
		if occupants == nil {
			occupants = []model.Worker{}
		}
		response = append(response, roomResponse{Room: r, Occupants: occupants})
	}
	c.JSON(http.StatusOK, gin.H{"rooms": response, "total": len(response)})
}

// GetDorms handles GET /api/dorms.
func (h *Handler) GetDorms(c *gin.Context) {
	dorms, err := h.dispatcher.ListDorms(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dorms)
}
