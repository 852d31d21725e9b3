package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dorm-occupancy-backend/internal/model"
	"dorm-occupancy-backend/internal/stats"
)

// GetStats handles GET /api/stats: the basic aggregate block plus the
// five most recent exits.
func (h *Handler) GetStats(c *gin.Context) {
	workers, rooms, dorms, err := h.dispatcher.Snapshot(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	now := time.Now().UTC()
	c.JSON(http.StatusOK, gin.H{
		"stats":       stats.Basic(workers, rooms, dorms, now),
		"recentExits": stats.RecentExits(workers, 5),
	})
}

// GetEnhancedStats handles GET /api/stats/enhanced.
func (h *Handler) GetEnhancedStats(c *gin.Context) {
	workers, rooms, _, err := h.dispatcher.Snapshot(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats.Enhanced(workers, rooms, time.Now().UTC()))
}

// GetFilteredStats handles GET /api/stats/filtered with date_range,
// start_date, end_date, status, gender and age_range query
// parameters.
func (h *Handler) GetFilteredStats(c *gin.Context) {
	filters, err := filtersFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	workers, rooms, dorms, err := h.dispatcher.Snapshot(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	basic, exits := stats.Filtered(workers, rooms, dorms, filters, time.Now().UTC())
	c.JSON(http.StatusOK, gin.H{"stats": basic, "recentExits": exits})
}

func filtersFromQuery(c *gin.Context) (stats.Filters, error) {
	f := stats.Filters{
		DateRange: c.Query("date_range"),
		Status:    c.Query("status"),
		Gender:    c.Query("gender"),
		AgeRange:  c.Query("age_range"),
	}

	if raw := c.Query("start_date"); raw != "" {
		t, err := model.ParseTimeString(raw)
		if err != nil {
			return stats.Filters{}, err
		}
		f.StartDate = &t
	}
	if raw := c.Query("end_date"); raw != "" {
		t, err := model.ParseTimeString(raw)
		if err != nil {
			return stats.Filters{}, err
		}
		f.EndDate = &t
	}
	return f, nil
}
