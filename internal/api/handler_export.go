package api

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dorm-occupancy-backend/internal/model"
	"dorm-occupancy-backend/internal/stats"
)

// ExportData handles GET /api/export. The filtered worker list plus
// its aggregate block is returned as JSON by default, or as a CSV
// attachment when format=csv.
func (h *Handler) ExportData(c *gin.Context) {
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

	now := time.Now().UTC()
	filtered := filters.Apply(workers, dorms, now)

	if c.Query("format") == "csv" {
		body, err := workersCSV(filtered)
		if err != nil {
			writeError(c, err)
			return
		}
		name := fmt.Sprintf("workers-%s.csv", now.Format("2006-01-02"))
		c.Header("Content-Disposition", "attachment; filename="+name)
		c.Data(http.StatusOK, "text/csv; charset=utf-8", body)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"exported_at": now,
		"stats":       stats.Basic(filtered, rooms, dorms, now),
		"workers":     filtered,
	})
}

func workersCSV(workers []model.Worker) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"id", "full_name", "national_id", "phone", "birth_year",
		"dorm_id", "room_id", "check_in_date", "check_out_date",
		"exit_reason", "status", "stay_duration_days",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, rec := range workers {
		checkOut := ""
		if rec.CheckOutDate != nil {
			checkOut = rec.CheckOutDate.Format(time.RFC3339)
		}
		row := []string{
			rec.ID,
			rec.FullName,
			rec.NationalID,
			rec.Phone,
			fmt.Sprintf("%d", rec.BirthYear),
			rec.DormID,
			rec.RoomID,
			rec.CheckInDate.Format(time.RFC3339),
			checkOut,
			rec.ExitReason,
			string(rec.Status),
			fmt.Sprintf("%d", rec.StayDurationDays),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
