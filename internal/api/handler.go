package api

import (
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"dorm-occupancy-backend/internal/hybrid"
	"dorm-occupancy-backend/internal/retry"
	"dorm-occupancy-backend/internal/store"
)

// Handler holds shared dependencies for API handlers. db is the
// remote store handle used by the push-subscription endpoints; it is
// nil when the remote store failed to initialize.
type Handler struct {
	dispatcher *hybrid.Dispatcher
	db         *gorm.DB
	webpush    *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(d *hybrid.Dispatcher, db *gorm.DB, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		dispatcher: d,
		db:         db,
		webpush:    webpushOptions,
	}
}

// writeError maps the store error taxonomy onto HTTP statuses.
// Validation and not-found failures carry their specific message;
// everything else is translated to an operator-facing template.
func writeError(c *gin.Context, err error) {
	switch {
	case store.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": retry.UserMessage(err)})
	case store.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": retry.UserMessage(err)})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": retry.UserMessage(err)})
	}
}
