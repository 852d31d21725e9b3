package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dorm-occupancy-backend/internal/model"
)

type createUserRequest struct {
	Email       string `json:"email" binding:"required,email"`
	DisplayName string `json:"display_name"`
}

// GetUsers handles GET /api/users.
func (h *Handler) GetUsers(c *gin.Context) {
	users, err := h.dispatcher.ListAdmins(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "total": len(users)})
}

// CreateUser handles POST /api/users.
func (h *Handler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.dispatcher.CreateAdmin(c.Request.Context(), model.AdminUser{
		Email:       req.Email,
		Role:        "admin",
		DisplayName: req.DisplayName,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// DeleteUser handles DELETE /api/users/:id. The acting user, named by
// the X-Admin-ID header, cannot delete itself.
func (h *Handler) DeleteUser(c *gin.Context) {
	id := c.Param("id")
	if actor := c.GetHeader("X-Admin-ID"); actor != "" && actor == id {
		c.JSON(http.StatusConflict, gin.H{"error": "cannot delete the currently signed-in user"})
		return
	}

	if err := h.dispatcher.DeleteAdmin(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
