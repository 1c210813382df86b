package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mutual-giveaway-backend/internal/features/invite/models"
	"mutual-giveaway-backend/internal/features/invite/service"
)

// Handler exposes the invite stats endpoint used by the dashboard.
type Handler struct {
	service service.InviteService
}

func NewHandler(svc service.InviteService) *Handler {
	return &Handler{service: svc}
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/invites/stats", h.weeklyStats)
}

func (h *Handler) weeklyStats(c *gin.Context) {
	stats, err := h.service.WeeklyStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute invite stats"})
		return
	}
	if stats == nil {
		stats = []models.StaffInviteUsage{}
	}
	c.JSON(http.StatusOK, stats)
}
