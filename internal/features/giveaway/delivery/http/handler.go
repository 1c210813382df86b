package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"mutual-giveaway-backend/internal/features/giveaway/models"
	"mutual-giveaway-backend/internal/features/giveaway/repository"
	"mutual-giveaway-backend/internal/features/giveaway/service"
)

// Handler exposes the giveaway dashboard API.
type Handler struct {
	service service.GiveawayService
}

func NewHandler(svc service.GiveawayService) *Handler {
	return &Handler{service: svc}
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	giveaways := router.Group("/giveaways")
	{
		giveaways.POST("", h.createRequest)
		giveaways.GET("/pending", h.listPending)
		giveaways.GET("/scheduled", h.listScheduled)
		giveaways.GET("/:id", h.getByID)
		giveaways.POST("/:id/approve", h.approve)
		giveaways.POST("/:id/deny", h.deny)
		giveaways.POST("/:id/cancel", h.cancel)
	}
	router.GET("/pings/status", h.pingStatus)
	router.GET("/stats/performance", h.performanceStats)
}

func (h *Handler) createRequest(c *gin.Context) {
	var input models.GiveawayCreate
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	g, err := h.service.CreateRequest(c.Request.Context(), input)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create giveaway request"})
		return
	}
	c.JSON(http.StatusCreated, g)
}

func (h *Handler) listPending(c *gin.Context) {
	h.listByStatus(c, models.GiveawayStatusPending)
}

func (h *Handler) listScheduled(c *gin.Context) {
	h.listByStatus(c, models.GiveawayStatusApproved)
}

func (h *Handler) listByStatus(c *gin.Context, status models.GiveawayStatus) {
	giveaways, err := h.service.ListByStatus(c.Request.Context(), status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list giveaways"})
		return
	}
	if giveaways == nil {
		giveaways = []*models.GiveawayRequest{}
	}
	c.JSON(http.StatusOK, giveaways)
}

func (h *Handler) getByID(c *gin.Context) {
	id, ok := h.giveawayID(c)
	if !ok {
		return
	}

	g, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

type approveRequest struct {
	Message string `json:"message"`
}

func (h *Handler) approve(c *gin.Context) {
	id, ok := h.giveawayID(c)
	if !ok {
		return
	}

	var input approveRequest
	if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	g, err := h.service.Approve(c.Request.Context(), id, input.Message)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

type denyRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func (h *Handler) deny(c *gin.Context) {
	id, ok := h.giveawayID(c)
	if !ok {
		return
	}

	var input denyRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	g, err := h.service.Deny(c.Request.Context(), id, input.Reason)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *Handler) cancel(c *gin.Context) {
	id, ok := h.giveawayID(c)
	if !ok {
		return
	}

	cancelled, err := h.service.Cancel(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": cancelled})
}

func (h *Handler) pingStatus(c *gin.Context) {
	ledger, err := h.service.PingStatus(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read ping status"})
		return
	}
	c.JSON(http.StatusOK, ledger)
}

func (h *Handler) performanceStats(c *gin.Context) {
	stats, err := h.service.PerformanceStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) giveawayID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid giveaway id"})
		return 0, false
	}
	return id, true
}

func (h *Handler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrGiveawayNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "giveaway not found"})
	case errors.Is(err, models.ErrNotPending):
		c.JSON(http.StatusConflict, gin.H{"error": "giveaway request is not pending"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
