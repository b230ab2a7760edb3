package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/magnusfroste/auto-sense-sub000/internal/logger"
)

// Poller triggers polling runs; implemented by the trip orchestrator.
type Poller interface {
	PollAll(ctx context.Context) error
	PollOne(ctx context.Context, connectionID uuid.UUID) error
}

type PollRequest struct {
	Action       string     `json:"action" binding:"required,oneof=poll_all poll_single"`
	ConnectionID *uuid.UUID `json:"connection_id"`
}

type PollHandler struct {
	poller Poller
}

func NewPollHandler(poller Poller) *PollHandler {
	return &PollHandler{poller: poller}
}

func (h *PollHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/poll", h.TriggerPoll)
}

// TriggerPoll runs a polling cycle on demand. Any failure, including a
// malformed body, is reported as a 500 so the scheduler treats the whole
// invocation as failed and retries the full cycle.
func (h *PollHandler) TriggerPoll(c *gin.Context) {
	var req PollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": err.Error(),
		})
		return
	}

	var err error
	switch req.Action {
	case "poll_all":
		err = h.poller.PollAll(c.Request.Context())
	case "poll_single":
		if req.ConnectionID == nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal server error",
				"message": "connection_id is required for poll_single",
			})
			return
		}
		err = h.poller.PollOne(c.Request.Context(), *req.ConnectionID)
	}

	if err != nil {
		logger.Error("Poll trigger failed",
			zap.String("action", req.Action),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
