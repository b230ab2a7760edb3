package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainConn "github.com/magnusfroste/auto-sense-sub000/internal/domain/connection"
	"github.com/magnusfroste/auto-sense-sub000/internal/middleware"
	"github.com/magnusfroste/auto-sense-sub000/internal/usecase/connections"
	"github.com/magnusfroste/auto-sense-sub000/pkg/utils"
)

type ConnectionHandler struct {
	service *connections.Service
}

func NewConnectionHandler(service *connections.Service) *ConnectionHandler {
	return &ConnectionHandler{service: service}
}

func (h *ConnectionHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/connections")
	{
		group.POST("", h.RegisterConnection)
		group.GET("", h.ListConnections)
		group.GET("/:id/status", h.GetStatus)
		group.DELETE("/:id", h.Disconnect)
	}
}

func (h *ConnectionHandler) RegisterConnection(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req connections.RegisterConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.RegisterConnection(c.Request.Context(), userID, &req)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Connection registered successfully", result)
}

func (h *ConnectionHandler) ListConnections(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	result, err := h.service.ListConnections(c.Request.Context(), userID)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Connections retrieved successfully", result)
}

func (h *ConnectionHandler) GetStatus(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	connectionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid connection ID")
		return
	}

	result, err := h.service.GetStatus(c.Request.Context(), userID, connectionID)
	if err != nil {
		utils.ErrorResponse(c, statusForConnectionError(err), err.Error())
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Connection status retrieved successfully", result)
}

func (h *ConnectionHandler) Disconnect(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	connectionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid connection ID")
		return
	}

	if err := h.service.Disconnect(c.Request.Context(), userID, connectionID); err != nil {
		utils.ErrorResponse(c, statusForConnectionError(err), err.Error())
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Connection disconnected successfully", nil)
}

func statusForConnectionError(err error) int {
	if errors.Is(err, domainConn.ErrConnectionNotFound) {
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}
