package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainTrip "github.com/magnusfroste/auto-sense-sub000/internal/domain/trip"
	"github.com/magnusfroste/auto-sense-sub000/internal/middleware"
	"github.com/magnusfroste/auto-sense-sub000/internal/usecase/trips"
	"github.com/magnusfroste/auto-sense-sub000/pkg/utils"
)

type TripHandler struct {
	service *trips.Service
}

func NewTripHandler(service *trips.Service) *TripHandler {
	return &TripHandler{service: service}
}

func (h *TripHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/trips")
	{
		group.GET("", h.ListTrips)
		group.GET("/:id", h.GetTrip)
		group.PUT("/:id/classify", h.ClassifyTrip)
		group.DELETE("/:id", h.DeleteTrip)
	}
}

func (h *TripHandler) ListTrips(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req trips.ListTripsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid query parameters")
		return
	}

	result, err := h.service.ListTrips(c.Request.Context(), userID, &req)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Trips retrieved successfully", result)
}

func (h *TripHandler) GetTrip(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	tripID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid trip ID")
		return
	}

	result, err := h.service.GetTrip(c.Request.Context(), userID, tripID)
	if err != nil {
		utils.ErrorResponse(c, statusForTripError(err), err.Error())
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Trip retrieved successfully", result)
}

func (h *TripHandler) ClassifyTrip(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	tripID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid trip ID")
		return
	}

	var req trips.ClassifyTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.ClassifyTrip(c.Request.Context(), userID, tripID, &req)
	if err != nil {
		utils.ErrorResponse(c, statusForTripError(err), err.Error())
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Trip classified successfully", result)
}

func (h *TripHandler) DeleteTrip(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	tripID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid trip ID")
		return
	}

	if err := h.service.DeleteTrip(c.Request.Context(), userID, tripID); err != nil {
		utils.ErrorResponse(c, statusForTripError(err), err.Error())
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Trip deleted successfully", nil)
}

func statusForTripError(err error) int {
	if errors.Is(err, domainTrip.ErrTripNotFound) {
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}
