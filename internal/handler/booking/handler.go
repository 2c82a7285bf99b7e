package booking

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/openslot/booking-api/internal/handler"
	"github.com/openslot/booking-api/internal/model"
	"github.com/openslot/booking-api/internal/service/booking"
	"github.com/openslot/booking-api/pkg/httputil"
)

type Handler struct {
	service *booking.Service
}

func NewHandler(service *booking.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/bookings", h.CreateBooking)
	rg.GET("/bookings", h.ListBookings)
	rg.GET("/bookings/:id", h.GetBooking)
	rg.PATCH("/bookings/:id/status", h.TransitionStatus)
	rg.GET("/providers/:id/commitments", h.ListCommitments)
}

func (h *Handler) CreateBooking(c *gin.Context) {
	actorID, ok := handler.ActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "missing identity"})
		return
	}

	var req model.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}

	serviceID, err := uuid.Parse(req.ServiceID)
	if err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}

	booked, err := h.service.CreateBooking(c.Request.Context(), actorID, serviceID, req.StartTime)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, booked)
}

func (h *Handler) GetBooking(c *gin.Context) {
	actorID, ok := handler.ActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "missing identity"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}

	booked, err := h.service.GetBooking(c.Request.Context(), actorID, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, booked)
}

func (h *Handler) ListBookings(c *gin.Context) {
	actorID, ok := handler.ActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "missing identity"})
		return
	}

	filters := &model.BookingFilters{
		Role: model.BookingRole(c.DefaultQuery("role", string(model.BookingRoleProvider))),
	}

	if status := c.Query("status"); status != "" {
		bs := model.BookingStatus(status)
		if !bs.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid status filter"})
			return
		}
		filters.Status = bs
	}

	if err := c.ShouldBindQuery(&filters.Pagination); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}

	bookings, total, err := h.service.ListBookings(c.Request.Context(), actorID, filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithPagination(c, bookings, filters.Page, filters.PerPage, total)
}

func (h *Handler) TransitionStatus(c *gin.Context) {
	actorID, ok := handler.ActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "missing identity"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}

	var req model.TransitionBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}

	booked, err := h.service.TransitionStatus(c.Request.Context(), actorID, id, req.Status)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, booked)
}

// ListCommitments serves the provider's calendar: active bookings
// intersecting the requested window, ordered by start time.
func (h *Handler) ListCommitments(c *gin.Context) {
	providerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}

	windowStart, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid or missing 'from' timestamp"})
		return
	}

	windowEnd, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid or missing 'to' timestamp"})
		return
	}

	if !windowStart.Before(windowEnd) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "'from' must be before 'to'"})
		return
	}

	commitments, err := h.service.ListCommitments(c.Request.Context(), providerID, windowStart, windowEnd)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, commitments)
}
