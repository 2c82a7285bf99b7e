package service

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/openslot/booking-api/internal/handler"
	"github.com/openslot/booking-api/internal/model"
	"github.com/openslot/booking-api/internal/service/catalog"
	"github.com/openslot/booking-api/pkg/httputil"
)

type Handler struct {
	catalog *catalog.Service
}

func NewHandler(catalog *catalog.Service) *Handler {
	return &Handler{catalog: catalog}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/services", h.CreateService)
	rg.GET("/services", h.ListServices)
	rg.GET("/services/:id", h.GetService)
	rg.PATCH("/services/:id", h.UpdateService)
	rg.DELETE("/services/:id", h.DeactivateService)
}

func (h *Handler) CreateService(c *gin.Context) {
	actorID, ok := handler.ActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "missing identity"})
		return
	}

	var req model.CreateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}

	svc, err := h.catalog.CreateService(c.Request.Context(), actorID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, svc)
}

func (h *Handler) GetService(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}

	svc, err := h.catalog.GetService(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, svc)
}

func (h *Handler) ListServices(c *gin.Context) {
	filters := &model.ServiceFilters{
		Search:   c.Query("search"),
		Category: c.Query("category"),
	}

	if v := c.Query("provider_id"); v != "" {
		providerID, err := uuid.Parse(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid provider ID"})
			return
		}
		filters.ProviderID = providerID
	}

	if v := c.Query("is_active"); v != "" {
		active := v == "true" || v == "1"
		filters.IsActive = &active
	}

	// Sort parameter like "price:asc" or "created_at:desc".
	if sort := c.Query("sort"); sort != "" {
		parts := strings.SplitN(sort, ":", 2)
		filters.SortField = parts[0]
		filters.SortDesc = len(parts) < 2 || parts[1] != "asc"
	}

	if err := c.ShouldBindQuery(&filters.Pagination); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}
	filters.Normalize()

	services, total, err := h.catalog.ListServices(c.Request.Context(), filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithPagination(c, services, filters.Page, filters.PerPage, total)
}

func (h *Handler) UpdateService(c *gin.Context) {
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

	var req model.UpdateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}

	svc, err := h.catalog.UpdateService(c.Request.Context(), actorID, id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, svc)
}

// DeactivateService soft-disables a service; it never deletes the row.
func (h *Handler) DeactivateService(c *gin.Context) {
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

	svc, err := h.catalog.DeactivateService(c.Request.Context(), actorID, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, svc)
}
