package dashboard

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openslot/booking-api/internal/handler"
	"github.com/openslot/booking-api/internal/service/dashboard"
	"github.com/openslot/booking-api/pkg/httputil"
)

type Handler struct {
	service *dashboard.Service
}

func NewHandler(service *dashboard.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/dashboard", h.GetDashboard)
}

func (h *Handler) GetDashboard(c *gin.Context) {
	actorID, ok := handler.ActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "missing identity"})
		return
	}

	view, err := h.service.GetDashboard(c.Request.Context(), actorID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, view)
}
