package handler

import (
	"github.com/campus-venues/service-booking/internal/application"
	"github.com/campus-venues/service-booking/pkg/response"
	"github.com/gin-gonic/gin"
)

// VenueHandler serves the venue catalog.
type VenueHandler struct {
	service *application.BookingService
}

// NewVenueHandler creates a new VenueHandler.
func NewVenueHandler(service *application.BookingService) *VenueHandler {
	return &VenueHandler{service: service}
}

// RegisterRoutes registers venue routes.
func (h *VenueHandler) RegisterRoutes(r *gin.RouterGroup) {
	venues := r.Group("/api/v1/venues")
	{
		venues.GET("", h.ListVenues)
		venues.GET("/:id", h.GetVenue)
	}
}

// ListVenues handles GET /api/v1/venues.
func (h *VenueHandler) ListVenues(c *gin.Context) {
	response.Success(c, h.service.ListVenues(c.Request.Context()))
}

// GetVenue handles GET /api/v1/venues/:id.
func (h *VenueHandler) GetVenue(c *gin.Context) {
	result, err := h.service.GetVenue(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
