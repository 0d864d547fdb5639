package handler

import (
	"github.com/campus-venues/service-booking/internal/application"
	bookingDomain "github.com/campus-venues/service-booking/internal/domain/booking"
	"github.com/campus-venues/service-booking/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// StageDecisionRequest is the body of an administrative stage decision.
type StageDecisionRequest struct {
	Outcome string `json:"outcome" binding:"required,oneof=APPROVED REJECTED"`
	Note    string `json:"note" binding:"max=500"`
}

// AdminBookingHandler handles approver decisions submitted over HTTP.
type AdminBookingHandler struct {
	service *application.BookingService
}

// NewAdminBookingHandler creates a new AdminBookingHandler.
func NewAdminBookingHandler(service *application.BookingService) *AdminBookingHandler {
	return &AdminBookingHandler{service: service}
}

// RegisterRoutes registers admin booking routes.
func (h *AdminBookingHandler) RegisterRoutes(r *gin.RouterGroup) {
	admin := r.Group("/api/v1/admin")
	{
		admin.POST("/bookings/:id/stages/:stage/decision", h.DecideStage)
	}
}

// DecideStage handles POST /api/v1/admin/bookings/:id/stages/:stage/decision.
func (h *AdminBookingHandler) DecideStage(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	stage, err := bookingDomain.ParseStage(c.Param("stage"))
	if err != nil {
		response.Error(c, err)
		return
	}

	var req StageDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.DecideStage(c.Request.Context(), bookingID, stage, bookingDomain.Outcome(req.Outcome), req.Note)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
