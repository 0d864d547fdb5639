package handler

import (
	"strings"

	"github.com/campus-venues/service-booking/internal/application"
	"github.com/campus-venues/service-booking/internal/domain/venue"
	"github.com/campus-venues/service-booking/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// BookingHandler handles HTTP requests for the booking slot and history.
type BookingHandler struct {
	service *application.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service *application.BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

// RegisterRoutes registers all booking routes on the given router group.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup) {
	bookings := r.Group("/api/v1/bookings")
	{
		bookings.POST("", h.CreateBooking)
		bookings.GET("/current", h.GetCurrentBooking)
		bookings.DELETE("/current", h.CancelBooking)
		bookings.GET("/history", h.GetHistory)
	}
}

// CreateBooking handles POST /api/v1/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req application.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// GetCurrentBooking handles GET /api/v1/bookings/current.
// An empty slot is reported as null data.
func (h *BookingHandler) GetCurrentBooking(c *gin.Context) {
	response.Success(c, h.service.GetCurrentBooking(c.Request.Context()))
}

// CancelBooking handles DELETE /api/v1/bookings/current.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	result, err := h.service.CancelBooking(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetHistory handles GET /api/v1/bookings/history.
func (h *BookingHandler) GetHistory(c *gin.Context) {
	response.Success(c, h.service.GetHistory(c.Request.Context()))
}

// RegisterValidators installs the struct-level rules gin's binding tags
// cannot express. Call it once before serving requests.
func RegisterValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterStructValidation(validateCreateBooking, application.CreateBookingRequest{})
	}
}

// validateCreateBooking requires a custom venue name when "Other" is selected.
func validateCreateBooking(sl validator.StructLevel) {
	req := sl.Current().Interface().(application.CreateBookingRequest)
	if req.Venue == venue.OtherVenue && strings.TrimSpace(req.CustomVenue) == "" {
		sl.ReportError(req.CustomVenue, "CustomVenue", "customVenue", "required_if_other", "")
	}
}
