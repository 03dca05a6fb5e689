package booking

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"railbook/internal/domain"
	"railbook/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/bookings")
	{
		g.POST("", h.CreateBooking)
		g.GET("", h.ListMyBookings)
		g.GET("/:id", h.GetBooking)
		g.PUT("/:id/cancel", h.CancelBooking)
	}
}

func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/trains/:id/reconcile", h.ReconcileTrain)
	rg.POST("/reconcile", h.ReconcileAll)
}

// CreateBooking godoc
// @Summary      Book a seat
// @Tags         Bookings
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body body CreateBookingRequest true "Booking payload"
// @Router       /bookings [post]
func (h *Handler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", err.Error())
		return
	}

	b, err := h.service.CreateBooking(c.Request.Context(), c.GetInt64("user_id"), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"booking": ToResponse(b)})
}

func (h *Handler) ListMyBookings(c *gin.Context) {
	bookings, err := h.service.ListUserBookings(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	out := make([]BookingResponse, 0, len(bookings))
	for i := range bookings {
		out = append(out, ToResponse(&bookings[i]))
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": out})
}

func (h *Handler) GetBooking(c *gin.Context) {
	id, ok := parseID(c, "booking")
	if !ok {
		return
	}
	b, err := h.service.GetBooking(c.Request.Context(), id, c.GetInt64("user_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": ToResponse(b)})
}

// CancelBooking godoc
// @Summary      Cancel my booking
// @Tags         Bookings
// @Security     BearerAuth
// @Produce      json
// @Param        id path int true "Booking ID"
// @Router       /bookings/{id}/cancel [put]
func (h *Handler) CancelBooking(c *gin.Context) {
	id, ok := parseID(c, "booking")
	if !ok {
		return
	}
	b, err := h.service.CancelBooking(c.Request.Context(), id, c.GetInt64("user_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": ToResponse(b)})
}

func (h *Handler) ReconcileTrain(c *gin.Context) {
	id, ok := parseID(c, "train")
	if !ok {
		return
	}
	res, err := h.service.ReconcileTrain(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) ReconcileAll(c *gin.Context) {
	results, err := h.service.ReconcileAll(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"results": results})
}

func parseID(c *gin.Context, what string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.FromError(c, domain.Invalid(what+"_id", "must be a positive integer"))
		return 0, false
	}
	return id, true
}
