package train

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"railbook/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/trains")
	{
		g.GET("", h.ListTrains)
		g.GET("/search", h.SearchTrains)
		g.GET("/:id", h.GetTrain)
		g.GET("/:id/fares", h.GetFares)
		g.GET("/:id/seats", h.GetSeats)
	}
}

// RegisterAdminRoutes expects rg to be behind JWTAuth and AdminOnly.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/trains")
	{
		g.POST("", h.CreateTrain)
		g.PUT("/:id", h.UpdateTrain)
		g.DELETE("/:id", h.DeleteTrain)
	}
}

func (h *Handler) ListTrains(c *gin.Context) {
	trains, err := h.service.ListTrains(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"trains": toResponses(trains)})
}

// SearchTrains godoc
// @Summary      Search trains by route and date
// @Tags         Trains
// @Produce      json
// @Param        source       query string true "Origin station"
// @Param        destination  query string true "Destination station"
// @Param        date         query string true "Travel date (YYYY-MM-DD)"
// @Router       /trains/search [get]
func (h *Handler) SearchTrains(c *gin.Context) {
	trains, err := h.service.SearchTrains(c.Request.Context(), c.Query("source"), c.Query("destination"), c.Query("date"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"trains": toResponses(trains)})
}

func (h *Handler) GetTrain(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	t, err := h.service.GetTrain(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"train": ToResponse(t)})
}

func (h *Handler) GetFares(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	q, err := h.service.Quote(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, q)
}

func (h *Handler) GetSeats(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	seats, err := h.service.OccupiedSeats(c.Request.Context(), id, c.DefaultQuery("class", "GENERAL"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, seats)
}

func (h *Handler) CreateTrain(c *gin.Context) {
	var req CreateTrainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", err.Error())
		return
	}
	t, err := h.service.CreateTrain(c.Request.Context(), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"train": ToResponse(t)})
}

func (h *Handler) UpdateTrain(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req UpdateTrainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", err.Error())
		return
	}
	t, err := h.service.UpdateTrain(c.Request.Context(), id, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"train": ToResponse(t)})
}

func (h *Handler) DeleteTrain(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteTrain(c.Request.Context(), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Train deleted"})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid train ID")
		return 0, false
	}
	return id, true
}
