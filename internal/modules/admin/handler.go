package admin

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

// RegisterRoutes expects a group already gated by AdminOnly.
func (h *Handler) RegisterRoutes(admin *gin.RouterGroup) {
	admin.GET("/stats", h.GetStats)
	admin.GET("/users", h.GetUsers)
	admin.GET("/trains/:id/manifest", h.GetManifest)
}

// GetStats returns platform counters.
// @Summary		Platform statistics
// @Tags		Admin
// @Security	BearerAuth
// @Success		200	{object}	map[string]interface{}
// @Router		/admin/stats [GET]
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.service.GetStatistics(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, stats)
}

// GetUsers lists users.
// @Summary		List users
// @Tags		Admin
// @Security	BearerAuth
// @Param		role	query	string	false	"client or admin"
// @Param		q		query	string	false	"username/email contains"
// @Param		page	query	int		false	"page, default 1"
// @Param		limit	query	int		false	"page size, default 20"
// @Router		/admin/users [GET]
func (h *Handler) GetUsers(c *gin.Context) {
	var filter UserListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query", err.Error())
		return
	}
	res, err := h.service.ListUsers(c.Request.Context(), filter)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) GetManifest(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.FromError(c, domain.Invalid("train_id", "must be a positive integer"))
		return
	}
	res, err := h.service.Manifest(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}
