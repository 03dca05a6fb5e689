package payment

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"railbook/internal/domain"
	"railbook/internal/pkg/response"
)

type attemptLister interface {
	ListByUser(ctx context.Context, userID int64) ([]domain.PaymentAttempt, error)
}

type Handler struct {
	attempts attemptLister
}

func NewHandler(attempts attemptLister) *Handler {
	return &Handler{attempts: attempts}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/payments", h.ListMyAttempts)
}

// ListMyAttempts godoc
// @Summary      List my payment attempts
// @Tags         Payments
// @Security     BearerAuth
// @Produce      json
// @Router       /payments [get]
func (h *Handler) ListMyAttempts(c *gin.Context) {
	attempts, err := h.attempts.ListByUser(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"payments": attempts})
}
