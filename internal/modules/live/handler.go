package live

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"railbook/internal/domain"
	"railbook/internal/pkg/response"
)

type trainGetter interface {
	GetTrain(ctx context.Context, id int64) (*domain.Train, error)
}

type Handler struct {
	hub      *Hub
	trains   trainGetter
	upgrader websocket.Upgrader
	loggerf  func(format string, args ...interface{})
}

func NewHandler(hub *Hub, trains trainGetter, allowedOrigins []string, loggerf func(format string, args ...interface{})) *Handler {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &Handler{
		hub:     hub,
		trains:  trains,
		loggerf: loggerf,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed[origin]
			},
		},
	}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/trains/:id/live", h.Subscribe)
}

// Subscribe upgrades to a websocket, sends the current availability and then
// pushes every change until the client goes away.
func (h *Handler) Subscribe(c *gin.Context) {
	trainID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || trainID <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid train ID")
		return
	}
	train, err := h.trains.GetTrain(c.Request.Context(), trainID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.loggerf("level=warn msg=\"websocket upgrade failed\" train_id=%d err=%v", trainID, err)
		return
	}

	sub := h.hub.register(trainID, conn)
	defer h.hub.unregister(trainID, sub)

	if err := sub.write(Availability{TrainID: train.ID, Version: train.Version, AvailableSeats: train.AvailableSeats, TotalSeats: train.TotalSeats}); err != nil {
		return
	}

	// Clients only listen; reading drives ping/pong and close detection.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
