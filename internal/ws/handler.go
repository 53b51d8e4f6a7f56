package ws

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = &websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler mounts the realtime relay on the HTTP server
type Handler struct {
	relay *Relay
}

func NewHandler(relay *Relay) *Handler {
	return &Handler{relay: relay}
}

// RegisterWSRoutes registers the websocket upgrade endpoint
func (h *Handler) RegisterWSRoutes(e *echo.Echo) {
	e.GET("/ws", h.HandleWS)
}

// HandleWS upgrades the request and serves the connection until it drops
func (h *Handler) HandleWS(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("Error upgrading to websocket: %v", err)
		return err
	}

	client := newClient(conn)
	go client.writer()
	h.relay.HandleConnection(client)
	return nil
}
