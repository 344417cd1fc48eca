package handlers

import (
	"net/http"
	"time"

	"network/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Notifications upgrades to a websocket that receives the caller's events
// until the client goes away.
func (h *Handler) Notifications(c *gin.Context) {
	who := identity(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.L.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	// greet before registering so this is the only writer
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"connected"}`)); err != nil {
		return
	}
	h.WS.Add(who.UserID, conn)
	defer h.WS.Remove(who.UserID, conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
