package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Pages are served by this process; the socket only carries reload hints.
		return true
	},
}

func RefreshHandler(hub *RefreshHub) gin.HandlerFunc {
	return func(c *gin.Context) {
		if hub == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "realtime not available"})
			return
		}
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		client := newRefreshClient(hub, conn)
		if !hub.join(client) {
			conn.Close()
			return
		}

		go client.writePump()
		client.readPump()
	}
}
