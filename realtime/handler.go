package realtime

import (
	"net/http"
	"strings"

	"coconut-supply/middleware"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The dashboard is served from a different origin than the API.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades an authenticated request into a hub client. The token is
// taken from the "token" query parameter or the Authorization header.
func (h *Hub) ServeWS(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			token = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		}
		claims, err := middleware.ParseToken(secret, token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			h.log.Warn().Err(err).Msg("websocket upgrade")
			return
		}

		client := &Client{
			hub:    h,
			conn:   conn,
			send:   make(chan []byte, sendBuffer),
			claims: claims,
			log:    h.log.With().Uint("user_id", claims.UserID).Str("role", string(claims.Role)).Logger(),
		}
		select {
		case h.register <- client:
		case <-h.done:
			conn.Close()
			return
		}

		go client.writePump()
		go client.readPump()
	}
}
