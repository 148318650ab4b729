package realtime

import (
	"encoding/json"
	"time"

	"coconut-supply/events"
	"coconut-supply/middleware"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMessage = 1024
)

// Client is one dashboard connection.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	claims *middleware.Claims
	log    zerolog.Logger
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// One frame per event keeps per-room ordering visible to the reader.
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessage)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn().Err(err).Msg("websocket read")
			}
			return
		}

		var env events.Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			c.log.Debug().Err(err).Msg("malformed client message")
			continue
		}
		c.handle(env)
	}
}

func (c *Client) handle(env events.Envelope) {
	switch env.Type {
	case events.JoinRoom:
		var req events.JoinRequest
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			c.log.Debug().Err(err).Msg("bad joinRoom payload")
			return
		}
		if req.UserID != c.claims.UserID || req.Role != c.claims.Role {
			c.log.Warn().Uint("asked_user", req.UserID).Str("asked_role", string(req.Role)).Msg("room request does not match token")
			return
		}
		select {
		case c.hub.join <- joinRequest{
			client: c,
			rooms:  []string{events.UserRoom(req.UserID), events.RoleRoom(req.Role)},
		}:
		case <-c.hub.done:
		}
	default:
		c.log.Debug().Str("type", env.Type).Msg("unknown client message")
	}
}
