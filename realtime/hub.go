// Package realtime is the server side of the dashboard push channel.
package realtime

import (
	"context"
	"errors"
	"time"

	"coconut-supply/events"

	"github.com/rs/zerolog"
)

const sendBuffer = 64

var ErrHubStopped = errors.New("realtime hub stopped")

type joinRequest struct {
	client *Client
	rooms  []string
}

// Hub tracks connected dashboards by room and fans events out to them.
// All room state is owned by the Run goroutine.
type Hub struct {
	rooms      map[string]map[*Client]bool
	clients    map[*Client][]string
	register   chan *Client
	unregister chan *Client
	join       chan joinRequest
	broadcast  chan events.Event
	done       chan struct{}
	log        zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		clients:    make(map[*Client][]string),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		join:       make(chan joinRequest),
		broadcast:  make(chan events.Event, 256),
		done:       make(chan struct{}),
		log:        log.With().Str("component", "hub").Logger(),
	}
}

// Run processes hub traffic until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return

		case c := <-h.register:
			h.clients[c] = nil

		case c := <-h.unregister:
			h.drop(c)

		case req := <-h.join:
			if _, ok := h.clients[req.client]; !ok {
				continue
			}
			for _, room := range req.rooms {
				if h.rooms[room] == nil {
					h.rooms[room] = make(map[*Client]bool)
				}
				h.rooms[room][req.client] = true
			}
			h.clients[req.client] = append(h.clients[req.client], req.rooms...)
			h.log.Debug().Strs("rooms", req.rooms).Msg("client joined")
			h.deliver(req.client, events.Event{Name: events.Joined, Payload: req.rooms})

		case e := <-h.broadcast:
			h.fanOut(e)
		}
	}
}

// Publish queues e for delivery to its rooms.
func (h *Hub) Publish(ctx context.Context, e events.Event) error {
	select {
	case h.broadcast <- e:
		return nil
	case <-h.done:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) fanOut(e events.Event) {
	data, err := e.Encode(time.Now())
	if err != nil {
		h.log.Error().Err(err).Str("event", e.Name).Msg("encode event")
		return
	}
	seen := make(map[*Client]bool)
	for _, room := range e.Rooms {
		for c := range h.rooms[room] {
			if seen[c] {
				continue
			}
			seen[c] = true
			h.send(c, data)
		}
	}
	h.log.Debug().Str("event", e.Name).Strs("rooms", e.Rooms).Int("recipients", len(seen)).Msg("event delivered")
}

func (h *Hub) deliver(c *Client, e events.Event) {
	data, err := e.Encode(time.Now())
	if err != nil {
		return
	}
	h.send(c, data)
}

func (h *Hub) send(c *Client, data []byte) {
	select {
	case c.send <- data:
	default:
		h.log.Warn().Uint("user_id", c.claims.UserID).Msg("client too slow, dropping")
		h.drop(c)
	}
}

func (h *Hub) drop(c *Client) {
	rooms, ok := h.clients[c]
	if !ok {
		return
	}
	for _, room := range rooms {
		delete(h.rooms[room], c)
		if len(h.rooms[room]) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(h.clients, c)
	close(c.send)
}
