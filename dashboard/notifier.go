package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"coconut-supply/events"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = time.Second
)

// EventHandler receives an event's raw payload. Handlers run on the
// notifier's goroutine in arrival order and should only schedule work.
type EventHandler func(payload json.RawMessage)

// Notifier holds the push connection of one session and dispatches named
// events to registered handlers. A dropped connection is retried up to
// MaxAttempts times, RetryDelay apart.
type Notifier struct {
	MaxAttempts int
	RetryDelay  time.Duration

	url      string
	identity Identity
	dialer   *websocket.Dialer
	log      zerolog.Logger

	mu       sync.Mutex
	handlers map[string][]EventHandler
	conn     *websocket.Conn

	done       chan struct{}
	closeOnce  sync.Once
	joined     chan struct{}
	joinedOnce sync.Once
}

func (c *Client) NewNotifier(s *Session) (*Notifier, error) {
	id, err := s.Require()
	if err != nil {
		return nil, err
	}
	return &Notifier{
		MaxAttempts: DefaultMaxAttempts,
		RetryDelay:  DefaultRetryDelay,
		url:         c.wsURL(id.Token),
		identity:    id,
		dialer:      &websocket.Dialer{HandshakeTimeout: c.loginTimeout},
		log:         c.log.With().Str("component", "notifier").Logger(),
		handlers:    make(map[string][]EventHandler),
		done:        make(chan struct{}),
		joined:      make(chan struct{}),
	}, nil
}

// On registers h for event. Register before Run.
func (n *Notifier) On(event string, h EventHandler) {
	n.mu.Lock()
	n.handlers[event] = append(n.handlers[event], h)
	n.mu.Unlock()
}

// Joined is closed once the server has confirmed room membership the first
// time.
func (n *Notifier) Joined() <-chan struct{} { return n.joined }

// Run connects and dispatches until Close or ctx ends, which return nil. It
// returns an error once the retries are used up.
func (n *Notifier) Run(ctx context.Context) error {
	failures := 0
	for {
		joined, err := n.connect(ctx)
		if n.stopped(ctx) {
			return nil
		}
		if joined {
			failures = 0
		}
		failures++
		if failures > n.MaxAttempts {
			n.log.Error().Err(err).Int("attempts", n.MaxAttempts).Msg("live notifications unavailable")
			return fmt.Errorf("push channel unavailable after %d retries: %w", n.MaxAttempts, err)
		}
		n.log.Warn().Err(err).Int("retry", failures).Msg("push channel lost, reconnecting")

		timer := time.NewTimer(n.RetryDelay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-n.done:
			timer.Stop()
			return nil
		}
	}
}

func (n *Notifier) stopped(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	select {
	case <-n.done:
		return true
	default:
		return false
	}
}

// connect runs one connection until it fails. joined reports whether the
// server acknowledged the room request on it.
func (n *Notifier) connect(ctx context.Context) (joined bool, err error) {
	conn, _, err := n.dialer.DialContext(ctx, n.url, nil)
	if err != nil {
		return false, err
	}

	n.mu.Lock()
	if n.stopped(ctx) {
		n.mu.Unlock()
		conn.Close()
		return false, nil
	}
	n.conn = conn
	n.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer func() {
		stop()
		n.mu.Lock()
		n.conn = nil
		n.mu.Unlock()
		conn.Close()
	}()

	payload, err := json.Marshal(events.JoinRequest{UserID: n.identity.ID, Role: n.identity.Role})
	if err != nil {
		return false, err
	}
	if err := conn.WriteJSON(events.Envelope{Type: events.JoinRoom, Payload: payload, Timestamp: time.Now()}); err != nil {
		return false, err
	}

	for {
		var env events.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				err = errors.New("server closed the push channel")
			}
			return joined, err
		}
		if env.Type == events.Joined {
			joined = true
			n.joinedOnce.Do(func() { close(n.joined) })
			n.log.Debug().Uint("user_id", n.identity.ID).Msg("joined rooms")
			continue
		}
		n.dispatch(env)
	}
}

func (n *Notifier) dispatch(env events.Envelope) {
	n.mu.Lock()
	hs := append([]EventHandler(nil), n.handlers[env.Type]...)
	n.mu.Unlock()
	if len(hs) == 0 {
		n.log.Debug().Str("event", env.Type).Msg("unhandled event")
		return
	}
	for _, h := range hs {
		h(env.Payload)
	}
}

// Close tears the connection down and stops Run.
func (n *Notifier) Close() error {
	var err error
	n.closeOnce.Do(func() {
		close(n.done)
		n.mu.Lock()
		if n.conn != nil {
			err = n.conn.Close()
		}
		n.mu.Unlock()
	})
	return err
}
