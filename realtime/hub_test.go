package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"coconut-supply/events"
	"coconut-supply/middleware"
	"coconut-supply/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("hub-secret")

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	return startHubWithLog(t, zerolog.Nop())
}

func startHubWithLog(t *testing.T, log zerolog.Logger) (*Hub, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	hub := NewHub(log)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	r := gin.New()
	r.GET("/ws", hub.ServeWS(secret))
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dialAs(t *testing.T, srv *httptest.Server, u models.User) *websocket.Conn {
	t.Helper()
	tok, err := middleware.GenerateToken(secret, &u, time.Hour)
	require.NoError(t, err)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + tok
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	payload, _ := json.Marshal(events.JoinRequest{UserID: u.ID, Role: u.Role})
	require.NoError(t, conn.WriteJSON(events.Envelope{Type: events.JoinRoom, Payload: payload}))
	env := readEnvelope(t, conn, 2*time.Second)
	require.Equal(t, events.Joined, env.Type)
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn, wait time.Duration) events.Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(wait))
	var env events.Envelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func TestHub_OrderPlacedReachesAdminAndOwner(t *testing.T) {
	hub, srv := startHub(t)
	admin := dialAs(t, srv, models.User{ID: 1, Role: models.RoleAdmin})
	owner := dialAs(t, srv, models.User{ID: 2, Role: models.RoleVendor})
	other := dialAs(t, srv, models.User{ID: 3, Role: models.RoleVendor})

	o := models.Order{ID: 10, VendorID: 2, Quantity: 3, TotalPrice: decimal.NewFromInt(60)}
	require.NoError(t, hub.Publish(context.Background(), events.NewOrderPlaced(o, "Tender (L)")))

	assert.Equal(t, events.OrderPlaced, readEnvelope(t, admin, 2*time.Second).Type)
	assert.Equal(t, events.OrderPlaced, readEnvelope(t, owner, 2*time.Second).Type)

	other.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err := other.ReadMessage()
	assert.Error(t, err, "other vendors must not see the event")
}

func TestHub_DeliveryAssignedInEmitOrder(t *testing.T) {
	hub, srv := startHub(t)
	driver := dialAs(t, srv, models.User{ID: 5, Role: models.RoleDriver})

	for _, id := range []uint{1, 2, 3} {
		require.NoError(t, hub.Publish(context.Background(), events.NewDeliveryAssigned(id, 5)))
	}
	for _, want := range []uint{1, 2, 3} {
		env := readEnvelope(t, driver, 2*time.Second)
		var p events.DeliveryAssignedPayload
		require.NoError(t, json.Unmarshal(env.Payload, &p))
		assert.Equal(t, want, p.OrderID)
	}
}

func TestHub_JoinMustMatchToken(t *testing.T) {
	_, srv := startHub(t)
	u := models.User{ID: 8, Role: models.RoleVendor}
	tok, err := middleware.GenerateToken(secret, &u, time.Hour)
	require.NoError(t, err)
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws?token="+tok, nil)
	require.NoError(t, err)
	defer conn.Close()

	payload, _ := json.Marshal(events.JoinRequest{UserID: 8, Role: models.RoleAdmin})
	require.NoError(t, conn.WriteJSON(events.Envelope{Type: events.JoinRoom, Payload: payload}))

	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err, "no join ack for a forged role")
}

func TestServeWS_RejectsMissingToken(t *testing.T) {
	_, srv := startHub(t)
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 401, resp.StatusCode)
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestHub_TagsLogsOnce(t *testing.T) {
	out := &lockedBuffer{}
	_, srv := startHubWithLog(t, zerolog.New(out).Level(zerolog.DebugLevel))
	dialAs(t, srv, models.User{ID: 4, Role: models.RoleAdmin})

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.NotEmpty(t, lines[0])
	for _, line := range lines {
		assert.Equal(t, 1, strings.Count(line, `"component":"hub"`), line)
	}
}
