package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"coconut-supply/checkout"
	"coconut-supply/events"
	"coconut-supply/gateway"
	"coconut-supply/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Deps are the collaborators every handler shares.
type Deps struct {
	DB       *gorm.DB
	Events   events.Publisher
	Gateway  gateway.Provider
	Checkout *checkout.Service
	Log      zerolog.Logger
	Secret   []byte
	TokenTTL time.Duration
}

type Handler struct {
	db       *gorm.DB
	events   events.Publisher
	gateway  gateway.Provider
	checkout *checkout.Service
	log      zerolog.Logger
	secret   []byte
	tokenTTL time.Duration
}

func New(d Deps) *Handler {
	if d.Events == nil {
		d.Events = events.Discard{}
	}
	if d.TokenTTL == 0 {
		d.TokenTTL = 24 * time.Hour
	}
	return &Handler{
		db:       d.DB,
		events:   d.Events,
		gateway:  d.Gateway,
		checkout: d.Checkout,
		log:      d.Log,
		secret:   d.Secret,
		tokenTTL: d.TokenTTL,
	}
}

// respond writes the {"success": true, "data": ...} envelope the vendor and
// driver dashboards read.
func respond(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": false, "error": msg})
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		fail(c, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// loadOrder fetches an order or writes 404.
func (h *Handler) loadOrder(c *gin.Context, id uint) (*models.Order, bool) {
	var order models.Order
	err := h.db.WithContext(c.Request.Context()).First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		fail(c, http.StatusNotFound, "Order not found")
		return nil, false
	}
	if err != nil {
		h.log.Error().Err(err).Uint("order_id", id).Msg("load order")
		fail(c, http.StatusInternalServerError, "Failed to load order")
		return nil, false
	}
	return &order, true
}

func (h *Handler) publish(ctx context.Context, e events.Event) {
	if err := h.events.Publish(ctx, e); err != nil {
		h.log.Warn().Err(err).Str("event", e.Name).Msg("publish event")
	}
}
