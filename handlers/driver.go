package handlers

import (
	"errors"
	"net/http"

	"coconut-supply/middleware"
	"coconut-supply/models"
	"coconut-supply/statemachine"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type UpdateStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

var errStatusChanged = errors.New("order status changed concurrently")

// DriverAssignedOrders lists the caller's deliveries. ?history=true returns
// delivered orders, otherwise the ones still in progress.
func (h *Handler) DriverAssignedOrders(c *gin.Context) {
	driverID := middleware.GetUserID(c)
	query := h.db.WithContext(c.Request.Context()).
		Preload("Vendor").Preload("Coconut").
		Where("driver_id = ?", driverID)

	if c.Query("history") == "true" {
		query = query.Where("status = ?", models.StatusDelivered)
	} else {
		query = query.Where("status <> ?", models.StatusDelivered)
	}

	orders := []models.Order{}
	if err := query.Order("updated_at desc").Find(&orders).Error; err != nil {
		fail(c, http.StatusInternalServerError, "Failed to load deliveries")
		return
	}
	respond(c, http.StatusOK, orders)
}

// DriverUpdateStatus advances a delivery one step:
// assigned → out-for-delivery → delivered
func (h *Handler) DriverUpdateStatus(c *gin.Context) {
	driverID := middleware.GetUserID(c)
	orderID, ok := paramID(c, "orderId")
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	order, ok := h.loadOrder(c, orderID)
	if !ok {
		return
	}
	if order.DriverID == nil || *order.DriverID != driverID {
		fail(c, http.StatusForbidden, "You are not the assigned driver for this order")
		return
	}

	if err := statemachine.CanTransition(order.Status, req.Status, statemachine.ActorDriver); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success":           false,
			"error":             "Invalid state transition",
			"current_status":    order.Status,
			"reason":            err.Error(),
			"valid_next_states": statemachine.ValidTransitionsFrom(order.Status),
		})
		return
	}

	prevStatus := order.Status
	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, prevStatus).
			Update("status", req.Status)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errStatusChanged
		}
		return tx.Create(&models.OrderStatusHistory{
			OrderID:    order.ID,
			FromStatus: prevStatus,
			ToStatus:   req.Status,
			ChangedBy:  driverID,
			Note:       statusNote(req.Status),
		}).Error
	})
	if errors.Is(err, errStatusChanged) {
		fail(c, http.StatusConflict, "Order status changed, refresh and try again")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Uint("order_id", order.ID).Msg("update delivery status")
		fail(c, http.StatusInternalServerError, "Failed to update status")
		return
	}

	h.log.Info().
		Uint("order_id", order.ID).
		Str("from", string(prevStatus)).
		Str("to", string(req.Status)).
		Msg("delivery status updated")

	order.Status = req.Status
	respond(c, http.StatusOK, order)
}

func statusNote(s models.OrderStatus) string {
	switch s {
	case models.StatusOutForDelivery:
		return "Driver left with the load"
	case models.StatusDelivered:
		return "Order delivered to vendor"
	}
	return ""
}
