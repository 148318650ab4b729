package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"coconut-supply/events"
	"coconut-supply/ledger"
	"coconut-supply/middleware"
	"coconut-supply/models"
	"coconut-supply/statemachine"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type PlaceOrderRequest struct {
	CoconutID     uint                 `json:"coconut_id" binding:"required"`
	Quantity      int                  `json:"quantity" binding:"required,min=1"`
	PaymentMethod models.PaymentMethod `json:"payment_method" binding:"required"`
}

type AssignDeliveryRequest struct {
	OrderID  uint `json:"order_id" binding:"required"`
	DriverID uint `json:"driver_id" binding:"required"`
}

var errNotPending = errors.New("order is no longer pending")

// VendorPlaceOrder creates a pending order at the coconut's current rate
func (h *Handler) VendorPlaceOrder(c *gin.Context) {
	vendorID := middleware.GetUserID(c)
	ctx := c.Request.Context()

	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if !req.PaymentMethod.Valid() {
		fail(c, http.StatusBadRequest, "Invalid payment method. Must be: cash or razorpay")
		return
	}

	var coconut models.Coconut
	if err := h.db.WithContext(ctx).First(&coconut, req.CoconutID).Error; err != nil {
		fail(c, http.StatusNotFound, "Coconut not found")
		return
	}
	if !coconut.Available {
		fail(c, http.StatusBadRequest, "Coconut '"+coconut.Label()+"' is not available")
		return
	}

	total, err := ledger.Total(req.Quantity, coconut.Rate)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	split := ledger.Opening(total)

	order := models.Order{
		VendorID:      vendorID,
		CoconutID:     coconut.ID,
		Quantity:      req.Quantity,
		Rate:          coconut.Rate,
		TotalPrice:    total,
		Status:        models.StatusPending,
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: split.Status,
		AmountPaid:    split.Paid,
		AmountDue:     split.Due,
	}
	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		return tx.Create(&models.OrderStatusHistory{
			OrderID:   order.ID,
			ToStatus:  models.StatusPending,
			ChangedBy: vendorID,
			Note:      "Order placed by vendor",
		}).Error
	})
	if err != nil {
		h.log.Error().Err(err).Uint("vendor_id", vendorID).Msg("place order")
		fail(c, http.StatusInternalServerError, "Failed to place order")
		return
	}
	order.Coconut = &coconut

	h.log.Info().
		Uint("order_id", order.ID).
		Uint("vendor_id", vendorID).
		Str("total", total.StringFixed(2)).
		Str("payment_method", string(order.PaymentMethod)).
		Msg("order placed")
	h.publish(ctx, events.NewOrderPlaced(order, coconut.Label()))

	respond(c, http.StatusCreated, order)
}

// VendorListOrders returns the caller's own orders
func (h *Handler) VendorListOrders(c *gin.Context) {
	vendorID, ok := paramID(c, "vendorId")
	if !ok {
		return
	}
	if vendorID != middleware.GetUserID(c) {
		fail(c, http.StatusForbidden, "You can only view your own orders")
		return
	}
	orders := []models.Order{}
	if err := h.db.WithContext(c.Request.Context()).
		Preload("Coconut").Preload("Driver").
		Where("vendor_id = ?", vendorID).
		Order("created_at desc").
		Find(&orders).Error; err != nil {
		fail(c, http.StatusInternalServerError, "Failed to load orders")
		return
	}
	respond(c, http.StatusOK, orders)
}

// AdminListOrders returns every order with vendor, coconut and driver
func (h *Handler) AdminListOrders(c *gin.Context) {
	orders := []models.Order{}
	query := h.db.WithContext(c.Request.Context()).
		Preload("Vendor").Preload("Coconut").Preload("Driver")

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if vendorID := c.Query("vendor_id"); vendorID != "" {
		query = query.Where("vendor_id = ?", vendorID)
	}

	if err := query.Order("created_at desc").Find(&orders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load orders"})
		return
	}
	c.JSON(http.StatusOK, orders)
}

// AdminAssignDelivery hands a pending order to a driver (pending → assigned)
func (h *Handler) AdminAssignDelivery(c *gin.Context) {
	adminID := middleware.GetUserID(c)
	ctx := c.Request.Context()

	var req AssignDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	order, ok := h.loadOrder(c, req.OrderID)
	if !ok {
		return
	}

	var driver models.User
	if err := h.db.WithContext(ctx).First(&driver, req.DriverID).Error; err != nil {
		fail(c, http.StatusNotFound, "Driver not found")
		return
	}
	if driver.Role != models.RoleDriver {
		fail(c, http.StatusBadRequest, "User "+driver.Name+" is not a driver")
		return
	}

	if err := statemachine.CanTransition(order.Status, models.StatusAssigned, statemachine.ActorAdmin); err != nil {
		c.JSON(http.StatusConflict, gin.H{
			"success":        false,
			"error":          "Order is no longer pending",
			"current_status": order.Status,
			"reason":         err.Error(),
		})
		return
	}

	prevStatus := order.Status
	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Guard on the old status so two concurrent assignments cannot both win.
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, models.StatusPending).
			Updates(map[string]interface{}{
				"status":    models.StatusAssigned,
				"driver_id": driver.ID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errNotPending
		}
		return tx.Create(&models.OrderStatusHistory{
			OrderID:    order.ID,
			FromStatus: prevStatus,
			ToStatus:   models.StatusAssigned,
			ChangedBy:  adminID,
			Note:       fmt.Sprintf("Assigned to driver %s", driver.Name),
		}).Error
	})
	if errors.Is(err, errNotPending) {
		fail(c, http.StatusConflict, "Order is no longer pending")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Uint("order_id", order.ID).Msg("assign delivery")
		fail(c, http.StatusInternalServerError, "Failed to assign delivery")
		return
	}

	h.log.Info().Uint("order_id", order.ID).Uint("driver_id", driver.ID).Msg("delivery assigned")
	h.publish(ctx, events.NewDeliveryAssigned(order.ID, driver.ID))

	order.Status = models.StatusAssigned
	order.DriverID = &driver.ID
	order.Driver = &driver
	respond(c, http.StatusOK, order)
}
