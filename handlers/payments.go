package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"coconut-supply/checkout"
	"coconut-supply/gateway"
	"coconut-supply/ledger"
	"coconut-supply/middleware"
	"coconut-supply/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReconcileRequest records cash received against an order. BaseAmountPaid
// is the amount_paid the admin saw when entering Amount; if the stored value
// has moved on since, the request is refused with 409.
type ReconcileRequest struct {
	Amount         decimal.Decimal  `json:"amount"`
	BaseAmountPaid *decimal.Decimal `json:"base_amount_paid" binding:"required"`
}

type CheckoutSessionRequest struct {
	OrderID uint            `json:"order_id" binding:"required"`
	Amount  decimal.Decimal `json:"amount"`
}

type PayRequest struct {
	OrderID   uint            `json:"order_id" binding:"required"`
	Amount    decimal.Decimal `json:"amount"`
	SessionID string          `json:"session_id" binding:"required"`
}

type VerifyPaymentRequest struct {
	gateway.Receipt
	OrderID   uint   `json:"order_id" binding:"required"`
	SessionID string `json:"session_id" binding:"required"`
}

// AdminListPayments projects every order into its payment record
func (h *Handler) AdminListPayments(c *gin.Context) {
	var orders []models.Order
	query := h.db.WithContext(c.Request.Context()).Preload("Vendor")
	if status := c.Query("status"); status != "" {
		query = query.Where("payment_status = ?", status)
	}
	if err := query.Order("created_at desc").Find(&orders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load payments"})
		return
	}
	payments := make([]models.PaymentView, 0, len(orders))
	for _, o := range orders {
		payments = append(payments, models.PaymentViewOf(o))
	}
	c.JSON(http.StatusOK, payments)
}

// AdminReconcilePayment records a cash payment against an order
func (h *Handler) AdminReconcilePayment(c *gin.Context) {
	adminID := middleware.GetUserID(c)
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	var order models.Order
	status, msg := http.StatusOK, ""
	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Vendor").First(&order, orderID).Error; err != nil {
			return err
		}
		if order.PaymentMethod != models.PaymentCash {
			status, msg = http.StatusBadRequest, "Only cash orders can be reconciled manually"
			return nil
		}

		if !order.AmountPaid.Equal(*req.BaseAmountPaid) {
			status, msg = http.StatusConflict, "Payment record changed, refresh and try again"
			return nil
		}
		split, err := ledger.Apply(order.AmountPaid, order.AmountDue, req.Amount)
		if err != nil {
			status, msg = http.StatusBadRequest, err.Error()
			return nil
		}
		if err := ledger.CheckInvariant(order.TotalPrice, split.Paid, split.Due); err != nil {
			return err
		}

		if err := tx.Model(&order).Updates(map[string]interface{}{
			"amount_paid":    split.Paid,
			"amount_due":     split.Due,
			"payment_status": split.Status,
		}).Error; err != nil {
			return err
		}
		order.AmountPaid, order.AmountDue, order.PaymentStatus = split.Paid, split.Due, split.Status

		h.log.Info().
			Uint("order_id", order.ID).
			Uint("admin_id", adminID).
			Str("amount", req.Amount.StringFixed(2)).
			Str("due", split.Due.StringFixed(2)).
			Msg("cash payment recorded")
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		fail(c, http.StatusNotFound, "Payment record not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Uint("order_id", orderID).Msg("reconcile payment")
		fail(c, http.StatusInternalServerError, "Failed to update payment")
		return
	}
	if msg != "" {
		fail(c, status, msg)
		return
	}
	respond(c, http.StatusOK, models.PaymentViewOf(order))
}

// vendorPayable loads an order owned by the caller that can take an
// electronic payment of amount.
func (h *Handler) vendorPayable(c *gin.Context, orderID uint, amount decimal.Decimal) (*models.Order, bool) {
	order, ok := h.loadOrder(c, orderID)
	if !ok {
		return nil, false
	}
	if order.VendorID != middleware.GetUserID(c) {
		fail(c, http.StatusForbidden, "You can only pay for your own orders")
		return nil, false
	}
	if order.PaymentMethod != models.PaymentRazorpay {
		fail(c, http.StatusBadRequest, "Order is not payable online")
		return nil, false
	}
	if _, err := ledger.Apply(order.AmountPaid, order.AmountDue, amount); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return order, true
}

// VendorCreateCheckoutSession starts an electronic payment
func (h *Handler) VendorCreateCheckoutSession(c *gin.Context) {
	var req CheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	order, ok := h.vendorPayable(c, req.OrderID, req.Amount)
	if !ok {
		return
	}
	sess, err := h.checkout.Open(c.Request.Context(), order.ID, order.VendorID, req.Amount)
	if err != nil {
		h.log.Error().Err(err).Uint("order_id", order.ID).Msg("open checkout session")
		fail(c, http.StatusInternalServerError, "Failed to create checkout session")
		return
	}
	respond(c, http.StatusCreated, sess)
}

// VendorPay creates the gateway order the checkout widget opens with
func (h *Handler) VendorPay(c *gin.Context) {
	ctx := c.Request.Context()
	var req PayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	order, ok := h.vendorPayable(c, req.OrderID, req.Amount)
	if !ok {
		return
	}
	sess, err := h.checkout.Lookup(ctx, req.SessionID, order.ID, order.VendorID)
	if err != nil {
		fail(c, http.StatusBadRequest, checkoutMessage(err))
		return
	}
	if !sess.Amount.Equal(req.Amount) {
		fail(c, http.StatusBadRequest, "Amount does not match checkout session")
		return
	}

	gwOrder, err := h.gateway.CreateOrder(ctx, sess.Amount, "order_"+strconv.FormatUint(uint64(order.ID), 10), map[string]string{
		"order_id":   strconv.FormatUint(uint64(order.ID), 10),
		"session_id": sess.ID,
	})
	if err != nil {
		h.log.Error().Err(err).Str("provider", h.gateway.Name()).Uint("order_id", order.ID).Msg("create gateway order")
		fail(c, http.StatusBadGateway, "Payment gateway unavailable")
		return
	}
	if err := h.checkout.Bind(ctx, sess, gwOrder.ID); err != nil {
		h.log.Error().Err(err).Str("session_id", sess.ID).Msg("bind gateway order")
		fail(c, http.StatusInternalServerError, "Failed to start payment")
		return
	}

	respond(c, http.StatusOK, gin.H{
		"key":        h.gateway.KeyID(),
		"session_id": sess.ID,
		"order":      gwOrder,
	})
}

// VendorVerifyPayment checks the widget's receipt and settles the session
// amount against the order.
func (h *Handler) VendorVerifyPayment(c *gin.Context) {
	ctx := c.Request.Context()
	var req VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	order, ok := h.loadOrder(c, req.OrderID)
	if !ok {
		return
	}
	if order.VendorID != middleware.GetUserID(c) {
		fail(c, http.StatusForbidden, "You can only pay for your own orders")
		return
	}

	if err := h.gateway.Verify(req.Receipt); err != nil {
		h.log.Warn().Err(err).Uint("order_id", order.ID).Str("gateway_order_id", req.Receipt.OrderID).Msg("payment signature rejected")
		fail(c, http.StatusBadRequest, "Payment verification failed")
		return
	}
	sess, err := h.checkout.Redeemable(ctx, req.SessionID, order.ID, order.VendorID, req.Receipt.OrderID)
	if err != nil {
		fail(c, http.StatusBadRequest, checkoutMessage(err))
		return
	}

	// The session is consumed last, inside the settlement transaction, so a
	// failed settlement leaves it usable for another verification.
	var overpaid, consumed bool
	var consumeErr error
	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(order, order.ID).Error; err != nil {
			return err
		}
		split, err := ledger.Apply(order.AmountPaid, order.AmountDue, sess.Amount)
		if err != nil {
			overpaid = true
			return err
		}
		if err := tx.Model(order).Updates(map[string]interface{}{
			"amount_paid":    split.Paid,
			"amount_due":     split.Due,
			"payment_status": split.Status,
		}).Error; err != nil {
			return err
		}
		if _, err := h.checkout.Consume(checkout.WithTx(ctx, tx), sess.ID, order.ID, order.VendorID, req.Receipt.OrderID); err != nil {
			consumeErr = err
			return err
		}
		consumed = true
		order.AmountPaid, order.AmountDue, order.PaymentStatus = split.Paid, split.Due, split.Status
		return nil
	})
	if err != nil && consumed {
		if rerr := h.checkout.Release(ctx, sess.ID); rerr != nil {
			h.log.Error().Err(rerr).Str("session_id", sess.ID).Msg("release checkout session")
		}
	}
	switch {
	case overpaid:
		h.log.Error().Err(err).Uint("order_id", order.ID).Str("session_id", sess.ID).Msg("verified payment exceeds amount due")
		fail(c, http.StatusConflict, err.Error())
		return
	case consumeErr != nil && isSessionError(consumeErr):
		fail(c, http.StatusBadRequest, checkoutMessage(consumeErr))
		return
	case err != nil:
		h.log.Error().Err(err).Uint("order_id", order.ID).Str("session_id", sess.ID).Msg("settle payment")
		fail(c, http.StatusInternalServerError, "Failed to record payment")
		return
	}

	h.log.Info().
		Uint("order_id", order.ID).
		Str("payment_id", req.Receipt.PaymentID).
		Str("amount", sess.Amount.StringFixed(2)).
		Msg("electronic payment verified")
	respond(c, http.StatusOK, order)
}

func isSessionError(err error) bool {
	return errors.Is(err, checkout.ErrSessionNotFound) ||
		errors.Is(err, checkout.ErrSessionExpired) ||
		errors.Is(err, checkout.ErrSessionConsumed) ||
		errors.Is(err, checkout.ErrSessionMismatch)
}

func checkoutMessage(err error) string {
	switch {
	case errors.Is(err, checkout.ErrSessionNotFound):
		return "Checkout session not found"
	case errors.Is(err, checkout.ErrSessionExpired):
		return "Checkout session expired"
	case errors.Is(err, checkout.ErrSessionConsumed):
		return "Checkout session already used"
	case errors.Is(err, checkout.ErrSessionMismatch):
		return "Checkout session does not match this payment"
	}
	return "Invalid checkout session"
}
