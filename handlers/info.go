package handlers

import (
	"net/http"

	"coconut-supply/models"
	"coconut-supply/statemachine"

	"github.com/gin-gonic/gin"
)

// GetStateMachineInfo returns the full state machine for informational purposes
func GetStateMachineInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"state_machine":   statemachine.GetAllTransitions(),
		"terminal_states": []models.OrderStatus{models.StatusDelivered},
		"description":     "Coconut Supply Order Lifecycle State Machine",
	})
}

func (h *Handler) Health(c *gin.Context) {
	status := "healthy"
	code := http.StatusOK
	if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":  status,
		"service": "Coconut Supply API",
		"gateway": h.gateway.Name(),
		"version": "1.0.0",
	})
}
