package handlers

import (
	"net/http"
	"strings"

	"coconut-supply/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type CoconutRequest struct {
	Variety   string          `json:"variety" binding:"required"`
	Size      string          `json:"size" binding:"required"`
	Rate      decimal.Decimal `json:"rate"`
	Available *bool           `json:"available"`
	ImageURL  string          `json:"image_url"`
}

func (r CoconutRequest) validate() string {
	if strings.TrimSpace(r.Variety) == "" || strings.TrimSpace(r.Size) == "" {
		return "Variety and size are required"
	}
	if !r.Rate.IsPositive() {
		return "Rate must be greater than zero"
	}
	return ""
}

// VendorListCoconuts returns the coconuts a vendor can order
func (h *Handler) VendorListCoconuts(c *gin.Context) {
	coconuts := []models.Coconut{}
	if err := h.db.WithContext(c.Request.Context()).
		Where("available = ?", true).Order("variety asc, size asc").Find(&coconuts).Error; err != nil {
		fail(c, http.StatusInternalServerError, "Failed to load coconuts")
		return
	}
	respond(c, http.StatusOK, coconuts)
}

// AdminListCoconuts returns the whole catalog, available or not
func (h *Handler) AdminListCoconuts(c *gin.Context) {
	coconuts := []models.Coconut{}
	if err := h.db.WithContext(c.Request.Context()).Order("id asc").Find(&coconuts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load coconuts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"coconuts": coconuts})
}

func (h *Handler) AdminCreateCoconut(c *gin.Context) {
	var req CoconutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if msg := req.validate(); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	coconut := models.Coconut{
		Variety:   strings.TrimSpace(req.Variety),
		Size:      strings.TrimSpace(req.Size),
		Rate:      req.Rate.Round(2),
		Available: req.Available == nil || *req.Available,
		ImageURL:  req.ImageURL,
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&coconut).Error; err != nil {
		h.log.Error().Err(err).Msg("create coconut")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create coconut"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"coconut": coconut})
}

func (h *Handler) AdminUpdateCoconut(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req CoconutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if msg := req.validate(); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	var coconut models.Coconut
	if err := h.db.WithContext(c.Request.Context()).First(&coconut, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Coconut not found"})
		return
	}
	updates := map[string]interface{}{
		"variety":   strings.TrimSpace(req.Variety),
		"size":      strings.TrimSpace(req.Size),
		"rate":      req.Rate.Round(2),
		"image_url": req.ImageURL,
	}
	if req.Available != nil {
		updates["available"] = *req.Available
	}
	if err := h.db.WithContext(c.Request.Context()).Model(&coconut).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update coconut"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"coconut": coconut})
}

// AdminDeleteCoconut removes a catalog entry. Existing orders keep their
// rate snapshot.
func (h *Handler) AdminDeleteCoconut(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	res := h.db.WithContext(c.Request.Context()).Delete(&models.Coconut{}, id)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete coconut"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Coconut not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Coconut deleted", "id": id})
}
