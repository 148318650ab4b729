package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Coconut is a catalog item vendors can order from
type Coconut struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	Variety   string          `json:"variety" gorm:"not null"`
	Size      string          `json:"size" gorm:"not null"`
	Rate      decimal.Decimal `json:"rate" gorm:"type:decimal(12,2);not null"`
	Available bool            `json:"available" gorm:"not null"`
	ImageURL  string          `json:"image_url"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Label is the human readable name used in notifications
func (c Coconut) Label() string {
	return c.Variety + " (" + c.Size + ")"
}
