package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts travel as JSON numbers, the way the dashboard renders them.
	decimal.MarshalJSONWithoutQuotes = true
}

// OrderStatus represents the delivery progress of an order
type OrderStatus string

const (
	StatusPending        OrderStatus = "pending"
	StatusAssigned       OrderStatus = "assigned"
	StatusOutForDelivery OrderStatus = "out-for-delivery"
	StatusDelivered      OrderStatus = "delivered"
)

// PaymentMethod is how the vendor settles an order
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentRazorpay PaymentMethod = "razorpay"
)

// Valid reports whether m is a supported payment method
func (m PaymentMethod) Valid() bool {
	return m == PaymentCash || m == PaymentRazorpay
}

// PaymentStatus is derived from the outstanding amount
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
)

type Order struct {
	ID            uint                 `json:"id" gorm:"primaryKey"`
	VendorID      uint                 `json:"vendor_id" gorm:"not null;index"`
	Vendor        *User                `json:"vendor,omitempty" gorm:"foreignKey:VendorID"`
	CoconutID     uint                 `json:"coconut_id" gorm:"not null"`
	Coconut       *Coconut             `json:"coconut,omitempty" gorm:"foreignKey:CoconutID"`
	Quantity      int                  `json:"quantity" gorm:"not null"`
	Rate          decimal.Decimal      `json:"rate" gorm:"type:decimal(12,2);not null"` // snapshot at time of order
	TotalPrice    decimal.Decimal      `json:"total_price" gorm:"type:decimal(12,2);not null"`
	Status        OrderStatus          `json:"status" gorm:"not null;default:'pending';index"`
	PaymentMethod PaymentMethod        `json:"payment_method" gorm:"not null"`
	PaymentStatus PaymentStatus        `json:"payment_status" gorm:"not null;default:'pending'"`
	AmountPaid    decimal.Decimal      `json:"amount_paid" gorm:"type:decimal(12,2);not null"`
	AmountDue     decimal.Decimal      `json:"amount_due" gorm:"type:decimal(12,2);not null"`
	DriverID      *uint                `json:"driver_id" gorm:"index"`
	Driver        *User                `json:"driver,omitempty" gorm:"foreignKey:DriverID"`
	StatusHistory []OrderStatusHistory `json:"status_history,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// OrderStatusHistory tracks every status change
type OrderStatusHistory struct {
	ID         uint        `json:"id" gorm:"primaryKey"`
	OrderID    uint        `json:"order_id" gorm:"not null;index"`
	FromStatus OrderStatus `json:"from_status"`
	ToStatus   OrderStatus `json:"to_status" gorm:"not null"`
	ChangedBy  uint        `json:"changed_by"` // user ID who triggered the transition
	Note       string      `json:"note"`
	CreatedAt  time.Time   `json:"created_at"`
}
