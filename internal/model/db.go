package model

import "time"

type Product struct {
	ID              uint   `gorm:"primaryKey"`
	SKU             string `gorm:"size:64;uniqueIndex;not null"`
	Name            string `gorm:"size:255;not null"`
	ImageURL        string `gorm:"size:512"`
	Price           int64  `gorm:"not null"` // minor currency units
	DiscountedPrice int64  // 0 = no discount
	Currency        string `gorm:"size:8;not null"`
	Stock           int32  `gorm:"not null"`
	HasVariant      bool   `gorm:"not null;default:false"`
	IsActive        bool   `gorm:"not null;default:true;index"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type ShippingMethod struct {
	ID    uint   `gorm:"primaryKey"`
	Name  string `gorm:"size:128;not null"`
	Price int64  `gorm:"not null"`
	// MinOrderAmount is the free-shipping threshold; 0 disables it.
	MinOrderAmount int64
	Countries      string `gorm:"size:512"` // comma-separated ISO codes, empty = worldwide
	IsActive       bool   `gorm:"not null;default:true;index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Order struct {
	ID              uint   `gorm:"primaryKey"`
	OrderNumber     string `gorm:"size:64;uniqueIndex;not null"`
	Email           string `gorm:"size:255;index;not null"`
	PaymentStatus   string `gorm:"size:32;index;not null"` // PENDING, PAID, FAILED, REFUNDED
	PaymentMethod   string `gorm:"size:32;not null"`
	PaymentIntentID string `gorm:"size:64;index"`
	Subtotal        int64  `gorm:"not null"`
	ShippingCost    int64  `gorm:"not null"`
	Discount        int64  `gorm:"not null"`
	Tax             int64  `gorm:"not null"`
	Total           int64  `gorm:"not null"`
	Currency        string `gorm:"size:8;not null"`
	ShippingAddress string `gorm:"type:text"` // JSON snapshot
	BillingAddress  string `gorm:"type:text"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type OrderItem struct {
	ID uint `gorm:"primaryKey"`
	// FK → orders.id
	OrderID   uint   `gorm:"index;not null"`
	ProductID uint   `gorm:"not null"`
	SKU       string `gorm:"size:64;index;not null"`
	Name      string `gorm:"size:255;not null"`
	Quantity  int32  `gorm:"not null"`
	UnitPrice int64  `gorm:"not null"`
	Currency  string `gorm:"size:8;not null"`
	CreatedAt time.Time
}

type WebhookEvent struct {
	EventID     string `gorm:"primaryKey;size:128;not null"`
	EventType   string `gorm:"size:64;index"`
	ProcessedAt time.Time
	CreatedAt   time.Time
}

const (
	PaymentStatusPending  = "PENDING"
	PaymentStatusPaid     = "PAID"
	PaymentStatusFailed   = "FAILED"
	PaymentStatusRefunded = "REFUNDED"
)
