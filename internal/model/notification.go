package model

import (
	"time"

	"github.com/google/uuid"
)

// Alert statuses recorded in NotificationLog, also used as notification types.
const (
	StatusLowStock   = "LOW_STOCK"
	StatusOutOfStock = "OUT_OF_STOCK"
)

// NotificationLog marks that an alert for a product's current condition was
// already delivered. At most one row exists per product and status.
type NotificationLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_log_product_status" json:"product_id"`
	Status    string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_log_product_status" json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Notification is a message delivered to one user.
type Notification struct {
	BaseModel
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Type      string     `gorm:"type:varchar(30);not null" json:"type"`
	Heading   string     `gorm:"type:varchar(255);not null" json:"heading"`
	Content   string     `gorm:"type:text;not null" json:"content"`
	ProductID *uuid.UUID `gorm:"type:uuid;index" json:"product_id"`
	Product   *Product   `gorm:"constraint:OnDelete:SET NULL" json:"product,omitempty"`
	IsRead    bool       `gorm:"not null;default:false" json:"is_read"`
}
