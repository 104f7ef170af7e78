package model

import "github.com/google/uuid"

type Customer struct {
	BaseModel
	Name  string `gorm:"type:varchar(255);not null" json:"name"`
	Phone string `gorm:"type:varchar(20)" json:"phone"`
}

// Transaction is a recorded sale. Totals are supplied by the caller.
type Transaction struct {
	BaseModel
	CustomerID    *uuid.UUID `gorm:"type:uuid;index" json:"customer_id"`
	Customer      *Customer  `json:"customer,omitempty"`
	ProcessedByID *uuid.UUID `gorm:"type:uuid;index" json:"processed_by_id"`
	ProcessedBy   *User      `gorm:"foreignKey:ProcessedByID" json:"processed_by,omitempty"`

	TotalAmount   float64 `gorm:"not null;default:0" json:"total_amount"`
	Profit        float64 `gorm:"not null;default:0" json:"profit"`
	PaymentMethod string  `gorm:"type:varchar(20)" json:"payment_method"` // CASH, TRANSFER, QRIS
	Discount      float64 `gorm:"not null;default:0" json:"discount"`
	Note          string  `gorm:"type:text" json:"note"`

	Items []TransactionItem `gorm:"constraint:OnDelete:CASCADE" json:"items"`
}

// TransactionItem is one sold line; prices are snapshots at sale time.
type TransactionItem struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	TransactionID uuid.UUID `gorm:"type:uuid;not null;index" json:"transaction_id"`
	ProductID     uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	Product       *Product  `json:"product,omitempty"`
	SizeID        uint      `gorm:"not null" json:"size_id"`
	Size          *Size     `json:"size,omitempty"`
	Quantity      int       `gorm:"not null" json:"quantity"`
	SellPrice     float64   `gorm:"not null;default:0" json:"sell_price"`
	CostPrice     float64   `gorm:"not null;default:0" json:"cost_price"`
	Discount      float64   `gorm:"not null;default:0" json:"discount"`
}
