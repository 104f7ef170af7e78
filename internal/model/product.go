package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Product struct {
	BaseModel
	Name        string `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Image       string `gorm:"type:varchar(512)" json:"image"`
	// Stock is the sum of all size quantities, maintained by the repository.
	Stock    int `gorm:"not null;default:0" json:"stock"`
	MinStock int `gorm:"not null;default:0" json:"min_stock"`

	CategoryID    *uint `gorm:"index" json:"category_id"`
	BrandID       *uint `gorm:"index" json:"brand_id"`
	ProductTypeID *uint `gorm:"index" json:"product_type_id"`

	// Relasi
	Category         *Category         `json:"category,omitempty"`
	Brand            *Brand            `json:"brand,omitempty"`
	ProductType      *ProductType      `json:"product_type,omitempty"`
	Sizes            []ProductSize     `gorm:"constraint:OnDelete:CASCADE" json:"sizes,omitempty"`
	StockBatches     []StockBatch      `gorm:"constraint:OnDelete:CASCADE" json:"stock_batches,omitempty"`
	NotificationLogs []NotificationLog `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// ProductSize is the stock of one size of a product.
type ProductSize struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_product_size" json:"product_id"`
	SizeID    uint      `gorm:"not null;uniqueIndex:idx_product_size" json:"size_id"`
	Size      *Size     `json:"size,omitempty"`
	Quantity  int       `gorm:"not null;default:0" json:"quantity"`
}

// StockBatch records a received delivery. It is informational only.
type StockBatch struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ProductID  uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	Quantity   int       `gorm:"not null" json:"quantity"`
	CostPrice  float64   `gorm:"not null;default:0" json:"cost_price"`
	ReceivedAt time.Time `json:"received_at"`
	Note       string    `gorm:"type:text" json:"note"`
}

// SizeInput is one entry of a size replacement request.
type SizeInput struct {
	SizeID   uint       `json:"size_id" validate:"required"`
	Quantity LenientInt `json:"quantity"`
}

// LenientInt decodes numbers and numeric strings, truncating fractions.
// Anything else, including a missing value, decodes to 0.
type LenientInt int

func (n *LenientInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*n = 0
			return nil
		}
		*n = LenientInt(leadingInt(s))
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		*n = 0
		return nil
	}
	*n = LenientInt(int(f))
	return nil
}

// leadingInt parses an optional sign and the digits that follow it,
// ignoring whatever comes after.
func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0
	}
	v, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return v
}
