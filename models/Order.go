package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order is a placed customer order. The money fields are carried through
// from the caller as recorded values; they are not computed here.
type Order struct {
	gorm.Model
	OrderNo       string          `gorm:"uniqueIndex;not null" json:"order_no"`
	TableNo       string          `json:"table_no"`
	OrderType     string          `json:"order_type"`
	CustomerName  string          `json:"customer_name"`
	CustomerPhone string          `json:"customer_phone"`
	CustomerEmail string          `json:"customer_email"`
	OrderDate     time.Time       `gorm:"not null" json:"order_date"`
	TotalAmount   decimal.Decimal `gorm:"type:numeric(20,6);not null;default:0" json:"total_amount"`
	Discount      decimal.Decimal `gorm:"type:numeric(20,6);not null;default:0" json:"discount"`
	TaxAmount     decimal.Decimal `gorm:"type:numeric(20,6);not null;default:0" json:"tax_amount"`
	GrandTotal    decimal.Decimal `gorm:"type:numeric(20,6);not null;default:0" json:"grand_total"`
	PaymentMode   string          `json:"payment_mode"`
	Remark        string          `gorm:"type:text" json:"remark"`
	CreatedBy     uint            `json:"created_by"`
	Status        Lifecycle       `gorm:"type:varchar(16);not null;default:active;index" json:"status"`
	Lines         []OrderLine     `gorm:"foreignKey:OrderID" json:"lines"`
}
