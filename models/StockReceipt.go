package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockReceipt is a stock-in journal entry. SubunitQuantity is fixed at
// receipt time; reversal subtracts exactly this value.
type StockReceipt struct {
	gorm.Model
	StockNo              string              `gorm:"uniqueIndex;not null" json:"stock_no"`
	IngredientID         uint                `gorm:"not null;index" json:"ingredient_id"`
	ReceivedAt           time.Time           `gorm:"not null" json:"received_at"`
	SupplierName         string              `json:"supplier_name"`
	MainQuantity         decimal.Decimal     `gorm:"type:numeric(20,6);not null" json:"main_quantity"`
	SubunitQuantity      decimal.Decimal     `gorm:"type:numeric(20,6);not null" json:"subunit_quantity"`
	BalanceBeforeSubunit decimal.Decimal     `gorm:"type:numeric(20,6);not null" json:"balance_before_subunit"`
	BalanceAfterSubunit  decimal.Decimal     `gorm:"type:numeric(20,6);not null" json:"balance_after_subunit"`
	CostPerUnit          decimal.NullDecimal `gorm:"type:numeric(20,6)" json:"cost_per_unit"`
	TotalCost            decimal.NullDecimal `gorm:"type:numeric(20,6)" json:"total_cost"`
	Remarks              string              `gorm:"type:text" json:"remarks"`
	CreatedBy            uint                `json:"created_by"`
	Status               Lifecycle           `gorm:"type:varchar(16);not null;default:active;index" json:"status"`

	Ingredient *Ingredient `gorm:"foreignKey:IngredientID" json:"ingredient,omitempty"`
}
