package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Ingredient is a stocked raw material. CurrentStockSubunit is the single
// running balance and is only ever written by the inventory ledger.
type Ingredient struct {
	gorm.Model
	Code                string          `gorm:"uniqueIndex;not null" json:"code"`
	Name                string          `gorm:"not null" json:"name"`
	Category            string          `json:"category"`
	MainUnit            string          `gorm:"not null" json:"main_unit"`
	Subunit             string          `gorm:"not null" json:"subunit"`
	SubunitsPerMainUnit decimal.Decimal `gorm:"type:numeric(20,6);not null" json:"subunits_per_main_unit"`
	CurrentStockSubunit decimal.Decimal `gorm:"type:numeric(20,6);not null;default:0" json:"current_stock_subunit"`
	Version             uint64          `gorm:"not null;default:0" json:"version"`
	Notes               string          `gorm:"type:text" json:"notes"`
	CreatedBy           uint            `json:"created_by"`
	UpdatedBy           uint            `json:"updated_by"`
	Status              Lifecycle       `gorm:"type:varchar(16);not null;default:active;index" json:"status"`
}
