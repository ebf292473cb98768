package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Recipe struct {
	gorm.Model
	Code               string              `gorm:"uniqueIndex;not null" json:"code"`
	Name               string              `gorm:"not null" json:"name"`
	Type               string              `json:"type"`
	Description        string              `gorm:"type:text" json:"description"`
	SellingPrice       decimal.Decimal     `gorm:"type:numeric(20,6);not null;default:0" json:"selling_price"`
	TotalCost          decimal.Decimal     `gorm:"type:numeric(20,6);not null;default:0" json:"total_cost"`
	PreparationMinutes int                 `json:"preparation_minutes"`
	CreatedBy          uint                `json:"created_by"`
	UpdatedBy          uint                `json:"updated_by"`
	Status             Lifecycle           `gorm:"type:varchar(16);not null;default:active;index" json:"status"`
	Compositions       []RecipeComposition `gorm:"foreignKey:RecipeID" json:"compositions"`
}
