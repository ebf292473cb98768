package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type RecipeComposition struct {
	gorm.Model
	RecipeID               uint            `gorm:"not null;index" json:"recipe_id"` // Parent Recipe
	IngredientID           uint            `gorm:"not null;index" json:"ingredient_id"`
	SubunitQuantityPerUnit decimal.Decimal `gorm:"type:numeric(20,6);not null" json:"subunit_quantity_per_unit"`

	// Conversion metadata as it stood when the line was authored.
	Unit          string          `json:"unit"`
	BaseUnitValue decimal.Decimal `gorm:"type:numeric(20,6);not null;default:0" json:"base_unit_value"`

	Remarks string    `json:"remarks"`
	Status  Lifecycle `gorm:"type:varchar(16);not null;default:active;index" json:"status"`

	Ingredient *Ingredient `gorm:"foreignKey:IngredientID" json:"ingredient,omitempty"`
}
