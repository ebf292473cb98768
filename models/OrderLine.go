package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderLine struct {
	gorm.Model
	OrderID  uint `gorm:"not null;index" json:"order_id"`
	RecipeID uint `gorm:"not null;index" json:"recipe_id"`

	// Snapshot of the recipe at order time.
	RecipeName   string          `gorm:"not null" json:"recipe_name"`
	SellingPrice decimal.Decimal `gorm:"type:numeric(20,6);not null;default:0" json:"selling_price"`

	Quantity     decimal.Decimal        `gorm:"type:numeric(20,6);not null" json:"quantity"`
	Status       Lifecycle              `gorm:"type:varchar(16);not null;default:active;index" json:"status"`
	Consumptions []OrderLineConsumption `gorm:"foreignKey:OrderLineID" json:"consumptions"`
}

// OrderLineConsumption records what one order line actually took from an
// ingredient when the order was placed.
type OrderLineConsumption struct {
	gorm.Model
	OrderLineID            uint            `gorm:"not null;index" json:"order_line_id"`
	IngredientID           uint            `gorm:"not null;index" json:"ingredient_id"`
	SubunitQuantityPerUnit decimal.Decimal `gorm:"type:numeric(20,6);not null" json:"subunit_quantity_per_unit"`
	SubunitQuantity        decimal.Decimal `gorm:"type:numeric(20,6);not null" json:"subunit_quantity"`
}
