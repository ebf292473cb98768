package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	applog "larder/internal/log"
	"larder/internal/units"
	"larder/models"
)

// Balance is an ingredient's stock in both units.
type Balance struct {
	Subunit decimal.Decimal `json:"subunit"`
	Main    decimal.Decimal `json:"main"`
}

// StockLevel is one row of the stock report.
type StockLevel struct {
	IngredientID        uint            `json:"ingredient_id"`
	Code                string          `json:"code"`
	Name                string          `json:"name"`
	MainUnit            string          `json:"main_unit"`
	Subunit             string          `json:"subunit"`
	SubunitsPerMainUnit decimal.Decimal `json:"subunits_per_main_unit"`
	StockSubunit        decimal.Decimal `json:"stock_subunit"`
	StockMain           decimal.Decimal `json:"stock_main"`
	LastUpdated         time.Time       `json:"last_updated"`
}

// Balance returns the current stock of an active ingredient.
func (s *Service) Balance(ctx context.Context, ingredientID uint) (Balance, error) {
	ingredient, err := s.GetIngredient(ctx, ingredientID)
	if err != nil {
		return Balance{}, err
	}
	main, err := units.ToMain(ingredient.CurrentStockSubunit, ingredient.SubunitsPerMainUnit)
	if err != nil {
		return Balance{}, fmt.Errorf("ingredient %d: %w", ingredientID, err)
	}
	return Balance{Subunit: ingredient.CurrentStockSubunit, Main: main}, nil
}

// StockReport lists every active ingredient with its balance, ordered by name.
func (s *Service) StockReport(ctx context.Context) ([]StockLevel, error) {
	var generation int64
	if s.opts.Cache != nil {
		rows, gen, ok := s.opts.Cache.Load(ctx)
		if ok {
			return rows, nil
		}
		generation = gen
	}

	var ingredients []models.Ingredient
	if err := s.db.WithContext(ctx).Scopes(models.Active).Order("name asc, id asc").Find(&ingredients).Error; err != nil {
		return nil, err
	}

	rows := make([]StockLevel, 0, len(ingredients))
	for _, ingredient := range ingredients {
		main, err := units.ToMain(ingredient.CurrentStockSubunit, ingredient.SubunitsPerMainUnit)
		if err != nil {
			return nil, fmt.Errorf("ingredient %d: %w", ingredient.ID, err)
		}
		rows = append(rows, StockLevel{
			IngredientID:        ingredient.ID,
			Code:                ingredient.Code,
			Name:                ingredient.Name,
			MainUnit:            ingredient.MainUnit,
			Subunit:             ingredient.Subunit,
			SubunitsPerMainUnit: ingredient.SubunitsPerMainUnit,
			StockSubunit:        ingredient.CurrentStockSubunit,
			StockMain:           main,
			LastUpdated:         ingredient.UpdatedAt,
		})
	}

	if s.opts.Cache != nil {
		if err := s.opts.Cache.Store(ctx, generation, rows); err != nil {
			applog.Debug(ctx, "stock report not cached", "error", err)
		}
	}
	return rows, nil
}
