package mock

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"larder/internal/db"
	"larder/internal/inventory"
	applog "larder/internal/log"
)

// New returns an in-memory sqlite database seeded with a small restaurant kitchen.
func New(ctx context.Context) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising mock database")

	database, err := gorm.Open(sqlite.Open("file:larder-mock?mode=memory&cache=shared"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction:                   true,
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}

	// sqlite has no row locks; one connection keeps ledger transactions serial.
	sqlDB, err := database.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(database); err != nil {
		return nil, err
	}

	if err := seed(ctx, inventory.NewService(database, inventory.Options{})); err != nil {
		return nil, err
	}

	applog.Debug(ctx, "mock database ready")
	return database, nil
}

type seedIngredient struct {
	code, name, category, mainUnit, subunit string
	factor, opening                         string
}

func seed(ctx context.Context, svc *inventory.Service) error {
	applog.Debug(ctx, "seeding mock database")

	ingredients := []seedIngredient{
		{code: "RICE-BAS", name: "Basmati rice", category: "Grains", mainUnit: "kg", subunit: "g", factor: "1000", opening: "25"},
		{code: "CHK-BRST", name: "Chicken breast", category: "Meat", mainUnit: "kg", subunit: "g", factor: "1000", opening: "10"},
		{code: "ONION-RED", name: "Red onion", category: "Vegetables", mainUnit: "kg", subunit: "g", factor: "1000", opening: "8"},
		{code: "GHEE", name: "Ghee", category: "Dairy", mainUnit: "kg", subunit: "g", factor: "1000", opening: "4"},
		{code: "MILK", name: "Whole milk", category: "Dairy", mainUnit: "L", subunit: "ml", factor: "1000", opening: "12"},
		{code: "SAFFRON", name: "Saffron", category: "Spices", mainUnit: "g", subunit: "mg", factor: "1000", opening: "5"},
	}

	ids := make(map[string]uint, len(ingredients))
	for _, item := range ingredients {
		ingredient, err := svc.CreateIngredient(ctx, inventory.IngredientInput{
			Code:                item.code,
			Name:                item.name,
			Category:            item.category,
			MainUnit:            item.mainUnit,
			Subunit:             item.subunit,
			SubunitsPerMainUnit: decimal.RequireFromString(item.factor),
		})
		if err != nil {
			return err
		}
		ids[item.code] = ingredient.ID

		if _, err := svc.Receive(ctx, ingredient.ID, decimal.RequireFromString(item.opening), inventory.ReceiptMetadata{
			SupplierName: "Opening stock",
			Remarks:      "seeded",
		}); err != nil {
			return err
		}
	}

	recipes := []inventory.RecipeInput{
		{
			Code:               "BIRYANI-CHK",
			Name:               "Chicken biryani",
			Type:               "Main course",
			SellingPrice:       decimal.RequireFromString("14.50"),
			PreparationMinutes: 35,
			Compositions: []inventory.CompositionInput{
				{IngredientID: ids["RICE-BAS"], SubunitQuantityPerUnit: decimal.RequireFromString("180")},
				{IngredientID: ids["CHK-BRST"], SubunitQuantityPerUnit: decimal.RequireFromString("200")},
				{IngredientID: ids["ONION-RED"], SubunitQuantityPerUnit: decimal.RequireFromString("60")},
				{IngredientID: ids["GHEE"], SubunitQuantityPerUnit: decimal.RequireFromString("20")},
				{IngredientID: ids["SAFFRON"], SubunitQuantityPerUnit: decimal.RequireFromString("15")},
			},
		},
		{
			Code:               "KHEER",
			Name:               "Rice kheer",
			Type:               "Dessert",
			SellingPrice:       decimal.RequireFromString("5.00"),
			PreparationMinutes: 20,
			Compositions: []inventory.CompositionInput{
				{IngredientID: ids["MILK"], SubunitQuantityPerUnit: decimal.RequireFromString("250")},
				{IngredientID: ids["RICE-BAS"], SubunitQuantityPerUnit: decimal.RequireFromString("30")},
				{IngredientID: ids["SAFFRON"], SubunitQuantityPerUnit: decimal.RequireFromString("5")},
			},
		},
	}

	for _, input := range recipes {
		if _, err := svc.CreateRecipe(ctx, input); err != nil {
			return err
		}
	}

	applog.Debug(ctx, "mock database seeded")
	return nil
}
