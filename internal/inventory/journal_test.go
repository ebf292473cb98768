package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestReceiveRecordsReceipt(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newTestService(t, Options{})
	tomato := mustCreateIngredient(t, svc, "TOMATO", "1000")
	mustReceive(t, svc, tomato.ID, "2")

	receivedAt := time.Date(2025, 11, 12, 9, 30, 0, 0, time.UTC)
	receipt, err := svc.Receive(ctx, tomato.ID, dec(t, "1.25"), ReceiptMetadata{
		SupplierName: "  Green Valley  ",
		CostPerUnit:  decimal.NewNullDecimal(dec(t, "40")),
		Remarks:      "morning delivery",
		ReceivedAt:   receivedAt,
		UserID:       7,
	})
	if err != nil {
		t.Fatalf("receive: %v", err)
	}

	if receipt.StockNo == "" || receipt.StockNo[:4] != "STK-" {
		t.Fatalf("expected generated STK- number, got %q", receipt.StockNo)
	}
	if !receipt.SubunitQuantity.Equal(dec(t, "1250")) {
		t.Fatalf("expected 1250 subunits, got %s", receipt.SubunitQuantity)
	}
	if !receipt.BalanceBeforeSubunit.Equal(dec(t, "2000")) || !receipt.BalanceAfterSubunit.Equal(dec(t, "3250")) {
		t.Fatalf("unexpected balance snapshot %s -> %s", receipt.BalanceBeforeSubunit, receipt.BalanceAfterSubunit)
	}
	if !receipt.TotalCost.Valid || !receipt.TotalCost.Decimal.Equal(dec(t, "50")) {
		t.Fatalf("expected total cost 50, got %+v", receipt.TotalCost)
	}
	if receipt.SupplierName != "Green Valley" {
		t.Fatalf("expected trimmed supplier, got %q", receipt.SupplierName)
	}
	if !receipt.ReceivedAt.Equal(receivedAt) {
		t.Fatalf("expected received at %s, got %s", receivedAt, receipt.ReceivedAt)
	}

	stored, err := svc.GetReceipt(ctx, receipt.ID)
	if err != nil {
		t.Fatalf("get receipt: %v", err)
	}
	if stored.Ingredient == nil || stored.Ingredient.Code != "TOMATO" {
		t.Fatalf("expected ingredient to be preloaded, got %+v", stored.Ingredient)
	}
	assertBalance(t, svc, tomato.ID, "3250")
}

func TestReceiveValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newTestService(t, Options{})
	onion := mustCreateIngredient(t, svc, "ONION", "1000")

	tests := []struct {
		name         string
		ingredientID uint
		qty          string
		meta         ReceiptMetadata
		want         error
	}{
		{name: "zero quantity", ingredientID: onion.ID, qty: "0", want: ErrInvalidInput},
		{name: "negative quantity", ingredientID: onion.ID, qty: "-1", want: ErrInvalidInput},
		{name: "negative cost", ingredientID: onion.ID, qty: "1", meta: ReceiptMetadata{CostPerUnit: decimal.NewNullDecimal(dec(t, "-2"))}, want: ErrInvalidInput},
		{name: "unknown ingredient", ingredientID: 9999, qty: "1", want: ErrIngredientNotFound},
	}

	for _, tt := range tests {
		if _, err := svc.Receive(ctx, tt.ingredientID, dec(t, tt.qty), tt.meta); !errors.Is(err, tt.want) {
			t.Fatalf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
	}
	assertBalance(t, svc, onion.ID, "0")
}

func TestReceiveRejectsInactiveIngredient(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newTestService(t, Options{})
	garlic := mustCreateIngredient(t, svc, "GARLIC", "1000")
	if err := svc.DeactivateIngredient(ctx, garlic.ID, 1); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	if _, err := svc.Receive(ctx, garlic.ID, dec(t, "1"), ReceiptMetadata{}); !errors.Is(err, ErrIngredientNotFound) {
		t.Fatalf("expected ErrIngredientNotFound, got %v", err)
	}
}

func TestReverseReceiptRestoresPriorBalance(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newTestService(t, Options{})
	cream := mustCreateIngredient(t, svc, "CREAM", "1000")
	mustReceive(t, svc, cream.ID, "0.333")

	receipt := mustReceive(t, svc, cream.ID, "10")
	assertBalance(t, svc, cream.ID, "10333")

	if err := svc.ReverseReceipt(ctx, receipt.ID); err != nil {
		t.Fatalf("reverse receipt: %v", err)
	}
	assertBalance(t, svc, cream.ID, "333")

	if err := svc.ReverseReceipt(ctx, receipt.ID); !errors.Is(err, ErrReceiptNotFound) {
		t.Fatalf("expected second reversal to fail with ErrReceiptNotFound, got %v", err)
	}
	if _, err := svc.GetReceipt(ctx, receipt.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected reversed receipt to be hidden, got %v", err)
	}
}

func TestReverseReceiptUsesStoredQuantity(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newTestService(t, Options{})
	paneer := mustCreateIngredient(t, svc, "PANEER", "1000")
	receipt := mustReceive(t, svc, paneer.ID, "3")

	// Changing the conversion factor later must not change what the reversal removes.
	if _, err := svc.UpdateIngredient(ctx, paneer.ID, IngredientInput{
		Code:                "PANEER",
		Name:                "Paneer",
		MainUnit:            "kg",
		Subunit:             "g",
		SubunitsPerMainUnit: dec(t, "500"),
	}); err != nil {
		t.Fatalf("update ingredient: %v", err)
	}

	if err := svc.ReverseReceipt(ctx, receipt.ID); err != nil {
		t.Fatalf("reverse receipt: %v", err)
	}
	assertBalance(t, svc, paneer.ID, "0")
}

func TestReverseReceiptAfterConsumptionFails(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newTestService(t, Options{})
	lentils := mustCreateIngredient(t, svc, "LENTILS", "1000")
	receipt := mustReceive(t, svc, lentils.ID, "1")
	dal := mustCreateRecipe(t, svc, "DAL", CompositionInput{IngredientID: lentils.ID, SubunitQuantityPerUnit: dec(t, "150")})

	if _, err := svc.PlaceOrder(ctx, PlaceOrderRequest{Lines: []OrderLineRequest{{RecipeID: dal.ID, Quantity: dec(t, "2")}}}); err != nil {
		t.Fatalf("place order: %v", err)
	}

	err := svc.ReverseReceipt(ctx, receipt.ID)
	shortage, ok := IsInsufficientStock(err)
	if !ok {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if !shortage.Available.Equal(dec(t, "700")) || !shortage.Requested.Equal(dec(t, "1000")) {
		t.Fatalf("unexpected shortage %+v", shortage)
	}
	assertBalance(t, svc, lentils.ID, "700")

	if _, err := svc.GetReceipt(ctx, receipt.ID); err != nil {
		t.Fatalf("failed reversal must leave the receipt active: %v", err)
	}
}

func TestListReceiptsNewestFirst(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newTestService(t, Options{})
	salt := mustCreateIngredient(t, svc, "SALT", "1000")

	day := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	older, err := svc.Receive(ctx, salt.ID, decimal.NewFromInt(1), ReceiptMetadata{ReceivedAt: day})
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	newer, err := svc.Receive(ctx, salt.ID, decimal.NewFromInt(2), ReceiptMetadata{ReceivedAt: day.Add(24 * time.Hour)})
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	reversed, err := svc.Receive(ctx, salt.ID, decimal.NewFromInt(3), ReceiptMetadata{ReceivedAt: day.Add(48 * time.Hour)})
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if err := svc.ReverseReceipt(ctx, reversed.ID); err != nil {
		t.Fatalf("reverse: %v", err)
	}

	got, err := svc.ListReceipts(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].ID != newer.ID || got[1].ID != older.ID {
		t.Fatalf("expected newer then older receipt, got %+v", got)
	}
	if got[0].Ingredient == nil || got[0].Ingredient.Code != "SALT" {
		t.Fatalf("expected ingredient preloaded, got %+v", got[0].Ingredient)
	}
}
