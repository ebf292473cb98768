package inventory

import (
	"context"
	"errors"
	"testing"

	"larder/internal/units"
)

func TestCreateIngredientValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newTestService(t, Options{})
	mustCreateIngredient(t, svc, "FLOUR", "1000")

	base := IngredientInput{Code: "SUGAR", Name: "Sugar", MainUnit: "kg", Subunit: "g", SubunitsPerMainUnit: dec(t, "1000")}
	tests := []struct {
		name   string
		mutate func(in *IngredientInput)
		want   error
	}{
		{name: "missing code", mutate: func(in *IngredientInput) { in.Code = " " }, want: ErrInvalidInput},
		{name: "missing subunit", mutate: func(in *IngredientInput) { in.Subunit = "" }, want: ErrInvalidInput},
		{name: "zero factor", mutate: func(in *IngredientInput) { in.SubunitsPerMainUnit = dec(t, "0") }, want: units.ErrInvalidConversionFactor},
		{name: "duplicate code", mutate: func(in *IngredientInput) { in.Code = "flour" }, want: ErrDuplicateCode},
	}

	for _, tt := range tests {
		in := base
		tt.mutate(&in)
		if _, err := svc.CreateIngredient(ctx, in); !errors.Is(err, tt.want) {
			t.Fatalf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
	}
}

func TestUpdateIngredientKeepsBalance(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newTestService(t, Options{})
	oil := mustCreateIngredient(t, svc, "OIL", "1000")
	mustReceive(t, svc, oil.ID, "3")

	updated, err := svc.UpdateIngredient(ctx, oil.ID, IngredientInput{
		Code:                "OIL",
		Name:                "Sunflower oil",
		Category:            "Pantry",
		MainUnit:            "L",
		Subunit:             "ml",
		SubunitsPerMainUnit: dec(t, "1000"),
		UserID:              3,
	})
	if err != nil {
		t.Fatalf("update ingredient: %v", err)
	}
	if updated.Name != "Sunflower oil" || updated.MainUnit != "L" || updated.UpdatedBy != 3 {
		t.Fatalf("unexpected update result %+v", updated)
	}
	if !updated.CurrentStockSubunit.Equal(dec(t, "3000")) {
		t.Fatalf("expected balance to be untouched, got %s", updated.CurrentStockSubunit)
	}

	other := mustCreateIngredient(t, svc, "GHEE", "1000")
	if _, err := svc.UpdateIngredient(ctx, other.ID, IngredientInput{
		Code: "oil", Name: "Ghee", MainUnit: "kg", Subunit: "g", SubunitsPerMainUnit: dec(t, "1000"),
	}); !errors.Is(err, ErrDuplicateCode) {
		t.Fatalf("expected ErrDuplicateCode, got %v", err)
	}
}

func TestDeactivateIngredientHidesIt(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newTestService(t, Options{})
	mint := mustCreateIngredient(t, svc, "MINT", "1000")

	if err := svc.DeactivateIngredient(ctx, mint.ID, 2); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := svc.GetIngredient(ctx, mint.ID); !errors.Is(err, ErrIngredientNotFound) {
		t.Fatalf("expected ErrIngredientNotFound, got %v", err)
	}
	if _, err := svc.FindIngredientByCode(ctx, "MINT"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected lookup by code to miss, got %v", err)
	}
	if err := svc.DeactivateIngredient(ctx, mint.ID, 2); !errors.Is(err, ErrIngredientNotFound) {
		t.Fatalf("expected second deactivation to fail, got %v", err)
	}
	if _, err := svc.CreateIngredient(ctx, IngredientInput{
		Code: "mint", Name: "Mint", MainUnit: "kg", Subunit: "g", SubunitsPerMainUnit: dec(t, "1000"),
	}); !errors.Is(err, ErrDuplicateCode) {
		t.Fatalf("expected inactive code to stay reserved, got %v", err)
	}
}

func TestFindIngredientByCodeIgnoresCase(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newTestService(t, Options{})
	cumin := mustCreateIngredient(t, svc, "Cumin-01", "1000")

	found, err := svc.FindIngredientByCode(ctx, "  cumin-01 ")
	if err != nil {
		t.Fatalf("find by code: %v", err)
	}
	if found.ID != cumin.ID {
		t.Fatalf("expected ingredient %d, got %d", cumin.ID, found.ID)
	}
}

func TestListIngredientsSkipsInactive(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newTestService(t, Options{})

	empty, err := svc.ListIngredients(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected no ingredients, got %d", len(empty))
	}

	cumin := mustCreateIngredient(t, svc, "CUMIN", "1000")
	basil := mustCreateIngredient(t, svc, "BASIL", "1000")
	dill := mustCreateIngredient(t, svc, "DILL", "1000")
	if err := svc.DeactivateIngredient(ctx, dill.ID, 1); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	got, err := svc.ListIngredients(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].ID != basil.ID || got[1].ID != cumin.ID {
		t.Fatalf("expected basil then cumin, got %+v", got)
	}
}
