package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"larder/internal/inventory"
	applog "larder/internal/log"
	"larder/internal/units"
	"larder/models"
)

type ingredientRequest struct {
	Code                string          `json:"code"`
	Name                string          `json:"name"`
	Category            string          `json:"category"`
	MainUnit            string          `json:"main_unit"`
	Subunit             string          `json:"subunit"`
	SubunitsPerMainUnit decimal.Decimal `json:"subunits_per_main_unit"`
	Notes               string          `json:"notes"`
}

type ingredientResponse struct {
	ID                  uint              `json:"id"`
	Code                string            `json:"code"`
	Name                string            `json:"name"`
	Category            string            `json:"category"`
	MainUnit            string            `json:"main_unit"`
	Subunit             string            `json:"subunit"`
	SubunitsPerMainUnit decimal.Decimal   `json:"subunits_per_main_unit"`
	Notes               string            `json:"notes"`
	Balance             inventory.Balance `json:"balance"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

// IngredientResource handles the ingredient master records under /api/ingredients.
func IngredientResource(w http.ResponseWriter, r *http.Request) {
	if !ensureService(w, r, "ingredient") {
		return
	}

	path := resourcePath(r, "/api/ingredients")
	if path == "" {
		switch r.Method {
		case http.MethodGet:
			listIngredients(w, r)
		case http.MethodPost:
			createIngredient(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	ingredientID, ok := parseID(w, r, path)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		showIngredient(w, r, ingredientID)
	case http.MethodPut:
		updateIngredient(w, r, ingredientID)
	case http.MethodDelete:
		deactivateIngredient(w, r, ingredientID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func createIngredient(w http.ResponseWriter, r *http.Request) {
	var payload ingredientRequest
	if !decodeJSON(w, r, &payload) {
		return
	}

	ingredient, err := service.CreateIngredient(r.Context(), payload.input(actorID(r)))
	if err != nil {
		writeServiceError(w, r, err, "create ingredient")
		return
	}
	writeJSON(w, http.StatusCreated, projectIngredient(*ingredient, inventory.Balance{
		Subunit: ingredient.CurrentStockSubunit,
		Main:    decimal.Zero,
	}))
}

func listIngredients(w http.ResponseWriter, r *http.Request) {
	ingredients, err := service.ListIngredients(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "list ingredients")
		return
	}

	out := make([]ingredientResponse, 0, len(ingredients))
	for _, ingredient := range ingredients {
		main, err := units.ToMain(ingredient.CurrentStockSubunit, ingredient.SubunitsPerMainUnit)
		if err != nil {
			writeServiceError(w, r, fmt.Errorf("ingredient %d: %w", ingredient.ID, err), "list ingredients")
			return
		}
		out = append(out, projectIngredient(ingredient, inventory.Balance{Subunit: ingredient.CurrentStockSubunit, Main: main}))
	}
	writeJSON(w, http.StatusOK, out)
}

func showIngredient(w http.ResponseWriter, r *http.Request, ingredientID uint) {
	ctx := r.Context()
	ingredient, err := service.GetIngredient(ctx, ingredientID)
	if err != nil {
		writeServiceError(w, r, err, "load ingredient")
		return
	}
	balance, err := service.Balance(ctx, ingredientID)
	if err != nil {
		writeServiceError(w, r, err, "load ingredient balance")
		return
	}
	writeJSON(w, http.StatusOK, projectIngredient(*ingredient, balance))
}

func updateIngredient(w http.ResponseWriter, r *http.Request, ingredientID uint) {
	var payload ingredientRequest
	if !decodeJSON(w, r, &payload) {
		return
	}

	ctx := r.Context()
	ingredient, err := service.UpdateIngredient(ctx, ingredientID, payload.input(actorID(r)))
	if err != nil {
		writeServiceError(w, r, err, "update ingredient")
		return
	}
	balance, err := service.Balance(ctx, ingredientID)
	if err != nil {
		writeServiceError(w, r, err, "load ingredient balance")
		return
	}
	writeJSON(w, http.StatusOK, projectIngredient(*ingredient, balance))
}

func deactivateIngredient(w http.ResponseWriter, r *http.Request, ingredientID uint) {
	if err := service.DeactivateIngredient(r.Context(), ingredientID, actorID(r)); err != nil {
		writeServiceError(w, r, err, "deactivate ingredient")
		return
	}
	applog.Debug(r.Context(), "ingredient deactivated via api", "id", ingredientID)
	w.WriteHeader(http.StatusNoContent)
}

func (p ingredientRequest) input(userID uint) inventory.IngredientInput {
	return inventory.IngredientInput{
		Code:                p.Code,
		Name:                p.Name,
		Category:            p.Category,
		MainUnit:            p.MainUnit,
		Subunit:             p.Subunit,
		SubunitsPerMainUnit: p.SubunitsPerMainUnit,
		Notes:               p.Notes,
		UserID:              userID,
	}
}

func projectIngredient(ingredient models.Ingredient, balance inventory.Balance) ingredientResponse {
	return ingredientResponse{
		ID:                  ingredient.ID,
		Code:                ingredient.Code,
		Name:                ingredient.Name,
		Category:            ingredient.Category,
		MainUnit:            ingredient.MainUnit,
		Subunit:             ingredient.Subunit,
		SubunitsPerMainUnit: ingredient.SubunitsPerMainUnit,
		Notes:               ingredient.Notes,
		Balance:             balance,
		CreatedAt:           ingredient.CreatedAt,
		UpdatedAt:           ingredient.UpdatedAt,
	}
}
