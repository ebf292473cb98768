package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"larder/internal/inventory"
	"larder/models"
)

type compositionRequest struct {
	IngredientID           uint            `json:"ingredient_id"`
	SubunitQuantityPerUnit decimal.Decimal `json:"subunit_quantity_per_unit"`
	Remarks                string          `json:"remarks"`
}

type recipeRequest struct {
	Code               string               `json:"code"`
	Name               string               `json:"name"`
	Type               string               `json:"type"`
	Description        string               `json:"description"`
	SellingPrice       decimal.Decimal      `json:"selling_price"`
	TotalCost          decimal.Decimal      `json:"total_cost"`
	PreparationMinutes int                  `json:"preparation_minutes"`
	Compositions       []compositionRequest `json:"compositions"`
}

type recipeResponse struct {
	*models.Recipe
	Requirements []inventory.Requirement `json:"requirements"`
}

// RecipeResource handles recipe authoring under /api/recipes.
func RecipeResource(w http.ResponseWriter, r *http.Request) {
	if !ensureService(w, r, "recipe") {
		return
	}

	path := resourcePath(r, "/api/recipes")
	if path == "" {
		switch r.Method {
		case http.MethodGet:
			listRecipes(w, r)
		case http.MethodPost:
			createRecipe(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	recipeID, ok := parseID(w, r, path)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		showRecipe(w, r, recipeID)
	case http.MethodPut:
		replaceRecipe(w, r, recipeID)
	case http.MethodDelete:
		if err := service.DeactivateRecipe(r.Context(), recipeID, actorID(r)); err != nil {
			writeServiceError(w, r, err, "deactivate recipe")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func createRecipe(w http.ResponseWriter, r *http.Request) {
	var payload recipeRequest
	if !decodeJSON(w, r, &payload) {
		return
	}

	recipe, err := service.CreateRecipe(r.Context(), payload.input(actorID(r)))
	if err != nil {
		writeServiceError(w, r, err, "create recipe")
		return
	}
	writeJSON(w, http.StatusCreated, recipe)
}

func showRecipe(w http.ResponseWriter, r *http.Request, recipeID uint) {
	ctx := r.Context()
	recipe, err := service.GetRecipe(ctx, recipeID)
	if err != nil {
		writeServiceError(w, r, err, "load recipe")
		return
	}
	requirements, err := service.Resolve(ctx, recipeID)
	if err != nil {
		writeServiceError(w, r, err, "resolve recipe")
		return
	}
	writeJSON(w, http.StatusOK, recipeResponse{Recipe: recipe, Requirements: requirements})
}

func replaceRecipe(w http.ResponseWriter, r *http.Request, recipeID uint) {
	var payload recipeRequest
	if !decodeJSON(w, r, &payload) {
		return
	}

	recipe, err := service.ReplaceRecipe(r.Context(), recipeID, payload.input(actorID(r)))
	if err != nil {
		writeServiceError(w, r, err, "replace recipe")
		return
	}
	writeJSON(w, http.StatusOK, recipe)
}

func (p recipeRequest) input(userID uint) inventory.RecipeInput {
	compositions := make([]inventory.CompositionInput, 0, len(p.Compositions))
	for _, c := range p.Compositions {
		compositions = append(compositions, inventory.CompositionInput{
			IngredientID:           c.IngredientID,
			SubunitQuantityPerUnit: c.SubunitQuantityPerUnit,
			Remarks:                c.Remarks,
		})
	}
	return inventory.RecipeInput{
		Code:               p.Code,
		Name:               p.Name,
		Type:               p.Type,
		Description:        p.Description,
		SellingPrice:       p.SellingPrice,
		TotalCost:          p.TotalCost,
		PreparationMinutes: p.PreparationMinutes,
		UserID:             userID,
		Compositions:       compositions,
	}
}

func listRecipes(w http.ResponseWriter, r *http.Request) {
	rows, err := service.ListRecipes(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "list recipes")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
