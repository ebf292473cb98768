package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	applog "larder/internal/log"
	"larder/models"
)

// Requirement is one ingredient a single recipe unit consumes.
type Requirement struct {
	IngredientID           uint            `json:"ingredient_id"`
	SubunitQuantityPerUnit decimal.Decimal `json:"subunit_quantity_per_unit"`
}

// CompositionInput is one ingredient line of a recipe being authored.
type CompositionInput struct {
	IngredientID           uint
	SubunitQuantityPerUnit decimal.Decimal
	Remarks                string
}

// RecipeInput is the full authored state of a recipe.
type RecipeInput struct {
	Code               string
	Name               string
	Type               string
	Description        string
	SellingPrice       decimal.Decimal
	TotalCost          decimal.Decimal
	PreparationMinutes int
	UserID             uint
	Compositions       []CompositionInput
}

func (in RecipeInput) validate() error {
	if strings.TrimSpace(in.Code) == "" {
		return invalidf("recipe code is required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return invalidf("recipe name is required")
	}
	seen := make(map[uint]struct{}, len(in.Compositions))
	for i, c := range in.Compositions {
		if c.IngredientID == 0 {
			return invalidf("composition %d: ingredient_id is required", i)
		}
		if !c.SubunitQuantityPerUnit.IsPositive() {
			return invalidf("composition %d: quantity must be greater than zero", i)
		}
		if _, dup := seen[c.IngredientID]; dup {
			return invalidf("composition %d: ingredient %d listed twice", i, c.IngredientID)
		}
		seen[c.IngredientID] = struct{}{}
	}
	return nil
}

// Resolve returns the active compositions of an active recipe, in authoring order.
func (s *Service) Resolve(ctx context.Context, recipeID uint) ([]Requirement, error) {
	_, requirements, err := resolveRecipe(s.db.WithContext(ctx), recipeID)
	return requirements, err
}

func resolveRecipe(tx *gorm.DB, recipeID uint) (*models.Recipe, []Requirement, error) {
	var recipe models.Recipe
	err := tx.Scopes(models.Active).
		Preload("Compositions", func(db *gorm.DB) *gorm.DB {
			return db.Scopes(models.Active).Order("id asc")
		}).
		First(&recipe, recipeID).Error
	if err != nil {
		return nil, nil, notFound(err, ErrRecipeNotFound, recipeID)
	}

	requirements := make([]Requirement, 0, len(recipe.Compositions))
	for _, c := range recipe.Compositions {
		requirements = append(requirements, Requirement{
			IngredientID:           c.IngredientID,
			SubunitQuantityPerUnit: c.SubunitQuantityPerUnit,
		})
	}
	return &recipe, requirements, nil
}

// ListRecipes returns active recipes with their active compositions.
func (s *Service) ListRecipes(ctx context.Context) ([]models.Recipe, error) {
	var recipes []models.Recipe
	err := s.db.WithContext(ctx).
		Scopes(models.Active).
		Preload("Compositions", func(db *gorm.DB) *gorm.DB {
			return db.Scopes(models.Active).Order("id asc")
		}).
		Order("name asc, id asc").
		Find(&recipes).Error
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	return recipes, nil
}

// GetRecipe loads an active recipe with its active compositions.
func (s *Service) GetRecipe(ctx context.Context, recipeID uint) (*models.Recipe, error) {
	recipe, _, err := resolveRecipe(s.db.WithContext(ctx), recipeID)
	return recipe, err
}

// CreateRecipe stores a recipe and its compositions together.
func (s *Service) CreateRecipe(ctx context.Context, in RecipeInput) (*models.Recipe, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	recipe := &models.Recipe{
		Code:               strings.TrimSpace(in.Code),
		Name:               strings.TrimSpace(in.Name),
		Type:               in.Type,
		Description:        in.Description,
		SellingPrice:       in.SellingPrice,
		TotalCost:          in.TotalCost,
		PreparationMinutes: in.PreparationMinutes,
		CreatedBy:          in.UserID,
		UpdatedBy:          in.UserID,
		Status:             models.LifecycleActive,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUniqueCode(tx, &models.Recipe{}, recipe.Code, 0); err != nil {
			return err
		}
		compositions, err := buildCompositions(tx, in.Compositions)
		if err != nil {
			return err
		}
		recipe.Compositions = compositions
		return duplicateCode(tx.Create(recipe).Error, "recipe", recipe.Code)
	})
	if err != nil {
		return nil, err
	}

	applog.Info(ctx, "recipe created", "recipe_id", recipe.ID, "code", recipe.Code, "compositions", len(recipe.Compositions))
	return recipe, nil
}

// ReplaceRecipe updates the recipe header and swaps its whole composition
// set in one transaction: every active composition is retired and the new
// set is inserted.
func (s *Service) ReplaceRecipe(ctx context.Context, recipeID uint, in RecipeInput) (*models.Recipe, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var updated *models.Recipe
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var recipe models.Recipe
		if err := tx.Scopes(models.Active).First(&recipe, recipeID).Error; err != nil {
			return notFound(err, ErrRecipeNotFound, recipeID)
		}
		code := strings.TrimSpace(in.Code)
		if err := ensureUniqueCode(tx, &models.Recipe{}, code, recipeID); err != nil {
			return err
		}

		if err := tx.Model(&recipe).Updates(map[string]any{
			"code":                code,
			"name":                strings.TrimSpace(in.Name),
			"type":                in.Type,
			"description":         in.Description,
			"selling_price":       in.SellingPrice,
			"total_cost":          in.TotalCost,
			"preparation_minutes": in.PreparationMinutes,
			"updated_by":          in.UserID,
		}).Error; err != nil {
			return duplicateCode(err, "recipe", code)
		}

		if err := tx.Model(&models.RecipeComposition{}).
			Scopes(models.Active).
			Where("recipe_id = ?", recipeID).
			Update("status", models.LifecycleInactive).Error; err != nil {
			return fmt.Errorf("retire compositions: %w", err)
		}

		compositions, err := buildCompositions(tx, in.Compositions)
		if err != nil {
			return err
		}
		for i := range compositions {
			compositions[i].RecipeID = recipeID
		}
		if len(compositions) > 0 {
			if err := tx.Create(&compositions).Error; err != nil {
				return err
			}
		}

		reloaded, _, err := resolveRecipe(tx, recipeID)
		updated = reloaded
		return err
	})
	if err != nil {
		return nil, err
	}

	applog.Info(ctx, "recipe replaced", "recipe_id", recipeID, "compositions", len(updated.Compositions))
	return updated, nil
}

// DeactivateRecipe soft-deletes a recipe and its compositions.
func (s *Service) DeactivateRecipe(ctx context.Context, recipeID uint, userID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Recipe{}).
			Scopes(models.Active).
			Where("id = ?", recipeID).
			Updates(map[string]any{"status": models.LifecycleInactive, "updated_by": userID})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%d: %w", recipeID, ErrRecipeNotFound)
		}
		return tx.Model(&models.RecipeComposition{}).
			Scopes(models.Active).
			Where("recipe_id = ?", recipeID).
			Update("status", models.LifecycleInactive).Error
	})
	if err != nil {
		return err
	}

	applog.Info(ctx, "recipe deactivated", "recipe_id", recipeID)
	return nil
}

// buildCompositions checks every referenced ingredient is active and
// snapshots its unit metadata onto the composition line.
func buildCompositions(tx *gorm.DB, inputs []CompositionInput) ([]models.RecipeComposition, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	ids := make([]uint, 0, len(inputs))
	for _, in := range inputs {
		ids = append(ids, in.IngredientID)
	}
	var ingredients []models.Ingredient
	if err := tx.Scopes(models.Active).Where("id IN ?", ids).Find(&ingredients).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Ingredient, len(ingredients))
	for _, ingredient := range ingredients {
		byID[ingredient.ID] = ingredient
	}

	compositions := make([]models.RecipeComposition, 0, len(inputs))
	for _, in := range inputs {
		ingredient, ok := byID[in.IngredientID]
		if !ok {
			return nil, fmt.Errorf("%d: %w", in.IngredientID, ErrIngredientNotFound)
		}
		compositions = append(compositions, models.RecipeComposition{
			IngredientID:           in.IngredientID,
			SubunitQuantityPerUnit: in.SubunitQuantityPerUnit,
			Unit:                   ingredient.Subunit,
			BaseUnitValue:          ingredient.SubunitsPerMainUnit,
			Remarks:                in.Remarks,
			Status:                 models.LifecycleActive,
		})
	}
	return compositions, nil
}
