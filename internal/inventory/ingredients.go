package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	applog "larder/internal/log"
	"larder/internal/units"
	"larder/models"
)

// IngredientInput carries the master data of an ingredient. The stock
// balance is not part of it; stock only changes through receipts and orders.
type IngredientInput struct {
	Code                string
	Name                string
	Category            string
	MainUnit            string
	Subunit             string
	SubunitsPerMainUnit decimal.Decimal
	Notes               string
	UserID              uint
}

func (in IngredientInput) validate() error {
	if strings.TrimSpace(in.Code) == "" || strings.TrimSpace(in.Name) == "" {
		return invalidf("ingredient code and name are required")
	}
	if strings.TrimSpace(in.MainUnit) == "" || strings.TrimSpace(in.Subunit) == "" {
		return invalidf("main unit and subunit are required")
	}
	if err := units.ValidateFactor(in.SubunitsPerMainUnit); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return nil
}

// CreateIngredient registers a new ingredient with a zero balance.
func (s *Service) CreateIngredient(ctx context.Context, in IngredientInput) (*models.Ingredient, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	ingredient := &models.Ingredient{
		Code:                strings.TrimSpace(in.Code),
		Name:                strings.TrimSpace(in.Name),
		Category:            strings.TrimSpace(in.Category),
		MainUnit:            strings.TrimSpace(in.MainUnit),
		Subunit:             strings.TrimSpace(in.Subunit),
		SubunitsPerMainUnit: in.SubunitsPerMainUnit,
		CurrentStockSubunit: decimal.Zero,
		Notes:               in.Notes,
		CreatedBy:           in.UserID,
		UpdatedBy:           in.UserID,
		Status:              models.LifecycleActive,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUniqueCode(tx, &models.Ingredient{}, ingredient.Code, 0); err != nil {
			return err
		}
		return duplicateCode(tx.Create(ingredient).Error, "ingredient", ingredient.Code)
	})
	if err != nil {
		return nil, err
	}

	s.stockChanged(ctx)
	applog.Info(ctx, "ingredient created", "ingredient_id", ingredient.ID, "code", ingredient.Code)
	return ingredient, nil
}

// UpdateIngredient rewrites master data. The balance and version are untouched.
func (s *Service) UpdateIngredient(ctx context.Context, id uint, in IngredientInput) (*models.Ingredient, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var ingredient models.Ingredient
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Scopes(models.Active).First(&ingredient, id).Error; err != nil {
			return notFound(err, ErrIngredientNotFound, id)
		}
		code := strings.TrimSpace(in.Code)
		if err := ensureUniqueCode(tx, &models.Ingredient{}, code, id); err != nil {
			return err
		}

		updates := map[string]any{
			"code":                   code,
			"name":                   strings.TrimSpace(in.Name),
			"category":               strings.TrimSpace(in.Category),
			"main_unit":              strings.TrimSpace(in.MainUnit),
			"subunit":                strings.TrimSpace(in.Subunit),
			"subunits_per_main_unit": in.SubunitsPerMainUnit,
			"notes":                  in.Notes,
			"updated_by":             in.UserID,
		}
		if err := tx.Model(&ingredient).Updates(updates).Error; err != nil {
			return duplicateCode(err, "ingredient", code)
		}
		return tx.First(&ingredient, id).Error
	})
	if err != nil {
		return nil, err
	}

	s.stockChanged(ctx)
	return &ingredient, nil
}

// DeactivateIngredient soft-deletes an ingredient. Its balance is kept.
func (s *Service) DeactivateIngredient(ctx context.Context, id uint, userID uint) error {
	result := s.db.WithContext(ctx).Model(&models.Ingredient{}).
		Scopes(models.Active).
		Where("id = ?", id).
		Updates(map[string]any{"status": models.LifecycleInactive, "updated_by": userID})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("ingredient %d: %w", id, ErrIngredientNotFound)
	}

	s.stockChanged(ctx)
	applog.Info(ctx, "ingredient deactivated", "ingredient_id", id)
	return nil
}

// ListIngredients returns every active ingredient ordered by name.
func (s *Service) ListIngredients(ctx context.Context) ([]models.Ingredient, error) {
	var ingredients []models.Ingredient
	err := s.db.WithContext(ctx).
		Scopes(models.Active).
		Order("name asc, id asc").
		Find(&ingredients).Error
	if err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	return ingredients, nil
}

// GetIngredient loads an active ingredient.
func (s *Service) GetIngredient(ctx context.Context, id uint) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := s.db.WithContext(ctx).Scopes(models.Active).First(&ingredient, id).Error; err != nil {
		return nil, notFound(err, ErrIngredientNotFound, id)
	}
	return &ingredient, nil
}

// FindIngredientByCode loads an active ingredient by its code.
func (s *Service) FindIngredientByCode(ctx context.Context, code string) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	err := s.db.WithContext(ctx).
		Scopes(models.Active).
		Where("lower(code) = ?", strings.ToLower(strings.TrimSpace(code))).
		First(&ingredient).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("ingredient %q: %w", code, ErrIngredientNotFound)
		}
		return nil, err
	}
	return &ingredient, nil
}

// ensureUniqueCode rejects a code already used by another row of model,
// compared case-insensitively. Inactive rows still hold their code.
func ensureUniqueCode(tx *gorm.DB, model any, code string, exceptID uint) error {
	var count int64
	query := tx.Model(model).Where("lower(code) = ?", strings.ToLower(code))
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}
	if err := query.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%q: %w", code, ErrDuplicateCode)
	}
	return nil
}

// duplicateCode maps a unique index violation, which ensureUniqueCode can
// miss under concurrent writers, onto ErrDuplicateCode.
func duplicateCode(err error, kind, code string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%s %q: %w", kind, code, ErrDuplicateCode)
	}
	return err
}

func notFound(err error, sentinel error, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%d: %w", id, sentinel)
	}
	return err
}
