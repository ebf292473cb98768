package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	applog "larder/internal/log"
	"larder/internal/metrics"
	"larder/internal/units"
	"larder/models"
)

// ReceiptMetadata is the descriptive part of a stock-in entry.
type ReceiptMetadata struct {
	SupplierName string
	CostPerUnit  decimal.NullDecimal
	Remarks      string
	ReceivedAt   time.Time
	UserID       uint
}

// Receive books mainQty main units of an ingredient into stock and records
// the receipt with the balance before and after.
func (s *Service) Receive(ctx context.Context, ingredientID uint, mainQty decimal.Decimal, meta ReceiptMetadata) (*models.StockReceipt, error) {
	if !mainQty.IsPositive() {
		return nil, invalidf("received quantity must be greater than zero")
	}
	if meta.CostPerUnit.Valid && meta.CostPerUnit.Decimal.IsNegative() {
		return nil, invalidf("cost per unit cannot be negative")
	}
	receivedAt := meta.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now().UTC()
	}

	var receipt *models.StockReceipt
	err := s.transact(ctx, "receive", func(tx *gorm.DB) error {
		var ingredient models.Ingredient
		if err := tx.Scopes(models.Active).First(&ingredient, ingredientID).Error; err != nil {
			return notFound(err, ErrIngredientNotFound, ingredientID)
		}
		if err := units.ValidateFactor(ingredient.SubunitsPerMainUnit); err != nil {
			return fmt.Errorf("ingredient %d: %w", ingredientID, err)
		}

		subQty := units.ToSubunit(mainQty, ingredient.SubunitsPerMainUnit)
		posting, err := s.ledger.Increase(tx, ingredientID, subQty)
		if err != nil {
			return err
		}

		receipt = &models.StockReceipt{
			StockNo:              "STK-" + strings.ToUpper(uuid.NewString()),
			IngredientID:         ingredientID,
			ReceivedAt:           receivedAt,
			SupplierName:         strings.TrimSpace(meta.SupplierName),
			MainQuantity:         mainQty,
			SubunitQuantity:      subQty,
			BalanceBeforeSubunit: posting.Before,
			BalanceAfterSubunit:  posting.After,
			CostPerUnit:          meta.CostPerUnit,
			Remarks:              meta.Remarks,
			CreatedBy:            meta.UserID,
			Status:               models.LifecycleActive,
		}
		if meta.CostPerUnit.Valid {
			receipt.TotalCost = decimal.NewNullDecimal(meta.CostPerUnit.Decimal.Mul(mainQty))
		}
		return tx.Create(receipt).Error
	})
	if err != nil {
		applog.Debug(ctx, "stock receipt rejected", "ingredient_id", ingredientID, "error", err)
		return nil, err
	}

	metrics.ReceiptsRecorded.Inc()
	s.stockChanged(ctx)
	applog.Info(ctx, "stock received",
		"stock_no", receipt.StockNo,
		"ingredient_id", ingredientID,
		"subunits", receipt.SubunitQuantity.String(),
		"balance", receipt.BalanceAfterSubunit.String(),
	)
	return receipt, nil
}

// ReverseReceipt takes back exactly the subunits a receipt added. It fails
// with *InsufficientStockError when that stock has since been consumed.
func (s *Service) ReverseReceipt(ctx context.Context, receiptID uint) error {
	var reversed models.StockReceipt
	err := s.transact(ctx, "reverse_receipt", func(tx *gorm.DB) error {
		reversed = models.StockReceipt{}
		if err := tx.Scopes(models.Active).First(&reversed, receiptID).Error; err != nil {
			return notFound(err, ErrReceiptNotFound, receiptID)
		}
		if _, err := s.ledger.DecreaseIfSufficient(tx, reversed.IngredientID, reversed.SubunitQuantity); err != nil {
			return err
		}
		result := tx.Model(&models.StockReceipt{}).
			Scopes(models.Active).
			Where("id = ?", receiptID).
			Update("status", models.LifecycleInactive)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != 1 {
			return fmt.Errorf("%d: %w", receiptID, ErrReceiptNotFound)
		}
		return nil
	})
	if err != nil {
		if _, ok := IsInsufficientStock(err); ok {
			metrics.InsufficientStock.WithLabelValues("reverse_receipt").Inc()
		}
		applog.Debug(ctx, "stock receipt reversal rejected", "receipt_id", receiptID, "error", err)
		return err
	}

	metrics.ReceiptsReversed.Inc()
	s.stockChanged(ctx)
	applog.Info(ctx, "stock receipt reversed", "stock_no", reversed.StockNo, "ingredient_id", reversed.IngredientID)
	return nil
}

// ListReceipts returns active receipts, newest first.
func (s *Service) ListReceipts(ctx context.Context) ([]models.StockReceipt, error) {
	var receipts []models.StockReceipt
	err := s.db.WithContext(ctx).
		Scopes(models.Active).
		Preload("Ingredient").
		Order("received_at desc, id desc").
		Find(&receipts).Error
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	return receipts, nil
}

// GetReceipt loads an active receipt with its ingredient.
func (s *Service) GetReceipt(ctx context.Context, receiptID uint) (*models.StockReceipt, error) {
	var receipt models.StockReceipt
	err := s.db.WithContext(ctx).
		Scopes(models.Active).
		Preload("Ingredient").
		First(&receipt, receiptID).Error
	if err != nil {
		return nil, notFound(err, ErrReceiptNotFound, receiptID)
	}
	return &receipt, nil
}
