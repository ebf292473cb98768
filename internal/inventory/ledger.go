package inventory

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"larder/models"
)

// Posting is one committed change to an ingredient balance.
type Posting struct {
	IngredientID uint
	Before       decimal.Decimal
	After        decimal.Decimal
}

// Amounts maps ingredient IDs to a positive subunit quantity.
type Amounts map[uint]decimal.Decimal

// Add accumulates qty for an ingredient.
func (a Amounts) Add(ingredientID uint, qty decimal.Decimal) {
	if current, ok := a[ingredientID]; ok {
		a[ingredientID] = current.Add(qty)
		return
	}
	a[ingredientID] = qty
}

// Ledger owns every write to Ingredient.CurrentStockSubunit. All methods run
// on a caller-provided transaction.
//
// Rows are locked in ascending ID order and every write is a compare-and-swap
// on Ingredient.Version, so two transactions can never both commit a debit
// computed from the same balance.
type Ledger struct{}

type direction int

const (
	credit direction = iota
	debit
)

// Increase adds delta subunits to an active ingredient.
func (l Ledger) Increase(tx *gorm.DB, ingredientID uint, delta decimal.Decimal) (Posting, error) {
	postings, err := l.post(tx, Amounts{ingredientID: delta}, credit, true)
	if err != nil {
		return Posting{}, err
	}
	return postings[0], nil
}

// DecreaseIfSufficient subtracts delta subunits or fails with
// *InsufficientStockError, leaving the balance untouched.
func (l Ledger) DecreaseIfSufficient(tx *gorm.DB, ingredientID uint, delta decimal.Decimal) (Posting, error) {
	postings, err := l.post(tx, Amounts{ingredientID: delta}, debit, true)
	if err != nil {
		return Posting{}, err
	}
	return postings[0], nil
}

// Deduct debits several active ingredients. Either every amount is covered
// or nothing is written.
func (l Ledger) Deduct(tx *gorm.DB, amounts Amounts) ([]Posting, error) {
	return l.post(tx, amounts, debit, true)
}

// Restore credits several ingredients back. Inactive ingredients are
// accepted; compensation must not depend on the current lifecycle.
func (l Ledger) Restore(tx *gorm.DB, amounts Amounts) ([]Posting, error) {
	return l.post(tx, amounts, credit, false)
}

func (l Ledger) post(tx *gorm.DB, amounts Amounts, dir direction, requireActive bool) ([]Posting, error) {
	if len(amounts) == 0 {
		return nil, nil
	}

	ids := make([]uint, 0, len(amounts))
	for id, qty := range amounts {
		if !qty.IsPositive() {
			return nil, invalidf("quantity for ingredient %d must be greater than zero", id)
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)

	query := tx.Clauses(clause.Locking{Strength: "UPDATE"})
	if requireActive {
		query = query.Scopes(models.Active)
	}
	var rows []models.Ingredient
	if err := query.Where("id IN ?", ids).Order("id asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("lock ingredients: %w", err)
	}
	if len(rows) != len(ids) {
		return nil, fmt.Errorf("ingredient %d: %w", firstMissing(ids, rows), ErrIngredientNotFound)
	}

	postings := make([]Posting, 0, len(rows))
	for _, row := range rows {
		qty := amounts[row.ID]
		next := row.CurrentStockSubunit.Add(qty)
		if dir == debit {
			if row.CurrentStockSubunit.LessThan(qty) {
				return nil, &InsufficientStockError{
					IngredientID: row.ID,
					Available:    row.CurrentStockSubunit,
					Requested:    qty,
				}
			}
			next = row.CurrentStockSubunit.Sub(qty)
		}
		postings = append(postings, Posting{IngredientID: row.ID, Before: row.CurrentStockSubunit, After: next})
	}

	for i, row := range rows {
		result := tx.Model(&models.Ingredient{}).
			Where("id = ? AND version = ?", row.ID, row.Version).
			Updates(map[string]any{
				"current_stock_subunit": postings[i].After,
				"version":               row.Version + 1,
			})
		if result.Error != nil {
			return nil, fmt.Errorf("update ingredient %d balance: %w", row.ID, result.Error)
		}
		if result.RowsAffected != 1 {
			return nil, fmt.Errorf("ingredient %d: %w", row.ID, ErrConcurrentUpdate)
		}
	}

	return postings, nil
}

func firstMissing(ids []uint, rows []models.Ingredient) uint {
	found := make(map[uint]struct{}, len(rows))
	for _, row := range rows {
		found[row.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return id
		}
	}
	return 0
}
