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
	"larder/internal/notify"
	"larder/models"
)

// EventOrderPlaced is published once an order and its deductions commit.
const EventOrderPlaced = "order.placed"

// OrderLineRequest asks for quantity units of a recipe.
type OrderLineRequest struct {
	RecipeID uint
	Quantity decimal.Decimal
}

// PlaceOrderRequest is an order header with its lines. The money fields are
// stored as given.
type PlaceOrderRequest struct {
	OrderNo       string
	TableNo       string
	OrderType     string
	CustomerName  string
	CustomerPhone string
	CustomerEmail string
	OrderDate     time.Time
	TotalAmount   decimal.Decimal
	Discount      decimal.Decimal
	TaxAmount     decimal.Decimal
	GrandTotal    decimal.Decimal
	PaymentMode   string
	Remark        string
	UserID        uint
	Lines         []OrderLineRequest
}

func (r PlaceOrderRequest) validate() error {
	if len(r.Lines) == 0 {
		return invalidf("an order needs at least one line")
	}
	for i, line := range r.Lines {
		if line.RecipeID == 0 {
			return invalidf("line %d: recipe_id is required", i)
		}
		if !line.Quantity.IsPositive() {
			return invalidf("line %d: quantity must be greater than zero", i)
		}
	}
	return nil
}

// InvoiceLine is one line of the invoice event.
type InvoiceLine struct {
	RecipeID     uint            `json:"recipe_id"`
	RecipeName   string          `json:"recipe_name"`
	Quantity     decimal.Decimal `json:"quantity"`
	SellingPrice decimal.Decimal `json:"selling_price"`
}

// Invoice is the payload of an order.placed event.
type Invoice struct {
	OrderID       uint            `json:"order_id"`
	OrderNo       string          `json:"order_no"`
	CustomerName  string          `json:"customer_name"`
	CustomerPhone string          `json:"customer_phone"`
	CustomerEmail string          `json:"customer_email"`
	OrderDate     time.Time       `json:"order_date"`
	PaymentMode   string          `json:"payment_mode"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Discount      decimal.Decimal `json:"discount"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
	Lines         []InvoiceLine   `json:"lines"`
}

func invoiceFor(order *models.Order) Invoice {
	lines := make([]InvoiceLine, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, InvoiceLine{
			RecipeID:     line.RecipeID,
			RecipeName:   line.RecipeName,
			Quantity:     line.Quantity,
			SellingPrice: line.SellingPrice,
		})
	}
	return Invoice{
		OrderID:       order.ID,
		OrderNo:       order.OrderNo,
		CustomerName:  order.CustomerName,
		CustomerPhone: order.CustomerPhone,
		CustomerEmail: order.CustomerEmail,
		OrderDate:     order.OrderDate,
		PaymentMode:   order.PaymentMode,
		TotalAmount:   order.TotalAmount,
		Discount:      order.Discount,
		TaxAmount:     order.TaxAmount,
		GrandTotal:    order.GrandTotal,
		Lines:         lines,
	}
}

// PlaceOrder records an order and deducts every ingredient its lines consume.
// Requirements are summed per ingredient across all lines and debited in one
// ledger call, so either the whole order commits or no balance changes.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*models.Order, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	orderNo := strings.TrimSpace(req.OrderNo)
	if orderNo == "" {
		orderNo = "ORD-" + strings.ToUpper(uuid.NewString())
	}
	orderDate := req.OrderDate
	if orderDate.IsZero() {
		orderDate = time.Now().UTC()
	}

	var order *models.Order
	err := s.transact(ctx, "place_order", func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&models.Order{}).Where("order_no = ?", orderNo).Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return fmt.Errorf("order %q: %w", orderNo, ErrDuplicateCode)
		}

		order = &models.Order{
			OrderNo:       orderNo,
			TableNo:       req.TableNo,
			OrderType:     req.OrderType,
			CustomerName:  req.CustomerName,
			CustomerPhone: req.CustomerPhone,
			CustomerEmail: req.CustomerEmail,
			OrderDate:     orderDate,
			TotalAmount:   req.TotalAmount,
			Discount:      req.Discount,
			TaxAmount:     req.TaxAmount,
			GrandTotal:    req.GrandTotal,
			PaymentMode:   req.PaymentMode,
			Remark:        req.Remark,
			CreatedBy:     req.UserID,
			Status:        models.LifecycleActive,
		}
		if err := tx.Create(order).Error; err != nil {
			return duplicateCode(err, "order", orderNo)
		}

		required := Amounts{}
		lines := make([]models.OrderLine, 0, len(req.Lines))
		for _, lineReq := range req.Lines {
			recipe, requirements, err := resolveRecipe(tx, lineReq.RecipeID)
			if err != nil {
				return err
			}
			line := models.OrderLine{
				OrderID:      order.ID,
				RecipeID:     recipe.ID,
				RecipeName:   recipe.Name,
				SellingPrice: recipe.SellingPrice,
				Quantity:     lineReq.Quantity,
				Status:       models.LifecycleActive,
			}
			for _, r := range requirements {
				qty := r.SubunitQuantityPerUnit.Mul(lineReq.Quantity)
				required.Add(r.IngredientID, qty)
				line.Consumptions = append(line.Consumptions, models.OrderLineConsumption{
					IngredientID:           r.IngredientID,
					SubunitQuantityPerUnit: r.SubunitQuantityPerUnit,
					SubunitQuantity:        qty,
				})
			}
			lines = append(lines, line)
		}

		if _, err := s.ledger.Deduct(tx, required); err != nil {
			return err
		}
		if err := tx.Create(&lines).Error; err != nil {
			return err
		}
		order.Lines = lines
		return nil
	})
	if err != nil {
		if shortage, ok := IsInsufficientStock(err); ok {
			metrics.InsufficientStock.WithLabelValues("place_order").Inc()
			applog.Info(ctx, "order rejected for insufficient stock",
				"order_no", orderNo,
				"ingredient_id", shortage.IngredientID,
				"available", shortage.Available.String(),
				"requested", shortage.Requested.String(),
			)
		} else {
			applog.Debug(ctx, "order rejected", "order_no", orderNo, "error", err)
		}
		return nil, err
	}

	metrics.OrdersPlaced.Inc()
	s.stockChanged(ctx)
	applog.Info(ctx, "order placed", "order_id", order.ID, "order_no", order.OrderNo, "lines", len(order.Lines))
	s.publish(ctx, notify.NewEvent(EventOrderPlaced, order.OrderNo, invoiceFor(order)))
	return order, nil
}

// ReverseOrder cancels an active order and puts its ingredients back. Which
// quantities are restored depends on the configured ReversalPolicy.
func (s *Service) ReverseOrder(ctx context.Context, orderID uint) error {
	var orderNo string
	err := s.transact(ctx, "reverse_order", func(tx *gorm.DB) error {
		var order models.Order
		err := tx.Scopes(models.Active).
			Preload("Lines", models.Active).
			Preload("Lines.Consumptions").
			First(&order, orderID).Error
		if err != nil {
			return notFound(err, ErrOrderNotFound, orderID)
		}
		orderNo = order.OrderNo

		restore, err := s.restoreAmounts(tx, order.Lines)
		if err != nil {
			return err
		}

		result := tx.Model(&models.Order{}).
			Scopes(models.Active).
			Where("id = ?", orderID).
			Update("status", models.LifecycleInactive)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != 1 {
			return fmt.Errorf("%d: %w", orderID, ErrOrderNotFound)
		}
		if err := tx.Model(&models.OrderLine{}).
			Scopes(models.Active).
			Where("order_id = ?", orderID).
			Update("status", models.LifecycleInactive).Error; err != nil {
			return err
		}

		_, err = s.ledger.Restore(tx, restore)
		return err
	})
	if err != nil {
		applog.Debug(ctx, "order reversal rejected", "order_id", orderID, "error", err)
		return err
	}

	metrics.OrdersReversed.Inc()
	s.stockChanged(ctx)
	applog.Info(ctx, "order reversed", "order_id", orderID, "order_no", orderNo, "policy", string(s.opts.ReversalPolicy))
	return nil
}

func (s *Service) restoreAmounts(tx *gorm.DB, lines []models.OrderLine) (Amounts, error) {
	amounts := Amounts{}
	for _, line := range lines {
		if s.opts.ReversalPolicy == ReverseFromCurrentRecipe {
			_, requirements, err := resolveRecipe(tx, line.RecipeID)
			if err != nil {
				return nil, err
			}
			for _, r := range requirements {
				amounts.Add(r.IngredientID, r.SubunitQuantityPerUnit.Mul(line.Quantity))
			}
			continue
		}
		for _, c := range line.Consumptions {
			amounts.Add(c.IngredientID, c.SubunitQuantity)
		}
	}
	return amounts, nil
}

// ListOrders returns active orders with their lines, newest first.
func (s *Service) ListOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Scopes(models.Active).
		Preload("Lines", models.Active).
		Preload("Lines.Consumptions").
		Order("order_date desc, id desc").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// GetOrder loads an active order with its lines and their consumption.
func (s *Service) GetOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Scopes(models.Active).
		Preload("Lines", models.Active).
		Preload("Lines.Consumptions").
		First(&order, orderID).Error
	if err != nil {
		return nil, notFound(err, ErrOrderNotFound, orderID)
	}
	return &order, nil
}
