package handlers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"larder/internal/inventory"
)

type orderLineRequest struct {
	RecipeID uint            `json:"recipe_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

type orderRequest struct {
	OrderNo       string             `json:"order_no"`
	TableNo       string             `json:"table_no"`
	OrderType     string             `json:"order_type"`
	CustomerName  string             `json:"customer_name"`
	CustomerPhone string             `json:"customer_phone"`
	CustomerEmail string             `json:"customer_email"`
	OrderDate     *time.Time         `json:"order_date"`
	TotalAmount   decimal.Decimal    `json:"total_amount"`
	Discount      decimal.Decimal    `json:"discount"`
	TaxAmount     decimal.Decimal    `json:"tax_amount"`
	GrandTotal    decimal.Decimal    `json:"grand_total"`
	PaymentMode   string             `json:"payment_mode"`
	Remark        string             `json:"remark"`
	Lines         []orderLineRequest `json:"lines"`
}

// OrderResource handles order placement and cancellation under /api/orders.
func OrderResource(w http.ResponseWriter, r *http.Request) {
	if !ensureService(w, r, "order") {
		return
	}

	path := resourcePath(r, "/api/orders")
	if path == "" {
		switch r.Method {
		case http.MethodGet:
			listOrders(w, r)
		case http.MethodPost:
			placeOrder(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	orderID, ok := parseID(w, r, path)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		order, err := service.GetOrder(r.Context(), orderID)
		if err != nil {
			writeServiceError(w, r, err, "load order")
			return
		}
		writeJSON(w, http.StatusOK, order)
	case http.MethodDelete:
		if err := service.ReverseOrder(r.Context(), orderID); err != nil {
			writeServiceError(w, r, err, "reverse order")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func placeOrder(w http.ResponseWriter, r *http.Request) {
	var payload orderRequest
	if !decodeJSON(w, r, &payload) {
		return
	}

	req := inventory.PlaceOrderRequest{
		OrderNo:       payload.OrderNo,
		TableNo:       payload.TableNo,
		OrderType:     payload.OrderType,
		CustomerName:  payload.CustomerName,
		CustomerPhone: payload.CustomerPhone,
		CustomerEmail: payload.CustomerEmail,
		TotalAmount:   payload.TotalAmount,
		Discount:      payload.Discount,
		TaxAmount:     payload.TaxAmount,
		GrandTotal:    payload.GrandTotal,
		PaymentMode:   payload.PaymentMode,
		Remark:        payload.Remark,
		UserID:        actorID(r),
	}
	if payload.OrderDate != nil {
		req.OrderDate = payload.OrderDate.UTC()
	}
	for _, line := range payload.Lines {
		req.Lines = append(req.Lines, inventory.OrderLineRequest{RecipeID: line.RecipeID, Quantity: line.Quantity})
	}

	order, err := service.PlaceOrder(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err, "place order")
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func listOrders(w http.ResponseWriter, r *http.Request) {
	rows, err := service.ListOrders(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "list orders")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
