package handlers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"larder/internal/inventory"
	applog "larder/internal/log"
)

type stockReceiptRequest struct {
	IngredientID uint                `json:"ingredient_id"`
	MainQuantity decimal.Decimal     `json:"main_quantity"`
	SupplierName string              `json:"supplier_name"`
	CostPerUnit  decimal.NullDecimal `json:"cost_per_unit"`
	Remarks      string              `json:"remarks"`
	ReceivedAt   *time.Time          `json:"received_at"`
}

// StockReceiptResource handles stock-in entries under /api/stock-receipts.
func StockReceiptResource(w http.ResponseWriter, r *http.Request) {
	if !ensureService(w, r, "stock receipt") {
		return
	}

	path := resourcePath(r, "/api/stock-receipts")
	if path == "" {
		switch r.Method {
		case http.MethodGet:
			listReceipts(w, r)
		case http.MethodPost:
			receiveStock(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	receiptID, ok := parseID(w, r, path)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		receipt, err := service.GetReceipt(r.Context(), receiptID)
		if err != nil {
			writeServiceError(w, r, err, "load stock receipt")
			return
		}
		writeJSON(w, http.StatusOK, receipt)
	case http.MethodDelete:
		if err := service.ReverseReceipt(r.Context(), receiptID); err != nil {
			writeServiceError(w, r, err, "reverse stock receipt")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func receiveStock(w http.ResponseWriter, r *http.Request) {
	var payload stockReceiptRequest
	if !decodeJSON(w, r, &payload) {
		return
	}
	if payload.IngredientID == 0 {
		writeJSONError(w, http.StatusBadRequest, "ingredient_id is required")
		return
	}

	meta := inventory.ReceiptMetadata{
		SupplierName: payload.SupplierName,
		CostPerUnit:  payload.CostPerUnit,
		Remarks:      payload.Remarks,
		UserID:       actorID(r),
	}
	if payload.ReceivedAt != nil {
		meta.ReceivedAt = payload.ReceivedAt.UTC()
	}

	receipt, err := service.Receive(r.Context(), payload.IngredientID, payload.MainQuantity, meta)
	if err != nil {
		writeServiceError(w, r, err, "receive stock")
		return
	}
	writeJSON(w, http.StatusCreated, receipt)
}

// StockReport lists the current balance of every active ingredient.
func StockReport(w http.ResponseWriter, r *http.Request) {
	if !ensureService(w, r, "stock report") {
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	rows, err := service.StockReport(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "build stock report")
		return
	}
	applog.Debug(r.Context(), "stock report served", "rows", len(rows))
	writeJSON(w, http.StatusOK, rows)
}

func listReceipts(w http.ResponseWriter, r *http.Request) {
	rows, err := service.ListReceipts(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "list stock receipts")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
