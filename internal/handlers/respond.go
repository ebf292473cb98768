package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"larder/internal/inventory"
	applog "larder/internal/log"
	"larder/internal/units"
)

// userIDHeader carries the opaque caller reference stored in audit fields.
const userIDHeader = "X-User-ID"

var service *inventory.Service

// Configure installs the inventory service used by the HTTP handlers.
func Configure(svc *inventory.Service) {
	service = svc
}

type insufficientStockResponse struct {
	Error        string          `json:"error"`
	IngredientID uint            `json:"ingredient_id"`
	Available    decimal.Decimal `json:"available"`
	Requested    decimal.Decimal `json:"requested"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		applog.Error(context.Background(), "failed to encode json response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps inventory errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, action string) {
	ctx := r.Context()

	if shortage, ok := inventory.IsInsufficientStock(err); ok {
		writeJSON(w, http.StatusConflict, insufficientStockResponse{
			Error:        shortage.Error(),
			IngredientID: shortage.IngredientID,
			Available:    shortage.Available,
			Requested:    shortage.Requested,
		})
		return
	}

	switch {
	case errors.Is(err, inventory.ErrNotFound):
		applog.Debug(ctx, action+" target not found", "error", err)
		writeJSONError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, inventory.ErrDuplicateCode):
		writeJSONError(w, http.StatusConflict, err.Error())
	case errors.Is(err, inventory.ErrInvalidInput):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, units.ErrInvalidConversionFactor):
		applog.Error(ctx, action+" hit an invalid conversion factor", "error", err)
		writeJSONError(w, http.StatusInternalServerError, err.Error())
	case errors.Is(err, inventory.ErrConcurrentUpdate):
		applog.Warn(ctx, action+" gave up after repeated conflicts", "error", err)
		writeJSONError(w, http.StatusServiceUnavailable, "stock is busy, retry the request")
	default:
		applog.Error(ctx, "failed to "+action, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to "+action)
	}
}

// ensureService rejects the request when Configure has not been called.
func ensureService(w http.ResponseWriter, r *http.Request, resource string) bool {
	if service == nil {
		applog.Debug(r.Context(), resource+" request without inventory service")
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return false
	}
	return true
}

// resourcePath strips prefix from the request path and returns the remaining
// identifier, or "" for the collection itself.
func resourcePath(r *http.Request, prefix string) string {
	return strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
}

func parseID(w http.ResponseWriter, r *http.Request, identifier string) (uint, bool) {
	value, err := strconv.ParseUint(identifier, 10, 64)
	if err != nil || value == 0 {
		applog.Debug(r.Context(), "invalid resource identifier", "identifier", identifier, "error", err)
		http.NotFound(w, r)
		return 0, false
	}
	return uint(value), true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		applog.Debug(r.Context(), "invalid request payload", "path", r.URL.Path, "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return false
	}
	return true
}

// actorID reads the caller reference. Missing or malformed values record 0.
func actorID(r *http.Request) uint {
	value, err := strconv.ParseUint(strings.TrimSpace(r.Header.Get(userIDHeader)), 10, 64)
	if err != nil {
		return 0
	}
	return uint(value)
}
