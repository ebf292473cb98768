package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"larder/internal/db"
	"larder/internal/inventory"
	"larder/models"
)

func withInventoryTestService(t *testing.T) *inventory.Service {
	t.Helper()
	original := service

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	database, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("failed to access sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(database); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	svc := inventory.NewService(database, inventory.Options{})
	Configure(svc)
	t.Cleanup(func() {
		service = original
		sqlDB.Close()
	})
	return svc
}

func doJSON(t *testing.T, handler http.HandlerFunc, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(userIDHeader, "42")
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func createTestIngredient(t *testing.T, code string) uint {
	t.Helper()
	w := doJSON(t, IngredientResource, http.MethodPost, "/api/ingredients", map[string]any{
		"code":                   code,
		"name":                   "Ingredient " + code,
		"main_unit":              "kg",
		"subunit":                "g",
		"subunits_per_main_unit": "1000",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating ingredient, got %d: %s", w.Code, w.Body.String())
	}
	var resp ingredientResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode ingredient: %v", err)
	}
	return resp.ID
}

func TestIngredientResourceLifecycle(t *testing.T) {
	withInventoryTestService(t)

	id := createTestIngredient(t, "FLOUR")

	w := doJSON(t, IngredientResource, http.MethodPost, "/api/ingredients", map[string]any{
		"code": "flour", "name": "Dup", "main_unit": "kg", "subunit": "g", "subunits_per_main_unit": 1000,
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate code, got %d", w.Code)
	}

	w = doJSON(t, IngredientResource, http.MethodPost, "/api/ingredients", map[string]any{
		"code": "SALT", "name": "Salt", "main_unit": "kg", "subunit": "g", "subunits_per_main_unit": 0,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for zero factor, got %d", w.Code)
	}

	w = doJSON(t, IngredientResource, http.MethodPut, fmt.Sprintf("/api/ingredients/%d", id), map[string]any{
		"code": "FLOUR", "name": "Wheat flour", "main_unit": "kg", "subunit": "g", "subunits_per_main_unit": "1000",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on update, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, IngredientResource, http.MethodGet, fmt.Sprintf("/api/ingredients/%d", id), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on show, got %d", w.Code)
	}
	var resp ingredientResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode ingredient: %v", err)
	}
	if resp.Name != "Wheat flour" || !resp.Balance.Subunit.IsZero() {
		t.Fatalf("unexpected ingredient %+v", resp)
	}

	w = doJSON(t, IngredientResource, http.MethodDelete, fmt.Sprintf("/api/ingredients/%d", id), nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 on delete, got %d", w.Code)
	}
	w = doJSON(t, IngredientResource, http.MethodGet, fmt.Sprintf("/api/ingredients/%d", id), nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", w.Code)
	}

	w = doJSON(t, IngredientResource, http.MethodGet, "/api/ingredients/abc", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for invalid id, got %d", w.Code)
	}
	w = doJSON(t, IngredientResource, http.MethodPatch, fmt.Sprintf("/api/ingredients/%d", id), nil)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}

func TestStockReceiptAndReportFlow(t *testing.T) {
	withInventoryTestService(t)

	id := createTestIngredient(t, "RICE")

	w := doJSON(t, StockReceiptResource, http.MethodPost, "/api/stock-receipts", map[string]any{
		"ingredient_id": id,
		"main_quantity": "2.5",
		"supplier_name": "Mill & Co",
		"cost_per_unit": "1.20",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 on receive, got %d: %s", w.Code, w.Body.String())
	}
	var receipt models.StockReceipt
	if err := json.Unmarshal(w.Body.Bytes(), &receipt); err != nil {
		t.Fatalf("decode receipt: %v", err)
	}
	if !receipt.SubunitQuantity.Equal(decimal.NewFromInt(2500)) || receipt.CreatedBy != 42 {
		t.Fatalf("unexpected receipt %+v", receipt)
	}

	w = doJSON(t, StockReceiptResource, http.MethodPost, "/api/stock-receipts", map[string]any{
		"ingredient_id": id,
		"main_quantity": "0",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for zero quantity, got %d", w.Code)
	}

	w = doJSON(t, StockReport, http.MethodGet, "/api/stock-report", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on report, got %d", w.Code)
	}
	var rows []inventory.StockLevel
	if err := json.Unmarshal(w.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if len(rows) != 1 || !rows[0].StockMain.Equal(decimal.RequireFromString("2.5")) {
		t.Fatalf("unexpected report %+v", rows)
	}

	w = doJSON(t, StockReceiptResource, http.MethodGet, fmt.Sprintf("/api/stock-receipts/%d", receipt.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on show receipt, got %d", w.Code)
	}
	w = doJSON(t, StockReceiptResource, http.MethodDelete, fmt.Sprintf("/api/stock-receipts/%d", receipt.ID), nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 on reverse, got %d: %s", w.Code, w.Body.String())
	}
	w = doJSON(t, StockReceiptResource, http.MethodDelete, fmt.Sprintf("/api/stock-receipts/%d", receipt.ID), nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second reverse, got %d", w.Code)
	}
}

func TestOrderResourceReportsShortage(t *testing.T) {
	svc := withInventoryTestService(t)

	id := createTestIngredient(t, "PANEER")
	w := doJSON(t, StockReceiptResource, http.MethodPost, "/api/stock-receipts", map[string]any{
		"ingredient_id": id,
		"main_quantity": 4,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 on receive, got %d", w.Code)
	}

	w = doJSON(t, RecipeResource, http.MethodPost, "/api/recipes", map[string]any{
		"code": "TIKKA",
		"name": "Paneer tikka",
		"compositions": []map[string]any{
			{"ingredient_id": id, "subunit_quantity_per_unit": "250"},
		},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 on recipe create, got %d: %s", w.Code, w.Body.String())
	}
	var recipe models.Recipe
	if err := json.Unmarshal(w.Body.Bytes(), &recipe); err != nil {
		t.Fatalf("decode recipe: %v", err)
	}

	w = doJSON(t, RecipeResource, http.MethodGet, fmt.Sprintf("/api/recipes/%d", recipe.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on recipe show, got %d", w.Code)
	}
	var shown struct {
		Requirements []inventory.Requirement `json:"requirements"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &shown); err != nil {
		t.Fatalf("decode recipe: %v", err)
	}
	if len(shown.Requirements) != 1 || shown.Requirements[0].IngredientID != id {
		t.Fatalf("unexpected requirements %+v", shown.Requirements)
	}

	w = doJSON(t, OrderResource, http.MethodPost, "/api/orders", map[string]any{
		"table_no": "7",
		"lines":    []map[string]any{{"recipe_id": recipe.ID, "quantity": "40"}},
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for insufficient stock, got %d: %s", w.Code, w.Body.String())
	}
	var shortage insufficientStockResponse
	if err := json.Unmarshal(w.Body.Bytes(), &shortage); err != nil {
		t.Fatalf("decode shortage: %v", err)
	}
	if shortage.IngredientID != id || !shortage.Available.Equal(decimal.NewFromInt(4000)) || !shortage.Requested.Equal(decimal.NewFromInt(10000)) {
		t.Fatalf("unexpected shortage body %+v", shortage)
	}

	w = doJSON(t, OrderResource, http.MethodPost, "/api/orders", map[string]any{
		"table_no": "7",
		"lines":    []map[string]any{{"recipe_id": recipe.ID, "quantity": "2"}},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 on order, got %d: %s", w.Code, w.Body.String())
	}
	var order models.Order
	if err := json.Unmarshal(w.Body.Bytes(), &order); err != nil {
		t.Fatalf("decode order: %v", err)
	}

	balance, err := svc.Balance(context.Background(), id)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.Subunit.Equal(decimal.NewFromInt(3500)) {
		t.Fatalf("expected 3500 after order, got %s", balance.Subunit)
	}

	w = doJSON(t, OrderResource, http.MethodGet, fmt.Sprintf("/api/orders/%d", order.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on order show, got %d", w.Code)
	}
	w = doJSON(t, OrderResource, http.MethodDelete, fmt.Sprintf("/api/orders/%d", order.ID), nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 on reverse, got %d", w.Code)
	}
	w = doJSON(t, OrderResource, http.MethodDelete, fmt.Sprintf("/api/orders/%d", order.ID), nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second reverse, got %d", w.Code)
	}
}

func TestRecipeResourceRejectsMalformedPayload(t *testing.T) {
	withInventoryTestService(t)

	req := httptest.NewRequest(http.MethodPost, "/api/recipes", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	RecipeResource(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	w = doJSON(t, RecipeResource, http.MethodPost, "/api/recipes", map[string]any{"name": "No code"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing code, got %d", w.Code)
	}
}

func TestResourcesWithoutServiceAreUnavailable(t *testing.T) {
	original := service
	service = nil
	t.Cleanup(func() { service = original })

	handlers := map[string]http.HandlerFunc{
		"/api/ingredients":    IngredientResource,
		"/api/stock-receipts": StockReceiptResource,
		"/api/stock-report":   StockReport,
		"/api/recipes":        RecipeResource,
		"/api/orders":         OrderResource,
	}
	for path, handler := range handlers {
		w := httptest.NewRecorder()
		handler(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusServiceUnavailable {
			t.Fatalf("%s: expected 503, got %d", path, w.Code)
		}
	}
}

func TestCollectionListings(t *testing.T) {
	withInventoryTestService(t)

	collections := []struct {
		path    string
		handler http.HandlerFunc
	}{
		{"/api/ingredients", IngredientResource},
		{"/api/recipes", RecipeResource},
		{"/api/stock-receipts", StockReceiptResource},
		{"/api/orders", OrderResource},
	}
	for _, c := range collections {
		w := doJSON(t, c.handler, http.MethodGet, c.path, nil)
		if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != "[]" {
			t.Fatalf("%s: expected empty list, got %d %s", c.path, w.Code, w.Body.String())
		}
	}

	id := createTestIngredient(t, "OIL")
	gone := createTestIngredient(t, "LARD")
	w := doJSON(t, IngredientResource, http.MethodDelete, fmt.Sprintf("/api/ingredients/%d", gone), nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 on delete, got %d", w.Code)
	}
	w = doJSON(t, StockReceiptResource, http.MethodPost, "/api/stock-receipts", map[string]any{
		"ingredient_id": id,
		"main_quantity": "1.5",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 on receive, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, IngredientResource, http.MethodGet, "/api/ingredients", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 listing ingredients, got %d", w.Code)
	}
	var ingredients []ingredientResponse
	if err := json.Unmarshal(w.Body.Bytes(), &ingredients); err != nil {
		t.Fatalf("decode ingredients: %v", err)
	}
	if len(ingredients) != 1 || ingredients[0].ID != id || !ingredients[0].Balance.Main.Equal(decimal.RequireFromString("1.5")) {
		t.Fatalf("unexpected ingredients %+v", ingredients)
	}

	w = doJSON(t, StockReceiptResource, http.MethodGet, "/api/stock-receipts", nil)
	var receipts []models.StockReceipt
	if err := json.Unmarshal(w.Body.Bytes(), &receipts); err != nil {
		t.Fatalf("decode receipts: %v", err)
	}
	if len(receipts) != 1 || !receipts[0].SubunitQuantity.Equal(decimal.NewFromInt(1500)) {
		t.Fatalf("unexpected receipts %+v", receipts)
	}

	w = doJSON(t, OrderResource, http.MethodPut, "/api/orders", nil)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}
