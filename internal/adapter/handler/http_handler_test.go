package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/plateful/plateful/internal/adapter/storage"
	"github.com/plateful/plateful/internal/core/domain"
	"github.com/plateful/plateful/internal/core/inventory"
	"github.com/plateful/plateful/internal/core/service"
)

type noopNotifier struct{}

func (noopNotifier) OrderCreated(domain.Order) {}

func setupHandler(t *testing.T) (*http.ServeMux, *storage.MemoryStore, *inventory.StockLedger) {
	t.Helper()
	ctx := context.Background()

	ledger := inventory.NewStockLedger()
	manager := inventory.NewReservationManager(ledger, 0, nil)
	store := storage.NewMemoryStore(ledger)

	store.AddRestaurant(domain.Restaurant{ID: "resto-1", Name: "Test Kitchen", CreatedAt: time.Now()})

	stock := 5
	store.CreateMenuItem(ctx, domain.MenuItem{
		ID: "burger", RestaurantID: "resto-1", Name: "Limited Burger",
		Price: 15.99, Category: "Burgers", Available: true, TrackedStock: &stock,
	})
	store.CreateMenuItem(ctx, domain.MenuItem{
		ID: "fries", RestaurantID: "resto-1", Name: "Unlimited Fries",
		Price: 4.99, Category: "Sides", Available: true,
	})

	svc := service.NewOrderService(store, store, manager, noopNotifier{}, storage.NewMemoryCache(), nil)
	h := NewHTTPHandler(svc, store, manager, nil)

	mux := http.NewServeMux()
	h.Register(mux)
	return mux, store, ledger
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path string, body any) *httptest.ResponseRecorder {
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
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	mux, _, _ := setupHandler(t)

	rec := doJSON(t, mux, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestSubmitOrder_Created(t *testing.T) {
	mux, _, ledger := setupHandler(t)

	rec := doJSON(t, mux, http.MethodPost, "/restaurants/resto-1/orders", map[string]any{
		"customer_name": "Alice",
		"items": []map[string]any{
			{"menu_item_id": "burger", "quantity": 2},
			{"menu_item_id": "fries", "quantity": 1},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		ID     string  `json:"id"`
		Status string  `json:"status"`
		Total  float64 `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID == "" {
		t.Error("expected non-empty order id")
	}
	if resp.Status != "pending" {
		t.Errorf("expected pending status, got %s", resp.Status)
	}
	if resp.Total != 36.97 {
		t.Errorf("expected total 36.97, got %v", resp.Total)
	}

	stock, _ := ledger.TrackedStock("burger")
	if stock != 3 {
		t.Errorf("expected stock 3 after commit, got %d", stock)
	}
}

func TestSubmitOrder_UnknownRestaurant(t *testing.T) {
	mux, _, _ := setupHandler(t)

	rec := doJSON(t, mux, http.MethodPost, "/restaurants/nope/orders", map[string]any{
		"customer_name": "Alice",
		"items":         []map[string]any{{"menu_item_id": "burger", "quantity": 1}},
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestSubmitOrder_MissingFields(t *testing.T) {
	mux, _, _ := setupHandler(t)

	rec := doJSON(t, mux, http.MethodPost, "/restaurants/resto-1/orders", map[string]any{
		"items": []map[string]any{{"menu_item_id": "burger", "quantity": 1}},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestSubmitOrder_ItemNotFound(t *testing.T) {
	mux, _, _ := setupHandler(t)

	rec := doJSON(t, mux, http.MethodPost, "/restaurants/resto-1/orders", map[string]any{
		"customer_name": "Alice",
		"items":         []map[string]any{{"menu_item_id": "ghost", "quantity": 1}},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ghost") {
		t.Errorf("expected offending item in body: %s", rec.Body.String())
	}
}

func TestSubmitOrder_InsufficientStock(t *testing.T) {
	mux, _, _ := setupHandler(t)

	rec := doJSON(t, mux, http.MethodPost, "/restaurants/resto-1/orders", map[string]any{
		"customer_name": "Alice",
		"items":         []map[string]any{{"menu_item_id": "burger", "quantity": 6}},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "burger") {
		t.Errorf("expected short item named in body: %s", rec.Body.String())
	}
}

func TestSubmitOrder_DuplicateRequest(t *testing.T) {
	mux, _, _ := setupHandler(t)

	body := map[string]any{
		"request_id":    "req-1",
		"customer_name": "Alice",
		"items":         []map[string]any{{"menu_item_id": "burger", "quantity": 1}},
	}

	rec := doJSON(t, mux, http.MethodPost, "/restaurants/resto-1/orders", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	rec = doJSON(t, mux, http.MethodPost, "/restaurants/resto-1/orders", body)
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 for duplicate request, got %d", rec.Code)
	}
}

func TestGetOrder(t *testing.T) {
	mux, _, _ := setupHandler(t)

	rec := doJSON(t, mux, http.MethodPost, "/restaurants/resto-1/orders", map[string]any{
		"customer_name": "Alice",
		"items":         []map[string]any{{"menu_item_id": "fries", "quantity": 1}},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var created struct {
		ID string `json:"id"`
	}
	json.Unmarshal(rec.Body.Bytes(), &created)

	rec = doJSON(t, mux, http.MethodGet, "/restaurants/resto-1/orders/"+created.ID, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	rec = doJSON(t, mux, http.MethodGet, "/restaurants/resto-1/orders/no-such-order", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestGetStock(t *testing.T) {
	mux, _, _ := setupHandler(t)

	rec := doJSON(t, mux, http.MethodGet, "/restaurants/resto-1/stock/burger", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Tracked   bool `json:"tracked"`
		Available int  `json:"available"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if !resp.Tracked || resp.Available != 5 {
		t.Errorf("expected tracked with 5 available, got %+v", resp)
	}

	rec = doJSON(t, mux, http.MethodGet, "/restaurants/resto-1/stock/fries", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Tracked {
		t.Error("expected fries to be untracked")
	}

	rec = doJSON(t, mux, http.MethodGet, "/restaurants/resto-1/stock/ghost", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown item, got %d", rec.Code)
	}
}

func TestGetRestaurant(t *testing.T) {
	mux, _, _ := setupHandler(t)

	rec := doJSON(t, mux, http.MethodGet, "/restaurants/resto-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.ID != "resto-1" || resp.Name != "Test Kitchen" {
		t.Errorf("unexpected restaurant body: %+v", resp)
	}

	rec = doJSON(t, mux, http.MethodGet, "/restaurants/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown restaurant, got %d", rec.Code)
	}
}

func TestListOrders(t *testing.T) {
	mux, _, _ := setupHandler(t)

	for _, name := range []string{"Alice", "Bob"} {
		rec := doJSON(t, mux, http.MethodPost, "/restaurants/resto-1/orders", map[string]any{
			"customer_name": name,
			"items":         []map[string]any{{"menu_item_id": "fries", "quantity": 1}},
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rec.Code)
		}
	}

	rec := doJSON(t, mux, http.MethodGet, "/restaurants/resto-1/orders", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var list []json.RawMessage
	json.Unmarshal(rec.Body.Bytes(), &list)
	if len(list) != 2 {
		t.Errorf("expected 2 orders listed, got %d", len(list))
	}
}

func TestGetAnalytics(t *testing.T) {
	mux, _, _ := setupHandler(t)

	rec := doJSON(t, mux, http.MethodPost, "/restaurants/resto-1/orders", map[string]any{
		"customer_name": "Alice",
		"items": []map[string]any{
			{"menu_item_id": "burger", "quantity": 2},
			{"menu_item_id": "fries", "quantity": 1},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	rec = doJSON(t, mux, http.MethodGet, "/restaurants/resto-1/analytics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		TotalOrders  int     `json:"total_orders"`
		TotalRevenue float64 `json:"total_revenue"`
		TopItems     []struct {
			Name  string `json:"name"`
			Count int    `json:"count"`
		} `json:"top_items"`
		OrdersByDay []struct {
			Date  string `json:"date"`
			Count int    `json:"count"`
		} `json:"orders_by_day"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.TotalOrders != 1 {
		t.Errorf("expected 1 order, got %d", resp.TotalOrders)
	}
	if resp.TotalRevenue != 36.97 {
		t.Errorf("expected revenue 36.97, got %v", resp.TotalRevenue)
	}
	if len(resp.TopItems) != 2 || resp.TopItems[0].Name != "Limited Burger" || resp.TopItems[0].Count != 2 {
		t.Errorf("unexpected top items: %+v", resp.TopItems)
	}
	if len(resp.OrdersByDay) != 1 || resp.OrdersByDay[0].Count != 1 {
		t.Errorf("unexpected day buckets: %+v", resp.OrdersByDay)
	}

	rec = doJSON(t, mux, http.MethodGet, "/restaurants/nope/analytics", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown restaurant, got %d", rec.Code)
	}
}

func TestMenuCRUD(t *testing.T) {
	mux, _, ledger := setupHandler(t)

	rec := doJSON(t, mux, http.MethodPost, "/restaurants/resto-1/menu", map[string]any{
		"name":     "Daily Special",
		"price":    8.99,
		"category": "Specials",
		"stock":    12,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID    string `json:"id"`
		Stock *int   `json:"stock"`
	}
	json.Unmarshal(rec.Body.Bytes(), &created)
	if created.Stock == nil || *created.Stock != 12 {
		t.Errorf("expected stock 12 in response, got %v", created.Stock)
	}
	if got, ok := ledger.TrackedStock(created.ID); !ok || got != 12 {
		t.Errorf("expected ledger stock 12, got %d (tracked=%v)", got, ok)
	}

	rec = doJSON(t, mux, http.MethodGet, "/restaurants/resto-1/menu", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var list []json.RawMessage
	json.Unmarshal(rec.Body.Bytes(), &list)
	if len(list) != 3 {
		t.Errorf("expected 3 menu items, got %d", len(list))
	}

	rec = doJSON(t, mux, http.MethodPut, "/restaurants/resto-1/menu/"+created.ID, map[string]any{
		"price": 10.49,
	})
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	rec = doJSON(t, mux, http.MethodPut, "/restaurants/resto-1/menu/"+created.ID, map[string]any{
		"price": -1,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid price, got %d", rec.Code)
	}

	rec = doJSON(t, mux, http.MethodDelete, "/restaurants/resto-1/menu/"+created.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if _, ok := ledger.TrackedStock(created.ID); ok {
		t.Error("expected ledger cleared after delete")
	}

	rec = doJSON(t, mux, http.MethodDelete, "/restaurants/resto-1/menu/"+created.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for second delete, got %d", rec.Code)
	}
}

func TestCreateMenuItem_Validation(t *testing.T) {
	mux, _, _ := setupHandler(t)

	rec := doJSON(t, mux, http.MethodPost, "/restaurants/resto-1/menu", map[string]any{
		"name": "No Price",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}

	rec = doJSON(t, mux, http.MethodPost, "/restaurants/resto-1/menu", map[string]any{
		"name":     "Negative",
		"price":    -3.50,
		"category": "Broken",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for negative price, got %d", rec.Code)
	}
}
