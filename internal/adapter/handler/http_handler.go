package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/plateful/plateful/internal/core/domain"
	"github.com/plateful/plateful/internal/core/inventory"
	"github.com/plateful/plateful/internal/core/service"
	"github.com/plateful/plateful/internal/port"
)

type HTTPHandler struct {
	orderService *service.OrderService
	catalog      port.MenuCatalog
	reservations *inventory.ReservationManager
	log          *zap.Logger
}

func NewHTTPHandler(orderService *service.OrderService, catalog port.MenuCatalog, reservations *inventory.ReservationManager, log *zap.Logger) *HTTPHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTPHandler{
		orderService: orderService,
		catalog:      catalog,
		reservations: reservations,
		log:          log,
	}
}

func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.HealthCheck)
	mux.HandleFunc("GET /restaurants/{id}", h.GetRestaurant)
	mux.HandleFunc("GET /restaurants/{id}/menu", h.ListMenu)
	mux.HandleFunc("POST /restaurants/{id}/menu", h.CreateMenuItem)
	mux.HandleFunc("PUT /restaurants/{id}/menu/{itemID}", h.UpdateMenuItem)
	mux.HandleFunc("DELETE /restaurants/{id}/menu/{itemID}", h.DeleteMenuItem)
	mux.HandleFunc("POST /restaurants/{id}/orders", h.SubmitOrder)
	mux.HandleFunc("GET /restaurants/{id}/orders", h.ListOrders)
	mux.HandleFunc("GET /restaurants/{id}/orders/{orderID}", h.GetOrder)
	mux.HandleFunc("GET /restaurants/{id}/stock/{itemID}", h.GetStock)
	mux.HandleFunc("GET /restaurants/{id}/analytics", h.GetAnalytics)
}

type orderLineRequest struct {
	MenuItemID string `json:"menu_item_id"`
	Quantity   int    `json:"quantity"`
}

type createOrderRequest struct {
	RequestID    string             `json:"request_id,omitempty"`
	CustomerName string             `json:"customer_name"`
	Items        []orderLineRequest `json:"items"`
}

type orderItemResponse struct {
	MenuItemID string  `json:"menu_item_id"`
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	Price      float64 `json:"price"`
}

type orderResponse struct {
	ID           string              `json:"id"`
	RestaurantID string              `json:"restaurant_id"`
	CustomerName string              `json:"customer_name"`
	Items        []orderItemResponse `json:"items"`
	Total        float64             `json:"total"`
	Status       string              `json:"status"`
	NotifiedAt   *time.Time          `json:"notified_at"`
	CreatedAt    time.Time           `json:"created_at"`
}

type menuItemRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Available   *bool   `json:"available"`
	Stock       *int    `json:"stock"`
}

type updateMenuItemRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Category    *string  `json:"category"`
	Available   *bool    `json:"available"`
	Stock       *int     `json:"stock"`
	Untrack     bool     `json:"untrack,omitempty"`
}

type menuItemResponse struct {
	ID           string  `json:"id"`
	RestaurantID string  `json:"restaurant_id"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	Category     string  `json:"category"`
	Available    bool    `json:"available"`
	Stock        *int    `json:"stock"`
}

type restaurantResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type itemSalesResponse struct {
	Name    string  `json:"name"`
	Count   int     `json:"count"`
	Revenue float64 `json:"revenue"`
}

type daySalesResponse struct {
	Date    string  `json:"date"`
	Count   int     `json:"count"`
	Revenue float64 `json:"revenue"`
}

type analyticsResponse struct {
	TotalOrders  int                 `json:"total_orders"`
	TotalRevenue float64             `json:"total_revenue"`
	TopItems     []itemSalesResponse `json:"top_items"`
	OrdersByDay  []daySalesResponse  `json:"orders_by_day"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	restaurant, ok := h.tenant(w, r)
	if !ok {
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	lines := make([]domain.OrderLine, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, domain.OrderLine{MenuItemID: item.MenuItemID, Quantity: item.Quantity})
	}

	order, err := h.orderService.SubmitOrder(r.Context(), restaurant.ID, req.RequestID, req.CustomerName, lines)
	if err != nil {
		h.writeOrderError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(*order))
}

func (h *HTTPHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	restaurant, ok := h.tenant(w, r)
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(r.Context(), restaurant.ID, r.PathValue("orderID"))
	if err != nil {
		h.log.Error("get order failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	if order == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "order not found"})
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(*order))
}

func (h *HTTPHandler) GetRestaurant(w http.ResponseWriter, r *http.Request) {
	restaurant, ok := h.tenant(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, restaurantResponse{
		ID:        restaurant.ID,
		Name:      restaurant.Name,
		CreatedAt: restaurant.CreatedAt,
	})
}

func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	restaurant, ok := h.tenant(w, r)
	if !ok {
		return
	}

	orders, err := h.orderService.ListOrders(r.Context(), restaurant.ID)
	if err != nil {
		h.log.Error("list orders failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	resp := make([]orderResponse, 0, len(orders))
	for _, order := range orders {
		resp = append(resp, toOrderResponse(order))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	restaurant, ok := h.tenant(w, r)
	if !ok {
		return
	}

	analytics, err := h.orderService.Analytics(r.Context(), restaurant.ID)
	if err != nil {
		h.log.Error("analytics failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	resp := analyticsResponse{
		TotalOrders:  analytics.TotalOrders,
		TotalRevenue: analytics.TotalRevenue,
		TopItems:     make([]itemSalesResponse, 0, len(analytics.TopItems)),
		OrdersByDay:  make([]daySalesResponse, 0, len(analytics.OrdersByDay)),
	}
	for _, item := range analytics.TopItems {
		resp.TopItems = append(resp.TopItems, itemSalesResponse(item))
	}
	for _, day := range analytics.OrdersByDay {
		resp.OrdersByDay = append(resp.OrdersByDay, daySalesResponse(day))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) GetStock(w http.ResponseWriter, r *http.Request) {
	restaurant, ok := h.tenant(w, r)
	if !ok {
		return
	}

	itemID := r.PathValue("itemID")
	item, err := h.catalog.FindMenuItem(r.Context(), itemID)
	if err != nil {
		h.log.Error("find menu item failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	if item == nil || item.RestaurantID != restaurant.ID {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "menu item not found"})
		return
	}

	available, tracked := h.reservations.Available(itemID)
	resp := map[string]any{
		"item_id": itemID,
		"tracked": tracked,
	}
	if tracked {
		resp["available"] = available
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) ListMenu(w http.ResponseWriter, r *http.Request) {
	restaurant, ok := h.tenant(w, r)
	if !ok {
		return
	}

	items, err := h.catalog.ListMenu(r.Context(), restaurant.ID)
	if err != nil {
		h.log.Error("list menu failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	resp := make([]menuItemResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, toMenuItemResponse(item))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) CreateMenuItem(w http.ResponseWriter, r *http.Request) {
	restaurant, ok := h.tenant(w, r)
	if !ok {
		return
	}

	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Name == "" || req.Category == "" || req.Price == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing required fields: name, price, category"})
		return
	}
	if req.Price <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "price must be greater than 0"})
		return
	}

	available := true
	if req.Available != nil {
		available = *req.Available
	}

	now := time.Now()
	item := domain.MenuItem{
		ID:           uuid.New().String(),
		RestaurantID: restaurant.ID,
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		Category:     req.Category,
		Available:    available,
		TrackedStock: req.Stock,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.catalog.CreateMenuItem(r.Context(), item); err != nil {
		h.log.Error("create menu item failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	item.TrackedStock = req.Stock
	writeJSON(w, http.StatusCreated, toMenuItemResponse(item))
}

func (h *HTTPHandler) UpdateMenuItem(w http.ResponseWriter, r *http.Request) {
	restaurant, ok := h.tenant(w, r)
	if !ok {
		return
	}

	itemID := r.PathValue("itemID")
	existing, err := h.catalog.FindMenuItem(r.Context(), itemID)
	if err != nil {
		h.log.Error("find menu item failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	if existing == nil || existing.RestaurantID != restaurant.ID {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "menu item not found"})
		return
	}

	var req updateMenuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Price != nil && *req.Price <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "price must be greater than 0"})
		return
	}

	updated, err := h.catalog.UpdateMenuItem(r.Context(), itemID, domain.MenuItemUpdate{
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		Category:     req.Category,
		Available:    req.Available,
		TrackedStock: req.Stock,
		Untrack:      req.Untrack,
	})
	if err != nil {
		h.log.Error("update menu item failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	if updated == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "menu item not found"})
		return
	}

	writeJSON(w, http.StatusOK, toMenuItemResponse(*updated))
}

func (h *HTTPHandler) DeleteMenuItem(w http.ResponseWriter, r *http.Request) {
	restaurant, ok := h.tenant(w, r)
	if !ok {
		return
	}

	itemID := r.PathValue("itemID")
	existing, err := h.catalog.FindMenuItem(r.Context(), itemID)
	if err != nil {
		h.log.Error("find menu item failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	if existing == nil || existing.RestaurantID != restaurant.ID {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "menu item not found"})
		return
	}

	if _, err := h.catalog.DeleteMenuItem(r.Context(), itemID); err != nil {
		h.log.Error("delete menu item failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// tenant resolves the restaurant from the path and rejects unknown tenants
// before any handler logic runs.
func (h *HTTPHandler) tenant(w http.ResponseWriter, r *http.Request) (*domain.Restaurant, bool) {
	restaurant, err := h.catalog.FindRestaurant(r.Context(), r.PathValue("id"))
	if err != nil {
		h.log.Error("find restaurant failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return nil, false
	}
	if restaurant == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "restaurant not found"})
		return nil, false
	}
	return restaurant, true
}

// writeOrderError maps business-rule failures to client errors; everything
// else is a server fault.
func (h *HTTPHandler) writeOrderError(w http.ResponseWriter, err error) {
	var notFound *service.ItemNotFoundError
	var unavailable *service.ItemUnavailableError
	var insufficient *inventory.InsufficientStockError

	switch {
	case errors.Is(err, service.ErrMissingFields):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing required fields: customer_name, items (non-empty, positive quantities)"})
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: notFound.Error()})
	case errors.As(err, &unavailable):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: unavailable.Error()})
	case errors.As(err, &insufficient):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: insufficient.Error()})
	case errors.Is(err, service.ErrDuplicateRequest):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "duplicate request"})
	default:
		h.log.Error("submit order failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func toOrderResponse(order domain.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemResponse(item))
	}
	return orderResponse{
		ID:           order.ID,
		RestaurantID: order.RestaurantID,
		CustomerName: order.CustomerName,
		Items:        items,
		Total:        order.Total,
		Status:       string(order.Status),
		NotifiedAt:   order.NotifiedAt,
		CreatedAt:    order.CreatedAt,
	}
}

func toMenuItemResponse(item domain.MenuItem) menuItemResponse {
	return menuItemResponse{
		ID:           item.ID,
		RestaurantID: item.RestaurantID,
		Name:         item.Name,
		Description:  item.Description,
		Price:        item.Price,
		Category:     item.Category,
		Available:    item.Available,
		Stock:        item.TrackedStock,
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
