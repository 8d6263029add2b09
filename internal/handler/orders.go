package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hiimjupter/ris-api/internal/access"
	"github.com/hiimjupter/ris-api/internal/database"
	"github.com/hiimjupter/ris-api/internal/service"
)

// OrderServicer defines the service methods needed by order and table handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	CreateOrder(ctx context.Context, p access.Principal, req service.CreateOrderRequest) (*service.CreateOrderResult, error)
	GetLatestOrder(ctx context.Context, p access.Principal, tableID int32) (database.Order, error)
	GetOrderDetail(ctx context.Context, p access.Principal, orderID uuid.UUID) (*service.OrderDetail, error)
	ServeOrders(ctx context.Context, p access.Principal, tableID int32) (*service.ServeResult, error)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc OrderServicer
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// RegisterRoutes registers order endpoints on the given Chi router.
// Expected to be mounted at /orders.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
}

// --- Request / Response types ---

type createOrderRequest struct {
	TableID int32                    `json:"table_id"`
	Dishes  []createOrderDishRequest `json:"dishes"`
}

type createOrderDishRequest struct {
	MenuItemID string `json:"menu_item_id"`
	Quantity   int32  `json:"quantity"`
}

type orderResponse struct {
	ID        uuid.UUID `json:"id"`
	TableID   int32     `json:"table_id"`
	StaffID   uuid.UUID `json:"staff_id"`
	IsServed  bool      `json:"is_served"`
	CreatedAt time.Time `json:"created_at"`
}

type dishResponse struct {
	ID         uuid.UUID  `json:"id"`
	OrderID    uuid.UUID  `json:"order_id"`
	MenuItemID *uuid.UUID `json:"menu_item_id"`
	ItemName   string     `json:"item_name"`
	UnitPrice  string     `json:"unit_price"`
	Quantity   int32      `json:"quantity"`
	Total      string     `json:"total"`
	Status     string     `json:"status"`
}

type createOrderResponse struct {
	orderResponse
	Dishes []dishResponse `json:"dishes"`
	Table  database.Table `json:"table"`
}

type orderLineResponse struct {
	DishID    uuid.UUID `json:"dish_id"`
	ItemName  string    `json:"item_name"`
	Quantity  int32     `json:"quantity"`
	UnitPrice string    `json:"unit_price"`
	Total     string    `json:"total"`
	Status    string    `json:"status"`
}

type orderDetailResponse struct {
	orderResponse
	Lines []orderLineResponse `json:"lines"`
	Total string              `json:"total"`
}

func toOrderResponse(o database.Order) orderResponse {
	return orderResponse{
		ID:        o.ID,
		TableID:   o.TableID,
		StaffID:   o.StaffID,
		IsServed:  o.IsServed,
		CreatedAt: o.CreatedAt,
	}
}

func toDishResponse(d database.Dish) dishResponse {
	return dishResponse{
		ID:         d.ID,
		OrderID:    d.OrderID,
		MenuItemID: uuidPtr(d.MenuItemID),
		ItemName:   d.ItemName,
		UnitPrice:  numericToString(d.UnitPrice),
		Quantity:   d.Quantity,
		Total:      numericToString(d.Total),
		Status:     d.Status,
	}
}

func toOrderDetailResponse(d *service.OrderDetail) orderDetailResponse {
	resp := orderDetailResponse{
		orderResponse: toOrderResponse(d.Order),
		Lines:         make([]orderLineResponse, len(d.Lines)),
		Total:         d.Total.StringFixed(2),
	}
	for i, l := range d.Lines {
		resp.Lines[i] = orderLineResponse{
			DishID:    l.DishID,
			ItemName:  l.ItemName,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice.StringFixed(2),
			Total:     l.Total.StringFixed(2),
			Status:    l.Status,
		}
	}
	return resp
}

// --- Handlers ---

// Create takes an order for a table.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req createOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	svcReq := service.CreateOrderRequest{
		TableID: req.TableID,
		Dishes:  make([]service.DishRequest, len(req.Dishes)),
	}
	for i, d := range req.Dishes {
		itemID, err := uuid.Parse(d.MenuItemID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{
				Error: fmt.Sprintf("dishes[%d]: invalid menu_item_id", i),
				Code:  "invalid_input",
			})
			return
		}
		svcReq.Dishes[i] = service.DishRequest{MenuItemID: itemID, Quantity: d.Quantity}
	}

	result, err := h.svc.CreateOrder(r.Context(), p, svcReq)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := createOrderResponse{
		orderResponse: toOrderResponse(result.Order),
		Dishes:        make([]dishResponse, len(result.Dishes)),
		Table:         result.Table,
	}
	for i, d := range result.Dishes {
		resp.Dishes[i] = toDishResponse(d)
	}
	writeJSON(w, http.StatusCreated, resp)
}

// Get returns an order with its dish lines.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	orderID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	detail, err := h.svc.GetOrderDetail(r.Context(), p, orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDetailResponse(detail))
}
