package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hiimjupter/ris-api/internal/access"
	"github.com/hiimjupter/ris-api/internal/database"
)

// TableServicer defines the service methods needed by table handlers.
// Satisfied by *service.TableService.
type TableServicer interface {
	ListTables(ctx context.Context, p access.Principal) ([]database.Table, error)
	Reserve(ctx context.Context, p access.Principal, tableID int32) (database.Table, error)
}

// TableHandler handles the floor endpoints under /tables.
type TableHandler struct {
	tables TableServicer
	orders OrderServicer
}

func NewTableHandler(tables TableServicer, orders OrderServicer) *TableHandler {
	return &TableHandler{tables: tables, orders: orders}
}

// RegisterRoutes registers table endpoints. Expected to be mounted at /tables.
func (h *TableHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/{id}/reserve", h.Reserve)
	r.Get("/{id}/order", h.LatestOrder)
	r.Post("/{id}/serve", h.Serve)
}

type serveResponse struct {
	Orders []orderResponse `json:"orders"`
	Table  database.Table  `json:"table"`
}

func (h *TableHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	tables, err := h.tables.ListTables(r.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}
	if tables == nil {
		tables = []database.Table{}
	}
	writeJSON(w, http.StatusOK, tables)
}

func (h *TableHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	tableID, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	table, err := h.tables.Reserve(r.Context(), p, tableID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, table)
}

// LatestOrder returns the detail of the table's current unserved order.
func (h *TableHandler) LatestOrder(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	tableID, ok := intParam(w, r, "id")
	if !ok {
		return
	}

	order, err := h.orders.GetLatestOrder(r.Context(), p, tableID)
	if err != nil {
		writeError(w, err)
		return
	}
	detail, err := h.orders.GetOrderDetail(r.Context(), p, order.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDetailResponse(detail))
}

func (h *TableHandler) Serve(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	tableID, ok := intParam(w, r, "id")
	if !ok {
		return
	}

	result, err := h.orders.ServeOrders(r.Context(), p, tableID)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := serveResponse{Orders: make([]orderResponse, len(result.Orders)), Table: result.Table}
	for i, o := range result.Orders {
		resp.Orders[i] = toOrderResponse(o)
	}
	writeJSON(w, http.StatusOK, resp)
}
