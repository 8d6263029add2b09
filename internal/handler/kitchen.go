package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hiimjupter/ris-api/internal/access"
	"github.com/hiimjupter/ris-api/internal/database"
	"github.com/hiimjupter/ris-api/internal/service"
)

// DishServicer defines the service methods needed by kitchen handlers.
// Satisfied by *service.DishService.
type DishServicer interface {
	ListDishesForKitchen(ctx context.Context, p access.Principal) ([]service.DishView, error)
	AdvanceDishStatus(ctx context.Context, p access.Principal, dishID uuid.UUID) (database.Dish, error)
}

// KitchenHandler handles the chef's dish board.
type KitchenHandler struct {
	svc DishServicer
}

func NewKitchenHandler(svc DishServicer) *KitchenHandler {
	return &KitchenHandler{svc: svc}
}

// RegisterRoutes registers kitchen endpoints at the router root.
func (h *KitchenHandler) RegisterRoutes(r chi.Router) {
	r.Get("/kitchen/dishes", h.List)
	r.Post("/dishes/{id}/advance", h.Advance)
}

func (h *KitchenHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	dishes, err := h.svc.ListDishesForKitchen(r.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dishes)
}

// Advance moves a dish to its next status.
func (h *KitchenHandler) Advance(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	dishID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	dish, err := h.svc.AdvanceDishStatus(r.Context(), p, dishID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDishResponse(dish))
}
