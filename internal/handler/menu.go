package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hiimjupter/ris-api/internal/access"
	"github.com/hiimjupter/ris-api/internal/database"
	"github.com/hiimjupter/ris-api/internal/service"
	"github.com/shopspring/decimal"
)

// MenuServicer defines the service methods needed by menu handlers.
// Satisfied by *service.MenuService.
type MenuServicer interface {
	ListSections(ctx context.Context, p access.Principal) ([]database.MenuSection, error)
	ListSectionsWithItems(ctx context.Context, p access.Principal) ([]service.SectionWithItems, error)
	ListItems(ctx context.Context, p access.Principal) ([]database.MenuItem, error)
	ListItemsBySection(ctx context.Context, p access.Principal, sectionID int32) ([]database.MenuItem, error)
	GetItem(ctx context.Context, p access.Principal, itemID uuid.UUID) (database.MenuItem, error)

	CreateSection(ctx context.Context, p access.Principal, name string) (database.MenuSection, error)
	UpdateSection(ctx context.Context, p access.Principal, sectionID int32, name string) (database.MenuSection, error)
	DeleteSection(ctx context.Context, p access.Principal, sectionID int32) (int64, error)

	CreateItem(ctx context.Context, p access.Principal, req service.ItemRequest) (database.MenuItem, error)
	UpdateItem(ctx context.Context, p access.Principal, itemID uuid.UUID, req service.ItemRequest) (database.MenuItem, error)
	DeleteItem(ctx context.Context, p access.Principal, itemID uuid.UUID) error
}

// MenuHandler handles menu endpoints.
type MenuHandler struct {
	svc MenuServicer
}

func NewMenuHandler(svc MenuServicer) *MenuHandler {
	return &MenuHandler{svc: svc}
}

// RegisterRoutes registers menu endpoints. Expected to be mounted at /menu.
func (h *MenuHandler) RegisterRoutes(r chi.Router) {
	r.Get("/sections", h.ListSections)
	r.Post("/sections", h.CreateSection)
	r.Put("/sections/{id}", h.UpdateSection)
	r.Delete("/sections/{id}", h.DeleteSection)
	r.Get("/sections/{id}/items", h.ListSectionItems)

	r.Get("/items", h.ListItems)
	r.Post("/items", h.CreateItem)
	r.Get("/items/{id}", h.GetItem)
	r.Put("/items/{id}", h.UpdateItem)
	r.Delete("/items/{id}", h.DeleteItem)
}

// --- Request / Response types ---

type sectionRequest struct {
	Name string `json:"name"`
}

type itemRequest struct {
	SectionID int32  `json:"section_id"`
	Name      string `json:"name"`
	Note      string `json:"note"`
	Price     string `json:"price"`
}

type itemResponse struct {
	ID        uuid.UUID `json:"id"`
	SectionID int32     `json:"section_id"`
	Name      string    `json:"name"`
	Note      *string   `json:"note"`
	Price     string    `json:"price"`
}

type sectionWithItemsResponse struct {
	ID    int32          `json:"id"`
	Name  string         `json:"name"`
	Items []itemResponse `json:"items"`
}

func toItemResponse(i database.MenuItem) itemResponse {
	return itemResponse{
		ID:        i.ID,
		SectionID: i.SectionID,
		Name:      i.Name,
		Note:      textPtr(i.Note),
		Price:     numericToString(i.Price),
	}
}

func toItemResponses(items []database.MenuItem) []itemResponse {
	out := make([]itemResponse, len(items))
	for i, item := range items {
		out[i] = toItemResponse(item)
	}
	return out
}

// parse converts the request body into service input. The price travels as a
// string to keep decimals exact.
func (req itemRequest) parse(w http.ResponseWriter) (service.ItemRequest, bool) {
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid price", Code: "invalid_input"})
		return service.ItemRequest{}, false
	}
	return service.ItemRequest{
		SectionID: req.SectionID,
		Name:      req.Name,
		Note:      req.Note,
		Price:     price,
	}, true
}

// --- Section handlers ---

// ListSections returns the sections; with ?include=items each carries its items.
func (h *MenuHandler) ListSections(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	if r.URL.Query().Get("include") == "items" {
		grouped, err := h.svc.ListSectionsWithItems(r.Context(), p)
		if err != nil {
			writeError(w, err)
			return
		}
		resp := make([]sectionWithItemsResponse, len(grouped))
		for i, g := range grouped {
			resp[i] = sectionWithItemsResponse{ID: g.Section.ID, Name: g.Section.Name, Items: toItemResponses(g.Items)}
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	sections, err := h.svc.ListSections(r.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}
	if sections == nil {
		sections = []database.MenuSection{}
	}
	writeJSON(w, http.StatusOK, sections)
}

func (h *MenuHandler) ListSectionItems(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	sectionID, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	items, err := h.svc.ListItemsBySection(r.Context(), p, sectionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemResponses(items))
}

func (h *MenuHandler) CreateSection(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req sectionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	section, err := h.svc.CreateSection(r.Context(), p, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, section)
}

func (h *MenuHandler) UpdateSection(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	sectionID, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	var req sectionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	section, err := h.svc.UpdateSection(r.Context(), p, sectionID, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, section)
}

// DeleteSection removes a section together with its items.
func (h *MenuHandler) DeleteSection(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	sectionID, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	removed, err := h.svc.DeleteSection(r.Context(), p, sectionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"items_deleted": removed})
}

// --- Item handlers ---

func (h *MenuHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	items, err := h.svc.ListItems(r.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemResponses(items))
}

func (h *MenuHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	itemID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	item, err := h.svc.GetItem(r.Context(), p, itemID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemResponse(item))
}

func (h *MenuHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var body itemRequest
	if !decodeBody(w, r, &body) {
		return
	}
	req, ok := body.parse(w)
	if !ok {
		return
	}
	item, err := h.svc.CreateItem(r.Context(), p, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toItemResponse(item))
}

func (h *MenuHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	itemID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var body itemRequest
	if !decodeBody(w, r, &body) {
		return
	}
	req, ok := body.parse(w)
	if !ok {
		return
	}
	item, err := h.svc.UpdateItem(r.Context(), p, itemID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemResponse(item))
}

func (h *MenuHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	itemID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteItem(r.Context(), p, itemID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
