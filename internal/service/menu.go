package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hiimjupter/ris-api/internal/access"
	"github.com/hiimjupter/ris-api/internal/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// MenuStore defines the database methods needed by MenuService.
type MenuStore interface {
	ListMenuSections(ctx context.Context) ([]database.MenuSection, error)
	GetMenuSection(ctx context.Context, id int32) (database.MenuSection, error)
	GetMenuSectionByName(ctx context.Context, name string) (database.MenuSection, error)
	CreateMenuSection(ctx context.Context, name string) (database.MenuSection, error)
	UpdateMenuSection(ctx context.Context, arg database.UpdateMenuSectionParams) (database.MenuSection, error)
	DeleteMenuSection(ctx context.Context, id int32) (int64, error)

	ListMenuItems(ctx context.Context) ([]database.MenuItem, error)
	ListMenuItemsBySection(ctx context.Context, sectionID int32) ([]database.MenuItem, error)
	GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	GetMenuItemByName(ctx context.Context, name string) (database.MenuItem, error)
	CreateMenuItem(ctx context.Context, arg database.CreateMenuItemParams) (database.MenuItem, error)
	UpdateMenuItem(ctx context.Context, arg database.UpdateMenuItemParams) (database.MenuItem, error)
	DeleteMenuItem(ctx context.Context, id uuid.UUID) (int64, error)
	DeleteMenuItemsBySection(ctx context.Context, sectionID int32) (int64, error)
}

// NewMenuStore creates a MenuStore from a DBTX (pool or transaction).
type NewMenuStore func(db database.DBTX) MenuStore

// MenuService handles reading the menu and the manager's catalog edits.
type MenuService struct {
	pool     Pool
	newStore NewMenuStore
	opts     Options
}

func NewMenuService(pool Pool, newStore NewMenuStore, opts Options) *MenuService {
	return &MenuService{pool: pool, newStore: newStore, opts: opts}
}

// ItemRequest carries the editable fields of a menu item.
type ItemRequest struct {
	SectionID int32           `json:"section_id"`
	Name      string          `json:"name"`
	Note      string          `json:"note"`
	Price     decimal.Decimal `json:"price"`
}

func (r *ItemRequest) normalize() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Note = strings.TrimSpace(r.Note)
	if r.Name == "" {
		return invalidInput("name is required")
	}
	if r.SectionID < 0 {
		return invalidInput("section id must not be negative")
	}
	r.Price = r.Price.Round(2)
	if !r.Price.IsPositive() {
		return invalidInput("price must be greater than zero")
	}
	if r.Price.GreaterThan(maxPrice) {
		return invalidInput("price must not exceed " + maxPrice.StringFixed(2))
	}
	return nil
}

// --- Reads ---

func (s *MenuService) ListSections(ctx context.Context, p access.Principal) ([]database.MenuSection, error) {
	if _, err := access.Authorize(p, access.OpListMenu); err != nil {
		return nil, err
	}
	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	sections, err := s.newStore(s.pool).ListMenuSections(ctx)
	if err != nil {
		return nil, storageError("list menu sections", err)
	}
	return sections, nil
}

// ListSectionsWithItems returns the whole menu grouped by section.
func (s *MenuService) ListSectionsWithItems(ctx context.Context, p access.Principal) ([]SectionWithItems, error) {
	if _, err := access.Authorize(p, access.OpListMenu); err != nil {
		return nil, err
	}
	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	store := s.newStore(s.pool)
	sections, err := store.ListMenuSections(ctx)
	if err != nil {
		return nil, storageError("list menu sections", err)
	}
	items, err := store.ListMenuItems(ctx)
	if err != nil {
		return nil, storageError("list menu items", err)
	}
	return groupBySection(sections, items), nil
}

func (s *MenuService) ListItems(ctx context.Context, p access.Principal) ([]database.MenuItem, error) {
	if _, err := access.Authorize(p, access.OpListMenu); err != nil {
		return nil, err
	}
	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	items, err := s.newStore(s.pool).ListMenuItems(ctx)
	if err != nil {
		return nil, storageError("list menu items", err)
	}
	return items, nil
}

func (s *MenuService) ListItemsBySection(ctx context.Context, p access.Principal, sectionID int32) ([]database.MenuItem, error) {
	if _, err := access.Authorize(p, access.OpListMenu); err != nil {
		return nil, err
	}
	if sectionID < 0 {
		return nil, invalidInput("section id must not be negative")
	}
	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	store := s.newStore(s.pool)
	if _, err := store.GetMenuSection(ctx, sectionID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMenuSectionNotFound
		}
		return nil, storageError("get menu section", err)
	}
	items, err := store.ListMenuItemsBySection(ctx, sectionID)
	if err != nil {
		return nil, storageError("list menu items", err)
	}
	return items, nil
}

func (s *MenuService) GetItem(ctx context.Context, p access.Principal, itemID uuid.UUID) (database.MenuItem, error) {
	if _, err := access.Authorize(p, access.OpListMenu); err != nil {
		return database.MenuItem{}, err
	}
	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	item, err := s.newStore(s.pool).GetMenuItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.MenuItem{}, ErrMenuItemNotFound
		}
		return database.MenuItem{}, storageError("get menu item", err)
	}
	return item, nil
}

// --- Sections ---

func (s *MenuService) CreateSection(ctx context.Context, p access.Principal, name string) (database.MenuSection, error) {
	if _, err := access.Authorize(p, access.OpCreateMenuSection); err != nil {
		return database.MenuSection{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return database.MenuSection{}, invalidInput("name is required")
	}
	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	store := s.newStore(s.pool)
	if err := s.checkSectionName(ctx, store, name, 0); err != nil {
		return database.MenuSection{}, err
	}
	section, err := store.CreateMenuSection(ctx, name)
	if err != nil {
		if isUniqueViolation(err, constraintSectionName) {
			return database.MenuSection{}, fmt.Errorf("section %q: %w", name, ErrDuplicateName)
		}
		return database.MenuSection{}, storageError("create menu section", err)
	}
	return section, nil
}

func (s *MenuService) UpdateSection(ctx context.Context, p access.Principal, sectionID int32, name string) (database.MenuSection, error) {
	if _, err := access.Authorize(p, access.OpUpdateMenuSection); err != nil {
		return database.MenuSection{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return database.MenuSection{}, invalidInput("name is required")
	}
	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	store := s.newStore(s.pool)
	if err := s.checkSectionName(ctx, store, name, sectionID); err != nil {
		return database.MenuSection{}, err
	}
	section, err := store.UpdateMenuSection(ctx, database.UpdateMenuSectionParams{ID: sectionID, Name: name})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.MenuSection{}, ErrMenuSectionNotFound
		}
		if isUniqueViolation(err, constraintSectionName) {
			return database.MenuSection{}, fmt.Errorf("section %q: %w", name, ErrDuplicateName)
		}
		return database.MenuSection{}, storageError("update menu section", err)
	}
	return section, nil
}

// checkSectionName rejects a name already used by a section other than self.
func (s *MenuService) checkSectionName(ctx context.Context, store MenuStore, name string, self int32) error {
	existing, err := store.GetMenuSectionByName(ctx, name)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil
	case err != nil:
		return storageError("get menu section by name", err)
	case existing.ID != self:
		return fmt.Errorf("section %q: %w", name, ErrDuplicateName)
	}
	return nil
}

// DeleteSection removes a section and every item in it atomically. It returns
// the number of items removed.
func (s *MenuService) DeleteSection(ctx context.Context, p access.Principal, sectionID int32) (int64, error) {
	if _, err := access.Authorize(p, access.OpDeleteMenuSection); err != nil {
		return 0, err
	}
	if sectionID < 0 {
		return 0, invalidInput("section id must not be negative")
	}
	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	// --- Begin transaction ---
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, storageError("begin tx", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	if _, err := store.GetMenuSection(ctx, sectionID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrMenuSectionNotFound
		}
		return 0, storageError("get menu section", err)
	}

	removed, err := store.DeleteMenuItemsBySection(ctx, sectionID)
	if err != nil {
		return 0, storageError("delete menu items", err)
	}

	n, err := store.DeleteMenuSection(ctx, sectionID)
	if err != nil {
		return 0, storageError("delete menu section", err)
	}
	if n == 0 {
		return 0, ErrMenuSectionNotFound
	}

	// --- Commit ---
	if err := tx.Commit(ctx); err != nil {
		return 0, storageError("commit tx", err)
	}
	return removed, nil
}

// --- Items ---

func (s *MenuService) CreateItem(ctx context.Context, p access.Principal, req ItemRequest) (database.MenuItem, error) {
	if _, err := access.Authorize(p, access.OpCreateMenuItem); err != nil {
		return database.MenuItem{}, err
	}
	if err := req.normalize(); err != nil {
		return database.MenuItem{}, err
	}
	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	store := s.newStore(s.pool)
	if _, err := store.GetMenuSection(ctx, req.SectionID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.MenuItem{}, ErrMenuSectionNotFound
		}
		return database.MenuItem{}, storageError("get menu section", err)
	}
	if err := s.checkItemName(ctx, store, req.Name, uuid.Nil); err != nil {
		return database.MenuItem{}, err
	}

	item, err := store.CreateMenuItem(ctx, database.CreateMenuItemParams{
		SectionID: req.SectionID,
		Name:      req.Name,
		Note:      textOrNull(req.Note),
		Price:     decimalToNumeric(req.Price),
	})
	if err != nil {
		return database.MenuItem{}, itemWriteError("create menu item", req.Name, err)
	}
	return item, nil
}

// UpdateItem replaces the item's fields. A zero SectionID keeps the current section.
func (s *MenuService) UpdateItem(ctx context.Context, p access.Principal, itemID uuid.UUID, req ItemRequest) (database.MenuItem, error) {
	if _, err := access.Authorize(p, access.OpUpdateMenuItem); err != nil {
		return database.MenuItem{}, err
	}
	if err := req.normalize(); err != nil {
		return database.MenuItem{}, err
	}
	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	store := s.newStore(s.pool)
	current, err := store.GetMenuItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.MenuItem{}, ErrMenuItemNotFound
		}
		return database.MenuItem{}, storageError("get menu item", err)
	}
	if err := s.checkItemName(ctx, store, req.Name, itemID); err != nil {
		return database.MenuItem{}, err
	}

	sectionID := current.SectionID
	if req.SectionID != 0 && req.SectionID != current.SectionID {
		if _, err := store.GetMenuSection(ctx, req.SectionID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return database.MenuItem{}, ErrMenuSectionNotFound
			}
			return database.MenuItem{}, storageError("get menu section", err)
		}
		sectionID = req.SectionID
	}

	item, err := store.UpdateMenuItem(ctx, database.UpdateMenuItemParams{
		ID:        itemID,
		SectionID: sectionID,
		Name:      req.Name,
		Note:      textOrNull(req.Note),
		Price:     decimalToNumeric(req.Price),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.MenuItem{}, ErrMenuItemNotFound
		}
		return database.MenuItem{}, itemWriteError("update menu item", req.Name, err)
	}
	return item, nil
}

func (s *MenuService) DeleteItem(ctx context.Context, p access.Principal, itemID uuid.UUID) error {
	if _, err := access.Authorize(p, access.OpDeleteMenuItem); err != nil {
		return err
	}
	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	n, err := s.newStore(s.pool).DeleteMenuItem(ctx, itemID)
	if err != nil {
		return storageError("delete menu item", err)
	}
	if n == 0 {
		return ErrMenuItemNotFound
	}
	return nil
}

func (s *MenuService) checkItemName(ctx context.Context, store MenuStore, name string, self uuid.UUID) error {
	existing, err := store.GetMenuItemByName(ctx, name)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil
	case err != nil:
		return storageError("get menu item by name", err)
	case existing.ID != self:
		return fmt.Errorf("item %q: %w", name, ErrDuplicateName)
	}
	return nil
}

func itemWriteError(step, name string, err error) error {
	switch {
	case isUniqueViolation(err, constraintItemName):
		return fmt.Errorf("item %q: %w", name, ErrDuplicateName)
	case isForeignKeyViolation(err):
		// Section deleted between the existence check and the write.
		return ErrMenuSectionNotFound
	}
	return storageError(step, err)
}
