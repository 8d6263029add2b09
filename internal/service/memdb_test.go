package service

import (
	"bytes"
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hiimjupter/ris-api/internal/database"
	"github.com/hiimjupter/ris-api/internal/enum"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// memState is a copy-on-write snapshot of every table.
type memState struct {
	tables   map[int32]database.Table
	sections map[int32]database.MenuSection
	items    map[uuid.UUID]database.MenuItem
	orders   map[uuid.UUID]database.Order
	dishes   map[uuid.UUID]database.Dish
	seq      int32
}

func (s *memState) clone() *memState {
	c := &memState{
		tables:   make(map[int32]database.Table, len(s.tables)),
		sections: make(map[int32]database.MenuSection, len(s.sections)),
		items:    make(map[uuid.UUID]database.MenuItem, len(s.items)),
		orders:   make(map[uuid.UUID]database.Order, len(s.orders)),
		dishes:   make(map[uuid.UUID]database.Dish, len(s.dishes)),
		seq:      s.seq,
	}
	for k, v := range s.tables {
		c.tables[k] = v
	}
	for k, v := range s.sections {
		c.sections[k] = v
	}
	for k, v := range s.items {
		c.items[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.dishes {
		c.dishes[k] = v
	}
	return c
}

// memDB is an in-memory stand-in for the pool. Transactions are serialized:
// Begin holds txMu until Commit or Rollback, so every transaction sees a
// consistent snapshot and commits atomically. Statements run outside a
// transaction autocommit.
type memDB struct {
	database.DBTX

	txMu    sync.Mutex
	stateMu sync.RWMutex
	state   *memState

	// failOn injects an error into the named store method.
	failOn map[string]error
	// skipUnservedCheck makes HasUnservedOrder always report false, so the
	// unique index is the only guard left.
	skipUnservedCheck bool

	callsMu sync.Mutex
	calls   []string
}

func newMemDB() *memDB {
	return &memDB{
		state: &memState{
			tables:   map[int32]database.Table{},
			sections: map[int32]database.MenuSection{},
			items:    map[uuid.UUID]database.MenuItem{},
			orders:   map[uuid.UUID]database.Order{},
			dishes:   map[uuid.UUID]database.Dish{},
		},
		failOn: map[string]error{},
	}
}

func (m *memDB) Begin(ctx context.Context) (pgx.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.txMu.Lock()
	return &memTx{db: m, state: m.snapshot()}, nil
}

func (m *memDB) snapshot() *memState {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.state.clone()
}

func (m *memDB) setState(s *memState) {
	m.stateMu.Lock()
	m.state = s
	m.stateMu.Unlock()
}

func (m *memDB) callCount() int {
	m.callsMu.Lock()
	defer m.callsMu.Unlock()
	return len(m.calls)
}

// view returns the committed state for assertions.
func (m *memDB) view() *memState { return m.snapshot() }

// --- Seeding ---

func (m *memDB) addTable(capacity int32, status string) database.Table {
	s := m.snapshot()
	s.seq++
	t := database.Table{ID: s.seq, Capacity: capacity, Status: status}
	s.tables[t.ID] = t
	m.setState(s)
	return t
}

func (m *memDB) addSection(name string) database.MenuSection {
	s := m.snapshot()
	s.seq++
	sec := database.MenuSection{ID: s.seq, Name: name}
	s.sections[sec.ID] = sec
	m.setState(s)
	return sec
}

func (m *memDB) addItem(sectionID int32, name, price string) database.MenuItem {
	s := m.snapshot()
	item := database.MenuItem{ID: uuid.New(), SectionID: sectionID, Name: name, Price: numeric(price)}
	s.items[item.ID] = item
	m.setState(s)
	return item
}

func (m *memDB) addOrder(tableID int32, served bool, createdAt time.Time) database.Order {
	s := m.snapshot()
	o := database.Order{ID: uuid.New(), TableID: tableID, StaffID: uuid.New(), IsServed: served, CreatedAt: createdAt}
	s.orders[o.ID] = o
	m.setState(s)
	return o
}

func (m *memDB) addDish(orderID uuid.UUID, item database.MenuItem, qty int32, status string) database.Dish {
	s := m.snapshot()
	price := numericToDecimal(item.Price)
	d := database.Dish{
		ID:         uuid.New(),
		OrderID:    orderID,
		MenuItemID: pgtype.UUID{Bytes: item.ID, Valid: true},
		ItemName:   item.Name,
		UnitPrice:  item.Price,
		Quantity:   qty,
		Total:      decimalToNumeric(price.Mul(decimalFromInt(qty))),
		Status:     status,
	}
	s.dishes[d.ID] = d
	m.setState(s)
	return d
}

// memTx implements every store interface over a memState. Inside a
// transaction it mutates the transaction's private copy; otherwise each call
// autocommits.
type memTx struct {
	pgx.Tx

	db    *memDB
	state *memState
	auto  bool
	done  bool
}

// store is the NewXxxStore factory used by the tests.
func (m *memDB) store(db database.DBTX) *memTx {
	switch v := db.(type) {
	case *memTx:
		return v
	case *memDB:
		return &memTx{db: v, auto: true}
	}
	panic("memDB: unexpected DBTX")
}

func (m *memDB) tableStore(db database.DBTX) TableStore { return m.store(db) }
func (m *memDB) menuStore(db database.DBTX) MenuStore   { return m.store(db) }
func (m *memDB) orderStore(db database.DBTX) OrderStore { return m.store(db) }
func (m *memDB) dishStore(db database.DBTX) DishStore   { return m.store(db) }

func (t *memTx) Commit(ctx context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	defer t.db.txMu.Unlock()
	if err := t.db.failOn["Commit"]; err != nil {
		return err
	}
	t.db.setState(t.state)
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.db.txMu.Unlock()
	return nil
}

func (t *memTx) run(name string, fn func(s *memState) error) error {
	t.db.callsMu.Lock()
	t.db.calls = append(t.db.calls, name)
	t.db.callsMu.Unlock()

	if err := t.db.failOn[name]; err != nil {
		return err
	}
	if !t.auto {
		return fn(t.state)
	}
	t.db.txMu.Lock()
	defer t.db.txMu.Unlock()
	s := t.db.snapshot()
	if err := fn(s); err != nil {
		return err
	}
	t.db.setState(s)
	return nil
}

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint}
}

// --- Tables ---

func (t *memTx) ListTables(ctx context.Context) ([]database.Table, error) {
	var out []database.Table
	err := t.run("ListTables", func(s *memState) error {
		for _, tb := range s.tables {
			out = append(out, tb)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		return nil
	})
	return out, err
}

func (t *memTx) GetTable(ctx context.Context, id int32) (database.Table, error) {
	var out database.Table
	err := t.run("GetTable", func(s *memState) error {
		tb, ok := s.tables[id]
		if !ok {
			return pgx.ErrNoRows
		}
		out = tb
		return nil
	})
	return out, err
}

func (t *memTx) LockTable(ctx context.Context, id int32) (database.Table, error) {
	return t.GetTable(ctx, id)
}

func (t *memTx) TransitionTableStatus(ctx context.Context, arg database.TransitionTableStatusParams) (database.Table, error) {
	var out database.Table
	err := t.run("TransitionTableStatus", func(s *memState) error {
		tb, ok := s.tables[arg.ID]
		if !ok || !slices.Contains(arg.From, tb.Status) {
			return pgx.ErrNoRows
		}
		tb.Status = arg.To
		s.tables[arg.ID] = tb
		out = tb
		return nil
	})
	return out, err
}

// --- Menu ---

func (t *memTx) ListMenuSections(ctx context.Context) ([]database.MenuSection, error) {
	var out []database.MenuSection
	err := t.run("ListMenuSections", func(s *memState) error {
		for _, sec := range s.sections {
			out = append(out, sec)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		return nil
	})
	return out, err
}

func (t *memTx) GetMenuSection(ctx context.Context, id int32) (database.MenuSection, error) {
	var out database.MenuSection
	err := t.run("GetMenuSection", func(s *memState) error {
		sec, ok := s.sections[id]
		if !ok {
			return pgx.ErrNoRows
		}
		out = sec
		return nil
	})
	return out, err
}

func (t *memTx) GetMenuSectionByName(ctx context.Context, name string) (database.MenuSection, error) {
	var out database.MenuSection
	err := t.run("GetMenuSectionByName", func(s *memState) error {
		for _, sec := range s.sections {
			if sec.Name == name {
				out = sec
				return nil
			}
		}
		return pgx.ErrNoRows
	})
	return out, err
}

func (t *memTx) CreateMenuSection(ctx context.Context, name string) (database.MenuSection, error) {
	var out database.MenuSection
	err := t.run("CreateMenuSection", func(s *memState) error {
		for _, sec := range s.sections {
			if sec.Name == name {
				return uniqueViolation(constraintSectionName)
			}
		}
		s.seq++
		out = database.MenuSection{ID: s.seq, Name: name}
		s.sections[out.ID] = out
		return nil
	})
	return out, err
}

func (t *memTx) UpdateMenuSection(ctx context.Context, arg database.UpdateMenuSectionParams) (database.MenuSection, error) {
	var out database.MenuSection
	err := t.run("UpdateMenuSection", func(s *memState) error {
		sec, ok := s.sections[arg.ID]
		if !ok {
			return pgx.ErrNoRows
		}
		for _, other := range s.sections {
			if other.ID != arg.ID && other.Name == arg.Name {
				return uniqueViolation(constraintSectionName)
			}
		}
		sec.Name = arg.Name
		s.sections[arg.ID] = sec
		out = sec
		return nil
	})
	return out, err
}

func (t *memTx) DeleteMenuSection(ctx context.Context, id int32) (int64, error) {
	var n int64
	err := t.run("DeleteMenuSection", func(s *memState) error {
		if _, ok := s.sections[id]; !ok {
			return nil
		}
		for itemID, item := range s.items {
			if item.SectionID == id {
				s.deleteItem(itemID)
			}
		}
		delete(s.sections, id)
		n = 1
		return nil
	})
	return n, err
}

func (s *memState) deleteItem(id uuid.UUID) {
	delete(s.items, id)
	for dishID, d := range s.dishes {
		if d.MenuItemID.Valid && uuid.UUID(d.MenuItemID.Bytes) == id {
			d.MenuItemID = pgtype.UUID{}
			s.dishes[dishID] = d
		}
	}
}

func (t *memTx) sortedItems(s *memState, keep func(database.MenuItem) bool) []database.MenuItem {
	var out []database.MenuItem
	for _, item := range s.items {
		if keep(item) {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (t *memTx) ListMenuItems(ctx context.Context) ([]database.MenuItem, error) {
	var out []database.MenuItem
	err := t.run("ListMenuItems", func(s *memState) error {
		out = t.sortedItems(s, func(database.MenuItem) bool { return true })
		return nil
	})
	return out, err
}

func (t *memTx) ListMenuItemsBySection(ctx context.Context, sectionID int32) ([]database.MenuItem, error) {
	var out []database.MenuItem
	err := t.run("ListMenuItemsBySection", func(s *memState) error {
		out = t.sortedItems(s, func(i database.MenuItem) bool { return i.SectionID == sectionID })
		return nil
	})
	return out, err
}

func (t *memTx) GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error) {
	var out database.MenuItem
	err := t.run("GetMenuItem", func(s *memState) error {
		item, ok := s.items[id]
		if !ok {
			return pgx.ErrNoRows
		}
		out = item
		return nil
	})
	return out, err
}

func (t *memTx) GetMenuItemByName(ctx context.Context, name string) (database.MenuItem, error) {
	var out database.MenuItem
	err := t.run("GetMenuItemByName", func(s *memState) error {
		for _, item := range s.items {
			if item.Name == name {
				out = item
				return nil
			}
		}
		return pgx.ErrNoRows
	})
	return out, err
}

func (t *memTx) CreateMenuItem(ctx context.Context, arg database.CreateMenuItemParams) (database.MenuItem, error) {
	var out database.MenuItem
	err := t.run("CreateMenuItem", func(s *memState) error {
		if _, ok := s.sections[arg.SectionID]; !ok {
			return &pgconn.PgError{Code: "23503"}
		}
		for _, item := range s.items {
			if item.Name == arg.Name {
				return uniqueViolation(constraintItemName)
			}
		}
		out = database.MenuItem{ID: uuid.New(), SectionID: arg.SectionID, Name: arg.Name, Note: arg.Note, Price: arg.Price}
		s.items[out.ID] = out
		return nil
	})
	return out, err
}

func (t *memTx) UpdateMenuItem(ctx context.Context, arg database.UpdateMenuItemParams) (database.MenuItem, error) {
	var out database.MenuItem
	err := t.run("UpdateMenuItem", func(s *memState) error {
		item, ok := s.items[arg.ID]
		if !ok {
			return pgx.ErrNoRows
		}
		for _, other := range s.items {
			if other.ID != arg.ID && other.Name == arg.Name {
				return uniqueViolation(constraintItemName)
			}
		}
		item.SectionID, item.Name, item.Note, item.Price = arg.SectionID, arg.Name, arg.Note, arg.Price
		s.items[arg.ID] = item
		out = item
		return nil
	})
	return out, err
}

func (t *memTx) DeleteMenuItem(ctx context.Context, id uuid.UUID) (int64, error) {
	var n int64
	err := t.run("DeleteMenuItem", func(s *memState) error {
		if _, ok := s.items[id]; ok {
			s.deleteItem(id)
			n = 1
		}
		return nil
	})
	return n, err
}

func (t *memTx) DeleteMenuItemsBySection(ctx context.Context, sectionID int32) (int64, error) {
	var n int64
	err := t.run("DeleteMenuItemsBySection", func(s *memState) error {
		for id, item := range s.items {
			if item.SectionID == sectionID {
				s.deleteItem(id)
				n++
			}
		}
		return nil
	})
	return n, err
}

// --- Orders ---

func (t *memTx) HasUnservedOrder(ctx context.Context, tableID int32) (bool, error) {
	var found bool
	err := t.run("HasUnservedOrder", func(s *memState) error {
		if t.db.skipUnservedCheck {
			return nil
		}
		for _, o := range s.orders {
			if o.TableID == tableID && !o.IsServed {
				found = true
			}
		}
		return nil
	})
	return found, err
}

func (t *memTx) CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
	var out database.Order
	err := t.run("CreateOrder", func(s *memState) error {
		for _, o := range s.orders {
			if o.TableID == arg.TableID && !o.IsServed {
				return uniqueViolation(constraintOneUnservedOrder)
			}
		}
		out = database.Order{ID: uuid.New(), TableID: arg.TableID, StaffID: arg.StaffID, CreatedAt: time.Now()}
		s.orders[out.ID] = out
		return nil
	})
	return out, err
}

func (t *memTx) GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error) {
	var out database.Order
	err := t.run("GetOrder", func(s *memState) error {
		o, ok := s.orders[id]
		if !ok {
			return pgx.ErrNoRows
		}
		out = o
		return nil
	})
	return out, err
}

func (t *memTx) GetLatestOrderByTable(ctx context.Context, tableID int32) (database.Order, error) {
	var out database.Order
	err := t.run("GetLatestOrderByTable", func(s *memState) error {
		found := false
		for _, o := range s.orders {
			if o.TableID != tableID {
				continue
			}
			if !found || o.CreatedAt.After(out.CreatedAt) ||
				(o.CreatedAt.Equal(out.CreatedAt) && bytes.Compare(o.ID[:], out.ID[:]) > 0) {
				out, found = o, true
			}
		}
		if !found {
			return pgx.ErrNoRows
		}
		return nil
	})
	return out, err
}

func (t *memTx) LockUnservedOrdersByTable(ctx context.Context, tableID int32) ([]database.Order, error) {
	var out []database.Order
	err := t.run("LockUnservedOrdersByTable", func(s *memState) error {
		for _, o := range s.orders {
			if o.TableID == tableID && !o.IsServed {
				out = append(out, o)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
		return nil
	})
	return out, err
}

func (t *memTx) MarkOrderServed(ctx context.Context, id uuid.UUID) (database.Order, error) {
	var out database.Order
	err := t.run("MarkOrderServed", func(s *memState) error {
		o, ok := s.orders[id]
		if !ok || o.IsServed {
			return pgx.ErrNoRows
		}
		o.IsServed = true
		s.orders[id] = o
		out = o
		return nil
	})
	return out, err
}

// --- Dishes ---

func (t *memTx) CreateDish(ctx context.Context, arg database.CreateDishParams) (database.Dish, error) {
	var out database.Dish
	err := t.run("CreateDish", func(s *memState) error {
		out = database.Dish{
			ID:         uuid.New(),
			OrderID:    arg.OrderID,
			StaffID:    arg.StaffID,
			MenuItemID: arg.MenuItemID,
			ItemName:   arg.ItemName,
			UnitPrice:  arg.UnitPrice,
			Quantity:   arg.Quantity,
			Total:      arg.Total,
			Status:     enum.DishStatusReceived,
		}
		s.dishes[out.ID] = out
		return nil
	})
	return out, err
}

func (t *memTx) GetDish(ctx context.Context, id uuid.UUID) (database.Dish, error) {
	var out database.Dish
	err := t.run("GetDish", func(s *memState) error {
		d, ok := s.dishes[id]
		if !ok {
			return pgx.ErrNoRows
		}
		out = d
		return nil
	})
	return out, err
}

func (t *memTx) TransitionDishStatus(ctx context.Context, arg database.TransitionDishStatusParams) (database.Dish, error) {
	var out database.Dish
	err := t.run("TransitionDishStatus", func(s *memState) error {
		d, ok := s.dishes[arg.ID]
		if !ok || d.Status != arg.From {
			return pgx.ErrNoRows
		}
		d.Status = arg.To
		s.dishes[arg.ID] = d
		out = d
		return nil
	})
	return out, err
}

func (t *memTx) SetOrderDishesStatus(ctx context.Context, arg database.SetOrderDishesStatusParams) (int64, error) {
	var n int64
	err := t.run("SetOrderDishesStatus", func(s *memState) error {
		for id, d := range s.dishes {
			if d.OrderID == arg.OrderID {
				d.Status = arg.Status
				s.dishes[id] = d
				n++
			}
		}
		return nil
	})
	return n, err
}

func (t *memTx) ListKitchenDishes(ctx context.Context) ([]database.ListKitchenDishesRow, error) {
	var out []database.ListKitchenDishesRow
	err := t.run("ListKitchenDishes", func(s *memState) error {
		for _, d := range s.dishes {
			o := s.orders[d.OrderID]
			out = append(out, database.ListKitchenDishesRow{
				DishID:   d.ID,
				OrderID:  d.OrderID,
				TableID:  o.TableID,
				ItemName: s.itemName(d),
				Quantity: d.Quantity,
				Status:   d.Status,
			})
		}
		slices.SortFunc(out, func(a, b database.ListKitchenDishesRow) int {
			if c := s.orders[a.OrderID].CreatedAt.Compare(s.orders[b.OrderID].CreatedAt); c != 0 {
				return c
			}
			return bytes.Compare(a.DishID[:], b.DishID[:])
		})
		return nil
	})
	return out, err
}

func (t *memTx) ListOrderDishLines(ctx context.Context, orderID uuid.UUID) ([]database.ListOrderDishLinesRow, error) {
	var out []database.ListOrderDishLinesRow
	err := t.run("ListOrderDishLines", func(s *memState) error {
		for _, d := range s.dishes {
			if d.OrderID != orderID {
				continue
			}
			unit := d.UnitPrice
			if d.MenuItemID.Valid {
				if item, ok := s.items[uuid.UUID(d.MenuItemID.Bytes)]; ok {
					unit = item.Price
				}
			}
			out = append(out, database.ListOrderDishLinesRow{
				DishID:    d.ID,
				ItemName:  s.itemName(d),
				Quantity:  d.Quantity,
				UnitPrice: unit,
				Total:     d.Total,
				Status:    d.Status,
			})
		}
		return nil
	})
	return out, err
}

func (s *memState) itemName(d database.Dish) string {
	if d.MenuItemID.Valid {
		if item, ok := s.items[uuid.UUID(d.MenuItemID.Bytes)]; ok {
			return item.Name
		}
	}
	return d.ItemName
}

