package service

import (
	"github.com/google/uuid"
	"github.com/hiimjupter/ris-api/internal/database"
	"github.com/shopspring/decimal"
)

// DishView is one row of the kitchen board.
type DishView struct {
	DishID   uuid.UUID `json:"dish_id"`
	OrderID  uuid.UUID `json:"order_id"`
	TableID  int32     `json:"table_id"`
	ItemName string    `json:"item_name"`
	Quantity int32     `json:"quantity"`
	Status   string    `json:"status"`
}

// OrderLine is a dish as shown on an order's detail page. UnitPrice is the
// menu item's current price when the item still exists; Total is the amount
// frozen when the order was taken.
type OrderLine struct {
	DishID    uuid.UUID       `json:"dish_id"`
	ItemName  string          `json:"item_name"`
	Quantity  int32           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total"`
	Status    string          `json:"status"`
}

type OrderDetail struct {
	Order database.Order  `json:"order"`
	Lines []OrderLine     `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

type SectionWithItems struct {
	Section database.MenuSection `json:"section"`
	Items   []database.MenuItem  `json:"items"`
}

func kitchenViews(rows []database.ListKitchenDishesRow) []DishView {
	views := make([]DishView, len(rows))
	for i, r := range rows {
		views[i] = DishView{
			DishID:   r.DishID,
			OrderID:  r.OrderID,
			TableID:  r.TableID,
			ItemName: r.ItemName,
			Quantity: r.Quantity,
			Status:   r.Status,
		}
	}
	return views
}

func orderDetail(order database.Order, rows []database.ListOrderDishLinesRow) *OrderDetail {
	detail := &OrderDetail{Order: order, Lines: make([]OrderLine, len(rows)), Total: decimal.Zero}
	for i, r := range rows {
		line := OrderLine{
			DishID:    r.DishID,
			ItemName:  r.ItemName,
			Quantity:  r.Quantity,
			UnitPrice: numericToDecimal(r.UnitPrice),
			Total:     numericToDecimal(r.Total),
			Status:    r.Status,
		}
		detail.Lines[i] = line
		detail.Total = detail.Total.Add(line.Total)
	}
	return detail
}

func groupBySection(sections []database.MenuSection, items []database.MenuItem) []SectionWithItems {
	bySection := make(map[int32][]database.MenuItem, len(sections))
	for _, item := range items {
		bySection[item.SectionID] = append(bySection[item.SectionID], item)
	}
	out := make([]SectionWithItems, len(sections))
	for i, sec := range sections {
		list := bySection[sec.ID]
		if list == nil {
			list = []database.MenuItem{}
		}
		out[i] = SectionWithItems{Section: sec, Items: list}
	}
	return out
}
