package service

import (
	"context"
	"log"
	"time"

	"github.com/hiimjupter/ris-api/internal/database"
	"github.com/hiimjupter/ris-api/internal/events"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Pool runs single statements and starts transactions. Satisfied by *pgxpool.Pool.
type Pool interface {
	database.DBTX
	TxBeginner
}

// Options are shared by every service.
type Options struct {
	// QueryTimeout bounds each operation; zero means no extra deadline.
	QueryTimeout time.Duration

	// Events receives domain events after a change commits. Nil disables publishing.
	Events events.Publisher

	// ServeForceReady makes ServeOrders set every dish of the served orders to ready.
	ServeForceReady bool

	// WalkInSeating lets CreateOrder seat a vacant table directly. When false
	// only reserved tables can take an order.
	WalkInSeating bool
}

// Largest amounts the price and total columns hold: NUMERIC(10,2) and NUMERIC(12,2).
var (
	maxPrice = decimal.RequireFromString("99999999.99")
	maxTotal = decimal.RequireFromString("9999999999.99")
)

func (o Options) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.QueryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, o.QueryTimeout)
}

// publish reports an event after commit. Failures are logged and dropped:
// the state change has already happened.
func (o Options) publish(ctx context.Context, eventType string, payload any) {
	if o.Events == nil {
		return
	}
	e, err := events.New(eventType, payload)
	if err != nil {
		log.Printf("ERROR: build %s event: %v", eventType, err)
		return
	}
	if err := o.Events.Publish(context.WithoutCancel(ctx), e); err != nil {
		log.Printf("ERROR: publish %s event: %v", eventType, err)
	}
}

// --- Helpers ---

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}

func textOrNull(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}
