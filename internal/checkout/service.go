package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/comanda/internal/apperr"
	"github.com/MrJamesThe3rd/comanda/internal/cash"
	"github.com/MrJamesThe3rd/comanda/internal/notify"
	"github.com/MrJamesThe3rd/comanda/internal/order"
	"github.com/MrJamesThe3rd/comanda/internal/table"
)

var ErrNothingToBill = apperr.New(apperr.Invalid, "nothing to bill for this table")

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=checkout
type Repository interface {
	GetTable(ctx context.Context, id uuid.UUID) (*table.Table, error)
	ListBillable(ctx context.Context, tableID uuid.UUID) ([]*order.Order, error)

	Begin(ctx context.Context) (Tx, error)
}

// Tx spans the whole checkout. PostMovement runs in its own savepoint: when
// it fails nothing it did is kept and the transaction remains usable.
type Tx interface {
	LockTable(ctx context.Context, id uuid.UUID) (*table.Table, error)
	LockBillable(ctx context.Context, tableID uuid.UUID) ([]*order.Order, error)
	GetPaymentMethod(ctx context.Context, id uuid.UUID) (*cash.PaymentMethod, error)
	SaveOrder(ctx context.Context, o *order.Order) error
	SaveTable(ctx context.Context, t *table.Table) error
	PostMovement(ctx context.Context, m *cash.Movement) (*cash.Session, error)
	Commit() error
	Rollback() error
}

type Service struct {
	repo   Repository
	events notify.Publisher
}

func NewService(repo Repository, events notify.Publisher) *Service {
	return &Service{repo: repo, events: events}
}

// Summary is the outcome of closing a table's bill.
type Summary struct {
	TableID            uuid.UUID
	TableNumber        int
	Total              int64
	PaymentMethodLabel string
	OrdersFinalized    int
	MovementRecorded   bool
}

// Bill is what a table would be charged if it were closed now.
type Bill struct {
	TableID     uuid.UUID
	TableNumber int
	Orders      []*order.Order
	Total       int64
}

type Event struct {
	TableID            uuid.UUID `json:"table_id"`
	TableNumber        int       `json:"table_number"`
	Total              int64     `json:"total_cents"`
	PaymentMethodLabel string    `json:"payment_method"`
	OrdersFinalized    int       `json:"orders_finalized"`
	MovementRecorded   bool      `json:"movement_recorded"`
}

func sum(orders []*order.Order) int64 {
	var total int64
	for _, o := range orders {
		total += o.Total
	}

	return total
}

// Close bills every open order of a table, posts the takings to the open
// cash session if there is one and frees the table. Only the cash posting
// may fail without failing the checkout.
func (s *Service) Close(ctx context.Context, tableID, paymentMethodID uuid.UUID, staffID *uuid.UUID) (*Summary, error) {
	if tableID == uuid.Nil {
		return nil, apperr.Invalidf("table is required")
	}

	if paymentMethodID == uuid.Nil {
		return nil, apperr.Invalidf("payment method is required")
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin checkout: %w", err)
	}
	defer tx.Rollback()

	t, err := tx.LockTable(ctx, tableID)
	if err != nil {
		return nil, err
	}

	orders, err := tx.LockBillable(ctx, tableID)
	if err != nil {
		return nil, err
	}

	if len(orders) == 0 {
		return nil, ErrNothingToBill
	}

	pm, err := tx.GetPaymentMethod(ctx, paymentMethodID)
	if err != nil {
		return nil, err
	}

	if !pm.Active {
		return nil, cash.ErrInvalidPaymentMethod
	}

	now := time.Now().UTC()
	total := sum(orders)

	for _, o := range orders {
		o.SetStatus(order.StatusDelivered, now)
		o.BilledAt = &now

		if err := tx.SaveOrder(ctx, o); err != nil {
			return nil, fmt.Errorf("mark order %s delivered: %w", o.Code, err)
		}
	}

	summary := &Summary{
		TableID:            t.ID,
		TableNumber:        t.Number,
		Total:              total,
		PaymentMethodLabel: pm.Name,
		OrdersFinalized:    len(orders),
	}

	var (
		movement *cash.Movement
		session  *cash.Session
	)

	if total > 0 {
		movement = &cash.Movement{
			Type:            cash.MovementEntry,
			Amount:          total,
			Description:     fmt.Sprintf("Table %d checkout - %d order(s)", t.Number, len(orders)),
			PaymentMethodID: &pm.ID,
			StaffID:         staffID,
		}

		session, err = tx.PostMovement(ctx, movement)
		switch {
		case err == nil:
			summary.MovementRecorded = true
		case errors.Is(err, cash.ErrNoOpenSession):
			slog.Info("checkout without open cash session", "table", t.Number, "total", total)
		default:
			slog.Error("failed to post checkout movement", "table", t.Number, "total", total, "error", err)
		}
	}

	t.Release(now)

	if err := tx.SaveTable(ctx, t); err != nil {
		return nil, fmt.Errorf("release table: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit checkout: %w", err)
	}

	s.publish(ctx, summary, t, orders, session, movement)

	return summary, nil
}

func (s *Service) publish(ctx context.Context, summary *Summary, t *table.Table, orders []*order.Order, session *cash.Session, movement *cash.Movement) {
	notify.Send(ctx, s.events, notify.TopicTableCheckout, Event{
		TableID:            summary.TableID,
		TableNumber:        summary.TableNumber,
		Total:              summary.Total,
		PaymentMethodLabel: summary.PaymentMethodLabel,
		OrdersFinalized:    summary.OrdersFinalized,
		MovementRecorded:   summary.MovementRecorded,
	})

	for _, o := range orders {
		notify.Send(ctx, s.events, notify.TopicOrderStatusChanged, order.NewEvent(o))
	}

	notify.Send(ctx, s.events, notify.TopicTableStatusChanged, table.NewStatusEvent(t))

	if summary.MovementRecorded {
		notify.Send(ctx, s.events, notify.TopicCashMovementRecorded, cash.NewMovementEvent(session, movement))
	}
}

// Preview returns the current bill of a table without changing anything.
func (s *Service) Preview(ctx context.Context, tableID uuid.UUID) (*Bill, error) {
	t, err := s.repo.GetTable(ctx, tableID)
	if err != nil {
		return nil, err
	}

	orders, err := s.repo.ListBillable(ctx, tableID)
	if err != nil {
		return nil, err
	}

	return &Bill{
		TableID:     t.ID,
		TableNumber: t.Number,
		Orders:      orders,
		Total:       sum(orders),
	}, nil
}
