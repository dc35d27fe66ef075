package order

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/comanda/internal/apperr"
	"github.com/MrJamesThe3rd/comanda/internal/notify"
	"github.com/MrJamesThe3rd/comanda/internal/table"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=order
type Repository interface {
	GetOrder(ctx context.Context, id uuid.UUID) (*Order, error)
	ListOrders(ctx context.Context, filter ListFilter) ([]*Order, error)

	Begin(ctx context.Context) (Tx, error)
}

// Tx covers every write an order makes, including the seating side effect
// on its table, so they commit or roll back together.
type Tx interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)
	LockTable(ctx context.Context, id uuid.UUID) (*table.Table, error)
	SaveTable(ctx context.Context, t *table.Table) error
	InsertOrder(ctx context.Context, o *Order) error
	InsertItem(ctx context.Context, it *Item) error
	DeleteItem(ctx context.Context, orderID, itemID uuid.UUID) error
	LockOrder(ctx context.Context, id uuid.UUID) (*Order, error)
	SaveOrder(ctx context.Context, o *Order) error
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

type ItemParams struct {
	ProductID uuid.UUID
	Quantity  int
	Note      string
	Addons    []Addon
}

type CreateParams struct {
	Kind          string
	TableID       *uuid.UUID
	Customer      *Customer
	Items         []ItemParams
	PaymentMethod string
	StaffID       *uuid.UUID
	Notes         string
}

type ListFilter struct {
	Status  *Status
	Kind    *Kind
	TableID *uuid.UUID
	StaffID *uuid.UUID
	Since   *time.Time
	Limit   int
}

type Event struct {
	OrderID uuid.UUID  `json:"order_id"`
	Code    string     `json:"code"`
	Kind    Kind       `json:"kind"`
	Status  Status     `json:"status"`
	TableID *uuid.UUID `json:"table_id,omitempty"`
	Total   int64      `json:"total_cents"`
}

func NewEvent(o *Order) Event {
	return Event{
		OrderID: o.ID,
		Code:    o.Code,
		Kind:    o.Kind,
		Status:  o.Status,
		TableID: o.TableID,
		Total:   o.Total,
	}
}

const (
	codeAttempts     = 5
	defaultListLimit = 100
	maxListLimit     = 500
)

func (p *ItemParams) validate() error {
	if p.ProductID == uuid.Nil {
		return apperr.Invalidf("item product is required")
	}

	if p.Quantity < 0 {
		return apperr.Invalidf("item quantity must be at least 1")
	}

	if p.Quantity == 0 {
		p.Quantity = 1
	}

	for _, a := range p.Addons {
		if strings.TrimSpace(a.Name) == "" {
			return apperr.Invalidf("add-on name is required")
		}

		if a.Price < 0 {
			return apperr.Invalidf("add-on %q has a negative price", a.Name)
		}
	}

	return nil
}

func (p *CreateParams) validate() (Kind, PaymentMethod, error) {
	kind, err := ParseKind(p.Kind)
	if err != nil {
		return "", "", err
	}

	switch kind {
	case KindInPerson:
		if p.TableID == nil || *p.TableID == uuid.Nil {
			return "", "", apperr.Invalidf("in-person orders require a table")
		}
	case KindOnline:
		if p.Customer == nil || strings.TrimSpace(p.Customer.Name) == "" {
			return "", "", apperr.Invalidf("online orders require a customer name")
		}
	}

	if len(p.Items) == 0 {
		return "", "", apperr.Invalidf("an order needs at least one item")
	}

	for i := range p.Items {
		if err := p.Items[i].validate(); err != nil {
			return "", "", err
		}
	}

	pm, err := ParsePaymentMethod(p.PaymentMethod)
	if err != nil {
		return "", "", err
	}

	return kind, pm, nil
}

// resolveItem prices an item from its product as the product is right now.
func resolveItem(ctx context.Context, tx Tx, p ItemParams) (*Item, error) {
	product, err := tx.GetProduct(ctx, p.ProductID)
	if err != nil {
		return nil, err
	}

	if !product.Available {
		return nil, apperr.Newf(apperr.Invalid, "product %q is not available", product.Name)
	}

	return &Item{
		ProductID:   product.ID,
		ProductName: product.Name,
		Quantity:    p.Quantity,
		UnitPrice:   product.Price,
		Note:        p.Note,
		Addons:      p.Addons,
	}, nil
}

// Create places an order. For in-person orders a free or reserved table is
// seated in the same transaction.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Order, error) {
	kind, pm, err := params.validate()
	if err != nil {
		return nil, err
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin order: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	o := &Order{
		Kind:          kind,
		PaymentMethod: pm,
		Status:        StatusReceived,
		StaffID:       params.StaffID,
		Notes:         params.Notes,
		CreatedAt:     now,
	}

	for i, p := range params.Items {
		it, err := resolveItem(ctx, tx, p)
		if err != nil {
			return nil, err
		}

		it.Position = i + 1
		o.Items = append(o.Items, it)
	}

	o.Recalculate()

	var seated *table.Table

	if kind == KindInPerson {
		t, err := tx.LockTable(ctx, *params.TableID)
		if err != nil {
			return nil, err
		}

		if t.Status == table.StatusFree || t.Status == table.StatusReserved {
			t.Transition(table.StatusOccupied, params.StaffID, now)

			if err := tx.SaveTable(ctx, t); err != nil {
				return nil, fmt.Errorf("seat table: %w", err)
			}

			seated = t
		}

		o.TableID = &t.ID
	} else {
		o.Customer = params.Customer
	}

	if err := s.insertWithCode(ctx, tx, o, now); err != nil {
		return nil, err
	}

	for _, it := range o.Items {
		it.OrderID = o.ID
		if err := tx.InsertItem(ctx, it); err != nil {
			return nil, fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit order: %w", err)
	}

	notify.Send(ctx, s.events, notify.TopicOrderCreated, NewEvent(o))

	if seated != nil {
		notify.Send(ctx, s.events, notify.TopicTableStatusChanged, table.NewStatusEvent(seated))
	}

	return o, nil
}

func (s *Service) insertWithCode(ctx context.Context, tx Tx, o *Order, now time.Time) error {
	for range codeAttempts {
		o.Code = GenerateCode(now)

		err := tx.InsertOrder(ctx, o)
		if err == nil {
			return nil
		}

		if !errors.Is(err, ErrCodeTaken) {
			return fmt.Errorf("insert order: %w", err)
		}
	}

	return ErrCodeGenerationExhausted
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	return s.repo.GetOrder(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Order, error) {
	switch {
	case filter.Limit <= 0:
		filter.Limit = defaultListLimit
	case filter.Limit > maxListLimit:
		filter.Limit = maxListLimit
	}

	return s.repo.ListOrders(ctx, filter)
}

// AdvanceStatus sets any recognized status. Transitions are not required to
// move forward.
func (s *Service) AdvanceStatus(ctx context.Context, id uuid.UUID, status string) (*Order, error) {
	st, err := ParseStatus(status)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, id, notify.TopicOrderStatusChanged, func(_ Tx, o *Order, now time.Time) error {
		o.SetStatus(st, now)
		return nil
	})
}

func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Order, error) {
	return s.mutate(ctx, id, notify.TopicOrderStatusChanged, func(_ Tx, o *Order, now time.Time) error {
		if !o.Status.Cancellable() {
			return ErrNotCancellable
		}

		o.SetStatus(StatusCancelled, now)

		return nil
	})
}

func (s *Service) SetPaymentMethod(ctx context.Context, id uuid.UUID, method string) (*Order, error) {
	if method == "" {
		return nil, ErrInvalidPaymentMethod
	}

	pm, err := ParsePaymentMethod(method)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, id, notify.TopicOrderPaymentChanged, func(_ Tx, o *Order, _ time.Time) error {
		o.PaymentMethod = pm
		return nil
	})
}

func (s *Service) AddItem(ctx context.Context, orderID uuid.UUID, params ItemParams) (*Order, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	return s.mutate(ctx, orderID, notify.TopicOrderItemsChanged, func(tx Tx, o *Order, _ time.Time) error {
		if o.Status.ItemsLocked() {
			return ErrItemsLocked
		}

		it, err := resolveItem(ctx, tx, params)
		if err != nil {
			return err
		}

		it.OrderID = o.ID
		it.Position = o.NextPosition()

		if err := tx.InsertItem(ctx, it); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}

		o.Items = append(o.Items, it)
		o.Recalculate()

		return nil
	})
}

func (s *Service) RemoveItem(ctx context.Context, orderID, itemID uuid.UUID) (*Order, error) {
	return s.mutate(ctx, orderID, notify.TopicOrderItemsChanged, func(tx Tx, o *Order, _ time.Time) error {
		if o.Status.ItemsLocked() {
			return ErrItemsLocked
		}

		idx := slices.IndexFunc(o.Items, func(it *Item) bool { return it.ID == itemID })
		if idx < 0 {
			return ErrItemNotFound
		}

		if err := tx.DeleteItem(ctx, orderID, itemID); err != nil {
			return fmt.Errorf("delete order item: %w", err)
		}

		o.Items = slices.Delete(o.Items, idx, idx+1)
		o.Recalculate()

		return nil
	})
}

func (s *Service) mutate(ctx context.Context, id uuid.UUID, topic notify.Topic, apply func(tx Tx, o *Order, now time.Time) error) (*Order, error) {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin order update: %w", err)
	}
	defer tx.Rollback()

	o, err := tx.LockOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := apply(tx, o, time.Now().UTC()); err != nil {
		return nil, err
	}

	if err := tx.SaveOrder(ctx, o); err != nil {
		return nil, fmt.Errorf("save order: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit order update: %w", err)
	}

	notify.Send(ctx, s.events, topic, NewEvent(o))

	return o, nil
}
