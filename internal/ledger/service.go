package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/comanda/internal/apperr"
	"github.com/MrJamesThe3rd/comanda/internal/cash"
	"github.com/MrJamesThe3rd/comanda/internal/notify"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=ledger
type Repository interface {
	CreateEntry(ctx context.Context, e *Entry) error
	GetEntry(ctx context.Context, id uuid.UUID) (*Entry, error)
	ListEntries(ctx context.Context, filter ListFilter) ([]*Entry, error)
	ListCategories(ctx context.Context, kind *Kind) ([]*Category, error)
	CreateCategory(ctx context.Context, c *Category) error

	Begin(ctx context.Context) (Tx, error)
}

// Tx locks one entry for a state change. PostMovement runs in a savepoint
// so a failed posting leaves the transaction usable.
type Tx interface {
	LockEntry(ctx context.Context, id uuid.UUID) (*Entry, error)
	SaveEntry(ctx context.Context, e *Entry) error
	DeleteEntry(ctx context.Context, id uuid.UUID) error
	GetPaymentMethod(ctx context.Context, id uuid.UUID) (*cash.PaymentMethod, error)
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

type EntryParams struct {
	Kind         string
	Description  string
	Counterparty string
	Amount       int64
	DueDate      time.Time
	CategoryID   *uuid.UUID
	OrderID      *uuid.UUID
	Notes        string
}

type SettleParams struct {
	PaymentMethodID *uuid.UUID
	SettledOn       *time.Time
	StaffID         *uuid.UUID
}

type CategoryParams struct {
	Name        string
	Kind        string
	Description string
}

type ListFilter struct {
	Kind    *Kind
	Status  *Status
	DueFrom *time.Time
	DueTo   *time.Time
	Limit   int
}

// Settlement reports whether the cash movement mirroring a settlement made
// it into the drawer.
type Settlement struct {
	Entry            *Entry
	MovementRecorded bool
}

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

func (p *EntryParams) validate() (Kind, error) {
	kind, err := ParseKind(p.Kind)
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(p.Description) == "" {
		return "", apperr.Invalidf("description is required")
	}

	if p.Amount <= 0 {
		return "", apperr.Invalidf("amount must be positive")
	}

	if p.DueDate.IsZero() {
		return "", apperr.Invalidf("due date is required")
	}

	if p.OrderID != nil && kind != KindReceivable {
		return "", apperr.Invalidf("only receivables can reference an order")
	}

	return kind, nil
}

func (s *Service) Create(ctx context.Context, params EntryParams) (*Entry, error) {
	kind, err := params.validate()
	if err != nil {
		return nil, err
	}

	e := &Entry{
		Kind:         kind,
		Description:  strings.TrimSpace(params.Description),
		Counterparty: params.Counterparty,
		Amount:       params.Amount,
		DueDate:      params.DueDate,
		CategoryID:   params.CategoryID,
		OrderID:      params.OrderID,
		Status:       StatusPending,
		Notes:        params.Notes,
	}
	if err := s.repo.CreateEntry(ctx, e); err != nil {
		return nil, err
	}

	return e, nil
}

// Update replaces the editable fields of a pending entry.
func (s *Service) Update(ctx context.Context, id uuid.UUID, params EntryParams) (*Entry, error) {
	kind, err := params.validate()
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, id, func(e *Entry) error {
		if e.Status != StatusPending {
			return ErrNotPending
		}

		e.Kind = kind
		e.Description = strings.TrimSpace(params.Description)
		e.Counterparty = params.Counterparty
		e.Amount = params.Amount
		e.DueDate = params.DueDate
		e.CategoryID = params.CategoryID
		e.OrderID = params.OrderID
		e.Notes = params.Notes

		return nil
	})
}

func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Entry, error) {
	return s.mutate(ctx, id, func(e *Entry) error {
		if e.Status != StatusPending {
			return ErrNotPending
		}

		e.Status = StatusCancelled

		return nil
	})
}

// Settle marks an entry settled exactly once. When a cash session is open the
// matching movement is posted with it; a failed posting is logged and the
// settlement still commits.
func (s *Service) Settle(ctx context.Context, id uuid.UUID, params SettleParams) (*Settlement, error) {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin settlement: %w", err)
	}
	defer tx.Rollback()

	e, err := tx.LockEntry(ctx, id)
	if err != nil {
		return nil, err
	}

	on := time.Now().UTC().Truncate(24 * time.Hour)
	if params.SettledOn != nil {
		on = *params.SettledOn
	}

	if err := e.Settle(params.PaymentMethodID, on); err != nil {
		return nil, err
	}

	if params.PaymentMethodID != nil {
		pm, err := tx.GetPaymentMethod(ctx, *params.PaymentMethodID)
		if err != nil {
			return nil, err
		}

		if !pm.Active {
			return nil, cash.ErrInvalidPaymentMethod
		}
	}

	if err := tx.SaveEntry(ctx, e); err != nil {
		return nil, fmt.Errorf("save entry: %w", err)
	}

	m := e.Movement(params.StaffID)

	sess, err := tx.PostMovement(ctx, m)
	if err != nil {
		if errors.Is(err, cash.ErrNoOpenSession) {
			slog.Info("settled entry without open cash session", "entry", e.ID, "amount", e.Amount)
		} else {
			slog.Error("failed to post settlement movement", "entry", e.ID, "amount", e.Amount, "error", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit settlement: %w", err)
	}

	recorded := sess != nil
	if recorded {
		notify.Send(ctx, s.events, notify.TopicCashMovementRecorded, cash.NewMovementEvent(sess, m))
	}

	return &Settlement{Entry: e, MovementRecorded: recorded}, nil
}

// Delete removes an entry unless it has been settled.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	e, err := tx.LockEntry(ctx, id)
	if err != nil {
		return err
	}

	if e.Status == StatusSettled {
		return ErrSettledUndeletable
	}

	if err := tx.DeleteEntry(ctx, id); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}

	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Entry, error) {
	return s.repo.GetEntry(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Entry, error) {
	if filter.DueFrom != nil && filter.DueTo != nil && filter.DueTo.Before(*filter.DueFrom) {
		return nil, apperr.Invalidf("due range ends before it starts")
	}

	switch {
	case filter.Limit <= 0:
		filter.Limit = defaultListLimit
	case filter.Limit > maxListLimit:
		filter.Limit = maxListLimit
	}

	return s.repo.ListEntries(ctx, filter)
}

func (s *Service) Categories(ctx context.Context, kind *Kind) ([]*Category, error) {
	return s.repo.ListCategories(ctx, kind)
}

func (s *Service) CreateCategory(ctx context.Context, params CategoryParams) (*Category, error) {
	kind, err := ParseKind(params.Kind)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, apperr.Invalidf("category name is required")
	}

	c := &Category{
		Name:        name,
		Kind:        kind,
		Description: params.Description,
		Active:      true,
	}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

func (s *Service) mutate(ctx context.Context, id uuid.UUID, apply func(e *Entry) error) (*Entry, error) {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin entry update: %w", err)
	}
	defer tx.Rollback()

	e, err := tx.LockEntry(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := apply(e); err != nil {
		return nil, err
	}

	if err := tx.SaveEntry(ctx, e); err != nil {
		return nil, fmt.Errorf("save entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit entry update: %w", err)
	}

	return e, nil
}
