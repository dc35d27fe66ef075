package table

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/comanda/internal/apperr"
	"github.com/MrJamesThe3rd/comanda/internal/notify"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=table
type Repository interface {
	CreateTable(ctx context.Context, t *Table) error
	GetTable(ctx context.Context, id uuid.UUID) (*Table, error)
	ListTables(ctx context.Context, filter ListFilter) ([]*Table, error)
	DeleteTable(ctx context.Context, id uuid.UUID) error

	Begin(ctx context.Context) (Tx, error)
}

// Tx is a unit of work over locked table rows.
type Tx interface {
	LockTable(ctx context.Context, id uuid.UUID) (*Table, error)
	SaveTable(ctx context.Context, t *Table) error
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

type CreateParams struct {
	Number   int
	Capacity int
	Notes    string
}

type ListFilter struct {
	Status  *Status
	StaffID *uuid.UUID
}

// StatusEvent is published on every table status or assignee change.
type StatusEvent struct {
	TableID      uuid.UUID  `json:"table_id"`
	Number       int        `json:"number"`
	Status       Status     `json:"status"`
	StaffID      *uuid.UUID `json:"staff_id,omitempty"`
	CallingStaff bool       `json:"calling_staff"`
}

func NewStatusEvent(t *Table) StatusEvent {
	return StatusEvent{
		TableID:      t.ID,
		Number:       t.Number,
		Status:       t.Status,
		StaffID:      t.StaffID,
		CallingStaff: t.CallingStaff,
	}
}

const defaultCapacity = 4

func (s *Service) Create(ctx context.Context, params CreateParams) (*Table, error) {
	if params.Number <= 0 {
		return nil, apperr.Invalidf("table number must be positive")
	}

	if params.Capacity < 0 {
		return nil, apperr.Invalidf("capacity must be positive")
	}

	if params.Capacity == 0 {
		params.Capacity = defaultCapacity
	}

	t := &Table{
		Number:   params.Number,
		Capacity: params.Capacity,
		Status:   StatusFree,
		Notes:    params.Notes,
	}
	if err := s.repo.CreateTable(ctx, t); err != nil {
		return nil, err
	}

	return t, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Table, error) {
	return s.repo.GetTable(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Table, error) {
	return s.repo.ListTables(ctx, filter)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteTable(ctx, id)
}

// SetStatus moves a table to status. Any transition is accepted; the
// occupancy window follows the rules of Table.Transition.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status string, staffID *uuid.UUID) (*Table, error) {
	st, err := ParseStatus(status)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, id, notify.TopicTableStatusChanged, func(t *Table, now time.Time) {
		t.Transition(st, staffID, now)
	})
}

// AssignToStaff records the staff member looking after the table without
// touching its status. Claiming a table answers any pending call.
func (s *Service) AssignToStaff(ctx context.Context, id, staffID uuid.UUID) (*Table, error) {
	if staffID == uuid.Nil {
		return nil, apperr.Invalidf("staff id is required")
	}

	return s.mutate(ctx, id, notify.TopicTableStatusChanged, func(t *Table, _ time.Time) {
		t.StaffID = &staffID
		t.CallingStaff = false
	})
}

// CallStaff raises the table's call flag and marks it as awaiting service.
func (s *Service) CallStaff(ctx context.Context, id uuid.UUID) (*Table, error) {
	return s.mutate(ctx, id, notify.TopicTableCall, func(t *Table, now time.Time) {
		t.Transition(StatusAwaitingService, nil, now)
		t.CallingStaff = true
	})
}

func (s *Service) mutate(ctx context.Context, id uuid.UUID, topic notify.Topic, apply func(t *Table, now time.Time)) (*Table, error) {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin table update: %w", err)
	}
	defer tx.Rollback()

	t, err := tx.LockTable(ctx, id)
	if err != nil {
		return nil, err
	}

	apply(t, time.Now().UTC())

	if err := tx.SaveTable(ctx, t); err != nil {
		return nil, fmt.Errorf("save table: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit table update: %w", err)
	}

	notify.Send(ctx, s.events, topic, NewStatusEvent(t))

	return t, nil
}
