package cash

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/comanda/internal/apperr"
	"github.com/MrJamesThe3rd/comanda/internal/notify"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=cash
type Repository interface {
	CreateSession(ctx context.Context, s *Session) error
	GetSession(ctx context.Context, id uuid.UUID) (*Session, error)
	CurrentSession(ctx context.Context) (*Session, error)
	ListSessions(ctx context.Context, filter HistoryFilter) ([]*Session, error)
	ListMovements(ctx context.Context, sessionID uuid.UUID) ([]*Movement, error)
	ListPaymentMethods(ctx context.Context) ([]*PaymentMethod, error)

	Begin(ctx context.Context) (Tx, error)
}

// Tx operates on the open session row while it is locked. PostMovement is
// the single posting path shared with checkout and ledger settlement.
type Tx interface {
	LockOpenSession(ctx context.Context) (*Session, error)
	GetPaymentMethod(ctx context.Context, id uuid.UUID) (*PaymentMethod, error)
	PostMovement(ctx context.Context, m *Movement) (*Session, error)
	SaveSession(ctx context.Context, s *Session) error
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

type HistoryFilter struct {
	From  *time.Time
	To    *time.Time
	Limit int
}

type MovementParams struct {
	Type            string
	Amount          int64
	Description     string
	StaffID         *uuid.UUID
	PaymentMethodID *uuid.UUID
	OrderID         *uuid.UUID
}

type SessionEvent struct {
	SessionID    uuid.UUID     `json:"session_id"`
	Status       SessionStatus `json:"status"`
	SystemAmount int64         `json:"system_amount_cents"`
	Discrepancy  *int64        `json:"discrepancy_cents,omitempty"`
}

type MovementEvent struct {
	SessionID    uuid.UUID    `json:"session_id"`
	MovementID   uuid.UUID    `json:"movement_id"`
	Type         MovementType `json:"type"`
	Amount       int64        `json:"amount_cents"`
	SystemAmount int64        `json:"system_amount_cents"`
}

func NewMovementEvent(s *Session, m *Movement) MovementEvent {
	return MovementEvent{
		SessionID:    s.ID,
		MovementID:   m.ID,
		Type:         m.Type,
		Amount:       m.Amount,
		SystemAmount: s.SystemAmount,
	}
}

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// Open starts a new drawer session. A concurrent open loses on the store's
// uniqueness constraint and gets ErrSessionAlreadyOpen.
func (s *Service) Open(ctx context.Context, openingAmount int64, notes string, staffID *uuid.UUID) (*Session, error) {
	if openingAmount < 0 {
		return nil, apperr.Invalidf("opening amount cannot be negative")
	}

	sess := &Session{
		Status:        SessionOpen,
		OpeningAmount: openingAmount,
		SystemAmount:  openingAmount,
		OpenedBy:      staffID,
		Notes:         notes,
	}
	if err := s.repo.CreateSession(ctx, sess); err != nil {
		return nil, err
	}

	notify.Send(ctx, s.events, notify.TopicCashSessionOpened, SessionEvent{
		SessionID:    sess.ID,
		Status:       sess.Status,
		SystemAmount: sess.SystemAmount,
	})

	return sess, nil
}

func (s *Service) RecordMovement(ctx context.Context, params MovementParams) (*Movement, error) {
	typ, err := ParseMovementType(params.Type)
	if err != nil {
		return nil, err
	}

	m := &Movement{
		Type:            typ,
		Amount:          params.Amount,
		Description:     params.Description,
		PaymentMethodID: params.PaymentMethodID,
		OrderID:         params.OrderID,
		StaffID:         params.StaffID,
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin movement: %w", err)
	}
	defer tx.Rollback()

	if m.PaymentMethodID != nil {
		pm, err := tx.GetPaymentMethod(ctx, *m.PaymentMethodID)
		if err != nil {
			return nil, err
		}

		if !pm.Active {
			return nil, ErrInvalidPaymentMethod
		}
	}

	sess, err := tx.PostMovement(ctx, m)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit movement: %w", err)
	}

	notify.Send(ctx, s.events, notify.TopicCashMovementRecorded, NewMovementEvent(sess, m))

	return m, nil
}

func (s *Service) Close(ctx context.Context, closingAmount int64, notes string, staffID *uuid.UUID) (*Session, error) {
	if closingAmount < 0 {
		return nil, apperr.Invalidf("closing amount cannot be negative")
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin close: %w", err)
	}
	defer tx.Rollback()

	sess, err := tx.LockOpenSession(ctx)
	if err != nil {
		return nil, err
	}

	sess.Close(closingAmount, notes, staffID, time.Now().UTC())

	if err := tx.SaveSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit close: %w", err)
	}

	notify.Send(ctx, s.events, notify.TopicCashSessionClosed, SessionEvent{
		SessionID:    sess.ID,
		Status:       sess.Status,
		SystemAmount: sess.SystemAmount,
		Discrepancy:  sess.Discrepancy,
	})

	return sess, nil
}

// Current returns the open session, or nil when the drawer is closed.
func (s *Service) Current(ctx context.Context) (*Session, error) {
	sess, err := s.repo.CurrentSession(ctx)
	if errors.Is(err, ErrNoOpenSession) {
		return nil, nil
	}

	return sess, err
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	return s.repo.GetSession(ctx, id)
}

func (s *Service) History(ctx context.Context, filter HistoryFilter) ([]*Session, error) {
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, apperr.Invalidf("history range ends before it starts")
	}

	switch {
	case filter.Limit <= 0:
		filter.Limit = defaultHistoryLimit
	case filter.Limit > maxHistoryLimit:
		filter.Limit = maxHistoryLimit
	}

	return s.repo.ListSessions(ctx, filter)
}

// Movements lists a session's movements oldest first.
func (s *Service) Movements(ctx context.Context, sessionID uuid.UUID) ([]*Movement, error) {
	if _, err := s.repo.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}

	return s.repo.ListMovements(ctx, sessionID)
}

func (s *Service) PaymentMethods(ctx context.Context) ([]*PaymentMethod, error) {
	return s.repo.ListPaymentMethods(ctx)
}
