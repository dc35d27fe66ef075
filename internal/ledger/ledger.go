package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/comanda/internal/apperr"
	"github.com/MrJamesThe3rd/comanda/internal/cash"
)

// Kind tells whether an entry is money owed by the restaurant or to it.
type Kind string

const (
	KindPayable    Kind = "payable"
	KindReceivable Kind = "receivable"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusSettled   Status = "settled"
	StatusCancelled Status = "cancelled"
)

var (
	ErrNotFound           = apperr.New(apperr.NotFound, "ledger entry not found")
	ErrCategoryNotFound   = apperr.New(apperr.NotFound, "financial category not found")
	ErrInvalidKind        = apperr.New(apperr.Invalid, "invalid entry kind")
	ErrInvalidStatus      = apperr.New(apperr.Invalid, "invalid entry status")
	ErrAlreadySettled     = apperr.New(apperr.Invalid, "entry is already settled")
	ErrNotPending         = apperr.New(apperr.Invalid, "only pending entries can be changed")
	ErrSettledUndeletable = apperr.New(apperr.Invalid, "settled entries cannot be deleted")
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindPayable, KindReceivable:
		return k, nil
	}

	return "", ErrInvalidKind
}

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusSettled, StatusCancelled:
		return st, nil
	}

	return "", ErrInvalidStatus
}

type Entry struct {
	ID              uuid.UUID
	Kind            Kind
	Description     string
	Counterparty    string
	Amount          int64
	DueDate         time.Time
	CategoryID      *uuid.UUID
	OrderID         *uuid.UUID
	Status          Status
	SettledOn       *time.Time
	PaymentMethodID *uuid.UUID
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Category struct {
	ID          uuid.UUID
	Name        string
	Kind        Kind
	Description string
	Active      bool
}

// Settle marks a pending entry settled. It fails for entries that were
// already settled or cancelled.
func (e *Entry) Settle(paymentMethodID *uuid.UUID, on time.Time) error {
	switch e.Status {
	case StatusSettled:
		return ErrAlreadySettled
	case StatusCancelled:
		return ErrNotPending
	}

	e.Status = StatusSettled
	e.SettledOn = &on

	if paymentMethodID != nil {
		e.PaymentMethodID = paymentMethodID
	}

	return nil
}

// Movement builds the drawer movement that mirrors the entry's settlement:
// paying a payable takes money out, receiving a receivable puts it in.
func (e *Entry) Movement(staffID *uuid.UUID) *cash.Movement {
	m := &cash.Movement{
		Amount:          e.Amount,
		PaymentMethodID: e.PaymentMethodID,
		OrderID:         e.OrderID,
		LedgerEntryID:   &e.ID,
		StaffID:         staffID,
	}

	if e.Kind == KindPayable {
		m.Type = cash.MovementExit
		m.Description = fmt.Sprintf("Payment: %s", e.Description)
	} else {
		m.Type = cash.MovementEntry
		m.Description = fmt.Sprintf("Receipt: %s", e.Description)
	}

	return m
}
