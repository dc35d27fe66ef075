package cash

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/comanda/internal/apperr"
)

type SessionStatus string

const (
	SessionOpen   SessionStatus = "open"
	SessionClosed SessionStatus = "closed"
)

// MovementType is the kind of a drawer movement. Entries and top-ups add to
// the running amount, exits and skims subtract from it.
type MovementType string

const (
	MovementEntry MovementType = "entry"
	MovementExit  MovementType = "exit"
	MovementSkim  MovementType = "skim"
	MovementTopUp MovementType = "top_up"
)

var (
	ErrNotFound             = apperr.New(apperr.NotFound, "cash session not found")
	ErrNoOpenSession        = apperr.New(apperr.Invalid, "no cash session is open")
	ErrSessionAlreadyOpen   = apperr.New(apperr.Conflict, "a cash session is already open")
	ErrInvalidMovementType  = apperr.New(apperr.Invalid, "invalid movement type")
	ErrInvalidPaymentMethod = apperr.New(apperr.Invalid, "payment method not found or inactive")
)

func ParseMovementType(s string) (MovementType, error) {
	switch t := MovementType(s); t {
	case MovementEntry, MovementExit, MovementSkim, MovementTopUp:
		return t, nil
	}

	return "", ErrInvalidMovementType
}

// Sign is +1 for movements that put money in the drawer and -1 for those
// that take it out.
func (t MovementType) Sign() int64 {
	switch t {
	case MovementEntry, MovementTopUp:
		return 1
	case MovementExit, MovementSkim:
		return -1
	}

	return 0
}

type Session struct {
	ID            uuid.UUID
	Status        SessionStatus
	OpeningAmount int64
	SystemAmount  int64
	ClosingAmount *int64
	Discrepancy   *int64
	OpenedBy      *uuid.UUID
	ClosedBy      *uuid.UUID
	OpenedAt      time.Time
	ClosedAt      *time.Time
	Notes         string
}

type Movement struct {
	ID              uuid.UUID
	SessionID       uuid.UUID
	Type            MovementType
	Amount          int64
	Description     string
	PaymentMethodID *uuid.UUID
	OrderID         *uuid.UUID
	LedgerEntryID   *uuid.UUID
	StaffID         *uuid.UUID
	CreatedAt       time.Time
}

// Validate checks the fields every movement needs before it is posted.
func (m *Movement) Validate() error {
	if m.Type.Sign() == 0 {
		return ErrInvalidMovementType
	}

	if m.Amount <= 0 {
		return apperr.Invalidf("movement amount must be positive")
	}

	if strings.TrimSpace(m.Description) == "" {
		return apperr.Invalidf("movement description is required")
	}

	return nil
}

type PaymentMethod struct {
	ID     uuid.UUID
	Name   string
	Active bool
}

// Apply adds a movement to the session's running amount. Every posting path
// goes through here.
func Apply(s *Session, m *Movement) {
	s.SystemAmount += m.Type.Sign() * m.Amount
}

// Close marks the session closed and records the counted amount against the
// running one. Notes are appended to whatever was written at opening.
func (s *Session) Close(closingAmount int64, notes string, staffID *uuid.UUID, now time.Time) {
	discrepancy := closingAmount - s.SystemAmount

	s.Status = SessionClosed
	s.ClosingAmount = &closingAmount
	s.Discrepancy = &discrepancy
	s.ClosedBy = staffID
	s.ClosedAt = &now
	s.Notes = appendNotes(s.Notes, notes)
}

func appendNotes(existing, extra string) string {
	extra = strings.TrimSpace(extra)

	switch {
	case extra == "":
		return existing
	case existing == "":
		return extra
	}

	return existing + "\n" + extra
}
