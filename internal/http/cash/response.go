package cash

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/comanda/internal/cash"
	"github.com/MrJamesThe3rd/comanda/internal/money"
)

type sessionResponse struct {
	ID            uuid.UUID          `json:"id"`
	Status        cash.SessionStatus `json:"status"`
	OpeningAmount string             `json:"opening_amount"`
	SystemAmount  string             `json:"system_amount"`
	ClosingAmount *string            `json:"closing_amount,omitempty"`
	Discrepancy   *string            `json:"discrepancy,omitempty"`
	OpenedBy      *uuid.UUID         `json:"opened_by,omitempty"`
	ClosedBy      *uuid.UUID         `json:"closed_by,omitempty"`
	OpenedAt      time.Time          `json:"opened_at"`
	ClosedAt      *time.Time         `json:"closed_at,omitempty"`
	Notes         string             `json:"notes,omitempty"`
}

func formatOptional(cents *int64) *string {
	if cents == nil {
		return nil
	}

	return new(money.Format(*cents))
}

func toSessionResponse(s *cash.Session) sessionResponse {
	return sessionResponse{
		ID:            s.ID,
		Status:        s.Status,
		OpeningAmount: money.Format(s.OpeningAmount),
		SystemAmount:  money.Format(s.SystemAmount),
		ClosingAmount: formatOptional(s.ClosingAmount),
		Discrepancy:   formatOptional(s.Discrepancy),
		OpenedBy:      s.OpenedBy,
		ClosedBy:      s.ClosedBy,
		OpenedAt:      s.OpenedAt,
		ClosedAt:      s.ClosedAt,
		Notes:         s.Notes,
	}
}

type movementResponse struct {
	ID              uuid.UUID         `json:"id"`
	SessionID       uuid.UUID         `json:"session_id"`
	Type            cash.MovementType `json:"type"`
	Amount          string            `json:"amount"`
	Description     string            `json:"description"`
	PaymentMethodID *uuid.UUID        `json:"payment_method_id,omitempty"`
	OrderID         *uuid.UUID        `json:"order_id,omitempty"`
	LedgerEntryID   *uuid.UUID        `json:"ledger_entry_id,omitempty"`
	StaffID         *uuid.UUID        `json:"staff_id,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

func toMovementResponse(m *cash.Movement) movementResponse {
	return movementResponse{
		ID:              m.ID,
		SessionID:       m.SessionID,
		Type:            m.Type,
		Amount:          money.Format(m.Amount),
		Description:     m.Description,
		PaymentMethodID: m.PaymentMethodID,
		OrderID:         m.OrderID,
		LedgerEntryID:   m.LedgerEntryID,
		StaffID:         m.StaffID,
		CreatedAt:       m.CreatedAt,
	}
}

type paymentMethodResponse struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Active bool      `json:"active"`
}
