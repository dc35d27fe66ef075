package ledger

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/comanda/internal/ledger"
	"github.com/MrJamesThe3rd/comanda/internal/money"
)

type entryResponse struct {
	ID              uuid.UUID     `json:"id"`
	Kind            ledger.Kind   `json:"kind"`
	Description     string        `json:"description"`
	Counterparty    string        `json:"counterparty,omitempty"`
	Amount          string        `json:"amount"`
	DueDate         string        `json:"due_date"`
	CategoryID      *uuid.UUID    `json:"category_id,omitempty"`
	OrderID         *uuid.UUID    `json:"order_id,omitempty"`
	Status          ledger.Status `json:"status"`
	SettledOn       *string       `json:"settled_on,omitempty"`
	PaymentMethodID *uuid.UUID    `json:"payment_method_id,omitempty"`
	Notes           string        `json:"notes,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

type settlementResponse struct {
	Entry            entryResponse `json:"entry"`
	MovementRecorded bool          `json:"movement_recorded"`
}

type categoryResponse struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	Kind        ledger.Kind `json:"kind"`
	Description string      `json:"description,omitempty"`
	Active      bool        `json:"active"`
}

func toResponse(e *ledger.Entry) entryResponse {
	resp := entryResponse{
		ID:              e.ID,
		Kind:            e.Kind,
		Description:     e.Description,
		Counterparty:    e.Counterparty,
		Amount:          money.Format(e.Amount),
		DueDate:         e.DueDate.Format(time.DateOnly),
		CategoryID:      e.CategoryID,
		OrderID:         e.OrderID,
		Status:          e.Status,
		PaymentMethodID: e.PaymentMethodID,
		Notes:           e.Notes,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}

	if e.SettledOn != nil {
		resp.SettledOn = new(e.SettledOn.Format(time.DateOnly))
	}

	return resp
}

func toResponseList(entries []*ledger.Entry) []entryResponse {
	resp := make([]entryResponse, len(entries))
	for i, e := range entries {
		resp[i] = toResponse(e)
	}

	return resp
}

func toCategoryResponse(c *ledger.Category) categoryResponse {
	return categoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Kind:        c.Kind,
		Description: c.Description,
		Active:      c.Active,
	}
}
