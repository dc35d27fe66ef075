package table

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/comanda/internal/checkout"
	"github.com/MrJamesThe3rd/comanda/internal/money"
	"github.com/MrJamesThe3rd/comanda/internal/order"
	"github.com/MrJamesThe3rd/comanda/internal/table"
)

type tableResponse struct {
	ID            uuid.UUID    `json:"id"`
	Number        int          `json:"number"`
	Capacity      int          `json:"capacity"`
	Status        table.Status `json:"status"`
	StaffID       *uuid.UUID   `json:"staff_id,omitempty"`
	OccupiedSince *time.Time   `json:"occupied_since,omitempty"`
	OccupiedUntil *time.Time   `json:"occupied_until,omitempty"`
	Notes         string       `json:"notes,omitempty"`
	CallingStaff  bool         `json:"calling_staff"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

func toResponse(t *table.Table) tableResponse {
	return tableResponse{
		ID:            t.ID,
		Number:        t.Number,
		Capacity:      t.Capacity,
		Status:        t.Status,
		StaffID:       t.StaffID,
		OccupiedSince: t.OccupiedSince,
		OccupiedUntil: t.OccupiedUntil,
		Notes:         t.Notes,
		CallingStaff:  t.CallingStaff,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

func toResponseList(tables []*table.Table) []tableResponse {
	resp := make([]tableResponse, len(tables))
	for i, t := range tables {
		resp[i] = toResponse(t)
	}

	return resp
}

type billOrderResponse struct {
	ID     uuid.UUID    `json:"id"`
	Code   string       `json:"code"`
	Status order.Status `json:"status"`
	Items  int          `json:"items"`
	Total  string       `json:"total"`
}

type billResponse struct {
	TableID     uuid.UUID           `json:"table_id"`
	TableNumber int                 `json:"table_number"`
	Orders      []billOrderResponse `json:"orders"`
	Total       string              `json:"total"`
}

func toBillResponse(b *checkout.Bill) billResponse {
	orders := make([]billOrderResponse, len(b.Orders))
	for i, o := range b.Orders {
		orders[i] = billOrderResponse{
			ID:     o.ID,
			Code:   o.Code,
			Status: o.Status,
			Items:  len(o.Items),
			Total:  money.Format(o.Total),
		}
	}

	return billResponse{
		TableID:     b.TableID,
		TableNumber: b.TableNumber,
		Orders:      orders,
		Total:       money.Format(b.Total),
	}
}

type summaryResponse struct {
	TableID          uuid.UUID `json:"table_id"`
	TableNumber      int       `json:"table_number"`
	Total            string    `json:"total"`
	PaymentMethod    string    `json:"payment_method"`
	OrdersFinalized  int       `json:"orders_finalized"`
	MovementRecorded bool      `json:"movement_recorded"`
}

func toSummaryResponse(s *checkout.Summary) summaryResponse {
	return summaryResponse{
		TableID:          s.TableID,
		TableNumber:      s.TableNumber,
		Total:            money.Format(s.Total),
		PaymentMethod:    s.PaymentMethodLabel,
		OrdersFinalized:  s.OrdersFinalized,
		MovementRecorded: s.MovementRecorded,
	}
}
