package order

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/comanda/internal/money"
	"github.com/MrJamesThe3rd/comanda/internal/order"
)

type addonResponse struct {
	Name  string `json:"name"`
	Price string `json:"price"`
}

type itemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   string          `json:"unit_price"`
	Note        string          `json:"note,omitempty"`
	Addons      []addonResponse `json:"addons"`
	Subtotal    string          `json:"subtotal"`
	Position    int             `json:"position"`
}

type orderResponse struct {
	ID            uuid.UUID           `json:"id"`
	Code          string              `json:"code"`
	Kind          order.Kind          `json:"kind"`
	TableID       *uuid.UUID          `json:"table_id,omitempty"`
	Customer      *order.Customer     `json:"customer,omitempty"`
	Items         []itemResponse      `json:"items"`
	Total         string              `json:"total"`
	PaymentMethod order.PaymentMethod `json:"payment_method"`
	Status        order.Status        `json:"status"`
	StaffID       *uuid.UUID          `json:"staff_id,omitempty"`
	Notes         string              `json:"notes,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	PrepStartedAt *time.Time          `json:"prep_started_at,omitempty"`
	CompletedAt   *time.Time          `json:"completed_at,omitempty"`
	DeliveredAt   *time.Time          `json:"delivered_at,omitempty"`
	FinalizedAt   *time.Time          `json:"finalized_at,omitempty"`
	BilledAt      *time.Time          `json:"billed_at,omitempty"`
}

func toItemResponse(it *order.Item) itemResponse {
	addons := make([]addonResponse, len(it.Addons))
	for i, a := range it.Addons {
		addons[i] = addonResponse{Name: a.Name, Price: money.Format(a.Price)}
	}

	return itemResponse{
		ID:          it.ID,
		ProductID:   it.ProductID,
		ProductName: it.ProductName,
		Quantity:    it.Quantity,
		UnitPrice:   money.Format(it.UnitPrice),
		Note:        it.Note,
		Addons:      addons,
		Subtotal:    money.Format(it.Subtotal()),
		Position:    it.Position,
	}
}

func toResponse(o *order.Order) orderResponse {
	items := make([]itemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = toItemResponse(it)
	}

	return orderResponse{
		ID:            o.ID,
		Code:          o.Code,
		Kind:          o.Kind,
		TableID:       o.TableID,
		Customer:      o.Customer,
		Items:         items,
		Total:         money.Format(o.Total),
		PaymentMethod: o.PaymentMethod,
		Status:        o.Status,
		StaffID:       o.StaffID,
		Notes:         o.Notes,
		CreatedAt:     o.CreatedAt,
		PrepStartedAt: o.PrepStartedAt,
		CompletedAt:   o.CompletedAt,
		DeliveredAt:   o.DeliveredAt,
		FinalizedAt:   o.FinalizedAt,
		BilledAt:      o.BilledAt,
	}
}

func toResponseList(orders []*order.Order) []orderResponse {
	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toResponse(o)
	}

	return resp
}
