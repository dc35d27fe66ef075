package order

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/comanda/internal/apperr"
)

type Kind string

const (
	KindOnline   Kind = "online"
	KindInPerson Kind = "in_person"
)

// Status is the single order lifecycle shared by the kitchen and the floor.
type Status string

const (
	StatusReceived   Status = "received"
	StatusPreparing  Status = "preparing"
	StatusReady      Status = "ready"
	StatusInDelivery Status = "in_delivery"
	StatusDelivered  Status = "delivered"
	StatusFinalized  Status = "finalized"
	StatusCancelled  Status = "cancelled"
)

// statusAliases maps the kitchen display vocabulary onto the canonical one.
var statusAliases = map[string]Status{
	"pending": StatusReceived,
}

type PaymentMethod string

const (
	PaymentCash        PaymentMethod = "cash"
	PaymentCreditCard  PaymentMethod = "credit_card"
	PaymentDebitCard   PaymentMethod = "debit_card"
	PaymentPix         PaymentMethod = "pix"
	PaymentMealVoucher PaymentMethod = "meal_voucher"
	PaymentPending     PaymentMethod = "pending"
)

var (
	ErrNotFound                = apperr.New(apperr.NotFound, "order not found")
	ErrItemNotFound            = apperr.New(apperr.NotFound, "order item not found")
	ErrProductNotFound         = apperr.New(apperr.NotFound, "product not found")
	ErrInvalidKind             = apperr.New(apperr.Invalid, "invalid order kind")
	ErrInvalidStatus           = apperr.New(apperr.Invalid, "invalid order status")
	ErrInvalidPaymentMethod    = apperr.New(apperr.Invalid, "invalid payment method")
	ErrItemsLocked             = apperr.New(apperr.Invalid, "items of a finalized or cancelled order cannot change")
	ErrNotCancellable          = apperr.New(apperr.Invalid, "order can no longer be cancelled")
	ErrCodeTaken               = apperr.New(apperr.Conflict, "order code already in use")
	ErrCodeGenerationExhausted = apperr.New(apperr.Unavailable, "could not generate a unique order code")
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindOnline, KindInPerson:
		return k, nil
	}

	return "", ErrInvalidKind
}

// ParseStatus accepts the canonical statuses and the kitchen aliases.
func ParseStatus(s string) (Status, error) {
	if st, ok := statusAliases[s]; ok {
		return st, nil
	}

	switch st := Status(s); st {
	case StatusReceived, StatusPreparing, StatusReady, StatusInDelivery,
		StatusDelivered, StatusFinalized, StatusCancelled:
		return st, nil
	}

	return "", ErrInvalidStatus
}

// ParsePaymentMethod treats an empty value as pending.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	if s == "" {
		return PaymentPending, nil
	}

	switch pm := PaymentMethod(s); pm {
	case PaymentCash, PaymentCreditCard, PaymentDebitCard, PaymentPix, PaymentMealVoucher, PaymentPending:
		return pm, nil
	}

	return "", ErrInvalidPaymentMethod
}

// ItemsLocked reports whether the item list is frozen in this status.
func (s Status) ItemsLocked() bool {
	return s == StatusFinalized || s == StatusCancelled
}

func (s Status) Cancellable() bool {
	switch s {
	case StatusDelivered, StatusFinalized, StatusCancelled:
		return false
	}

	return true
}

type Address struct {
	Street     string `json:"street,omitempty"`
	Number     string `json:"number,omitempty"`
	Complement string `json:"complement,omitempty"`
	District   string `json:"district,omitempty"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
}

type Customer struct {
	Name    string   `json:"name"`
	Phone   string   `json:"phone,omitempty"`
	Address *Address `json:"address,omitempty"`
}

// Addon prices are in cents.
type Addon struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

type Item struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	Quantity    int
	UnitPrice   int64
	Note        string
	Addons      []Addon
	Position    int
	CreatedAt   time.Time
}

// Subtotal is quantity times the unit price plus every add-on.
func (it *Item) Subtotal() int64 {
	var addons int64
	for _, a := range it.Addons {
		addons += a.Price
	}

	return int64(it.Quantity) * (it.UnitPrice + addons)
}

// Total sums the items of an order. The result is never negative.
func Total(items []*Item) int64 {
	var total int64
	for _, it := range items {
		total += it.Subtotal()
	}

	return max(total, 0)
}

type Product struct {
	ID        uuid.UUID
	Name      string
	Price     int64
	Available bool
}

type Order struct {
	ID            uuid.UUID
	Code          string
	Kind          Kind
	TableID       *uuid.UUID
	Customer      *Customer
	Items         []*Item
	Total         int64
	PaymentMethod PaymentMethod
	Status        Status
	StaffID       *uuid.UUID
	Notes         string
	CreatedAt     time.Time
	PrepStartedAt *time.Time
	CompletedAt   *time.Time
	DeliveredAt   *time.Time
	FinalizedAt   *time.Time
	BilledAt      *time.Time
}

// SetStatus moves the order to status and stamps the milestone the status
// represents the first time it is reached.
func (o *Order) SetStatus(to Status, now time.Time) {
	o.Status = to

	stamp := func(ts **time.Time) {
		if *ts == nil {
			*ts = &now
		}
	}

	switch to {
	case StatusPreparing:
		stamp(&o.PrepStartedAt)
	case StatusReady:
		stamp(&o.CompletedAt)
	case StatusDelivered:
		stamp(&o.DeliveredAt)
	case StatusFinalized:
		stamp(&o.FinalizedAt)
	}
}

// Recalculate recomputes the total from the current items.
func (o *Order) Recalculate() {
	o.Total = Total(o.Items)
}

// NextPosition returns the position for an item appended to the order.
func (o *Order) NextPosition() int {
	pos := 0
	for _, it := range o.Items {
		pos = max(pos, it.Position)
	}

	return pos + 1
}

// GenerateCode builds a human-readable order code in the YYMMDD-NNNN form.
// Codes can collide; the store rejects duplicates and callers regenerate.
func GenerateCode(now time.Time) string {
	return fmt.Sprintf("%s-%04d", now.Format("060102"), rand.IntN(10000))
}
