package order

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/comanda/internal/http/auth"
	"github.com/MrJamesThe3rd/comanda/internal/http/respond"
	"github.com/MrJamesThe3rd/comanda/internal/money"
	"github.com/MrJamesThe3rd/comanda/internal/order"
	"github.com/MrJamesThe3rd/comanda/internal/policy"
)

type Handler struct {
	svc *order.Service
}

func NewHandler(svc *order.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router, g *auth.Guard) {
	read := g.Require(policy.ResourceOrders, policy.ActionRead)
	update := g.Require(policy.ResourceOrders, policy.ActionUpdate)

	r.With(read).Get("/", h.list)
	r.With(g.Require(policy.ResourceOrders, policy.ActionCreate)).Post("/", h.create)
	r.With(read).Get("/{id}", h.get)
	r.With(update).Patch("/{id}/status", h.updateStatus)
	r.With(update).Patch("/{id}/payment-method", h.updatePaymentMethod)
	r.With(update).Post("/{id}/items", h.addItem)
	r.With(update).Delete("/{id}/items/{itemID}", h.removeItem)
	r.With(update).Post("/{id}/cancel", h.cancel)
}

type addonRequest struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

type itemRequest struct {
	ProductID uuid.UUID      `json:"product_id"`
	Quantity  int            `json:"quantity"`
	Note      string         `json:"note"`
	Addons    []addonRequest `json:"addons"`
}

func (req itemRequest) params() order.ItemParams {
	addons := make([]order.Addon, len(req.Addons))
	for i, a := range req.Addons {
		addons[i] = order.Addon{Name: a.Name, Price: money.ToCents(a.Price)}
	}

	return order.ItemParams{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Note:      req.Note,
		Addons:    addons,
	}
}

type createOrderRequest struct {
	Kind          string          `json:"kind"`
	TableID       *uuid.UUID      `json:"table_id"`
	Customer      *order.Customer `json:"customer"`
	Items         []itemRequest   `json:"items"`
	PaymentMethod string          `json:"payment_method"`
	Notes         string          `json:"notes"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	items := make([]order.ItemParams, len(req.Items))
	for i, it := range req.Items {
		items[i] = it.params()
	}

	o, err := h.svc.Create(r.Context(), order.CreateParams{
		Kind:          req.Kind,
		TableID:       req.TableID,
		Customer:      req.Customer,
		Items:         items,
		PaymentMethod: req.PaymentMethod,
		StaffID:       auth.StaffID(r.Context()),
		Notes:         req.Notes,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toResponse(o))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := order.ListFilter{}
	q := r.URL.Query()

	if s := q.Get("status"); s != "" {
		st, err := order.ParseStatus(s)
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		filter.Status = &st
	}

	if s := q.Get("kind"); s != "" {
		k, err := order.ParseKind(s)
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		filter.Kind = &k
	}

	var err error

	if filter.TableID, err = respond.QueryID(r, "table_id"); err != nil {
		respond.Error(w, r, err)
		return
	}

	if filter.StaffID, err = respond.QueryID(r, "staff_id"); err != nil {
		respond.Error(w, r, err)
		return
	}

	if filter.Since, err = respond.QueryDate(r, "since"); err != nil {
		respond.Error(w, r, err)
		return
	}

	if filter.Limit, err = respond.QueryInt(r, "limit"); err != nil {
		respond.Error(w, r, err)
		return
	}

	orders, err := h.svc.List(r.Context(), filter)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponseList(orders))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	o, err := h.svc.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(o))
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var req updateStatusRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	o, err := h.svc.AdvanceStatus(r.Context(), id, req.Status)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(o))
}

type updatePaymentMethodRequest struct {
	PaymentMethod string `json:"payment_method"`
}

func (h *Handler) updatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var req updatePaymentMethodRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	o, err := h.svc.SetPaymentMethod(r.Context(), id, req.PaymentMethod)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(o))
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var req itemRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	o, err := h.svc.AddItem(r.Context(), id, req.params())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toResponse(o))
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	itemID, err := respond.ID(r, "itemID")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	o, err := h.svc.RemoveItem(r.Context(), id, itemID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(o))
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	o, err := h.svc.Cancel(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(o))
}
