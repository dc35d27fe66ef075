package ledger

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/comanda/internal/apperr"
	"github.com/MrJamesThe3rd/comanda/internal/http/auth"
	"github.com/MrJamesThe3rd/comanda/internal/http/respond"
	"github.com/MrJamesThe3rd/comanda/internal/ledger"
	"github.com/MrJamesThe3rd/comanda/internal/money"
	"github.com/MrJamesThe3rd/comanda/internal/policy"
)

type Handler struct {
	svc *ledger.Service
}

func NewHandler(svc *ledger.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router, g *auth.Guard) {
	read := g.Require(policy.ResourceLedger, policy.ActionRead)
	create := g.Require(policy.ResourceLedger, policy.ActionCreate)
	update := g.Require(policy.ResourceLedger, policy.ActionUpdate)

	r.With(read).Get("/entries", h.list)
	r.With(create).Post("/entries", h.create)
	r.With(read).Get("/entries/{id}", h.get)
	r.With(update).Put("/entries/{id}", h.update)
	r.With(g.Require(policy.ResourceLedger, policy.ActionDelete)).Delete("/entries/{id}", h.delete)
	r.With(update).Post("/entries/{id}/settle", h.settle)
	r.With(update).Post("/entries/{id}/cancel", h.cancel)
	r.With(read).Get("/categories", h.categories)
	r.With(create).Post("/categories", h.createCategory)
}

func parseDate(s, field string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}

	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, apperr.Newf(apperr.Invalid, "invalid %s, expected YYYY-MM-DD", field)
	}

	return &t, nil
}

type entryRequest struct {
	Kind         string          `json:"kind"`
	Description  string          `json:"description"`
	Counterparty string          `json:"counterparty"`
	Amount       decimal.Decimal `json:"amount"`
	DueDate      string          `json:"due_date"`
	CategoryID   *uuid.UUID      `json:"category_id"`
	OrderID      *uuid.UUID      `json:"order_id"`
	Notes        string          `json:"notes"`
}

func (req entryRequest) params() (ledger.EntryParams, error) {
	due, err := parseDate(req.DueDate, "due_date")
	if err != nil {
		return ledger.EntryParams{}, err
	}

	p := ledger.EntryParams{
		Kind:         req.Kind,
		Description:  req.Description,
		Counterparty: req.Counterparty,
		Amount:       money.ToCents(req.Amount),
		CategoryID:   req.CategoryID,
		OrderID:      req.OrderID,
		Notes:        req.Notes,
	}
	if due != nil {
		p.DueDate = *due
	}

	return p, nil
}

func (h *Handler) decodeEntry(r *http.Request) (ledger.EntryParams, error) {
	var req entryRequest
	if err := respond.Decode(r, &req); err != nil {
		return ledger.EntryParams{}, err
	}

	return req.params()
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	params, err := h.decodeEntry(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	e, err := h.svc.Create(r.Context(), params)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toResponse(e))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	params, err := h.decodeEntry(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	e, err := h.svc.Update(r.Context(), id, params)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(e))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := ledger.ListFilter{}
	q := r.URL.Query()

	if s := q.Get("kind"); s != "" {
		k, err := ledger.ParseKind(s)
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		filter.Kind = &k
	}

	if s := q.Get("status"); s != "" {
		st, err := ledger.ParseStatus(s)
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		filter.Status = &st
	}

	var err error

	if filter.DueFrom, err = respond.QueryDate(r, "due_from"); err != nil {
		respond.Error(w, r, err)
		return
	}

	if filter.DueTo, err = respond.QueryDate(r, "due_to"); err != nil {
		respond.Error(w, r, err)
		return
	}

	if filter.Limit, err = respond.QueryInt(r, "limit"); err != nil {
		respond.Error(w, r, err)
		return
	}

	entries, err := h.svc.List(r.Context(), filter)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponseList(entries))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	e, err := h.svc.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(e))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		respond.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type settleRequest struct {
	PaymentMethodID *uuid.UUID `json:"payment_method_id"`
	SettledOn       string     `json:"settled_on"`
}

func (h *Handler) settle(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var req settleRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	on, err := parseDate(req.SettledOn, "settled_on")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	res, err := h.svc.Settle(r.Context(), id, ledger.SettleParams{
		PaymentMethodID: req.PaymentMethodID,
		SettledOn:       on,
		StaffID:         auth.StaffID(r.Context()),
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, settlementResponse{
		Entry:            toResponse(res.Entry),
		MovementRecorded: res.MovementRecorded,
	})
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	e, err := h.svc.Cancel(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(e))
}

func (h *Handler) categories(w http.ResponseWriter, r *http.Request) {
	var kind *ledger.Kind

	if s := r.URL.Query().Get("kind"); s != "" {
		k, err := ledger.ParseKind(s)
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		kind = &k
	}

	categories, err := h.svc.Categories(r.Context(), kind)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp := make([]categoryResponse, len(categories))
	for i, c := range categories {
		resp[i] = toCategoryResponse(c)
	}

	respond.JSON(w, http.StatusOK, resp)
}

type categoryRequest struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Description string `json:"description"`
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	c, err := h.svc.CreateCategory(r.Context(), ledger.CategoryParams{
		Name:        req.Name,
		Kind:        req.Kind,
		Description: req.Description,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toCategoryResponse(c))
}
