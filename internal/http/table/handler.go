package table

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/comanda/internal/checkout"
	"github.com/MrJamesThe3rd/comanda/internal/http/auth"
	"github.com/MrJamesThe3rd/comanda/internal/http/respond"
	"github.com/MrJamesThe3rd/comanda/internal/policy"
	"github.com/MrJamesThe3rd/comanda/internal/table"
)

type Handler struct {
	svc      *table.Service
	checkout *checkout.Service
}

func NewHandler(svc *table.Service, checkout *checkout.Service) *Handler {
	return &Handler{svc: svc, checkout: checkout}
}

func (h *Handler) Routes(r chi.Router, g *auth.Guard) {
	read := g.Require(policy.ResourceTables, policy.ActionRead)
	update := g.Require(policy.ResourceTables, policy.ActionUpdate)

	r.With(read).Get("/", h.list)
	r.With(g.Require(policy.ResourceTables, policy.ActionCreate)).Post("/", h.create)
	r.With(read).Get("/{id}", h.get)
	r.With(g.Require(policy.ResourceTables, policy.ActionDelete)).Delete("/{id}", h.delete)
	r.With(update).Patch("/{id}/status", h.updateStatus)
	r.With(update).Patch("/{id}/assignee", h.assign)
	r.With(update).Post("/{id}/call", h.call)
	r.With(g.Require(policy.ResourceCheckout, policy.ActionRead)).Get("/{id}/bill", h.bill)
	r.With(g.Require(policy.ResourceCheckout, policy.ActionCreate)).Post("/{id}/checkout", h.closeBill)
}

type createTableRequest struct {
	Number   int    `json:"number"`
	Capacity int    `json:"capacity"`
	Notes    string `json:"notes"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createTableRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	t, err := h.svc.Create(r.Context(), table.CreateParams{
		Number:   req.Number,
		Capacity: req.Capacity,
		Notes:    req.Notes,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toResponse(t))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := table.ListFilter{}

	if s := r.URL.Query().Get("status"); s != "" {
		st, err := table.ParseStatus(s)
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		filter.Status = &st
	}

	staffID, err := respond.QueryID(r, "staff_id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	filter.StaffID = staffID

	tables, err := h.svc.List(r.Context(), filter)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponseList(tables))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	t, err := h.svc.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(t))
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

type updateStatusRequest struct {
	Status  string     `json:"status"`
	StaffID *uuid.UUID `json:"staff_id"`
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

	t, err := h.svc.SetStatus(r.Context(), id, req.Status, req.StaffID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(t))
}

type assignRequest struct {
	StaffID uuid.UUID `json:"staff_id"`
}

func (h *Handler) assign(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var req assignRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	t, err := h.svc.AssignToStaff(r.Context(), id, req.StaffID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(t))
}

func (h *Handler) call(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	t, err := h.svc.CallStaff(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(t))
}

func (h *Handler) bill(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	b, err := h.checkout.Preview(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toBillResponse(b))
}

type checkoutRequest struct {
	PaymentMethodID uuid.UUID `json:"payment_method_id"`
}

func (h *Handler) closeBill(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var req checkoutRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	summary, err := h.checkout.Close(r.Context(), id, req.PaymentMethodID, auth.StaffID(r.Context()))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toSummaryResponse(summary))
}
