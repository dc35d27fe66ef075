package cash

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/comanda/internal/cash"
	"github.com/MrJamesThe3rd/comanda/internal/http/auth"
	"github.com/MrJamesThe3rd/comanda/internal/http/respond"
	"github.com/MrJamesThe3rd/comanda/internal/money"
	"github.com/MrJamesThe3rd/comanda/internal/policy"
)

type Handler struct {
	svc *cash.Service
}

func NewHandler(svc *cash.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router, g *auth.Guard) {
	read := g.Require(policy.ResourceCash, policy.ActionRead)
	create := g.Require(policy.ResourceCash, policy.ActionCreate)

	r.With(read).Get("/sessions", h.history)
	r.With(read).Get("/sessions/current", h.current)
	r.With(read).Get("/sessions/{id}", h.get)
	r.With(create).Post("/sessions/open", h.open)
	r.With(create).Post("/sessions/close", h.close)
	r.With(read).Get("/movements", h.movements)
	r.With(create).Post("/movements", h.recordMovement)
	r.With(read).Get("/payment-methods", h.paymentMethods)
}

type openRequest struct {
	OpeningAmount decimal.Decimal `json:"opening_amount"`
	Notes         string          `json:"notes"`
}

func (h *Handler) open(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	s, err := h.svc.Open(r.Context(), money.ToCents(req.OpeningAmount), req.Notes, auth.StaffID(r.Context()))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toSessionResponse(s))
}

type closeRequest struct {
	ClosingAmount decimal.Decimal `json:"closing_amount"`
	Notes         string          `json:"notes"`
}

func (h *Handler) close(w http.ResponseWriter, r *http.Request) {
	var req closeRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	s, err := h.svc.Close(r.Context(), money.ToCents(req.ClosingAmount), req.Notes, auth.StaffID(r.Context()))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toSessionResponse(s))
}

// current responds with null when no session is open.
func (h *Handler) current(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.Current(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if s == nil {
		respond.JSON(w, http.StatusOK, nil)
		return
	}

	respond.JSON(w, http.StatusOK, toSessionResponse(s))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	s, err := h.svc.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toSessionResponse(s))
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	var (
		filter cash.HistoryFilter
		err    error
	)

	if filter.From, err = respond.QueryDate(r, "from"); err != nil {
		respond.Error(w, r, err)
		return
	}

	if filter.To, err = respond.QueryDate(r, "to"); err != nil {
		respond.Error(w, r, err)
		return
	}

	if filter.Limit, err = respond.QueryInt(r, "limit"); err != nil {
		respond.Error(w, r, err)
		return
	}

	sessions, err := h.svc.History(r.Context(), filter)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp := make([]sessionResponse, len(sessions))
	for i, s := range sessions {
		resp[i] = toSessionResponse(s)
	}

	respond.JSON(w, http.StatusOK, resp)
}

// movements lists the movements of session_id, or of the open session when
// the parameter is absent.
func (h *Handler) movements(w http.ResponseWriter, r *http.Request) {
	sessionID, err := respond.QueryID(r, "session_id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if sessionID == nil {
		s, err := h.svc.Current(r.Context())
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		if s == nil {
			respond.Error(w, r, cash.ErrNoOpenSession)
			return
		}

		sessionID = &s.ID
	}

	movements, err := h.svc.Movements(r.Context(), *sessionID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp := make([]movementResponse, len(movements))
	for i, m := range movements {
		resp[i] = toMovementResponse(m)
	}

	respond.JSON(w, http.StatusOK, resp)
}

type movementRequest struct {
	Type            string          `json:"type"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description"`
	PaymentMethodID *uuid.UUID      `json:"payment_method_id"`
	OrderID         *uuid.UUID      `json:"order_id"`
}

func (h *Handler) recordMovement(w http.ResponseWriter, r *http.Request) {
	var req movementRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	m, err := h.svc.RecordMovement(r.Context(), cash.MovementParams{
		Type:            req.Type,
		Amount:          money.ToCents(req.Amount),
		Description:     req.Description,
		StaffID:         auth.StaffID(r.Context()),
		PaymentMethodID: req.PaymentMethodID,
		OrderID:         req.OrderID,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toMovementResponse(m))
}

func (h *Handler) paymentMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := h.svc.PaymentMethods(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp := make([]paymentMethodResponse, len(methods))
	for i, pm := range methods {
		resp[i] = paymentMethodResponse{ID: pm.ID, Name: pm.Name, Active: pm.Active}
	}

	respond.JSON(w, http.StatusOK, resp)
}
