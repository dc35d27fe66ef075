package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/comanda/internal/apperr"
	"github.com/MrJamesThe3rd/comanda/internal/http/auth"
	"github.com/MrJamesThe3rd/comanda/internal/http/cash"
	"github.com/MrJamesThe3rd/comanda/internal/http/ledger"
	"github.com/MrJamesThe3rd/comanda/internal/http/order"
	"github.com/MrJamesThe3rd/comanda/internal/http/respond"
	"github.com/MrJamesThe3rd/comanda/internal/http/table"
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Options struct {
	Timeout        time.Duration
	AllowedOrigins []string
}

type Handlers struct {
	Tables *table.Handler
	Orders *order.Handler
	Cash   *cash.Handler
	Ledger *ledger.Handler
}

func New(opts Options, db Pinger, authn *auth.Authenticator, guard *auth.Guard, h Handlers) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(opts.Timeout))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Auth-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			respond.Error(w, r, apperr.Wrap(apperr.Unavailable, err, "database unavailable"))
			return
		}

		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(authn.Middleware)
		r.Use(middleware.AllowContentType("application/json"))

		r.Route("/tables", func(r chi.Router) {
			h.Tables.Routes(r, guard)
		})

		r.Route("/orders", func(r chi.Router) {
			h.Orders.Routes(r, guard)
		})

		r.Route("/cash", func(r chi.Router) {
			h.Cash.Routes(r, guard)
		})

		r.Route("/ledger", func(r chi.Router) {
			h.Ledger.Routes(r, guard)
		})
	})

	return router
}
