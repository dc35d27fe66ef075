package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/comanda/internal/cash"
	cashStore "github.com/MrJamesThe3rd/comanda/internal/cash/store"
	"github.com/MrJamesThe3rd/comanda/internal/checkout"
	checkoutStore "github.com/MrJamesThe3rd/comanda/internal/checkout/store"
	"github.com/MrJamesThe3rd/comanda/internal/config"
	"github.com/MrJamesThe3rd/comanda/internal/database"
	comandaHttp "github.com/MrJamesThe3rd/comanda/internal/http"
	"github.com/MrJamesThe3rd/comanda/internal/http/auth"
	cashHandler "github.com/MrJamesThe3rd/comanda/internal/http/cash"
	ledgerHandler "github.com/MrJamesThe3rd/comanda/internal/http/ledger"
	orderHandler "github.com/MrJamesThe3rd/comanda/internal/http/order"
	tableHandler "github.com/MrJamesThe3rd/comanda/internal/http/table"
	"github.com/MrJamesThe3rd/comanda/internal/ledger"
	ledgerStore "github.com/MrJamesThe3rd/comanda/internal/ledger/store"
	"github.com/MrJamesThe3rd/comanda/internal/notify"
	"github.com/MrJamesThe3rd/comanda/internal/notify/amqp"
	"github.com/MrJamesThe3rd/comanda/internal/order"
	orderStore "github.com/MrJamesThe3rd/comanda/internal/order/store"
	"github.com/MrJamesThe3rd/comanda/internal/policy"
	"github.com/MrJamesThe3rd/comanda/internal/staff"
	staffStore "github.com/MrJamesThe3rd/comanda/internal/staff/store"
	"github.com/MrJamesThe3rd/comanda/internal/table"
	tableStore "github.com/MrJamesThe3rd/comanda/internal/table/store"
)

func main() {
	// A missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.DB.AutoMigrate {
		if err := database.Migrate(context.Background(), db); err != nil {
			slog.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
	}

	var events notify.Publisher = notify.Log{}

	if cfg.Notify.Driver == "amqp" {
		pub, err := amqp.New(cfg.Notify.AMQPURL, cfg.Notify.Exchange, cfg.Notify.PublishTimeout)
		if err != nil {
			slog.Error("failed to connect to message broker", "error", err)
			os.Exit(1)
		}
		defer pub.Close()

		events = pub
	}

	var (
		staffService    = staff.NewService(staffStore.New(db))
		tableService    = table.NewService(tableStore.New(db), events)
		orderService    = order.NewService(orderStore.New(db), events)
		checkoutService = checkout.NewService(checkoutStore.New(db), events)
		cashService     = cash.NewService(cashStore.New(db), events)
		ledgerService   = ledger.NewService(ledgerStore.New(db), events)
	)

	var (
		authn = auth.New(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, staffService)
		guard = auth.NewGuard(policy.Default())
	)

	router := comandaHttp.New(
		comandaHttp.Options{
			Timeout:        cfg.Server.Timeout,
			AllowedOrigins: cfg.Server.AllowedOrigins,
		},
		db,
		authn,
		guard,
		comandaHttp.Handlers{
			Tables: tableHandler.NewHandler(tableService, checkoutService),
			Orders: orderHandler.NewHandler(orderService),
			Cash:   cashHandler.NewHandler(cashService),
			Ledger: ledgerHandler.NewHandler(ledgerService),
		},
	)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	slog.Info("starting server", "app", cfg.App.Name, "port", port)

	if err := http.ListenAndServe(port, router); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
