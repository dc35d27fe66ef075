// Command token issues an API token for an active staff member.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/comanda/internal/config"
	"github.com/MrJamesThe3rd/comanda/internal/database"
	"github.com/MrJamesThe3rd/comanda/internal/http/auth"
	"github.com/MrJamesThe3rd/comanda/internal/staff"
	staffStore "github.com/MrJamesThe3rd/comanda/internal/staff/store"
)

func main() {
	staffFlag := flag.String("staff", "", "ID of the staff member the token is issued to")
	flag.Parse()

	staffID, err := uuid.Parse(*staffFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, "usage: token --staff=<uuid>")
		os.Exit(2)
	}

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

	staffService := staff.NewService(staffStore.New(db))

	st, err := staffService.ResolveActive(context.Background(), staffID)
	if err != nil {
		slog.Error("cannot issue token", "staff", staffID, "error", err)
		os.Exit(1)
	}

	token, err := auth.New(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, staffService).Sign(st.ID)
	if err != nil {
		slog.Error("failed to sign token", "error", err)
		os.Exit(1)
	}

	slog.Info("issued token", "staff", st.Name, "role", st.Role, "ttl", cfg.Auth.TokenTTL)
	fmt.Println(token)
}
