package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/comanda/internal/cash"
	cashstore "github.com/MrJamesThe3rd/comanda/internal/cash/store"
	"github.com/MrJamesThe3rd/comanda/internal/checkout"
	"github.com/MrJamesThe3rd/comanda/internal/database"
	"github.com/MrJamesThe3rd/comanda/internal/order"
	orderstore "github.com/MrJamesThe3rd/comanda/internal/order/store"
	"github.com/MrJamesThe3rd/comanda/internal/table"
	tablestore "github.com/MrJamesThe3rd/comanda/internal/table/store"
)

const movementSavepoint = "checkout_cash_movement"

type Store struct {
	db     *sql.DB
	tables *tablestore.Store
}

func New(db *sql.DB) *Store {
	return &Store{db: db, tables: tablestore.New(db)}
}

func (s *Store) GetTable(ctx context.Context, id uuid.UUID) (*table.Table, error) {
	return s.tables.GetTable(ctx, id)
}

func (s *Store) ListBillable(ctx context.Context, tableID uuid.UUID) ([]*order.Order, error) {
	return orderstore.ListBillable(ctx, s.db, tableID)
}

type checkoutTx struct {
	tx *sql.Tx
}

func (s *Store) Begin(ctx context.Context) (checkout.Tx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning checkout tx: %w", database.Classify(err))
	}

	return &checkoutTx{tx: dbTx}, nil
}

func (c *checkoutTx) Commit() error   { return c.tx.Commit() }
func (c *checkoutTx) Rollback() error { return c.tx.Rollback() }

func (c *checkoutTx) LockTable(ctx context.Context, id uuid.UUID) (*table.Table, error) {
	return tablestore.Lock(ctx, c.tx, id)
}

func (c *checkoutTx) LockBillable(ctx context.Context, tableID uuid.UUID) ([]*order.Order, error) {
	return orderstore.LockBillable(ctx, c.tx, tableID)
}

func (c *checkoutTx) GetPaymentMethod(ctx context.Context, id uuid.UUID) (*cash.PaymentMethod, error) {
	return cashstore.GetPaymentMethod(ctx, c.tx, id)
}

func (c *checkoutTx) SaveOrder(ctx context.Context, o *order.Order) error {
	return orderstore.Save(ctx, c.tx, o)
}

func (c *checkoutTx) SaveTable(ctx context.Context, t *table.Table) error {
	return tablestore.Save(ctx, c.tx, t)
}

func (c *checkoutTx) PostMovement(ctx context.Context, m *cash.Movement) (*cash.Session, error) {
	var sess *cash.Session

	err := database.Savepoint(ctx, c.tx, movementSavepoint, func() error {
		var err error

		sess, err = cashstore.PostToOpenSession(ctx, c.tx, m)

		return err
	})
	if err != nil {
		return nil, err
	}

	return sess, nil
}
