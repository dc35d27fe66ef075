package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/comanda/internal/database"
	"github.com/MrJamesThe3rd/comanda/internal/order"
	"github.com/MrJamesThe3rd/comanda/internal/table"
	tablestore "github.com/MrJamesThe3rd/comanda/internal/table/store"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

const orderColumns = `
	id, code, kind, table_id, customer, total, payment_method, status, staff_id, notes,
	created_at, prep_started_at, completed_at, delivered_at, finalized_at, billed_at
`

func scanOrder(s scanner) (*order.Order, error) {
	var (
		o                order.Order
		kind, pm, status string
		customer         []byte
	)

	if err := s.Scan(
		&o.ID, &o.Code, &kind, &o.TableID, &customer, &o.Total, &pm, &status, &o.StaffID, &o.Notes,
		&o.CreatedAt, &o.PrepStartedAt, &o.CompletedAt, &o.DeliveredAt, &o.FinalizedAt, &o.BilledAt,
	); err != nil {
		return nil, err
	}

	o.Kind = order.Kind(kind)
	o.PaymentMethod = order.PaymentMethod(pm)
	o.Status = order.Status(status)

	if len(customer) > 0 {
		o.Customer = &order.Customer{}
		if err := json.Unmarshal(customer, o.Customer); err != nil {
			return nil, fmt.Errorf("decoding customer: %w", err)
		}
	}

	return &o, nil
}

const itemColumns = `
	id, order_id, product_id, product_name, quantity, unit_price, note, addons, position, created_at
`

func scanItem(s scanner) (*order.Item, error) {
	var (
		it     order.Item
		addons []byte
	)

	if err := s.Scan(
		&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity,
		&it.UnitPrice, &it.Note, &addons, &it.Position, &it.CreatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(addons, &it.Addons); err != nil {
		return nil, fmt.Errorf("decoding addons: %w", err)
	}

	return &it, nil
}

func (s *Store) GetOrder(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return getOrder(ctx, s.db, id, false)
}

func getOrder(ctx context.Context, q database.Querier, id uuid.UUID, lock bool) (*order.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	o, err := scanOrder(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, order.ErrNotFound
		}

		return nil, fmt.Errorf("getting order: %w", database.Classify(err))
	}

	if err := loadItems(ctx, q, []*order.Order{o}); err != nil {
		return nil, err
	}

	return o, nil
}

// itemsByOrderQuery binds the ids as uuid[] so order_items_order_id_idx
// stays usable.
const itemsByOrderQuery = `SELECT ` + itemColumns + ` FROM order_items WHERE order_id = ANY($1::uuid[]) ORDER BY position ASC`

// loadItems fills in the items of every order in one query.
func loadItems(ctx context.Context, q database.Querier, orders []*order.Order) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*order.Order, len(orders))
	ids := make([]uuid.UUID, 0, len(orders))

	for _, o := range orders {
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}

	rows, err := q.QueryContext(ctx, itemsByOrderQuery, ids)
	if err != nil {
		return fmt.Errorf("listing order items: %w", database.Classify(err))
	}
	defer rows.Close()

	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return fmt.Errorf("scanning order item: %w", err)
		}

		if o, ok := byID[it.OrderID]; ok {
			o.Items = append(o.Items, it)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating order item rows: %w", err)
	}

	return nil
}

func (s *Store) ListOrders(ctx context.Context, filter order.ListFilter) ([]*order.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE TRUE`

	var args []any

	argIdx := 1

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIdx)

		args = append(args, *filter.Status)
		argIdx++
	}

	if filter.Kind != nil {
		query += fmt.Sprintf(" AND kind = $%d", argIdx)

		args = append(args, *filter.Kind)
		argIdx++
	}

	if filter.TableID != nil {
		query += fmt.Sprintf(" AND table_id = $%d", argIdx)

		args = append(args, *filter.TableID)
		argIdx++
	}

	if filter.StaffID != nil {
		query += fmt.Sprintf(" AND staff_id = $%d", argIdx)

		args = append(args, *filter.StaffID)
		argIdx++
	}

	if filter.Since != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", argIdx)

		args = append(args, *filter.Since)
		argIdx++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argIdx)

	args = append(args, filter.Limit)

	orders, err := queryOrders(ctx, s.db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}

	if err := loadItems(ctx, s.db, orders); err != nil {
		return nil, err
	}

	return orders, nil
}

func queryOrders(ctx context.Context, q database.Querier, query string, args ...any) ([]*order.Order, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, database.Classify(err)
	}
	defer rows.Close()

	var orders []*order.Order

	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning order: %w", err)
		}

		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating order rows: %w", err)
	}

	return orders, nil
}

// LockBillable locks every non-cancelled order of a table that has not been
// billed yet, oldest first, and loads their items.
func LockBillable(ctx context.Context, q database.Querier, tableID uuid.UUID) ([]*order.Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE table_id = $1 AND status <> $2 AND billed_at IS NULL
		ORDER BY created_at ASC
		FOR UPDATE`

	orders, err := queryOrders(ctx, q, query, tableID, order.StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("locking billable orders: %w", err)
	}

	if err := loadItems(ctx, q, orders); err != nil {
		return nil, err
	}

	return orders, nil
}

// ListBillable is LockBillable without the row locks.
func ListBillable(ctx context.Context, q database.Querier, tableID uuid.UUID) ([]*order.Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE table_id = $1 AND status <> $2 AND billed_at IS NULL
		ORDER BY created_at ASC`

	orders, err := queryOrders(ctx, q, query, tableID, order.StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("listing billable orders: %w", err)
	}

	if err := loadItems(ctx, q, orders); err != nil {
		return nil, err
	}

	return orders, nil
}

// Save writes back the mutable header fields of an order.
func Save(ctx context.Context, q database.Querier, o *order.Order) error {
	query := `
		UPDATE orders
		SET total = $1, payment_method = $2, status = $3, notes = $4,
			prep_started_at = $5, completed_at = $6, delivered_at = $7,
			finalized_at = $8, billed_at = $9
		WHERE id = $10
	`

	res, err := q.ExecContext(ctx, query,
		o.Total,
		o.PaymentMethod,
		o.Status,
		o.Notes,
		o.PrepStartedAt,
		o.CompletedAt,
		o.DeliveredAt,
		o.FinalizedAt,
		o.BilledAt,
		o.ID,
	)
	if err != nil {
		return fmt.Errorf("saving order: %w", database.Classify(err))
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return order.ErrNotFound
	}

	return nil
}

type orderTx struct {
	tx *sql.Tx
}

func (s *Store) Begin(ctx context.Context) (order.Tx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning order tx: %w", database.Classify(err))
	}

	return &orderTx{tx: dbTx}, nil
}

func (otx *orderTx) Commit() error   { return otx.tx.Commit() }
func (otx *orderTx) Rollback() error { return otx.tx.Rollback() }

func (otx *orderTx) GetProduct(ctx context.Context, id uuid.UUID) (*order.Product, error) {
	var p order.Product

	err := otx.tx.QueryRowContext(ctx, `SELECT id, name, price, available FROM products WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Price, &p.Available)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, order.ErrProductNotFound
		}

		return nil, fmt.Errorf("getting product: %w", database.Classify(err))
	}

	return &p, nil
}

func (otx *orderTx) LockTable(ctx context.Context, id uuid.UUID) (*table.Table, error) {
	return tablestore.Lock(ctx, otx.tx, id)
}

func (otx *orderTx) SaveTable(ctx context.Context, t *table.Table) error {
	return tablestore.Save(ctx, otx.tx, t)
}

// InsertOrder returns order.ErrCodeTaken when the generated code already
// exists. The conflict is absorbed by ON CONFLICT so the transaction stays
// usable for a retry.
func (otx *orderTx) InsertOrder(ctx context.Context, o *order.Order) error {
	var customer []byte

	if o.Customer != nil {
		var err error

		customer, err = json.Marshal(o.Customer)
		if err != nil {
			return fmt.Errorf("encoding customer: %w", err)
		}
	}

	query := `
		INSERT INTO orders (code, kind, table_id, customer, total, payment_method, status, staff_id, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (code) DO NOTHING
		RETURNING id
	`

	err := otx.tx.QueryRowContext(ctx, query,
		o.Code,
		o.Kind,
		o.TableID,
		customer,
		o.Total,
		o.PaymentMethod,
		o.Status,
		o.StaffID,
		o.Notes,
		o.CreatedAt,
	).Scan(&o.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return order.ErrCodeTaken
		}

		return fmt.Errorf("inserting order: %w", database.Classify(err))
	}

	return nil
}

func (otx *orderTx) InsertItem(ctx context.Context, it *order.Item) error {
	addons := it.Addons
	if addons == nil {
		addons = []order.Addon{}
	}

	encoded, err := json.Marshal(addons)
	if err != nil {
		return fmt.Errorf("encoding addons: %w", err)
	}

	query := `
		INSERT INTO order_items (order_id, product_id, product_name, quantity, unit_price, note, addons, position, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING id, created_at
	`

	err = otx.tx.QueryRowContext(ctx, query,
		it.OrderID,
		it.ProductID,
		it.ProductName,
		it.Quantity,
		it.UnitPrice,
		it.Note,
		encoded,
		it.Position,
	).Scan(&it.ID, &it.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting order item: %w", database.Classify(err))
	}

	return nil
}

func (otx *orderTx) DeleteItem(ctx context.Context, orderID, itemID uuid.UUID) error {
	res, err := otx.tx.ExecContext(ctx, `DELETE FROM order_items WHERE id = $1 AND order_id = $2`, itemID, orderID)
	if err != nil {
		return fmt.Errorf("deleting order item: %w", database.Classify(err))
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return order.ErrItemNotFound
	}

	return nil
}

func (otx *orderTx) LockOrder(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return getOrder(ctx, otx.tx, id, true)
}

func (otx *orderTx) SaveOrder(ctx context.Context, o *order.Order) error {
	return Save(ctx, otx.tx, o)
}
