package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/comanda/internal/cash"
	cashstore "github.com/MrJamesThe3rd/comanda/internal/cash/store"
	"github.com/MrJamesThe3rd/comanda/internal/database"
	"github.com/MrJamesThe3rd/comanda/internal/ledger"
	"github.com/MrJamesThe3rd/comanda/internal/order"
)

const (
	categoryFK        = "ledger_entries_category_id_fkey"
	orderFK           = "ledger_entries_order_id_fkey"
	movementSavepoint = "ledger_cash_movement"
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

const entryColumns = `
	id, kind, description, counterparty, amount, due_date, category_id, order_id,
	status, settled_on, payment_method_id, notes, created_at, updated_at
`

func scanEntry(s scanner) (*ledger.Entry, error) {
	var (
		e            ledger.Entry
		kind, status string
	)

	if err := s.Scan(
		&e.ID, &kind, &e.Description, &e.Counterparty, &e.Amount, &e.DueDate, &e.CategoryID, &e.OrderID,
		&status, &e.SettledOn, &e.PaymentMethodID, &e.Notes, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}

	e.Kind = ledger.Kind(kind)
	e.Status = ledger.Status(status)

	return &e, nil
}

// referenceError turns a dangling category or order reference into the
// matching not-found error.
func referenceError(err error) error {
	switch {
	case database.IsForeignKeyViolation(err, categoryFK):
		return ledger.ErrCategoryNotFound
	case database.IsForeignKeyViolation(err, orderFK):
		return order.ErrNotFound
	}

	return nil
}

func (s *Store) CreateEntry(ctx context.Context, e *ledger.Entry) error {
	query := `
		INSERT INTO ledger_entries (
			kind, description, counterparty, amount, due_date, category_id, order_id,
			status, notes, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		e.Kind,
		e.Description,
		e.Counterparty,
		e.Amount,
		e.DueDate,
		e.CategoryID,
		e.OrderID,
		e.Status,
		e.Notes,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if refErr := referenceError(err); refErr != nil {
			return refErr
		}

		return fmt.Errorf("creating ledger entry: %w", database.Classify(err))
	}

	return nil
}

func (s *Store) GetEntry(ctx context.Context, id uuid.UUID) (*ledger.Entry, error) {
	return getEntry(ctx, s.db, id, false)
}

func getEntry(ctx context.Context, q database.Querier, id uuid.UUID, lock bool) (*ledger.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	e, err := scanEntry(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledger.ErrNotFound
		}

		return nil, fmt.Errorf("getting ledger entry: %w", database.Classify(err))
	}

	return e, nil
}

func (s *Store) ListEntries(ctx context.Context, filter ledger.ListFilter) ([]*ledger.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE TRUE`

	var args []any

	argIdx := 1

	if filter.Kind != nil {
		query += fmt.Sprintf(" AND kind = $%d", argIdx)

		args = append(args, *filter.Kind)
		argIdx++
	}

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIdx)

		args = append(args, *filter.Status)
		argIdx++
	}

	if filter.DueFrom != nil {
		query += fmt.Sprintf(" AND due_date >= $%d", argIdx)

		args = append(args, *filter.DueFrom)
		argIdx++
	}

	if filter.DueTo != nil {
		query += fmt.Sprintf(" AND due_date <= $%d", argIdx)

		args = append(args, *filter.DueTo)
		argIdx++
	}

	query += fmt.Sprintf(" ORDER BY due_date ASC, created_at ASC LIMIT $%d", argIdx)

	args = append(args, filter.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing ledger entries: %w", database.Classify(err))
	}
	defer rows.Close()

	var entries []*ledger.Entry

	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning ledger entry: %w", err)
		}

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ledger entry rows: %w", err)
	}

	return entries, nil
}

func (s *Store) ListCategories(ctx context.Context, kind *ledger.Kind) ([]*ledger.Category, error) {
	query := `SELECT id, name, kind, description, active FROM financial_categories WHERE active`

	var args []any

	if kind != nil {
		query += ` AND kind = $1`

		args = append(args, *kind)
	}

	query += ` ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", database.Classify(err))
	}
	defer rows.Close()

	var categories []*ledger.Category

	for rows.Next() {
		var (
			c ledger.Category
			k string
		)

		if err := rows.Scan(&c.ID, &c.Name, &k, &c.Description, &c.Active); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}

		c.Kind = ledger.Kind(k)
		categories = append(categories, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating category rows: %w", err)
	}

	return categories, nil
}

func (s *Store) CreateCategory(ctx context.Context, c *ledger.Category) error {
	query := `
		INSERT INTO financial_categories (name, kind, description, active)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	if err := s.db.QueryRowContext(ctx, query, c.Name, c.Kind, c.Description, c.Active).Scan(&c.ID); err != nil {
		return fmt.Errorf("creating category: %w", database.Classify(err))
	}

	return nil
}

type ledgerTx struct {
	tx *sql.Tx
}

func (s *Store) Begin(ctx context.Context) (ledger.Tx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning ledger tx: %w", database.Classify(err))
	}

	return &ledgerTx{tx: dbTx}, nil
}

func (ltx *ledgerTx) Commit() error   { return ltx.tx.Commit() }
func (ltx *ledgerTx) Rollback() error { return ltx.tx.Rollback() }

func (ltx *ledgerTx) LockEntry(ctx context.Context, id uuid.UUID) (*ledger.Entry, error) {
	return getEntry(ctx, ltx.tx, id, true)
}

func (ltx *ledgerTx) SaveEntry(ctx context.Context, e *ledger.Entry) error {
	query := `
		UPDATE ledger_entries
		SET kind = $1, description = $2, counterparty = $3, amount = $4, due_date = $5,
			category_id = $6, order_id = $7, status = $8, settled_on = $9,
			payment_method_id = $10, notes = $11, updated_at = NOW()
		WHERE id = $12
		RETURNING updated_at
	`

	err := ltx.tx.QueryRowContext(ctx, query,
		e.Kind,
		e.Description,
		e.Counterparty,
		e.Amount,
		e.DueDate,
		e.CategoryID,
		e.OrderID,
		e.Status,
		e.SettledOn,
		e.PaymentMethodID,
		e.Notes,
		e.ID,
	).Scan(&e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ledger.ErrNotFound
		}

		if refErr := referenceError(err); refErr != nil {
			return refErr
		}

		return fmt.Errorf("saving ledger entry: %w", database.Classify(err))
	}

	return nil
}

func (ltx *ledgerTx) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	res, err := ltx.tx.ExecContext(ctx, `DELETE FROM ledger_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting ledger entry: %w", database.Classify(err))
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ledger.ErrNotFound
	}

	return nil
}

func (ltx *ledgerTx) GetPaymentMethod(ctx context.Context, id uuid.UUID) (*cash.PaymentMethod, error) {
	return cashstore.GetPaymentMethod(ctx, ltx.tx, id)
}

func (ltx *ledgerTx) PostMovement(ctx context.Context, m *cash.Movement) (*cash.Session, error) {
	var sess *cash.Session

	err := database.Savepoint(ctx, ltx.tx, movementSavepoint, func() error {
		var err error

		sess, err = cashstore.PostToOpenSession(ctx, ltx.tx, m)

		return err
	})
	if err != nil {
		return nil, err
	}

	return sess, nil
}
