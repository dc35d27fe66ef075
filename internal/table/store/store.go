package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/comanda/internal/database"
	"github.com/MrJamesThe3rd/comanda/internal/table"
)

const numberConstraint = "dining_tables_number_key"

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

// Expected column order matches selectColumns.
func scanTable(s scanner) (*table.Table, error) {
	var (
		t      table.Table
		status string
	)

	if err := s.Scan(
		&t.ID, &t.Number, &t.Capacity, &status, &t.StaffID,
		&t.OccupiedSince, &t.OccupiedUntil, &t.Notes, &t.CallingStaff,
		&t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}

	t.Status = table.Status(status)

	return &t, nil
}

const selectColumns = `
	id, number, capacity, status, staff_id,
	occupied_since, occupied_until, notes, calling_staff,
	created_at, updated_at
`

func (s *Store) CreateTable(ctx context.Context, t *table.Table) error {
	query := `
		INSERT INTO dining_tables (number, capacity, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query, t.Number, t.Capacity, t.Status, t.Notes).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err, numberConstraint) {
			return table.ErrNumberTaken
		}

		return fmt.Errorf("creating table: %w", database.Classify(err))
	}

	return nil
}

func (s *Store) GetTable(ctx context.Context, id uuid.UUID) (*table.Table, error) {
	query := `SELECT ` + selectColumns + ` FROM dining_tables WHERE id = $1`

	t, err := scanTable(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, table.ErrNotFound
		}

		return nil, fmt.Errorf("getting table: %w", database.Classify(err))
	}

	return t, nil
}

func (s *Store) ListTables(ctx context.Context, filter table.ListFilter) ([]*table.Table, error) {
	query := `SELECT ` + selectColumns + ` FROM dining_tables WHERE TRUE`

	var args []any

	argIdx := 1

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIdx)

		args = append(args, *filter.Status)
		argIdx++
	}

	if filter.StaffID != nil {
		query += fmt.Sprintf(" AND staff_id = $%d", argIdx)

		args = append(args, *filter.StaffID)
	}

	query += " ORDER BY number ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", database.Classify(err))
	}
	defer rows.Close()

	var tables []*table.Table

	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning table: %w", err)
		}

		tables = append(tables, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating table rows: %w", err)
	}

	return tables, nil
}

func (s *Store) DeleteTable(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM dining_tables WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting table: %w", database.Classify(err))
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return table.ErrNotFound
	}

	return nil
}

// Lock reads a table row with FOR UPDATE inside q's transaction.
func Lock(ctx context.Context, q database.Querier, id uuid.UUID) (*table.Table, error) {
	query := `SELECT ` + selectColumns + ` FROM dining_tables WHERE id = $1 FOR UPDATE`

	t, err := scanTable(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, table.ErrNotFound
		}

		return nil, fmt.Errorf("locking table: %w", database.Classify(err))
	}

	return t, nil
}

// Save writes back the mutable state of a table.
func Save(ctx context.Context, q database.Querier, t *table.Table) error {
	query := `
		UPDATE dining_tables
		SET status = $1, staff_id = $2, occupied_since = $3, occupied_until = $4,
			notes = $5, calling_staff = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING updated_at
	`

	err := q.QueryRowContext(ctx, query,
		t.Status,
		t.StaffID,
		t.OccupiedSince,
		t.OccupiedUntil,
		t.Notes,
		t.CallingStaff,
		t.ID,
	).Scan(&t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return table.ErrNotFound
		}

		return fmt.Errorf("saving table: %w", database.Classify(err))
	}

	return nil
}

type tableTx struct {
	tx *sql.Tx
}

func (s *Store) Begin(ctx context.Context) (table.Tx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning table tx: %w", database.Classify(err))
	}

	return &tableTx{tx: dbTx}, nil
}

func (ttx *tableTx) Commit() error   { return ttx.tx.Commit() }
func (ttx *tableTx) Rollback() error { return ttx.tx.Rollback() }

func (ttx *tableTx) LockTable(ctx context.Context, id uuid.UUID) (*table.Table, error) {
	return Lock(ctx, ttx.tx, id)
}

func (ttx *tableTx) SaveTable(ctx context.Context, t *table.Table) error {
	return Save(ctx, ttx.tx, t)
}
