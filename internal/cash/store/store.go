package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/comanda/internal/cash"
	"github.com/MrJamesThe3rd/comanda/internal/database"
)

const openSessionIndex = "cash_sessions_one_open_idx"

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

const sessionColumns = `
	id, status, opening_amount, system_amount, closing_amount, discrepancy,
	opened_by, closed_by, opened_at, closed_at, notes
`

func scanSession(s scanner) (*cash.Session, error) {
	var (
		sess   cash.Session
		status string
	)

	if err := s.Scan(
		&sess.ID, &status, &sess.OpeningAmount, &sess.SystemAmount,
		&sess.ClosingAmount, &sess.Discrepancy, &sess.OpenedBy, &sess.ClosedBy,
		&sess.OpenedAt, &sess.ClosedAt, &sess.Notes,
	); err != nil {
		return nil, err
	}

	sess.Status = cash.SessionStatus(status)

	return &sess, nil
}

func (s *Store) CreateSession(ctx context.Context, sess *cash.Session) error {
	query := `
		INSERT INTO cash_sessions (status, opening_amount, system_amount, opened_by, notes, opened_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, opened_at
	`

	err := s.db.QueryRowContext(ctx, query,
		sess.Status,
		sess.OpeningAmount,
		sess.SystemAmount,
		sess.OpenedBy,
		sess.Notes,
	).Scan(&sess.ID, &sess.OpenedAt)
	if err != nil {
		if database.IsUniqueViolation(err, openSessionIndex) {
			return cash.ErrSessionAlreadyOpen
		}

		return fmt.Errorf("creating cash session: %w", database.Classify(err))
	}

	return nil
}

func (s *Store) GetSession(ctx context.Context, id uuid.UUID) (*cash.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM cash_sessions WHERE id = $1`

	sess, err := scanSession(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, cash.ErrNotFound
		}

		return nil, fmt.Errorf("getting cash session: %w", database.Classify(err))
	}

	return sess, nil
}

func (s *Store) CurrentSession(ctx context.Context) (*cash.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM cash_sessions WHERE status = 'open'`

	sess, err := scanSession(s.db.QueryRowContext(ctx, query))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, cash.ErrNoOpenSession
		}

		return nil, fmt.Errorf("getting current cash session: %w", database.Classify(err))
	}

	return sess, nil
}

func (s *Store) ListSessions(ctx context.Context, filter cash.HistoryFilter) ([]*cash.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM cash_sessions WHERE TRUE`

	var args []any

	argIdx := 1

	if filter.From != nil {
		query += fmt.Sprintf(" AND opened_at >= $%d", argIdx)

		args = append(args, *filter.From)
		argIdx++
	}

	if filter.To != nil {
		query += fmt.Sprintf(" AND opened_at <= $%d", argIdx)

		args = append(args, *filter.To)
		argIdx++
	}

	query += fmt.Sprintf(" ORDER BY opened_at DESC LIMIT $%d", argIdx)

	args = append(args, filter.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing cash sessions: %w", database.Classify(err))
	}
	defer rows.Close()

	var sessions []*cash.Session

	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning cash session: %w", err)
		}

		sessions = append(sessions, sess)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cash session rows: %w", err)
	}

	return sessions, nil
}

func (s *Store) ListMovements(ctx context.Context, sessionID uuid.UUID) ([]*cash.Movement, error) {
	query := `
		SELECT id, session_id, type, amount, description, payment_method_id,
			order_id, ledger_entry_id, staff_id, created_at
		FROM cash_movements
		WHERE session_id = $1
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing cash movements: %w", database.Classify(err))
	}
	defer rows.Close()

	var movements []*cash.Movement

	for rows.Next() {
		var (
			m   cash.Movement
			typ string
		)

		if err := rows.Scan(
			&m.ID, &m.SessionID, &typ, &m.Amount, &m.Description, &m.PaymentMethodID,
			&m.OrderID, &m.LedgerEntryID, &m.StaffID, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning cash movement: %w", err)
		}

		m.Type = cash.MovementType(typ)
		movements = append(movements, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cash movement rows: %w", err)
	}

	return movements, nil
}

func (s *Store) ListPaymentMethods(ctx context.Context) ([]*cash.PaymentMethod, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, active FROM payment_methods ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing payment methods: %w", database.Classify(err))
	}
	defer rows.Close()

	var methods []*cash.PaymentMethod

	for rows.Next() {
		var pm cash.PaymentMethod
		if err := rows.Scan(&pm.ID, &pm.Name, &pm.Active); err != nil {
			return nil, fmt.Errorf("scanning payment method: %w", err)
		}

		methods = append(methods, &pm)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating payment method rows: %w", err)
	}

	return methods, nil
}

// LockOpenSession reads the open session with FOR UPDATE inside q's transaction.
func LockOpenSession(ctx context.Context, q database.Querier) (*cash.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM cash_sessions WHERE status = 'open' FOR UPDATE`

	sess, err := scanSession(q.QueryRowContext(ctx, query))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, cash.ErrNoOpenSession
		}

		return nil, fmt.Errorf("locking open cash session: %w", database.Classify(err))
	}

	return sess, nil
}

// GetPaymentMethod resolves a payment method. Unknown ids are reported as
// cash.ErrInvalidPaymentMethod since they always arrive from request input.
func GetPaymentMethod(ctx context.Context, q database.Querier, id uuid.UUID) (*cash.PaymentMethod, error) {
	var pm cash.PaymentMethod

	err := q.QueryRowContext(ctx, `SELECT id, name, active FROM payment_methods WHERE id = $1`, id).
		Scan(&pm.ID, &pm.Name, &pm.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, cash.ErrInvalidPaymentMethod
		}

		return nil, fmt.Errorf("getting payment method: %w", database.Classify(err))
	}

	return &pm, nil
}

func InsertMovement(ctx context.Context, q database.Querier, m *cash.Movement) error {
	query := `
		INSERT INTO cash_movements (
			session_id, type, amount, description, payment_method_id,
			order_id, ledger_entry_id, staff_id, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING id, created_at
	`

	err := q.QueryRowContext(ctx, query,
		m.SessionID,
		m.Type,
		m.Amount,
		m.Description,
		m.PaymentMethodID,
		m.OrderID,
		m.LedgerEntryID,
		m.StaffID,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting cash movement: %w", database.Classify(err))
	}

	return nil
}

func SaveSession(ctx context.Context, q database.Querier, sess *cash.Session) error {
	query := `
		UPDATE cash_sessions
		SET status = $1, system_amount = $2, closing_amount = $3, discrepancy = $4,
			closed_by = $5, closed_at = $6, notes = $7
		WHERE id = $8
	`

	res, err := q.ExecContext(ctx, query,
		sess.Status,
		sess.SystemAmount,
		sess.ClosingAmount,
		sess.Discrepancy,
		sess.ClosedBy,
		sess.ClosedAt,
		sess.Notes,
		sess.ID,
	)
	if err != nil {
		return fmt.Errorf("saving cash session: %w", database.Classify(err))
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return cash.ErrNotFound
	}

	return nil
}

// PostToOpenSession records m against the open session and moves its running
// amount, all inside q's transaction. It returns the updated session.
func PostToOpenSession(ctx context.Context, q database.Querier, m *cash.Movement) (*cash.Session, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	sess, err := LockOpenSession(ctx, q)
	if err != nil {
		return nil, err
	}

	m.SessionID = sess.ID
	if err := InsertMovement(ctx, q, m); err != nil {
		return nil, err
	}

	cash.Apply(sess, m)

	if err := SaveSession(ctx, q, sess); err != nil {
		return nil, err
	}

	return sess, nil
}

type cashTx struct {
	tx *sql.Tx
}

func (s *Store) Begin(ctx context.Context) (cash.Tx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning cash tx: %w", database.Classify(err))
	}

	return &cashTx{tx: dbTx}, nil
}

func (c *cashTx) Commit() error   { return c.tx.Commit() }
func (c *cashTx) Rollback() error { return c.tx.Rollback() }

func (c *cashTx) LockOpenSession(ctx context.Context) (*cash.Session, error) {
	return LockOpenSession(ctx, c.tx)
}

func (c *cashTx) GetPaymentMethod(ctx context.Context, id uuid.UUID) (*cash.PaymentMethod, error) {
	return GetPaymentMethod(ctx, c.tx, id)
}

func (c *cashTx) PostMovement(ctx context.Context, m *cash.Movement) (*cash.Session, error) {
	return PostToOpenSession(ctx, c.tx, m)
}

func (c *cashTx) SaveSession(ctx context.Context, sess *cash.Session) error {
	return SaveSession(ctx, c.tx, sess)
}
