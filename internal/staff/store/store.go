package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/comanda/internal/database"
	"github.com/MrJamesThe3rd/comanda/internal/staff"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) GetStaff(ctx context.Context, id uuid.UUID) (*staff.Staff, error) {
	query := `SELECT id, name, role, active FROM staff WHERE id = $1`

	var (
		st   staff.Staff
		role string
	)

	err := s.db.QueryRowContext(ctx, query, id).Scan(&st.ID, &st.Name, &role, &st.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, staff.ErrNotFound
		}

		return nil, fmt.Errorf("getting staff member: %w", database.Classify(err))
	}

	st.Role = staff.Role(role)

	return &st, nil
}
