package table

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/comanda/internal/apperr"
)

// Status is the seating state of a table.
type Status string

const (
	StatusFree            Status = "free"
	StatusReserved        Status = "reserved"
	StatusOccupied        Status = "occupied"
	StatusAwaitingService Status = "awaiting_service"
	StatusBeingServed     Status = "being_served"
)

var (
	ErrNotFound      = apperr.New(apperr.NotFound, "table not found")
	ErrNumberTaken   = apperr.New(apperr.Conflict, "table number already in use")
	ErrInvalidStatus = apperr.New(apperr.Invalid, "invalid table status")
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusFree, StatusReserved, StatusOccupied, StatusAwaitingService, StatusBeingServed:
		return st, nil
	}

	return "", ErrInvalidStatus
}

// Occupied reports whether the status keeps an occupancy window open.
func (s Status) Occupied() bool {
	return s == StatusOccupied || s == StatusBeingServed
}

// Table is a physical table on the floor. StaffID is a weak reference.
type Table struct {
	ID            uuid.UUID
	Number        int
	Capacity      int
	Status        Status
	StaffID       *uuid.UUID
	OccupiedSince *time.Time
	OccupiedUntil *time.Time
	Notes         string
	CallingStaff  bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Transition moves the table to status and keeps the occupancy window
// consistent with it: OccupiedSince is set iff the status is occupied or
// being_served, and OccupiedUntil is stamped when occupancy ends at free.
// A nil staffID keeps the current assignee.
func (t *Table) Transition(to Status, staffID *uuid.UUID, now time.Time) {
	from := t.Status

	switch {
	case to.Occupied() && !from.Occupied():
		t.OccupiedSince = &now
		t.OccupiedUntil = nil
	case !to.Occupied() && from.Occupied():
		t.OccupiedSince = nil
		if to == StatusFree {
			t.OccupiedUntil = &now
		}
	}

	t.Status = to

	if staffID != nil {
		t.StaffID = staffID
	}
}

// Release frees the table after its bill is closed. The occupancy end is
// stamped whatever status the table was in.
func (t *Table) Release(now time.Time) {
	t.Transition(StatusFree, nil, now)
	t.OccupiedUntil = &now
	t.StaffID = nil
	t.CallingStaff = false
}
