package table_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/comanda/internal/apperr"
	"github.com/MrJamesThe3rd/comanda/internal/notify"
	"github.com/MrJamesThe3rd/comanda/internal/table"
)

type fixture struct {
	repo *table.MockRepository
	tx   *table.MockTx
	pub  *notify.MockPublisher
	svc  *table.Service
}

func newFixture(t *testing.T) fixture {
	ctrl := gomock.NewController(t)

	f := fixture{
		repo: table.NewMockRepository(ctrl),
		tx:   table.NewMockTx(ctrl),
		pub:  notify.NewMockPublisher(ctrl),
	}
	f.svc = table.NewService(f.repo, f.pub)

	return f
}

func TestService_Create(t *testing.T) {
	type testCase struct {
		name      string
		params    table.CreateParams
		setupMock func(m *table.MockRepository)
		wantCap   int
		wantKind  apperr.Kind
	}

	tests := []testCase{
		{
			name:   "DefaultsCapacity",
			params: table.CreateParams{Number: 7},
			setupMock: func(m *table.MockRepository) {
				m.EXPECT().
					CreateTable(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, tb *table.Table) error {
						tb.ID = uuid.New()
						return nil
					})
			},
			wantCap: 4,
		},
		{
			name:     "RejectsNonPositiveNumber",
			params:   table.CreateParams{Number: 0, Capacity: 2},
			wantKind: apperr.Invalid,
		},
		{
			name:   "DuplicateNumber",
			params: table.CreateParams{Number: 3, Capacity: 2},
			setupMock: func(m *table.MockRepository) {
				m.EXPECT().CreateTable(gomock.Any(), gomock.Any()).Return(table.ErrNumberTaken)
			},
			wantKind: apperr.Conflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.setupMock != nil {
				tt.setupMock(f.repo)
			}

			got, err := f.svc.Create(context.Background(), tt.params)

			if tt.wantKind != "" {
				assert.Equal(t, tt.wantKind, apperr.KindOf(err))
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, table.StatusFree, got.Status)
			assert.Equal(t, tt.wantCap, got.Capacity)
			assert.NotEqual(t, uuid.Nil, got.ID)
		})
	}
}

func TestService_SetStatus_Occupy(t *testing.T) {
	f := newFixture(t)

	id := uuid.New()
	staffID := uuid.New()
	ended := time.Now().Add(-time.Hour)

	f.repo.EXPECT().Begin(gomock.Any()).Return(f.tx, nil)
	f.tx.EXPECT().LockTable(gomock.Any(), id).Return(&table.Table{
		ID:            id,
		Number:        5,
		Status:        table.StatusFree,
		OccupiedUntil: &ended,
	}, nil)
	f.tx.EXPECT().SaveTable(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, tb *table.Table) error {
			assert.Equal(t, table.StatusOccupied, tb.Status)
			assert.NotNil(t, tb.OccupiedSince)
			assert.Nil(t, tb.OccupiedUntil)
			assert.Equal(t, &staffID, tb.StaffID)

			return nil
		})
	f.tx.EXPECT().Commit().Return(nil)
	f.tx.EXPECT().Rollback().Return(nil)
	f.pub.EXPECT().Publish(gomock.Any(), notify.TopicTableStatusChanged, gomock.Any()).Return(nil)

	got, err := f.svc.SetStatus(context.Background(), id, "occupied", &staffID)
	require.NoError(t, err)
	assert.Equal(t, table.StatusOccupied, got.Status)
}

func TestService_SetStatus_UnknownStatus(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.SetStatus(context.Background(), uuid.New(), "ocupada", nil)
	assert.ErrorIs(t, err, table.ErrInvalidStatus)
}

func TestService_SetStatus_NotFound(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()

	f.repo.EXPECT().Begin(gomock.Any()).Return(f.tx, nil)
	f.tx.EXPECT().LockTable(gomock.Any(), id).Return(nil, table.ErrNotFound)
	f.tx.EXPECT().Rollback().Return(nil)

	_, err := f.svc.SetStatus(context.Background(), id, "free", nil)
	assert.ErrorIs(t, err, table.ErrNotFound)
}

func TestService_SetStatus_PublishFailureIsIgnored(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()

	f.repo.EXPECT().Begin(gomock.Any()).Return(f.tx, nil)
	f.tx.EXPECT().LockTable(gomock.Any(), id).Return(&table.Table{ID: id, Status: table.StatusFree}, nil)
	f.tx.EXPECT().SaveTable(gomock.Any(), gomock.Any()).Return(nil)
	f.tx.EXPECT().Commit().Return(nil)
	f.tx.EXPECT().Rollback().Return(nil)
	f.pub.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("broker down"))

	got, err := f.svc.SetStatus(context.Background(), id, "reserved", nil)
	require.NoError(t, err)
	assert.Equal(t, table.StatusReserved, got.Status)
}

func TestService_AssignToStaff(t *testing.T) {
	f := newFixture(t)

	id := uuid.New()
	staffID := uuid.New()

	f.repo.EXPECT().Begin(gomock.Any()).Return(f.tx, nil)
	f.tx.EXPECT().LockTable(gomock.Any(), id).Return(&table.Table{
		ID:           id,
		Status:       table.StatusAwaitingService,
		CallingStaff: true,
	}, nil)
	f.tx.EXPECT().SaveTable(gomock.Any(), gomock.Any()).Return(nil)
	f.tx.EXPECT().Commit().Return(nil)
	f.tx.EXPECT().Rollback().Return(nil)
	f.pub.EXPECT().Publish(gomock.Any(), notify.TopicTableStatusChanged, gomock.Any()).Return(nil)

	got, err := f.svc.AssignToStaff(context.Background(), id, staffID)
	require.NoError(t, err)
	assert.Equal(t, table.StatusAwaitingService, got.Status)
	assert.Equal(t, &staffID, got.StaffID)
	assert.False(t, got.CallingStaff)
}

func TestService_CallStaff(t *testing.T) {
	f := newFixture(t)

	id := uuid.New()
	since := time.Now().Add(-20 * time.Minute)

	f.repo.EXPECT().Begin(gomock.Any()).Return(f.tx, nil)
	f.tx.EXPECT().LockTable(gomock.Any(), id).Return(&table.Table{
		ID:            id,
		Number:        9,
		Status:        table.StatusOccupied,
		OccupiedSince: &since,
	}, nil)
	f.tx.EXPECT().SaveTable(gomock.Any(), gomock.Any()).Return(nil)
	f.tx.EXPECT().Commit().Return(nil)
	f.tx.EXPECT().Rollback().Return(nil)
	f.pub.EXPECT().
		Publish(gomock.Any(), notify.TopicTableCall, gomock.AssignableToTypeOf(table.StatusEvent{})).
		Return(nil)

	got, err := f.svc.CallStaff(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, got.CallingStaff)
	assert.Equal(t, table.StatusAwaitingService, got.Status)
	assert.Nil(t, got.OccupiedSince)
}

func TestService_CommitFailure(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()

	f.repo.EXPECT().Begin(gomock.Any()).Return(f.tx, nil)
	f.tx.EXPECT().LockTable(gomock.Any(), id).Return(&table.Table{ID: id, Status: table.StatusFree}, nil)
	f.tx.EXPECT().SaveTable(gomock.Any(), gomock.Any()).Return(nil)
	f.tx.EXPECT().Commit().Return(errors.New("connection reset"))
	f.tx.EXPECT().Rollback().Return(nil)

	_, err := f.svc.SetStatus(context.Background(), id, "occupied", nil)
	assert.Error(t, err)
}
