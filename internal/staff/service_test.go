package staff_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/comanda/internal/staff"
)

func TestService_ResolveActive(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name    string
		stored  *staff.Staff
		repoErr error
		wantErr error
	}{
		{
			name:   "Active",
			stored: &staff.Staff{ID: id, Name: "Ana", Role: staff.RoleWaiter, Active: true},
		},
		{
			name:    "Inactive",
			stored:  &staff.Staff{ID: id, Name: "Bruno", Role: staff.RoleCook, Active: false},
			wantErr: staff.ErrInactive,
		},
		{
			name:    "Missing",
			repoErr: staff.ErrNotFound,
			wantErr: staff.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := staff.NewMockRepository(ctrl)
			repo.EXPECT().GetStaff(gomock.Any(), id).Return(tt.stored, tt.repoErr)

			got, err := staff.NewService(repo).ResolveActive(context.Background(), id)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.stored, got)
		})
	}
}
