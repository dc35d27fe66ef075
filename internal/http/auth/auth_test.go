package auth_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/comanda/internal/apperr"
	"github.com/MrJamesThe3rd/comanda/internal/http/auth"
	"github.com/MrJamesThe3rd/comanda/internal/policy"
	"github.com/MrJamesThe3rd/comanda/internal/staff"
)

const secret = "test-secret"

func newAuthenticator(t *testing.T) (*auth.Authenticator, *staff.MockRepository) {
	t.Helper()

	ctrl := gomock.NewController(t)
	repo := staff.NewMockRepository(ctrl)

	return auth.New(secret, time.Hour, staff.NewService(repo)), repo
}

// echo writes the authenticated staff id back so tests can see what the
// middleware stored.
var echo = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	id := auth.StaffID(r.Context())
	if id == nil {
		w.WriteHeader(http.StatusTeapot)
		return
	}

	_, _ = w.Write([]byte(id.String()))
})

func TestMiddleware(t *testing.T) {
	ana := &staff.Staff{ID: uuid.New(), Name: "Ana", Role: staff.RoleWaiter, Active: true}

	t.Run("BearerToken", func(t *testing.T) {
		a, repo := newAuthenticator(t)
		repo.EXPECT().GetStaff(gomock.Any(), ana.ID).Return(ana, nil)

		token, err := a.Sign(ana.ID)
		require.NoError(t, err)

		r := httptest.NewRequest(http.MethodGet, "/api/v1/tables", nil)
		r.Header.Set("Authorization", "Bearer "+token)

		w := httptest.NewRecorder()
		a.Middleware(echo).ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, ana.ID.String(), w.Body.String())
	})

	t.Run("HeaderToken", func(t *testing.T) {
		a, repo := newAuthenticator(t)
		repo.EXPECT().GetStaff(gomock.Any(), ana.ID).Return(ana, nil)

		token, err := a.Sign(ana.ID)
		require.NoError(t, err)

		r := httptest.NewRequest(http.MethodGet, "/api/v1/tables", nil)
		r.Header.Set("X-Auth-Token", token)

		w := httptest.NewRecorder()
		a.Middleware(echo).ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("MissingToken", func(t *testing.T) {
		a, _ := newAuthenticator(t)

		w := httptest.NewRecorder()
		a.Middleware(echo).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/tables", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		a, _ := newAuthenticator(t)

		token, err := auth.New("other-secret", time.Hour, nil).Sign(ana.ID)
		require.NoError(t, err)

		r := httptest.NewRequest(http.MethodGet, "/api/v1/tables", nil)
		r.Header.Set("Authorization", "Bearer "+token)

		w := httptest.NewRecorder()
		a.Middleware(echo).ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Expired", func(t *testing.T) {
		a, _ := newAuthenticator(t)

		token, err := auth.New(secret, -time.Minute, nil).Sign(ana.ID)
		require.NoError(t, err)

		r := httptest.NewRequest(http.MethodGet, "/api/v1/tables", nil)
		r.Header.Set("Authorization", "Bearer "+token)

		w := httptest.NewRecorder()
		a.Middleware(echo).ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("RejectsNoneAlgorithm", func(t *testing.T) {
		a, _ := newAuthenticator(t)

		claims := jwt.RegisteredClaims{
			Subject:   ana.ID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		r := httptest.NewRequest(http.MethodGet, "/api/v1/tables", nil)
		r.Header.Set("Authorization", "Bearer "+token)

		w := httptest.NewRecorder()
		a.Middleware(echo).ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("InactiveStaff", func(t *testing.T) {
		a, repo := newAuthenticator(t)

		inactive := *ana
		inactive.Active = false
		repo.EXPECT().GetStaff(gomock.Any(), ana.ID).Return(&inactive, nil)

		token, err := a.Sign(ana.ID)
		require.NoError(t, err)

		r := httptest.NewRequest(http.MethodGet, "/api/v1/tables", nil)
		r.Header.Set("Authorization", "Bearer "+token)

		w := httptest.NewRecorder()
		a.Middleware(echo).ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("IdentityStoreDown", func(t *testing.T) {
		a, repo := newAuthenticator(t)
		repo.EXPECT().GetStaff(gomock.Any(), ana.ID).
			Return(nil, apperr.Wrap(apperr.Unavailable, errors.New("dial tcp"), "database unavailable"))

		token, err := a.Sign(ana.ID)
		require.NoError(t, err)

		r := httptest.NewRequest(http.MethodGet, "/api/v1/tables", nil)
		r.Header.Set("Authorization", "Bearer "+token)

		w := httptest.NewRecorder()
		a.Middleware(echo).ServeHTTP(w, r)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestGuard_Require(t *testing.T) {
	guard := auth.NewGuard(policy.Default())

	tests := []struct {
		name     string
		caller   *staff.Staff
		resource policy.Resource
		action   policy.Action
		want     int
	}{
		{
			name:     "CookReadsOrders",
			caller:   &staff.Staff{ID: uuid.New(), Role: staff.RoleCook},
			resource: policy.ResourceOrders,
			action:   policy.ActionRead,
			want:     http.StatusOK,
		},
		{
			name:     "CookCannotCheckout",
			caller:   &staff.Staff{ID: uuid.New(), Role: staff.RoleCook},
			resource: policy.ResourceCheckout,
			action:   policy.ActionCreate,
			want:     http.StatusForbidden,
		},
		{
			name:     "WaiterCannotTouchLedger",
			caller:   &staff.Staff{ID: uuid.New(), Role: staff.RoleWaiter},
			resource: policy.ResourceLedger,
			action:   policy.ActionRead,
			want:     http.StatusForbidden,
		},
		{
			name:     "AdminDeletesTables",
			caller:   &staff.Staff{ID: uuid.New(), Role: staff.RoleAdmin},
			resource: policy.ResourceTables,
			action:   policy.ActionDelete,
			want:     http.StatusOK,
		},
		{
			name:     "Anonymous",
			resource: policy.ResourceTables,
			action:   policy.ActionRead,
			want:     http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.caller != nil {
				r = r.WithContext(auth.WithStaff(r.Context(), tt.caller))
			}

			w := httptest.NewRecorder()
			guard.Require(tt.resource, tt.action)(echo).ServeHTTP(w, r)

			assert.Equal(t, tt.want, w.Code)
		})
	}
}
