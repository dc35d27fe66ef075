package respond_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/comanda/internal/apperr"
	"github.com/MrJamesThe3rd/comanda/internal/http/respond"
)

func TestError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantKind    string
		wantMessage string
	}{
		{
			name:        "NotFound",
			err:         fmt.Errorf("loading: %w", apperr.New(apperr.NotFound, "table not found")),
			wantStatus:  http.StatusNotFound,
			wantKind:    "not_found",
			wantMessage: "table not found",
		},
		{
			name:        "Invalid",
			err:         apperr.Invalidf("amount must be positive"),
			wantStatus:  http.StatusBadRequest,
			wantKind:    "invalid",
			wantMessage: "amount must be positive",
		},
		{
			name:        "Conflict",
			err:         apperr.New(apperr.Conflict, "a cash session is already open"),
			wantStatus:  http.StatusConflict,
			wantKind:    "conflict",
			wantMessage: "a cash session is already open",
		},
		{
			name:        "UnavailableHidesCause",
			err:         apperr.Wrap(apperr.Unavailable, errors.New("dial tcp 10.0.0.5:5432: connection refused"), "database unavailable"),
			wantStatus:  http.StatusServiceUnavailable,
			wantKind:    "unavailable",
			wantMessage: "database unavailable",
		},
		{
			name:        "Unclassified",
			err:         errors.New(`pq: relation "orders" does not exist`),
			wantStatus:  http.StatusInternalServerError,
			wantKind:    "internal",
			wantMessage: "internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/api/v1/tables", nil)

			respond.Error(w, r, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var body map[string]string
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, tt.wantKind, body["error"])
			assert.Equal(t, tt.wantMessage, body["message"])
		})
	}
}

func TestQueryHelpers(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?from=2026-02-01&limit=20&table_id=nope", nil)

	from, err := respond.QueryDate(r, "from")
	require.NoError(t, err)
	assert.Equal(t, "2026-02-01", from.Format("2006-01-02"))

	to, err := respond.QueryDate(r, "to")
	require.NoError(t, err)
	assert.Nil(t, to)

	limit, err := respond.QueryInt(r, "limit")
	require.NoError(t, err)
	assert.Equal(t, 20, limit)

	_, err = respond.QueryID(r, "table_id")
	assert.Equal(t, apperr.Invalid, apperr.KindOf(err))
}
