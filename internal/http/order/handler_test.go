package order_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/comanda/internal/http/auth"
	orderHandler "github.com/MrJamesThe3rd/comanda/internal/http/order"
	"github.com/MrJamesThe3rd/comanda/internal/notify"
	"github.com/MrJamesThe3rd/comanda/internal/order"
	"github.com/MrJamesThe3rd/comanda/internal/policy"
	"github.com/MrJamesThe3rd/comanda/internal/staff"
)

type fixture struct {
	repo   *order.MockRepository
	tx     *order.MockTx
	pub    *notify.MockPublisher
	router chi.Router
}

func newFixture(t *testing.T, caller *staff.Staff) fixture {
	ctrl := gomock.NewController(t)

	f := fixture{
		repo: order.NewMockRepository(ctrl),
		tx:   order.NewMockTx(ctrl),
		pub:  notify.NewMockPublisher(ctrl),
	}

	h := orderHandler.NewHandler(order.NewService(f.repo, f.pub))

	f.router = chi.NewRouter()
	f.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.WithStaff(r.Context(), caller)))
		})
	})
	h.Routes(f.router, auth.NewGuard(policy.Default()))

	return f
}

func waiter() *staff.Staff {
	return &staff.Staff{ID: uuid.New(), Name: "Ana", Role: staff.RoleWaiter, Active: true}
}

func TestHandler_Create(t *testing.T) {
	caller := waiter()
	f := newFixture(t, caller)

	burger := &order.Product{ID: uuid.New(), Name: "Burger", Price: 2500, Available: true}

	f.repo.EXPECT().Begin(gomock.Any()).Return(f.tx, nil)
	f.tx.EXPECT().GetProduct(gomock.Any(), burger.ID).Return(burger, nil)
	f.tx.EXPECT().InsertOrder(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, o *order.Order) error {
			assert.Equal(t, &caller.ID, o.StaffID, "attributed to the caller")

			o.ID = uuid.New()

			return nil
		})
	f.tx.EXPECT().InsertItem(gomock.Any(), gomock.Any()).Return(nil)
	f.tx.EXPECT().Commit().Return(nil)
	f.tx.EXPECT().Rollback().Return(nil)
	f.pub.EXPECT().Publish(gomock.Any(), notify.TopicOrderCreated, gomock.Any()).Return(nil)

	body := `{
		"kind": "online",
		"customer": {"name": "Bruno", "phone": "555-0101"},
		"payment_method": "pix",
		"items": [{"product_id": "` + burger.ID.String() + `", "quantity": 2, "addons": [{"name": "bacon", "price": "4.50"}]}]
	}`

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, r)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Total         string `json:"total"`
		PaymentMethod string `json:"payment_method"`
		Status        string `json:"status"`
		Items         []struct {
			UnitPrice string `json:"unit_price"`
			Subtotal  string `json:"subtotal"`
			Addons    []struct {
				Price string `json:"price"`
			} `json:"addons"`
		} `json:"items"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))

	assert.Equal(t, "59.00", resp.Total)
	assert.Equal(t, "pix", resp.PaymentMethod)
	assert.Equal(t, "received", resp.Status)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "25.00", resp.Items[0].UnitPrice)
	assert.Equal(t, "59.00", resp.Items[0].Subtotal)
	assert.Equal(t, "4.50", resp.Items[0].Addons[0].Price)
}

func TestHandler_CreateForbiddenForCook(t *testing.T) {
	f := newFixture(t, &staff.Staff{ID: uuid.New(), Role: staff.RoleCook, Active: true})

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"kind": "online"}`))
	r.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHandler_Get(t *testing.T) {
	t.Run("InvalidID", func(t *testing.T) {
		f := newFixture(t, waiter())

		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/not-a-uuid", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("NotFound", func(t *testing.T) {
		f := newFixture(t, waiter())

		id := uuid.New()
		f.repo.EXPECT().GetOrder(gomock.Any(), id).Return(nil, order.ErrNotFound)

		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/"+id.String(), nil))

		assert.Equal(t, http.StatusNotFound, w.Code)

		var body map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "not_found", body["error"])
		assert.Equal(t, "order not found", body["message"])
	})
}

func TestHandler_ListRejectsUnknownStatus(t *testing.T) {
	f := newFixture(t, waiter())

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?status=lost", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
