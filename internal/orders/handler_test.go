package orders

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MomoCodeByte/final-chekelen/internal/auth"
	"github.com/MomoCodeByte/final-chekelen/internal/domain"
)

type fakeStore struct {
	created     []domain.OptionalID
	createItems []domain.ItemInput
	createErr   error
	statusErr   error
	deleteErr   error
	lastStatus  domain.OrderStatus
	orders      map[int64]*domain.Order
}

func (f *fakeStore) CreateForCustomer(_ context.Context, actor domain.Actor, customer domain.OptionalID, items []domain.ItemInput) (*domain.Order, error) {
	f.created = append(f.created, customer)
	f.createItems = items
	if f.createErr != nil {
		return nil, f.createErr
	}
	id := actor.ID
	return &domain.Order{ID: 1, CustomerID: &id, TotalPrice: domain.MustMoney("25.50"), Status: domain.OrderStatusPending, Items: []domain.OrderItem{}}, nil
}

func (f *fakeStore) Update(_ context.Context, _ domain.Actor, orderID int64, _ domain.OptionalID, _ []domain.ItemInput) (*domain.Order, error) {
	order, ok := f.orders[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

func (f *fakeStore) List(context.Context, domain.Actor) ([]domain.Order, error) {
	out := []domain.Order{}
	for _, o := range f.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (f *fakeStore) Get(_ context.Context, _ domain.Actor, orderID int64) (*domain.Order, error) {
	order, ok := f.orders[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, _ domain.Actor, orderID int64, status domain.OrderStatus) (*domain.Order, error) {
	f.lastStatus = status
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	order, ok := f.orders[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	order.Status = status
	return order, nil
}

func (f *fakeStore) Delete(_ context.Context, _ domain.Actor, orderID int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.orders[orderID]; !ok {
		return domain.ErrOrderNotFound
	}
	delete(f.orders, orderID)
	return nil
}

func newTestMux(store Store) *http.ServeMux {
	h := NewHandler(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/orders", h.HandleList)
	mux.HandleFunc("GET /api/orders/{id}", h.HandleGet)
	mux.HandleFunc("POST /api/orders", h.HandleCreate)
	mux.HandleFunc("PUT /api/orders/{id}", h.HandleUpdate)
	mux.HandleFunc("PUT /api/orders/{id}/status", h.HandleUpdateStatus)
	mux.HandleFunc("DELETE /api/orders/{id}", h.HandleDelete)
	return mux
}

func do(t *testing.T, mux http.Handler, actor *domain.Actor, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if actor != nil {
		req = req.WithContext(auth.WithActor(req.Context(), *actor))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func seeded() *fakeStore {
	return &fakeStore{orders: map[int64]*domain.Order{
		5: {ID: 5, TotalPrice: domain.MustMoney("10.00"), Status: domain.OrderStatusPending, Items: []domain.OrderItem{}},
	}}
}

func TestHandleCreate(t *testing.T) {
	farmer := &domain.Actor{ID: 3, Role: domain.RoleFarmer}

	t.Run("distinguishes omitted and null customer", func(t *testing.T) {
		store := &fakeStore{}
		mux := newTestMux(store)

		do(t, mux, farmer, http.MethodPost, "/api/orders", `{"items":[{"crop_id":1,"quantity":2}]}`)
		do(t, mux, farmer, http.MethodPost, "/api/orders", `{"customer_id":null,"items":[{"crop_id":1,"quantity":2}]}`)
		do(t, mux, farmer, http.MethodPost, "/api/orders", `{"customer_id":7,"items":[{"crop_id":1,"quantity":2}]}`)

		if len(store.created) != 3 {
			t.Fatalf("expected 3 calls, got %d", len(store.created))
		}
		if store.created[0].Set {
			t.Errorf("omitted customer_id should not be set: %+v", store.created[0])
		}
		if !store.created[1].Set || store.created[1].Valid {
			t.Errorf("null customer_id should be set and invalid: %+v", store.created[1])
		}
		if store.created[2] != domain.SomeID(7) {
			t.Errorf("expected customer 7, got %+v", store.created[2])
		}
		if len(store.createItems) != 1 || store.createItems[0].Quantity != 2 {
			t.Errorf("unexpected items: %+v", store.createItems)
		}
	})

	t.Run("created response", func(t *testing.T) {
		rec := do(t, newTestMux(&fakeStore{}), &domain.Actor{ID: 7, Role: domain.RoleCustomer}, http.MethodPost, "/api/orders", `{"items":[{"crop_id":1,"quantity":2}]}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		var resp struct {
			Message string `json:"message"`
			Order   struct {
				ID         int64   `json:"order_id"`
				TotalPrice float64 `json:"total_price"`
				Status     string  `json:"order_status"`
			} `json:"order"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Message != "Order created successfully" || resp.Order.TotalPrice != 25.5 || resp.Order.Status != "pending" {
			t.Errorf("unexpected response: %+v", resp)
		}
	})

	t.Run("crop validation details", func(t *testing.T) {
		store := &fakeStore{createErr: &domain.CropValidationError{Issues: []domain.CropIssue{
			{CropID: 4, Reason: domain.ReasonUnavailable},
			{CropID: 9, Reason: domain.ReasonNotOwned},
		}}}
		rec := do(t, newTestMux(store), farmer, http.MethodPost, "/api/orders", `{"customer_id":null,"items":[{"crop_id":4,"quantity":1},{"crop_id":9,"quantity":1}]}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		var resp struct {
			Details []domain.CropIssue `json:"details"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(resp.Details) != 2 || resp.Details[1].Reason != domain.ReasonNotOwned {
			t.Errorf("unexpected details: %+v", resp.Details)
		}
	})

	t.Run("store failure is hidden", func(t *testing.T) {
		store := &fakeStore{createErr: io.ErrUnexpectedEOF}
		rec := do(t, newTestMux(store), farmer, http.MethodPost, "/api/orders", `{"customer_id":null,"items":[]}`)
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "internal server error") {
			t.Errorf("unexpected body: %s", rec.Body.String())
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := do(t, newTestMux(&fakeStore{}), farmer, http.MethodPost, "/api/orders", `{"customer_id":"x"}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestHandleGetAndList(t *testing.T) {
	admin := &domain.Actor{ID: 1, Role: domain.RoleAdmin}
	mux := newTestMux(seeded())

	if rec := do(t, mux, nil, http.MethodGet, "/api/orders", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
	if rec := do(t, mux, admin, http.MethodGet, "/api/orders", ""); rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if rec := do(t, mux, admin, http.MethodGet, "/api/orders/5", ""); rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if rec := do(t, mux, admin, http.MethodGet, "/api/orders/6", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	if rec := do(t, mux, admin, http.MethodGet, "/api/orders/abc", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandleUpdateStatus(t *testing.T) {
	farmer := &domain.Actor{ID: 3, Role: domain.RoleFarmer}

	tests := []struct {
		name       string
		err        error
		body       string
		wantStatus int
	}{
		{"updated", nil, `{"order_status":"shipped"}`, http.StatusOK},
		{"invalid status", domain.ErrInvalidStatus, `{"order_status":"lost"}`, http.StatusBadRequest},
		{"transition refused", domain.ErrInvalidTransition, `{"order_status":"pending"}`, http.StatusBadRequest},
		{"forbidden", domain.ErrForbidden, `{"order_status":"shipped"}`, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := seeded()
			store.statusErr = tt.err
			rec := do(t, newTestMux(store), farmer, http.MethodPut, "/api/orders/5/status", tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}

	store := seeded()
	do(t, newTestMux(store), farmer, http.MethodPut, "/api/orders/5/status", `{"order_status":"delivered"}`)
	if store.lastStatus != domain.OrderStatusDelivered {
		t.Errorf("expected delivered passed through, got %q", store.lastStatus)
	}
}

func TestHandleDelete(t *testing.T) {
	customer := &domain.Actor{ID: 7, Role: domain.RoleCustomer}

	store := seeded()
	mux := newTestMux(store)
	rec := do(t, mux, customer, http.MethodDelete, "/api/orders/5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Order deleted successfully") {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
	if rec := do(t, mux, customer, http.MethodDelete, "/api/orders/5", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 on second delete, got %d", rec.Code)
	}

	store = seeded()
	store.deleteErr = domain.ErrNotPending
	if rec := do(t, newTestMux(store), customer, http.MethodDelete, "/api/orders/5", ""); rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for non-pending order, got %d", rec.Code)
	}
}

func TestHandleUpdate(t *testing.T) {
	farmer := &domain.Actor{ID: 3, Role: domain.RoleFarmer}
	mux := newTestMux(seeded())

	if rec := do(t, mux, farmer, http.MethodPut, "/api/orders/5", `{"items":[{"crop_id":1,"quantity":1}]}`); rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if rec := do(t, mux, farmer, http.MethodPut, "/api/orders/8", `{"items":[{"crop_id":1,"quantity":1}]}`); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
