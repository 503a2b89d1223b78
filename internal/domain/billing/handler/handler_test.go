package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/utility-bill-sync/internal/domain/billing"
	"github.com/FACorreiaa/utility-bill-sync/internal/domain/billing/service"
	"github.com/FACorreiaa/utility-bill-sync/pkg/logger"
)

type testBill struct {
	billing.Bill
}

func (b *testBill) State() *billing.Bill { return &b.Bill }

func wrap(b billing.Bill) *testBill { return &testBill{Bill: b} }

// fakeRepo is an in-memory repository; err, when set, fails every call.
type fakeRepo struct {
	mu    sync.Mutex
	bills map[uuid.UUID]*testBill
	order []uuid.UUID
	err   error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{bills: make(map[uuid.UUID]*testBill)}
}

func (f *fakeRepo) ListExistingReferences(context.Context) (map[string]struct{}, error) {
	return nil, errors.New("not used")
}

func (f *fakeRepo) AddMany(context.Context, []*testBill) ([]*testBill, error) {
	return nil, errors.New("not used")
}

func (f *fakeRepo) List(_ context.Context, p billing.ListParams) ([]*testBill, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*testBill
	for _, id := range f.order {
		b := f.bills[id]
		if b.IsDeleted() && !p.IncludeDeleted {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*testBill, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bills[id]
	if !ok {
		return nil, billing.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeRepo) Put(_ context.Context, b *testBill) (*testBill, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, other := range f.bills {
		if id != b.ID && !other.IsDeleted() && !b.IsDeleted() && other.Reference == b.Reference {
			return nil, billing.ErrDuplicateReference
		}
	}
	if _, ok := f.bills[b.ID]; !ok {
		f.order = append(f.order, b.ID)
	}
	cp := *b
	f.bills[b.ID] = &cp
	return &cp, nil
}

func (f *fakeRepo) seed(t *testing.T, ref, amount string) *testBill {
	t.Helper()
	b, err := billing.NewBill(ref, amount)
	require.NoError(t, err)
	stored, err := f.Put(context.Background(), wrap(b))
	require.NoError(t, err)
	return stored
}

func newRouter(repo *fakeRepo) http.Handler {
	svc := service.NewBillService[*testBill](repo, wrap, logger.Discard())
	h := NewBillHandler(svc, logger.Discard())
	r := chi.NewRouter()
	r.Route("/electric-bills", h.Routes)
	return r
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// ============================================================================
// List
// ============================================================================

func TestList(t *testing.T) {
	repo := newFakeRepo()
	repo.seed(t, "08/2025", "39,10")
	gone := repo.seed(t, "09/2025", "42,20")
	gone.Delete()
	_, err := repo.Put(context.Background(), gone)
	require.NoError(t, err)
	h := newRouter(repo)

	rec := do(t, h, http.MethodGet, "/electric-bills/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var bills []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bills))
	require.Len(t, bills, 1)
	assert.Equal(t, "08/2025", bills[0]["reference"])
	assert.Equal(t, "39.10", bills[0]["amount"])

	rec = do(t, h, http.MethodGet, "/electric-bills/?include_deleted=true&limit=200&offset=0&order_desc=false", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bills))
	assert.Len(t, bills, 2)
}

func TestList_Empty(t *testing.T) {
	rec := do(t, newRouter(newFakeRepo()), http.MethodGet, "/electric-bills/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestList_InvalidParams(t *testing.T) {
	h := newRouter(newFakeRepo())

	for _, q := range []string{"limit=0", "limit=201", "offset=-1", "limit=abc", "include_deleted=maybe", "order_desc=2"} {
		t.Run(q, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, "/electric-bills/?"+q, "")
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

// ============================================================================
// Get / Put / Delete
// ============================================================================

func TestGet(t *testing.T) {
	repo := newFakeRepo()
	b := repo.seed(t, "09/2025", "42,20")
	h := newRouter(repo)

	rec := do(t, h, http.MethodGet, "/electric-bills/"+b.ID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"reference":"09/2025"`)

	rec = do(t, h, http.MethodGet, "/electric-bills/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/electric-bills/not-a-uuid", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestPut(t *testing.T) {
	repo := newFakeRepo()
	h := newRouter(repo)
	id := uuid.NewString()

	rec := do(t, h, http.MethodPut, "/electric-bills/"+id, `{"reference":"09/2025","amount":"42,20"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"amount":"42.20"`)

	rec = do(t, h, http.MethodPut, "/electric-bills/"+id, `{"reference":"09/2025","amount":50}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"amount":"50.00"`)

	other := repo.seed(t, "10/2025", "1,00")
	rec = do(t, h, http.MethodPut, "/electric-bills/"+other.ID.String(), `{"reference":"09/2025","amount":"1,00"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPut_Invalid(t *testing.T) {
	h := newRouter(newFakeRepo())
	target := "/electric-bills/" + uuid.NewString()

	tests := []struct {
		name string
		body string
	}{
		{"bad reference", `{"reference":"2025-09","amount":"1,00"}`},
		{"bad amount", `{"reference":"09/2025","amount":"abc"}`},
		{"missing amount", `{"reference":"09/2025"}`},
		{"not json", `{`},
		{"wrong type", `{"reference":9,"amount":"1,00"}`},
		{"empty", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPut, target, tt.body)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		})
	}
}

func TestDelete(t *testing.T) {
	repo := newFakeRepo()
	b := repo.seed(t, "09/2025", "42,20")
	h := newRouter(repo)
	target := "/electric-bills/" + b.ID.String()

	rec := do(t, h, http.MethodDelete, target, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodDelete, target, "")
	assert.Equal(t, http.StatusNoContent, rec.Code, "deleting twice is idempotent")

	rec = do(t, h, http.MethodGet, target, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPut, target, `{"reference":"09/2025","amount":"1,00"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ============================================================================
// Error mapping
// ============================================================================

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"not found", billing.ErrNotFound, http.StatusNotFound, "bill not found"},
		{"duplicate", billing.ErrDuplicateReference, http.StatusConflict, ""},
		{"invalid reference", billing.ErrInvalidReference, http.StatusUnprocessableEntity, ""},
		{"unavailable", &pgconn.PgError{Code: "08006"}, http.StatusServiceUnavailable, "database unavailable or unreachable"},
		{"schema missing", &pgconn.PgError{Code: "42P01"}, http.StatusInternalServerError, msgSchemaMissing},
		{"other", errors.New("boom"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg := StatusFor(tt.err)
			assert.Equal(t, tt.status, status)
			if tt.msg != "" {
				assert.Equal(t, tt.msg, msg)
			}
		})
	}
}

func TestRepositoryFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.err = &pgconn.PgError{Code: "57P01"}

	rec := do(t, newRouter(repo), http.MethodGet, "/electric-bills/", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"error":"database unavailable or unreachable"}`, rec.Body.String())
}
