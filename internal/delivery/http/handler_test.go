package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhvu/catalog-backend/internal/entity"
	"github.com/minhvu/catalog-backend/internal/repository"
	"github.com/minhvu/catalog-backend/internal/service"
)

// memStore backs the services with in-memory state so handler tests cover
// the full decode -> service -> status-code path.
type memStore struct {
	products map[string]*entity.Product
	orders   map[string]*entity.Order
	seq      int
	debitErr error
}

func newMemStore(products ...entity.Product) *memStore {
	s := &memStore{
		products: make(map[string]*entity.Product),
		orders:   make(map[string]*entity.Order),
	}
	for _, p := range products {
		cp := p
		s.products[p.ID] = &cp
	}
	return s
}

func (s *memStore) ProductsByID(_ context.Context, ids []string) (map[string]entity.Product, error) {
	out := make(map[string]entity.Product)
	for _, id := range ids {
		if p, ok := s.products[id]; ok && p.DeletedAt == nil {
			out[id] = *p
		}
	}
	return out, nil
}

func (s *memStore) RunInTx(_ context.Context, fn func(tx repository.OrderTx) error) error {
	tx := &memTx{store: s, debits: make(map[string]int)}
	if err := fn(tx); err != nil {
		return err
	}
	for id, qty := range tx.debits {
		s.products[id].Stock -= qty
	}
	if tx.order != nil {
		committed := *tx.order
		committed.Items = tx.items
		s.orders[committed.ID] = &committed
	}
	return nil
}

type memTx struct {
	store  *memStore
	order  *entity.Order
	items  []entity.OrderItem
	debits map[string]int
}

func (t *memTx) InsertOrder(_ context.Context, customer entity.Customer) (string, error) {
	t.store.seq++
	t.order = &entity.Order{
		ID:       fmt.Sprintf("order-%d", t.store.seq),
		Customer: customer,
		Status:   entity.OrderStatusPlaced,
		PlacedAt: time.Now().UTC(),
	}
	return t.order.ID, nil
}

func (t *memTx) InsertLineItem(_ context.Context, _ string, item entity.OrderItem) error {
	t.items = append(t.items, item)
	return nil
}

func (t *memTx) DebitStock(_ context.Context, productID string, qty int) error {
	if t.store.debitErr != nil {
		return t.store.debitErr
	}
	p, ok := t.store.products[productID]
	if !ok || p.Stock-t.debits[productID] < qty {
		return repository.ErrStockConflict
	}
	t.debits[productID] += qty
	return nil
}

func (t *memTx) SetOrderTotal(_ context.Context, _ string, total decimal.Decimal) error {
	t.order.TotalAmount = total
	return nil
}

func (t *memTx) FindOrder(_ context.Context, _ string) (*entity.Order, error) {
	o := *t.order
	o.Items = t.items
	return &o, nil
}

func (s *memStore) FindByID(_ context.Context, id string) (*entity.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *memStore) FindAll(_ context.Context, _ repository.OrderFilter) ([]entity.Order, error) {
	var out []entity.Order
	for _, o := range s.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (s *memStore) UpdateStatus(_ context.Context, id, status string) error {
	o, ok := s.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	o.Status = status
	return nil
}

// Catalog repo surface for the handler tests.

func (s *memStore) Create(_ context.Context, p *entity.Product) error {
	cp := *p
	s.products[p.ID] = &cp
	return nil
}

func (s *memStore) FindProduct(ctx context.Context, id string) (*entity.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *memStore) FindAllProducts(_ context.Context, f repository.ProductFilter) ([]entity.Product, error) {
	var out []entity.Product
	for _, p := range s.products {
		if p.DeletedAt != nil && !f.IncludeDeleted {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (s *memStore) Update(_ context.Context, p *entity.Product) error {
	if _, ok := s.products[p.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *p
	s.products[p.ID] = &cp
	return nil
}

func (s *memStore) SoftDelete(_ context.Context, id string) error {
	p, ok := s.products[id]
	if !ok || p.DeletedAt != nil {
		return repository.ErrNotFound
	}
	now := time.Now().UTC()
	p.DeletedAt = &now
	return nil
}

func (s *memStore) Restore(_ context.Context, id string) error {
	p, ok := s.products[id]
	if !ok || p.DeletedAt == nil {
		return repository.ErrNotFound
	}
	p.DeletedAt = nil
	return nil
}

func (s *memStore) Seed(_ context.Context, _ []entity.Product) error { return nil }

// productRepoAdapter maps the repository.ProductRepository method names onto
// memStore (FindByID/FindAll collide with the order read methods).
type productRepoAdapter struct{ *memStore }

func (a productRepoAdapter) FindByID(ctx context.Context, id string) (*entity.Product, error) {
	return a.FindProduct(ctx, id)
}

func (a productRepoAdapter) FindAll(ctx context.Context, f repository.ProductFilter) ([]entity.Product, error) {
	return a.FindAllProducts(ctx, f)
}

type noopCategoryRepo struct{}

func (noopCategoryRepo) Create(context.Context, *entity.Category) error { return nil }
func (noopCategoryRepo) FindByID(context.Context, string) (*entity.Category, error) {
	return nil, repository.ErrNotFound
}
func (noopCategoryRepo) FindAll(context.Context, bool) ([]entity.Category, error) {
	return nil, nil
}
func (noopCategoryRepo) Update(context.Context, *entity.Category) error { return nil }
func (noopCategoryRepo) SoftDelete(context.Context, string) error       { return repository.ErrNotFound }
func (noopCategoryRepo) Restore(context.Context, string) error          { return repository.ErrNotFound }

func newTestServer(store *memStore) http.Handler {
	orderSvc := service.NewOrderService(
		service.NewInventoryValidator(store),
		service.NewOrderExecutor(store),
		store,
		nil,
	)
	catalogSvc := service.NewCatalogService(productRepoAdapter{store}, noopCategoryRepo{}, nil)
	return NewRouter(NewHandler(orderSvc, catalogSvc))
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func testProduct(id, name, priceStr string, stock int) entity.Product {
	return entity.Product{
		ID:        id,
		Name:      name,
		Price:     decimal.RequireFromString(priceStr),
		Stock:     stock,
		CreatedAt: time.Now().UTC(),
	}
}

func TestCreateOrderHandler_Created(t *testing.T) {
	h := newTestServer(newMemStore(testProduct("p1", "Lamp", "10.00", 5)))

	rec := doJSON(t, h, http.MethodPost, "/api/orders", entity.PlaceOrder{
		Customer: entity.Customer{Name: "Ana"},
		Lines:    []entity.OrderLine{{ProductID: "p1", Quantity: 2}},
	})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var order entity.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	assert.Equal(t, "order-1", order.ID)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("20.00")))
}

func TestCreateOrderHandler_EmptyOrderIsBadRequest(t *testing.T) {
	h := newTestServer(newMemStore())

	rec := doJSON(t, h, http.MethodPost, "/api/orders", entity.PlaceOrder{})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "empty_order", resp.Error)
}

func TestCreateOrderHandler_UnknownItemIsNotFound(t *testing.T) {
	h := newTestServer(newMemStore())

	rec := doJSON(t, h, http.MethodPost, "/api/orders", entity.PlaceOrder{
		Lines: []entity.OrderLine{{ProductID: "p99", Quantity: 1}},
	})

	require.Equal(t, http.StatusNotFound, rec.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "item_not_found", resp.Error)
}

func TestCreateOrderHandler_InsufficientStockIsConflict(t *testing.T) {
	h := newTestServer(newMemStore(testProduct("p1", "Lamp", "10.00", 5)))

	rec := doJSON(t, h, http.MethodPost, "/api/orders", entity.PlaceOrder{
		Lines: []entity.OrderLine{{ProductID: "p1", Quantity: 10}},
	})

	require.Equal(t, http.StatusConflict, rec.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "insufficient_stock", resp.Error)
}

func TestCreateOrderHandler_ExecutionFailureIsInternalError(t *testing.T) {
	store := newMemStore(testProduct("p1", "Lamp", "10.00", 5))
	store.debitErr = context.DeadlineExceeded
	h := newTestServer(store)

	rec := doJSON(t, h, http.MethodPost, "/api/orders", entity.PlaceOrder{
		Lines: []entity.OrderLine{{ProductID: "p1", Quantity: 1}},
	})

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "execution_failed", resp.Error)
}

func TestCreateOrderHandler_InvalidLineIsBadRequest(t *testing.T) {
	h := newTestServer(newMemStore(testProduct("p1", "Lamp", "10.00", 5)))

	rec := doJSON(t, h, http.MethodPost, "/api/orders", entity.PlaceOrder{
		Lines: []entity.OrderLine{{ProductID: "p1", Quantity: 0}},
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetOrderHandler(t *testing.T) {
	store := newMemStore(testProduct("p1", "Lamp", "10.00", 5))
	h := newTestServer(store)

	rec := doJSON(t, h, http.MethodPost, "/api/orders", entity.PlaceOrder{
		Lines: []entity.OrderLine{{ProductID: "p1", Quantity: 1}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/orders/order-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/orders/missing", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProductHandlers_CRUD(t *testing.T) {
	store := newMemStore()
	h := newTestServer(store)

	rec := doJSON(t, h, http.MethodPost, "/api/products", map[string]any{
		"name": "Lamp", "price": "89.99", "stock": 10,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created entity.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)

	rec = doJSON(t, h, http.MethodGet, "/api/products/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodDelete, "/api/products/"+created.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/products/"+created.ID+"/restore", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/products", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []entity.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Len(t, listed, 1)
}

func TestProductHandlers_InvalidPayload(t *testing.T) {
	h := newTestServer(newMemStore())

	rec := doJSON(t, h, http.MethodPost, "/api/products", map[string]any{
		"name": "", "price": "10.00",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
