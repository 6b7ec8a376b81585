package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/minhvu/catalog-backend/internal/entity"
	"github.com/minhvu/catalog-backend/internal/repository"
	"github.com/minhvu/catalog-backend/internal/service"
)

// Handler handles HTTP requests for the application.
type Handler struct {
	orders  *service.OrderService
	catalog *service.CatalogService
}

func NewHandler(orders *service.OrderService, catalog *service.CatalogService) *Handler {
	return &Handler{
		orders:  orders,
		catalog: catalog,
	}
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}

// writeOrderError maps the closed order error set onto HTTP statuses:
// empty order 400, unknown item 404, insufficient stock 409, execution
// failure (rolled back) 500.
func writeOrderError(w http.ResponseWriter, err error) {
	var (
		notFound     *service.ItemNotFoundError
		insufficient *service.InsufficientStockError
		execFailed   *service.ExecutionError
	)
	switch {
	case errors.Is(err, service.ErrEmptyOrder):
		writeError(w, http.StatusBadRequest, "empty_order", err.Error())
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, "item_not_found", err.Error())
	case errors.As(err, &insufficient):
		writeError(w, http.StatusConflict, "insufficient_stock", err.Error())
	case errors.As(err, &execFailed):
		slog.Error("Order execution failed", "err", err)
		writeError(w, http.StatusInternalServerError, "execution_failed", "failed to place order")
	default:
		slog.Error("Failed to place order", "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to place order")
	}
}

// --- Orders ---

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var cmd entity.PlaceOrder
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	for _, line := range cmd.Lines {
		if line.ProductID == "" || line.Quantity <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_line", "product_id and a positive quantity are required")
			return
		}
	}

	order, err := h.orders.CreateOrder(r.Context(), &cmd)
	if err != nil {
		writeOrderError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, order)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "order_not_found", "")
		return
	}
	if err != nil {
		slog.Error("Failed to get order", "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	f := repository.OrderFilter{
		Status: r.URL.Query().Get("status"),
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
	}

	orders, err := h.orders.ListOrders(r.Context(), f)
	if err != nil {
		slog.Error("Failed to list orders", "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}
	if orders == nil {
		orders = []entity.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

// --- Products ---

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := repository.ProductFilter{
		CategoryID:     q.Get("category_id"),
		Search:         q.Get("search"),
		IncludeDeleted: q.Get("include_deleted") == "true",
		SortBy:         q.Get("sort_by"),
		SortDesc:       q.Get("sort_dir") == "desc",
		Limit:          queryInt(r, "limit"),
		Offset:         queryInt(r, "offset"),
	}

	products, err := h.catalog.ListProducts(r.Context(), f)
	if err != nil {
		slog.Error("Failed to list products", "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}
	if products == nil {
		products = []entity.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var p entity.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if p.Name == "" || p.Price.IsNegative() || p.Stock < 0 {
		writeError(w, http.StatusBadRequest, "invalid_product", "name is required; price and stock must be non-negative")
		return
	}

	if err := h.catalog.CreateProduct(r.Context(), &p); err != nil {
		slog.Error("Failed to create product", "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "product_not_found", "")
		return
	}
	if err != nil {
		slog.Error("Failed to get product", "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var p entity.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	p.ID = chi.URLParam(r, "id")
	if p.Price.IsNegative() || p.Stock < 0 {
		writeError(w, http.StatusBadRequest, "invalid_product", "price and stock must be non-negative")
		return
	}

	err := h.catalog.UpdateProduct(r.Context(), &p)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "product_not_found", "")
		return
	}
	if err != nil {
		slog.Error("Failed to update product", "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	err := h.catalog.DeleteProduct(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "product_not_found", "")
		return
	}
	if err != nil {
		slog.Error("Failed to delete product", "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RestoreProduct(w http.ResponseWriter, r *http.Request) {
	err := h.catalog.RestoreProduct(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "product_not_found", "")
		return
	}
	if err != nil {
		slog.Error("Failed to restore product", "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Categories ---

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context(), r.URL.Query().Get("include_deleted") == "true")
	if err != nil {
		slog.Error("Failed to list categories", "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}
	if categories == nil {
		categories = []entity.Category{}
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var c entity.Category
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if c.Name == "" {
		writeError(w, http.StatusBadRequest, "invalid_category", "name is required")
		return
	}

	if err := h.catalog.CreateCategory(r.Context(), &c); err != nil {
		slog.Error("Failed to create category", "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	c, err := h.catalog.GetCategory(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "category_not_found", "")
		return
	}
	if err != nil {
		slog.Error("Failed to get category", "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var c entity.Category
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	c.ID = chi.URLParam(r, "id")

	err := h.catalog.UpdateCategory(r.Context(), &c)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "category_not_found", "")
		return
	}
	if err != nil {
		slog.Error("Failed to update category", "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	err := h.catalog.DeleteCategory(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "category_not_found", "")
		return
	}
	if err != nil {
		slog.Error("Failed to delete category", "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RestoreCategory(w http.ResponseWriter, r *http.Request) {
	err := h.catalog.RestoreCategory(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "category_not_found", "")
		return
	}
	if err != nil {
		slog.Error("Failed to restore category", "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}
