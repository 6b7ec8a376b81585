package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/minhvu/catalog-backend/internal/cache"
	"github.com/minhvu/catalog-backend/internal/entity"
	"github.com/minhvu/catalog-backend/internal/repository"
)

const productListTTL = 30 * time.Second

// CatalogService manages products and categories: ordinary CRUD with
// soft-delete semantics. Product listings for the default filter are served
// through an optional cache; any catalog write invalidates it.
type CatalogService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	cache      cache.Cache // nil-safe: caching skipped if nil
}

func NewCatalogService(
	products repository.ProductRepository,
	categories repository.CategoryRepository,
	c cache.Cache,
) *CatalogService {
	return &CatalogService{
		products:   products,
		categories: categories,
		cache:      c,
	}
}

// --- Products ---

func (s *CatalogService) CreateProduct(ctx context.Context, p *entity.Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if err := s.products.Create(ctx, p); err != nil {
		return err
	}
	s.invalidateProducts(ctx)
	return nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (*entity.Product, error) {
	return s.products.FindByID(ctx, id)
}

// ListProducts returns products matching the filter. Only the default
// filter hits the cache; filtered listings always go to the store.
func (s *CatalogService) ListProducts(ctx context.Context, f repository.ProductFilter) ([]entity.Product, error) {
	cacheable := s.cache != nil && f == (repository.ProductFilter{})

	if cacheable {
		if raw, err := s.cache.Get(ctx, s.cache.GenerateKey("products", "all")); err != nil {
			slog.Error("Product cache read failed", "err", err)
		} else if raw != "" {
			var products []entity.Product
			if err := json.Unmarshal([]byte(raw), &products); err == nil {
				return products, nil
			}
		}
	}

	products, err := s.products.FindAll(ctx, f)
	if err != nil {
		return nil, err
	}

	if cacheable {
		if raw, err := json.Marshal(products); err == nil {
			if err := s.cache.Set(ctx, s.cache.GenerateKey("products", "all"), string(raw), productListTTL); err != nil {
				slog.Error("Product cache write failed", "err", err)
			}
		}
	}
	return products, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, p *entity.Product) error {
	if err := s.products.Update(ctx, p); err != nil {
		return err
	}
	s.invalidateProducts(ctx)
	return nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.products.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.invalidateProducts(ctx)
	return nil
}

func (s *CatalogService) RestoreProduct(ctx context.Context, id string) error {
	if err := s.products.Restore(ctx, id); err != nil {
		return err
	}
	s.invalidateProducts(ctx)
	return nil
}

func (s *CatalogService) invalidateProducts(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, s.cache.GenerateKey("products", "all")); err != nil {
		slog.Error("Product cache invalidation failed", "err", err)
	}
}

// --- Categories ---

func (s *CatalogService) CreateCategory(ctx context.Context, c *entity.Category) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	return s.categories.Create(ctx, c)
}

func (s *CatalogService) GetCategory(ctx context.Context, id string) (*entity.Category, error) {
	return s.categories.FindByID(ctx, id)
}

func (s *CatalogService) ListCategories(ctx context.Context, includeDeleted bool) ([]entity.Category, error) {
	return s.categories.FindAll(ctx, includeDeleted)
}

func (s *CatalogService) UpdateCategory(ctx context.Context, c *entity.Category) error {
	return s.categories.Update(ctx, c)
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id string) error {
	return s.categories.SoftDelete(ctx, id)
}

func (s *CatalogService) RestoreCategory(ctx context.Context, id string) error {
	return s.categories.Restore(ctx, id)
}
