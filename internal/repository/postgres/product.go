package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/minhvu/catalog-backend/internal/entity"
	"github.com/minhvu/catalog-backend/internal/repository"
)

const productColumns = "id, name, description, price, image_url, category_id, stock, created_at, deleted_at"

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a ProductRepository backed by the given database.
func NewProductRepository(db *sql.DB) repository.ProductRepository {
	return &productRepository{db: db}
}

func scanProduct(row interface{ Scan(...any) error }) (*entity.Product, error) {
	var p entity.Product
	var deletedAt sql.NullTime
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.ImageURL, &p.CategoryID, &p.Stock, &p.CreatedAt, &deletedAt); err != nil {
		return nil, err
	}
	if deletedAt.Valid {
		p.DeletedAt = &deletedAt.Time
	}
	return &p, nil
}

func (r *productRepository) Create(ctx context.Context, p *entity.Product) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO products (id, name, description, price, image_url, category_id, stock, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)",
		p.ID, p.Name, p.Description, p.Price, p.ImageURL, p.CategoryID, p.Stock, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

func (r *productRepository) FindByID(ctx context.Context, id string) (*entity.Product, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE id = $1", id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}
	return p, nil
}

func (r *productRepository) ProductsByID(ctx context.Context, ids []string) (map[string]entity.Product, error) {
	return productsByID(ctx, r.db, ids)
}

// productsByID is shared with the order store so the same bulk read can run
// inside or outside a transaction.
func productsByID(ctx context.Context, q querier, ids []string) (map[string]entity.Product, error) {
	if len(ids) == 0 {
		return map[string]entity.Product{}, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := "SELECT " + productColumns + " FROM products WHERE deleted_at IS NULL AND id IN (" + strings.Join(placeholders, ", ") + ")"
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := make(map[string]entity.Product, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products[p.ID] = *p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product rows: %w", err)
	}
	return products, nil
}

// productSortColumns whitelists sortable columns so filter input never
// reaches the query as raw SQL.
var productSortColumns = map[string]string{
	"name":       "name",
	"price":      "price",
	"stock":      "stock",
	"created_at": "created_at",
}

func (r *productRepository) FindAll(ctx context.Context, f repository.ProductFilter) ([]entity.Product, error) {
	var (
		conds []string
		args  []any
	)
	if !f.IncludeDeleted {
		conds = append(conds, "deleted_at IS NULL")
	}
	if f.CategoryID != "" {
		args = append(args, f.CategoryID)
		conds = append(conds, fmt.Sprintf("category_id = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+strings.ToLower(f.Search)+"%")
		conds = append(conds, fmt.Sprintf("LOWER(name) LIKE $%d", len(args)))
	}

	query := "SELECT " + productColumns + " FROM products"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	sortCol, ok := productSortColumns[f.SortBy]
	if !ok {
		sortCol = "name"
	}
	query += " ORDER BY " + sortCol
	if f.SortDesc {
		query += " DESC"
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product rows: %w", err)
	}
	return products, nil
}

func (r *productRepository) Update(ctx context.Context, p *entity.Product) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE products SET name = $1, description = $2, price = $3, image_url = $4, category_id = $5, stock = $6 WHERE id = $7 AND deleted_at IS NULL",
		p.Name, p.Description, p.Price, p.ImageURL, p.CategoryID, p.Stock, p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	return requireRow(res)
}

func (r *productRepository) SoftDelete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE products SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL",
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return requireRow(res)
}

func (r *productRepository) Restore(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE products SET deleted_at = NULL WHERE id = $1 AND deleted_at IS NOT NULL",
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to restore product: %w", err)
	}
	return requireRow(res)
}

func (r *productRepository) Seed(ctx context.Context, products []entity.Product) error {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil // already seeded
	}

	for _, p := range products {
		if err := r.Create(ctx, &p); err != nil {
			return fmt.Errorf("failed to seed product %s: %w", p.ID, err)
		}
	}
	return nil
}

// requireRow translates "zero rows affected" into ErrNotFound for updates
// that target a single row by ID.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
