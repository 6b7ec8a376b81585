package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/minhvu/catalog-backend/internal/entity"
	"github.com/minhvu/catalog-backend/internal/repository"
)

type categoryRepository struct {
	db *sql.DB
}

// NewCategoryRepository creates a CategoryRepository backed by the given database.
func NewCategoryRepository(db *sql.DB) repository.CategoryRepository {
	return &categoryRepository{db: db}
}

func scanCategory(row interface{ Scan(...any) error }) (*entity.Category, error) {
	var c entity.Category
	var deletedAt sql.NullTime
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &deletedAt); err != nil {
		return nil, err
	}
	if deletedAt.Valid {
		c.DeletedAt = &deletedAt.Time
	}
	return &c, nil
}

func (r *categoryRepository) Create(ctx context.Context, c *entity.Category) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO categories (id, name, description, created_at) VALUES ($1, $2, $3, $4)",
		c.ID, c.Name, c.Description, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert category: %w", err)
	}
	return nil
}

func (r *categoryRepository) FindByID(ctx context.Context, id string) (*entity.Category, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, name, description, created_at, deleted_at FROM categories WHERE id = $1", id)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan category: %w", err)
	}
	return c, nil
}

func (r *categoryRepository) FindAll(ctx context.Context, includeDeleted bool) ([]entity.Category, error) {
	query := "SELECT id, name, description, created_at, deleted_at FROM categories"
	if !includeDeleted {
		query += " WHERE deleted_at IS NULL"
	}
	query += " ORDER BY name"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []entity.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category rows: %w", err)
	}
	return categories, nil
}

func (r *categoryRepository) Update(ctx context.Context, c *entity.Category) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE categories SET name = $1, description = $2 WHERE id = $3 AND deleted_at IS NULL",
		c.Name, c.Description, c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	return requireRow(res)
}

func (r *categoryRepository) SoftDelete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE categories SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL",
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return requireRow(res)
}

func (r *categoryRepository) Restore(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE categories SET deleted_at = NULL WHERE id = $1 AND deleted_at IS NOT NULL",
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to restore category: %w", err)
	}
	return requireRow(res)
}
