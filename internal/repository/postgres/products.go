package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/f-lab-edu/commerce-core/internal/errs"
	"github.com/f-lab-edu/commerce-core/internal/repository"
)

// Products реализует repository.ProductRepository поверх PostgreSQL
// Цена хранится как NUMERIC и гоняется через текст, чтобы не терять точность
type Products struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewProducts создаёт новый PostgreSQL репозиторий товаров
func NewProducts(pool *pgxpool.Pool, logger *zap.Logger) *Products {
	return &Products{pool: pool, logger: logger}
}

// Create сохраняет новый товар
func (r *Products) Create(ctx context.Context, product repository.Product) error {
	return withRetry(ctx, r.logger, "products.create", func() error {
		_, err := runner(ctx, r.pool).Exec(ctx,
			`INSERT INTO products (id, name, description, price, created_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			product.ID, product.Name, product.Description, product.Price.String(), product.CreatedAt)
		if isUniqueViolation(err, "name") {
			return &errs.DuplicateProductNameError{Name: product.Name}
		}
		return err
	})
}

// GetByID получает товар по ID
func (r *Products) GetByID(ctx context.Context, id string) (repository.Product, error) {
	var product repository.Product
	err := withRetry(ctx, r.logger, "products.get_by_id", func() error {
		row := runner(ctx, r.pool).QueryRow(ctx,
			`SELECT id, name, description, price::text, created_at
			 FROM products
			 WHERE id = $1`, id)
		p, err := scanProduct(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return &errs.NotFoundError{Entity: errs.EntityProduct, ID: id}
			}
			return err
		}
		product = p
		return nil
	})
	if err != nil {
		return repository.Product{}, err
	}
	return product, nil
}

// GetByIDs получает товары по списку ID одним запросом
// Отсутствующие ID просто не попадают в результат
func (r *Products) GetByIDs(ctx context.Context, ids []string) ([]repository.Product, error) {
	var result []repository.Product
	err := withRetry(ctx, r.logger, "products.get_by_ids", func() error {
		rows, err := runner(ctx, r.pool).Query(ctx,
			`SELECT id, name, description, price::text, created_at
			 FROM products
			 WHERE id = ANY($1)`, ids)
		if err != nil {
			return err
		}
		defer rows.Close()

		result = make([]repository.Product, 0, len(ids))
		for rows.Next() {
			p, err := scanProduct(rows)
			if err != nil {
				return err
			}
			result = append(result, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// List возвращает страницу товаров (нумерация страниц с нуля)
func (r *Products) List(ctx context.Context, page, size int) ([]repository.Product, error) {
	var result []repository.Product
	err := withRetry(ctx, r.logger, "products.list", func() error {
		rows, err := runner(ctx, r.pool).Query(ctx,
			`SELECT id, name, description, price::text, created_at
			 FROM products
			 ORDER BY created_at, id
			 LIMIT $1 OFFSET $2`, size, page*size)
		if err != nil {
			return err
		}
		defer rows.Close()

		result = make([]repository.Product, 0, size)
		for rows.Next() {
			p, err := scanProduct(rows)
			if err != nil {
				return err
			}
			result = append(result, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Update обновляет товар
func (r *Products) Update(ctx context.Context, product repository.Product) error {
	return withRetry(ctx, r.logger, "products.update", func() error {
		tag, err := runner(ctx, r.pool).Exec(ctx,
			`UPDATE products
			 SET name = $1, description = $2, price = $3
			 WHERE id = $4`,
			product.Name, product.Description, product.Price.String(), product.ID)
		if isUniqueViolation(err, "name") {
			return &errs.DuplicateProductNameError{Name: product.Name}
		}
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return &errs.NotFoundError{Entity: errs.EntityProduct, ID: product.ID}
		}
		return nil
	})
}

// Delete удаляет товар
func (r *Products) Delete(ctx context.Context, id string) error {
	return withRetry(ctx, r.logger, "products.delete", func() error {
		tag, err := runner(ctx, r.pool).Exec(ctx,
			`DELETE FROM products WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return &errs.NotFoundError{Entity: errs.EntityProduct, ID: id}
		}
		return nil
	})
}

func scanProduct(row pgx.Row) (repository.Product, error) {
	var (
		p     repository.Product
		price string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &price, &p.CreatedAt); err != nil {
		return repository.Product{}, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return repository.Product{}, err
	}
	p.Price = d
	return p, nil
}
