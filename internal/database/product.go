package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/duartefn/worten-price-scraper/internal/models"
)

const createProductsTable = `
	CREATE TABLE IF NOT EXISTS products (
		original_id   TEXT PRIMARY KEY,
		ean           TEXT NOT NULL DEFAULT '',
		original_name TEXT NOT NULL,
		worten_name   TEXT NOT NULL DEFAULT '',
		worten_url    TEXT NOT NULL DEFAULT '',
		lowest_price  NUMERIC(12,2),
		seller_name   TEXT NOT NULL DEFAULT '',
		is_available  BOOLEAN NOT NULL DEFAULT FALSE,
		last_scraped  TIMESTAMPTZ,
		scrape_error  TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`

// Migrate creates the products table when it does not exist yet.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.Exec(ctx, createProductsTable); err != nil {
		return fmt.Errorf("failed to create products table: %w", err)
	}
	return nil
}

const productColumns = `original_id, ean, original_name, worten_name, worten_url,
	lowest_price, seller_name, is_available, last_scraped, scrape_error,
	created_at, updated_at`

const upsertImportedSQL = `
	INSERT INTO products (original_id, ean, original_name)
	VALUES ($1, $2, $3)
	ON CONFLICT (original_id) DO UPDATE SET
		ean = EXCLUDED.ean,
		original_name = EXCLUDED.original_name,
		updated_at = CURRENT_TIMESTAMP
	RETURNING created_at, updated_at`

// UpsertImported inserts a spreadsheet row or refreshes its imported fields.
// Scrape findings on an existing row are left alone so a re-import never
// wipes prices.
func (db *DB) UpsertImported(ctx context.Context, p *models.Product) error {
	err := db.QueryRow(ctx, upsertImportedSQL,
		p.OriginalID, p.EAN, p.OriginalName,
	).Scan(&p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert product: %w", err)
	}

	return nil
}

// ImportProducts upserts a whole spreadsheet batch in one transaction, so a
// bad row midway through a file never leaves a half-imported catalogue. It
// returns the number of rows written.
func (db *DB) ImportProducts(ctx context.Context, products []*models.Product) (int, error) {
	if len(products) == 0 {
		return 0, nil
	}

	err := db.Transaction(ctx, func(tx pgx.Tx) error {
		for _, p := range products {
			err := tx.QueryRow(ctx, upsertImportedSQL,
				p.OriginalID, p.EAN, p.OriginalName,
			).Scan(&p.CreatedAt, &p.UpdatedAt)
			if err != nil {
				return fmt.Errorf("failed to upsert product %s: %w", p.OriginalID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return len(products), nil
}

// ApplyScrapeResult writes one scrape outcome onto the product row and stamps
// last_scraped. A failed attempt clears the availability flag but keeps the
// previously found URL and price.
func (db *DB) ApplyScrapeResult(ctx context.Context, originalID string, result *models.ScrapeResult) error {
	if result == nil {
		return fmt.Errorf("nil scrape result for product %s", originalID)
	}

	if result.Error != "" {
		query := `
			UPDATE products SET
				is_available = FALSE,
				scrape_error = $2,
				last_scraped = $3,
				updated_at = CURRENT_TIMESTAMP
			WHERE original_id = $1`

		tag, err := db.Exec(ctx, query,
			originalID, models.TruncateError(result.Error), time.Now().UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to record scrape failure: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("product %s not found", originalID)
		}
		return nil
	}

	query := `
		UPDATE products SET
			worten_name = $2,
			worten_url = $3,
			lowest_price = $4,
			seller_name = $5,
			is_available = $6,
			scrape_error = '',
			last_scraped = $7,
			updated_at = CURRENT_TIMESTAMP
		WHERE original_id = $1`

	tag, err := db.Exec(ctx, query,
		originalID, result.Name, result.URL, result.Price,
		result.Seller, result.Available, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record scrape result: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %s not found", originalID)
	}

	return nil
}

// GetByOriginalID retrieves a single product; nil without error means no row.
func (db *DB) GetByOriginalID(ctx context.Context, originalID string) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE original_id = $1`

	p := &models.Product{}
	err := db.QueryRow(ctx, query, originalID).Scan(
		&p.OriginalID, &p.EAN, &p.OriginalName, &p.WortenName, &p.WortenURL,
		&p.LowestPrice, &p.SellerName, &p.IsAvailable, &p.LastScraped,
		&p.ScrapeError, &p.CreatedAt, &p.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return p, nil
}

// List returns every product in import order.
func (db *DB) List(ctx context.Context) ([]*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY created_at ASC, original_id ASC`

	rows, err := db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

// FilterByOriginalIDs returns the products matching the given IDs, in import
// order. Unknown IDs are silently skipped.
func (db *DB) FilterByOriginalIDs(ctx context.Context, ids []string) ([]*models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + productColumns + ` FROM products
		WHERE original_id = ANY($1)
		ORDER BY created_at ASC, original_id ASC`

	rows, err := db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query products by id: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

// Delete removes a product row; the bool reports whether it existed.
func (db *DB) Delete(ctx context.Context, originalID string) (bool, error) {
	tag, err := db.Exec(ctx, `DELETE FROM products WHERE original_id = $1`, originalID)
	if err != nil {
		return false, fmt.Errorf("failed to delete product: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Count returns the number of tracked products.
func (db *DB) Count(ctx context.Context) (int, error) {
	var count int
	if err := db.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

func scanProducts(rows pgx.Rows) ([]*models.Product, error) {
	var products []*models.Product
	for rows.Next() {
		p := &models.Product{}
		err := rows.Scan(
			&p.OriginalID, &p.EAN, &p.OriginalName, &p.WortenName, &p.WortenURL,
			&p.LowestPrice, &p.SellerName, &p.IsAvailable, &p.LastScraped,
			&p.ScrapeError, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read products: %w", err)
	}

	return products, nil
}
