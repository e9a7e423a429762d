package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/GTDGit/costchecker/internal/models"
	"github.com/GTDGit/costchecker/internal/pricing"
	"github.com/GTDGit/costchecker/internal/utils"
)

const productColumns = `product_id, product_code, base_code, product_name_cn, category, subcategory,
        COALESCE(material_type, '') AS material_type, base_cost, status, screenshot_url, created_at, updated_at`

const priceColumns = `pricing_id, product_id, tier, color_type, price, effective_date`

// CatalogRepository reads products and prices from Postgres.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// GetProductByCode returns a single product by product_code.
func (r *CatalogRepository) GetProductByCode(ctx context.Context, code string) (*models.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products WHERE product_code = $1 LIMIT 1`
	stmt, err := r.db.PreparexContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	var p models.Product
	if err := stmt.GetContext(ctx, &p, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ListProductsByBaseCode returns every variant sharing base.
func (r *CatalogRepository) ListProductsByBaseCode(ctx context.Context, base string) ([]models.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products WHERE base_code = $1 ORDER BY product_code`
	stmt, err := r.db.PreparexContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	var products []models.Product
	if err := stmt.SelectContext(ctx, &products, base); err != nil {
		return nil, err
	}
	return products, nil
}

// ListProductCodes returns every product code.
func (r *CatalogRepository) ListProductCodes(ctx context.Context) ([]string, error) {
	var codes []string
	if err := r.db.SelectContext(ctx, &codes, `SELECT product_code FROM products ORDER BY product_code`); err != nil {
		return nil, err
	}
	return codes, nil
}

// ListProducts returns all products. An unset material disables the filter.
func (r *CatalogRepository) ListProducts(ctx context.Context, material models.Material) ([]models.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products
        WHERE ($1 = '' OR material_type = $1)
        ORDER BY product_code`
	var products []models.Product
	if err := r.db.SelectContext(ctx, &products, q, string(material)); err != nil {
		return nil, err
	}
	return products, nil
}

// GetLatestPrice returns the latest price row for (product, tier, color).
func (r *CatalogRepository) GetLatestPrice(ctx context.Context, productID int, tier models.Tier, color models.ColorType) (*models.PricingTier, error) {
	q := `SELECT ` + priceColumns + ` FROM latest_pricing
        WHERE product_id = $1 AND tier = $2 AND color_type = $3`
	stmt, err := r.db.PreparexContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	var row models.PricingTier
	if err := stmt.GetContext(ctx, &row, productID, string(tier), string(color)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrPriceNotFound
		}
		return nil, err
	}
	return &row, nil
}

// ListLatestPrices returns the latest row per (tier, color) for a product.
func (r *CatalogRepository) ListLatestPrices(ctx context.Context, productID int) ([]models.PricingTier, error) {
	q := `SELECT ` + priceColumns + ` FROM latest_pricing WHERE product_id = $1`
	var rows []models.PricingTier
	if err := r.db.SelectContext(ctx, &rows, q, productID); err != nil {
		return nil, err
	}
	// Collation order of the labels differs between databases; sort here.
	pricing.SortByTierColor(rows)
	return rows, nil
}

// PickPrice evaluates pick_price() for one product.
func (r *CatalogRepository) PickPrice(ctx context.Context, productID int, tier models.Tier, color models.ColorType) (decimal.Decimal, error) {
	var price decimal.NullDecimal
	if err := r.db.GetContext(ctx, &price, `SELECT pick_price($1, $2, $3)`, productID, string(tier), string(color)); err != nil {
		return decimal.Zero, err
	}
	if !price.Valid {
		return decimal.Zero, utils.ErrPriceNotFound
	}
	return price.Decimal, nil
}

// ScanPrices runs a ranked/filtered read over the pick_price() of every product.
func (r *CatalogRepository) ScanPrices(ctx context.Context, scan models.WideScan) ([]models.WideRow, error) {
	args := []interface{}{string(scan.Tier), string(scan.Color)}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	deltaExpr := "NULL::numeric"
	var where []string
	where = append(where, "x.price IS NOT NULL")
	if scan.Category != "" {
		where = append(where, "p.category = "+arg(scan.Category))
	}
	if scan.PositiveOnly {
		where = append(where, "x.price > 0")
	}
	switch scan.Comparator {
	case models.CompareGT, models.CompareLT:
		bound := arg(scan.Bound)
		deltaExpr = "(x.price - " + bound + "::numeric)"
		where = append(where, fmt.Sprintf("x.price %s %s", scan.Comparator, bound))
	case models.CompareBetween:
		where = append(where, fmt.Sprintf("x.price BETWEEN %s AND %s", arg(scan.Min), arg(scan.Max)))
	}

	orderBy := "x.price ASC"
	switch scan.Order {
	case models.OrderPriceDesc:
		orderBy = "x.price DESC"
	case models.OrderDeltaAsc:
		orderBy = "delta ASC"
	}

	q := fmt.Sprintf(`
        SELECT p.product_code, p.product_name_cn, p.category, COALESCE(p.material_type, '') AS material_type,
               p.screenshot_url, x.price, %s AS delta
        FROM products p
        CROSS JOIN LATERAL (SELECT pick_price(p.product_id, $1, $2) AS price) AS x
        WHERE %s
        ORDER BY %s, p.product_code`, deltaExpr, strings.Join(where, " AND "), orderBy)
	if scan.Limit > 0 {
		q += " LIMIT " + arg(scan.Limit)
	}

	var rows []models.WideRow
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Tier = scan.Tier
		rows[i].ColorType = scan.Color
	}
	return rows, nil
}

// SeedEntry is one product with its price rows, keyed by product code.
type SeedEntry struct {
	Product models.Product
	Prices  []models.PricingTier
}

// Seed upserts products and their prices in one transaction and returns the
// number of price rows written.
func (r *CatalogRepository) Seed(ctx context.Context, entries []SeedEntry) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	const upsertProduct = `
        INSERT INTO products (product_code, base_code, product_name_cn, category, subcategory, material_type, base_cost, status, screenshot_url)
        VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9)
        ON CONFLICT (product_code) DO UPDATE SET
            base_code = EXCLUDED.base_code,
            product_name_cn = EXCLUDED.product_name_cn,
            category = EXCLUDED.category,
            subcategory = EXCLUDED.subcategory,
            material_type = EXCLUDED.material_type,
            base_cost = EXCLUDED.base_cost,
            status = EXCLUDED.status,
            screenshot_url = EXCLUDED.screenshot_url,
            updated_at = NOW()
        RETURNING product_id`

	const upsertPrice = `
        INSERT INTO pricing_tiers (product_id, tier, color_type, price, effective_date)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (product_id, tier, color_type, effective_date) DO UPDATE SET
            price = EXCLUDED.price`

	written := 0
	for _, e := range entries {
		p := e.Product
		var id int
		if err := tx.QueryRowxContext(ctx, upsertProduct,
			p.ProductCode,
			p.BaseCode,
			p.NameCN,
			p.Category,
			p.Subcategory,
			string(p.MaterialType),
			p.BaseCost,
			p.Status,
			p.ScreenshotURL,
		).Scan(&id); err != nil {
			return 0, fmt.Errorf("upsert product %s: %w", p.ProductCode, err)
		}
		for _, pt := range e.Prices {
			if _, err := tx.ExecContext(ctx, upsertPrice, id, string(pt.Tier), string(pt.ColorType), pt.Price, pt.EffectiveDate); err != nil {
				return 0, fmt.Errorf("upsert price %s %s %s: %w", p.ProductCode, pt.Tier, pt.ColorType, err)
			}
			written++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return written, nil
}
