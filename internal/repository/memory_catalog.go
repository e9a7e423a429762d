package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/GTDGit/costchecker/internal/models"
	"github.com/GTDGit/costchecker/internal/pricing"
	"github.com/GTDGit/costchecker/internal/utils"
)

// MemoryCatalog is a process-local catalog used by the offline CLI and tests.
// It applies the same latest-price and pick rules as the Postgres catalog.
type MemoryCatalog struct {
	mu          sync.RWMutex
	products    []models.Product
	byCode      map[string]int
	prices      map[int][]models.PricingTier
	nextPriceID int
}

// NewMemoryCatalog creates an empty catalog.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		byCode: make(map[string]int),
		prices: make(map[int][]models.PricingTier),
	}
}

// AddProduct stores p and assigns its ID. BaseCode defaults to ProductCode.
func (c *MemoryCatalog) AddProduct(p models.Product) (models.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.byCode[p.ProductCode]; ok {
		return models.Product{}, fmt.Errorf("duplicate product code %s", p.ProductCode)
	}
	if p.BaseCode == "" {
		p.BaseCode = p.ProductCode
	}
	if p.Status == "" {
		p.Status = "active"
	}
	p.ID = len(c.products) + 1
	c.products = append(c.products, p)
	c.byCode[p.ProductCode] = len(c.products) - 1
	return p, nil
}

// AddPrice appends a versioned price row for the product with code.
func (c *MemoryCatalog) AddPrice(code string, tier models.Tier, color models.ColorType, price decimal.Decimal, effective time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx, ok := c.byCode[code]
	if !ok {
		return fmt.Errorf("add price for %s: %w", code, utils.ErrProductNotFound)
	}
	c.nextPriceID++
	pid := c.products[idx].ID
	c.prices[pid] = append(c.prices[pid], models.PricingTier{
		ID:            c.nextPriceID,
		ProductID:     pid,
		Tier:          tier,
		ColorType:     color,
		Price:         price,
		EffectiveDate: effective,
	})
	return nil
}

func (c *MemoryCatalog) GetProductByCode(_ context.Context, code string) (*models.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	idx, ok := c.byCode[code]
	if !ok {
		return nil, utils.ErrProductNotFound
	}
	p := c.products[idx]
	return &p, nil
}

func (c *MemoryCatalog) ListProductsByBaseCode(_ context.Context, base string) ([]models.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []models.Product
	for _, p := range c.products {
		if p.BaseCode == base {
			out = append(out, p)
		}
	}
	sortProducts(out)
	return out, nil
}

func (c *MemoryCatalog) ListProductCodes(_ context.Context) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	codes := make([]string, 0, len(c.products))
	for _, p := range c.products {
		codes = append(codes, p.ProductCode)
	}
	sort.Strings(codes)
	return codes, nil
}

func (c *MemoryCatalog) ListProducts(_ context.Context, material models.Material) ([]models.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []models.Product
	for _, p := range c.products {
		if material.IsSet() && p.MaterialType != material {
			continue
		}
		out = append(out, p)
	}
	sortProducts(out)
	return out, nil
}

func (c *MemoryCatalog) GetLatestPrice(_ context.Context, productID int, tier models.Tier, color models.ColorType) (*models.PricingTier, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	row, ok := pricing.Find(c.prices[productID], tier, color)
	if !ok {
		return nil, utils.ErrPriceNotFound
	}
	return &row, nil
}

func (c *MemoryCatalog) ListLatestPrices(_ context.Context, productID int) ([]models.PricingTier, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return pricing.Latest(c.prices[productID]), nil
}

func (c *MemoryCatalog) PickPrice(_ context.Context, productID int, tier models.Tier, color models.ColorType) (decimal.Decimal, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	row, ok := pricing.Pick(c.prices[productID], tier, color)
	if !ok {
		return decimal.Zero, utils.ErrPriceNotFound
	}
	return row.Price, nil
}

// ScanPrices evaluates the scan over every product's representative price.
func (c *MemoryCatalog) ScanPrices(_ context.Context, scan models.WideScan) ([]models.WideRow, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var rows []models.WideRow
	for _, p := range c.products {
		if scan.Category != "" && p.Category != scan.Category {
			continue
		}
		picked, ok := pricing.Pick(c.prices[p.ID], scan.Tier, scan.Color)
		if !ok || !scanAccepts(scan, picked.Price) {
			continue
		}
		row := models.WideRow{
			ProductCode:   p.ProductCode,
			NameCN:        p.NameCN,
			Category:      p.Category,
			Material:      p.MaterialType,
			ScreenshotURL: p.ScreenshotURL,
			Price:         picked.Price,
			Tier:          scan.Tier,
			ColorType:     scan.Color,
		}
		if scan.Comparator == models.CompareGT || scan.Comparator == models.CompareLT {
			d := picked.Price.Sub(scan.Bound)
			row.Delta = &d
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		var cmp int
		switch scan.Order {
		case models.OrderPriceDesc:
			cmp = b.Price.Cmp(a.Price)
		case models.OrderDeltaAsc:
			if a.Delta != nil && b.Delta != nil {
				cmp = a.Delta.Cmp(*b.Delta)
			}
		default:
			cmp = a.Price.Cmp(b.Price)
		}
		if cmp != 0 {
			return cmp < 0
		}
		return a.ProductCode < b.ProductCode
	})

	if scan.Limit > 0 && len(rows) > scan.Limit {
		rows = rows[:scan.Limit]
	}
	return rows, nil
}

func scanAccepts(scan models.WideScan, price decimal.Decimal) bool {
	if scan.PositiveOnly && !price.IsPositive() {
		return false
	}
	switch scan.Comparator {
	case models.CompareGT:
		return price.GreaterThan(scan.Bound)
	case models.CompareLT:
		return price.LessThan(scan.Bound)
	case models.CompareBetween:
		return price.GreaterThanOrEqual(scan.Min) && price.LessThanOrEqual(scan.Max)
	}
	return true
}

func sortProducts(products []models.Product) {
	sort.SliceStable(products, func(i, j int) bool {
		return products[i].ProductCode < products[j].ProductCode
	})
}
