package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/GTDGit/costchecker/internal/models"
)

// Catalog is the read contract the resolution core needs from product storage.
type Catalog interface {
	// GetProductByCode returns the product with exactly this code or utils.ErrProductNotFound.
	GetProductByCode(ctx context.Context, code string) (*models.Product, error)
	// ListProductsByBaseCode returns every variant sharing base.
	ListProductsByBaseCode(ctx context.Context, base string) ([]models.Product, error)
	// ListProductCodes returns every product code, for fuzzy scans.
	ListProductCodes(ctx context.Context) ([]string, error)
	// ListProducts returns every product, optionally restricted to a material.
	ListProducts(ctx context.Context, material models.Material) ([]models.Product, error)
	// GetLatestPrice returns the latest row for (product, tier, color) or utils.ErrPriceNotFound.
	GetLatestPrice(ctx context.Context, productID int, tier models.Tier, color models.ColorType) (*models.PricingTier, error)
	// ListLatestPrices returns the latest row per (tier, color) sorted by tier then color.
	ListLatestPrices(ctx context.Context, productID int) ([]models.PricingTier, error)
	// PickPrice returns the representative price for a product or utils.ErrPriceNotFound.
	PickPrice(ctx context.Context, productID int, tier models.Tier, color models.ColorType) (decimal.Decimal, error)
	// ScanPrices runs a ranked/filtered read over representative prices.
	ScanPrices(ctx context.Context, scan models.WideScan) ([]models.WideRow, error)
}
