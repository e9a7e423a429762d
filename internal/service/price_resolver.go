package service

import (
	"context"
	"errors"

	"github.com/GTDGit/costchecker/internal/models"
	"github.com/GTDGit/costchecker/internal/utils"
)

// PriceResolution is the price selected for one product. Exactly one of
// Price and Prices is meaningful: Prices is the full matrix returned when no
// tier was stated. Price may be nil when a tier was stated but has no row.
type PriceResolution struct {
	Tier      models.Tier
	ColorType models.ColorType
	Price     *models.PricingTier
	Prices    []models.PricingTier
}

// PriceResolver picks a product's price record for a tier and color.
type PriceResolver struct {
	catalog Catalog
}

// NewPriceResolver creates a new PriceResolver.
func NewPriceResolver(catalog Catalog) *PriceResolver {
	return &PriceResolver{catalog: catalog}
}

// Resolve tries the stated color, then the opposite one. With no stated
// color both canonical colors are tried, standard first. With no tier the
// latest row of every (tier, color) is returned instead.
func (r *PriceResolver) Resolve(ctx context.Context, product *models.Product, tier models.Tier, color models.ColorType) (PriceResolution, error) {
	res := PriceResolution{Tier: tier, ColorType: color}

	if !tier.IsSet() {
		rows, err := r.catalog.ListLatestPrices(ctx, product.ID)
		if err != nil {
			return res, err
		}
		res.Prices = rows
		return res, nil
	}

	for _, c := range colorsToTry(color) {
		row, err := r.catalog.GetLatestPrice(ctx, product.ID, tier, c)
		if errors.Is(err, utils.ErrPriceNotFound) {
			continue
		}
		if err != nil {
			return res, err
		}
		res.Price = row
		res.ColorType = c
		return res, nil
	}
	return res, nil
}

func colorsToTry(color models.ColorType) []models.ColorType {
	if color.IsSet() {
		return []models.ColorType{color, color.Opposite()}
	}
	return []models.ColorType{models.ColorStandard, models.ColorCustom}
}
