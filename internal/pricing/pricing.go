// Package pricing holds the price-selection rules shared by every catalog
// backend. The Postgres pick_price() function in migrations mirrors Pick.
package pricing

import (
	"sort"

	"github.com/GTDGit/costchecker/internal/models"
)

// FallbackTierOrder is the order in which other tiers are tried, in the
// preferred color, when neither color exists for the preferred tier.
var FallbackTierOrder = []models.Tier{models.TierB, models.TierA, models.TierD}

type rowKey struct {
	tier  models.Tier
	color models.ColorType
}

// Latest keeps the most recent row per (tier, color). Ties on effective date
// are broken by the highest id. The result is sorted by tier then color.
func Latest(rows []models.PricingTier) []models.PricingTier {
	latest := make(map[rowKey]models.PricingTier, len(rows))
	for _, r := range rows {
		k := rowKey{r.Tier, r.ColorType}
		cur, ok := latest[k]
		if !ok || newer(r, cur) {
			latest[k] = r
		}
	}
	out := make([]models.PricingTier, 0, len(latest))
	for _, r := range latest {
		out = append(out, r)
	}
	SortByTierColor(out)
	return out
}

func newer(a, b models.PricingTier) bool {
	if a.EffectiveDate.Equal(b.EffectiveDate) {
		return a.ID > b.ID
	}
	return a.EffectiveDate.After(b.EffectiveDate)
}

// SortByTierColor orders rows by tier label then color label.
func SortByTierColor(rows []models.PricingTier) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Tier != rows[j].Tier {
			return rows[i].Tier < rows[j].Tier
		}
		return rows[i].ColorType < rows[j].ColorType
	})
}

// Find returns the latest row for exactly (tier, color).
func Find(rows []models.PricingTier, tier models.Tier, color models.ColorType) (models.PricingTier, bool) {
	var (
		best  models.PricingTier
		found bool
	)
	for _, r := range rows {
		if r.Tier != tier || r.ColorType != color {
			continue
		}
		if !found || newer(r, best) {
			best, found = r, true
		}
	}
	return best, found
}

// Pick selects the representative price for a product: the preferred tier
// and color, then the preferred tier in the opposite color, then the first
// tier of FallbackTierOrder available in the preferred color.
func Pick(rows []models.PricingTier, tier models.Tier, color models.ColorType) (models.PricingTier, bool) {
	if r, ok := Find(rows, tier, color); ok {
		return r, true
	}
	if r, ok := Find(rows, tier, color.Opposite()); ok {
		return r, true
	}
	for _, t := range FallbackTierOrder {
		if r, ok := Find(rows, t, color); ok {
			return r, true
		}
	}
	return models.PricingTier{}, false
}
